package geometry

import (
	"math"
	"sort"

	"github.com/odrtools/odrlint/internal/odr"
)

// WorldPose is an inertial-frame position with the full orientation of the
// road surface at that point.
type WorldPose struct {
	X, Y, Z float64
	Heading float64
	Pitch   float64
	Roll    float64
}

// ActiveGeometry returns the plan-view segment covering s, picking the last
// segment whose start offset is not beyond s.
func ActiveGeometry(road *odr.Road, s float64) (odr.GeometrySegment, bool) {
	if len(road.PlanView) == 0 || s < 0 || s > road.Length {
		return odr.GeometrySegment{}, false
	}
	i := sort.Search(len(road.PlanView), func(i int) bool { return road.PlanView[i].S0 > s })
	if i == 0 {
		i = 1
	}
	return road.PlanView[i-1], true
}

// activeOffsetPoly returns the record active at s, or the zero polynomial
// when the list is empty or s precedes the first record.
func activeOffsetPoly(records []odr.OffsetPoly3, s float64) odr.OffsetPoly3 {
	i := sort.Search(len(records), func(i int) bool { return records[i].SOffset > s })
	if i == 0 {
		return odr.OffsetPoly3{}
	}
	return records[i-1]
}

// RefLinePose evaluates the reference line of a road at s.
func RefLinePose(road *odr.Road, s float64) (Pose, bool) {
	seg, ok := ActiveGeometry(road, s)
	if !ok {
		return Pose{}, false
	}
	// The last segment may end fractionally before the declared road length.
	if s > seg.S0+seg.Length {
		s = seg.S0 + seg.Length
	}
	p, err := Eval(seg, s)
	if err != nil {
		return Pose{}, false
	}
	return p, true
}

// Elevation returns the reference-line elevation at s.
func Elevation(road *odr.Road, s float64) float64 {
	rec := activeOffsetPoly(road.Elevations, s)
	return rec.Eval(s - rec.SOffset)
}

// Pitch returns the pitch angle at s, the negated grade angle of the
// elevation profile.
func Pitch(road *odr.Road, s float64) float64 {
	rec := activeOffsetPoly(road.Elevations, s)
	return -math.Atan(rec.Deriv().Eval(s - rec.SOffset))
}

// Roll returns the superelevation angle at s.
func Roll(road *odr.Road, s float64) float64 {
	rec := activeOffsetPoly(road.Superelevations, s)
	return rec.Eval(s - rec.SOffset)
}

// LaneOffsetAt returns the lateral offset of the lane reference line at s.
func LaneOffsetAt(road *odr.Road, s float64) float64 {
	rec := activeOffsetPoly(road.LaneOffsets, s)
	return rec.Eval(s - rec.SOffset)
}

// RoadToWorld maps road coordinates (s, t, h) to an inertial pose. The
// orientation matrix is composed yaw then pitch then roll, and the local
// (t, h) offset is rotated by the same matrix, so every caller applies the
// identical convention.
func RoadToWorld(road *odr.Road, s, t, h float64) (WorldPose, bool) {
	ref, ok := RefLinePose(road, s)
	if !ok {
		return WorldPose{}, false
	}
	yaw := ref.Hdg
	pitch := Pitch(road, s)
	roll := Roll(road, s)

	sy, cy := math.Sincos(yaw)
	sp, cp := math.Sincos(pitch)
	sr, cr := math.Sincos(roll)

	// Rz(yaw)·Ry(pitch)·Rx(roll) applied to the local vector (0, t, h).
	x := (cy*sp*sr-sy*cr)*t + (cy*sp*cr+sy*sr)*h
	y := (sy*sp*sr+cy*cr)*t + (sy*sp*cr-cy*sr)*h
	z := cp*sr*t + cp*cr*h

	return WorldPose{
		X:       ref.X + x,
		Y:       ref.Y + y,
		Z:       Elevation(road, s) + z,
		Heading: yaw,
		Pitch:   pitch,
		Roll:    roll,
	}, true
}

// EvalLaneWidth evaluates a lane's width at sOffset from its section start.
// The center lane has no width.
func EvalLaneWidth(lane *odr.Lane, sOffset float64) float64 {
	if lane == nil || lane.ID == 0 || len(lane.Widths) == 0 {
		return 0
	}
	rec := activeOffsetPoly(lane.Widths, sOffset)
	return rec.Eval(sOffset - rec.SOffset)
}

// EvalLaneBorder evaluates a lane's border t value at sOffset from its
// section start. Falls back to zero when no border records exist.
func EvalLaneBorder(lane *odr.Lane, sOffset float64) float64 {
	if lane == nil || len(lane.Borders) == 0 {
		return 0
	}
	rec := activeOffsetPoly(lane.Borders, sOffset)
	return rec.Eval(sOffset - rec.SOffset)
}

// OuterBorderT returns the t coordinate of a lane's outer border at road
// coordinate s, accumulating widths from the lane offset outward. Lane id 0
// yields the lane reference line itself.
func OuterBorderT(road *odr.Road, section *odr.LaneSection, laneID int, s float64) float64 {
	t := LaneOffsetAt(road, s)
	if laneID == 0 {
		return t
	}
	sOffset := s - section.S
	sign := 1.0
	if laneID < 0 {
		sign = -1.0
	}
	for _, l := range section.Side(laneID) {
		t += sign * EvalLaneWidth(l, sOffset)
		if l.ID == laneID {
			break
		}
	}
	return t
}

// LaneMiddleT returns the t coordinate of a lane's midline at s.
func LaneMiddleT(road *odr.Road, section *odr.LaneSection, laneID int, s float64) float64 {
	if laneID == 0 {
		return LaneOffsetAt(road, s)
	}
	outer := OuterBorderT(road, section, laneID, s)
	lane, ok := section.Lane(laneID)
	if !ok {
		return outer
	}
	sign := 1.0
	if laneID < 0 {
		sign = -1.0
	}
	return outer - sign*0.5*EvalLaneWidth(lane, s-section.S)
}

// LaneMiddlePoint returns the inertial position of the middle of a lane at s.
func LaneMiddlePoint(road *odr.Road, section *odr.LaneSection, laneID int, s float64) (WorldPose, bool) {
	return RoadToWorld(road, s, LaneMiddleT(road, section, laneID, s), 0)
}
