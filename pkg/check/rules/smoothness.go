package rules

import (
	"fmt"

	"github.com/odrtools/odrlint/internal/geometry"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// borderPoints returns the planar world positions of a lane's outer and
// inner borders at road coordinate s.
func borderPoints(road *odr.Road, section *odr.LaneSection, laneID int, s float64) (outer, inner geometry.WorldPose, ok bool) {
	sign := 1
	if laneID < 0 {
		sign = -1
	}
	tOuter := geometry.OuterBorderT(road, section, laneID, s)
	tInner := geometry.OuterBorderT(road, section, laneID-sign, s)
	outer, okOuter := geometry.RoadToWorld(road, s, tOuter, 0)
	inner, okInner := geometry.RoadToWorld(road, s, tInner, 0)
	return outer, inner, okOuter && okInner
}

// checkContactPointNoHorizontalGaps samples the border points of linked
// drivable lanes at shared boundaries and flags planar gaps beyond the
// tolerance: between consecutive lane sections of a road and across direct
// road-to-road links.
func checkContactPointNoHorizontalGaps(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	tol := ctx.Tol.HorizontalGap

	gapBetween := func(aOuter, aInner, bOuter, bInner geometry.WorldPose) float64 {
		outerGap := planarDistance(aOuter.X, aOuter.Y, bOuter.X, bOuter.Y)
		innerGap := planarDistance(aInner.X, aInner.Y, bInner.X, bInner.Y)
		if outerGap > innerGap {
			return outerGap
		}
		return innerGap
	}

	// A reciprocal road link describes one physical contact; remember which
	// lane pairs were already reported so the gap is raised once.
	type gapKey struct{ roadA, laneA, roadB, laneB int }
	seen := make(map[gapKey]bool)
	reported := func(roadA, laneA, roadB, laneB int) bool {
		key := gapKey{roadA, laneA, roadB, laneB}
		if roadB < roadA || (roadB == roadA && laneB < laneA) {
			key = gapKey{roadB, laneB, roadA, laneA}
		}
		if seen[key] {
			return true
		}
		seen[key] = true
		return false
	}

	for _, road := range ctx.Doc.Roads {
		for i := 1; i < len(road.Sections); i++ {
			prev, cur := road.Sections[i-1], road.Sections[i]
			boundary := cur.S
			for _, lane := range prev.Lanes() {
				if lane.ID == 0 || !drivableLaneTypes[lane.Type] {
					continue
				}
				for _, id := range lane.Successors {
					target, ok := cur.Lane(id)
					if !ok || target.ID == 0 || !drivableLaneTypes[target.Type] {
						continue
					}
					aOuter, aInner, okA := borderPoints(road, prev, lane.ID, boundary)
					bOuter, bInner, okB := borderPoints(road, cur, target.ID, boundary)
					if !okA || !okB {
						continue
					}
					if gap := gapBetween(aOuter, aInner, bOuter, bInner); gap > tol {
						issues = append(issues, check.Issue{
							Severity: check.SeverityError,
							Message: fmt.Sprintf(
								"Horizontal gap of %g meters between lane %d and its successor lane %d at the lane section boundary.",
								gap, lane.ID, target.ID),
							Location: laneLoc(road.ID, boundary, lane.ID),
						})
					}
				}
			}
		}

		if road.InJunction() {
			continue
		}
		for _, tag := range []odr.LinkageTag{odr.TagPredecessor, odr.TagSuccessor} {
			link := road.Link(tag)
			otherRoad, otherSection, ok := ctx.Topo.ContactSection(link)
			if !ok {
				continue
			}
			var section *odr.LaneSection
			var s float64
			if tag == odr.TagPredecessor {
				section, s = road.FirstSection(), 0
			} else {
				section, s = road.LastSection(), road.Length
			}
			if section == nil {
				continue
			}
			otherS := 0.0
			if link.ContactPoint == odr.ContactEnd {
				otherS = otherRoad.Length
			}
			for _, lane := range section.Lanes() {
				if lane.ID == 0 || !drivableLaneTypes[lane.Type] {
					continue
				}
				for _, id := range laneLinks(lane, tag) {
					target, found := otherSection.Lane(id)
					if !found || target.ID == 0 || !drivableLaneTypes[target.Type] {
						continue
					}
					if reported(road.ID, lane.ID, otherRoad.ID, target.ID) {
						continue
					}
					aOuter, aInner, okA := borderPoints(road, section, lane.ID, s)
					bOuter, bInner, okB := borderPoints(otherRoad, otherSection, target.ID, otherS)
					if !okA || !okB {
						continue
					}
					if gap := gapBetween(aOuter, aInner, bOuter, bInner); gap > tol {
						issues = append(issues, check.Issue{
							Severity: check.SeverityError,
							Message: fmt.Sprintf(
								"Horizontal gap of %g meters between lane %d of road %d and lane %d of road %d at the contact point.",
								gap, lane.ID, road.ID, target.ID, otherRoad.ID),
							Location: laneLoc(road.ID, s, lane.ID),
						})
					}
				}
			}
		}
	}

	// Junction contact points: each connection's lane links tie an incoming
	// lane to a connecting-road lane at the connecting road's contact point.
	for _, junction := range ctx.Doc.Junctions {
		for _, conn := range junction.Connections {
			inRoad, okIn := ctx.Doc.Road(conn.IncomingRoad)
			connRoad, okConn := ctx.Doc.Road(conn.ConnectingRoad)
			if !okIn || !okConn {
				continue
			}
			inSection, connSection, ok := ctx.Topo.ContactingSections(conn)
			if !ok {
				continue
			}
			inContact, ok := ctx.Topo.IncomingContact(conn.IncomingRoad, junction.ID)
			if !ok {
				continue
			}
			inS := 0.0
			if inContact == odr.ContactEnd {
				inS = inRoad.Length
			}
			connS := 0.0
			if conn.ContactPoint == odr.ContactEnd {
				connS = connRoad.Length
			}
			for _, ll := range conn.LaneLinks {
				fromLane, okFrom := inSection.Lane(ll.From)
				toLane, okTo := connSection.Lane(ll.To)
				if !okFrom || !okTo || fromLane.ID == 0 || toLane.ID == 0 {
					continue
				}
				if !drivableLaneTypes[fromLane.Type] || !drivableLaneTypes[toLane.Type] {
					continue
				}
				aOuter, aInner, okA := borderPoints(inRoad, inSection, fromLane.ID, inS)
				bOuter, bInner, okB := borderPoints(connRoad, connSection, toLane.ID, connS)
				if !okA || !okB {
					continue
				}
				if gap := gapBetween(aOuter, aInner, bOuter, bInner); gap > tol {
					issues = append(issues, check.Issue{
						Severity: check.SeverityError,
						Message: fmt.Sprintf(
							"Horizontal gap of %g meters between incoming lane %d of road %d and lane %d of connecting road %d in junction %d.",
							gap, fromLane.ID, inRoad.ID, toLane.ID, connRoad.ID, junction.ID),
						Location: laneLoc(inRoad.ID, inS, fromLane.ID),
					})
				}
			}
		}
	}
	return issues
}
