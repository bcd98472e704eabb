// Package odr holds the typed in-memory model of an OpenDRIVE document.
// The model is built once by the loader and treated as immutable for the
// duration of a check run; entities are stored in arenas and cross-reference
// each other by id, never by owning pointer.
package odr

import (
	"fmt"
	"sort"
)

// ContactPoint indicates which end of a road a linkage attaches to.
type ContactPoint string

const (
	ContactStart ContactPoint = "start"
	ContactEnd   ContactPoint = "end"
)

// LinkageTag distinguishes predecessor from successor references.
type LinkageTag string

const (
	TagPredecessor LinkageTag = "predecessor"
	TagSuccessor   LinkageTag = "successor"
)

// TrafficRule is the driving side of a road. RHT is the standard default.
type TrafficRule string

const (
	TrafficRHT TrafficRule = "RHT"
	TrafficLHT TrafficRule = "LHT"
)

// LaneDirection is the travel direction of a lane relative to its side of
// the road. Standard is the schema default.
type LaneDirection string

const (
	DirectionStandard LaneDirection = "standard"
	DirectionReversed LaneDirection = "reversed"
	DirectionBoth     LaneDirection = "both"
)

// PRange is the parameter range interpretation of a ParamPoly3 curve.
type PRange string

const (
	PRangeArcLength  PRange = "arcLength"
	PRangeNormalized PRange = "normalized"
)

// Poly3 is a cubic polynomial a + b·x + c·x² + d·x³.
type Poly3 struct {
	A, B, C, D float64
}

// Eval evaluates the polynomial at x.
func (p Poly3) Eval(x float64) float64 {
	return p.A + x*(p.B+x*(p.C+x*p.D))
}

// Deriv returns the first derivative as another Poly3 (degree 2).
func (p Poly3) Deriv() Poly3 {
	return Poly3{A: p.B, B: 2 * p.C, C: 3 * p.D}
}

// OffsetPoly3 is a cubic record valid from SOffset until the next record.
// The polynomial argument is (s - SOffset).
type OffsetPoly3 struct {
	Poly3
	SOffset float64
}

// Curve is the variant part of a geometry segment. It is a closed set:
// Line, Arc, Spiral, Poly3Curve, ParamPoly3. Evaluation sites type-switch
// over these and reject anything else, so adding a variant forces a review
// of every switch.
type Curve interface {
	isCurve()
}

// Line is a straight segment with constant heading.
type Line struct{}

// Arc has constant curvature (positive = left turn).
type Arc struct {
	Curvature float64
}

// Spiral is an Euler spiral: curvature varies linearly with arc length
// from CurvStart to CurvEnd.
type Spiral struct {
	CurvStart, CurvEnd float64
}

// Poly3Curve is a local-frame cubic v(u) with u = s - s0.
type Poly3Curve struct {
	V Poly3
}

// ParamPoly3 is a pair of independent cubics u(p), v(p) in a shared parameter.
type ParamPoly3 struct {
	U, V   Poly3
	PRange PRange
}

func (Line) isCurve()       {}
func (Arc) isCurve()        {}
func (Spiral) isCurve()     {}
func (Poly3Curve) isCurve() {}
func (ParamPoly3) isCurve() {}

// GeometrySegment is one record of a road's plan view. Segments are ordered
// by ascending S0 and are expected to cover [0, road length) contiguously;
// violations of that expectation are rule material, not load failures.
type GeometrySegment struct {
	S0, X0, Y0, Hdg0 float64
	Length           float64
	Curve            Curve
}

// AccessRecord is one lane access rule entry.
type AccessRecord struct {
	SOffset     float64
	Rule        string // "allow" or "deny"
	Restriction string
}

// Lane is a single lane within a section. Width and border records are
// ordered by SOffset. Predecessors/Successors are lane ids in the adjacent
// section (or adjacent road's contact section).
type Lane struct {
	ID           int
	Type         string
	Level        bool
	Direction    LaneDirection
	Widths       []OffsetPoly3
	Borders      []OffsetPoly3
	Access       []AccessRecord
	Predecessors []int
	Successors   []int
}

// LaneSection groups lanes valid from S until the next section.
// Left lanes are ordered ascending by id (center outward), right lanes
// descending by id (center outward); both orders run center to border.
type LaneSection struct {
	S      float64
	Length float64
	Left   []*Lane
	Center *Lane
	Right  []*Lane
}

// Lanes returns left then right lanes (center excluded).
func (ls *LaneSection) Lanes() []*Lane {
	out := make([]*Lane, 0, len(ls.Left)+len(ls.Right))
	out = append(out, ls.Left...)
	out = append(out, ls.Right...)
	return out
}

// Lane returns the lane with the given id, including the center lane.
func (ls *LaneSection) Lane(id int) (*Lane, bool) {
	if id == 0 {
		if ls.Center != nil {
			return ls.Center, true
		}
		return nil, false
	}
	for _, l := range ls.Lanes() {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// Side returns the lanes on the side of the given lane id, ordered center
// to border.
func (ls *LaneSection) Side(laneID int) []*Lane {
	if laneID > 0 {
		return ls.Left
	}
	return ls.Right
}

// RoadLink is a road-level predecessor or successor reference, pointing at
// either another road end or a junction.
type RoadLink struct {
	ElementType  string // "road" or "junction"
	ElementID    int
	ContactPoint ContactPoint // meaningful for road links only
}

// Road is one road entity with its reference line, profiles and lanes.
// JunctionID is -1 for roads that do not belong to a junction.
type Road struct {
	ID         int
	Name       string
	Length     float64
	JunctionID int
	Rule       TrafficRule

	Predecessor *RoadLink
	Successor   *RoadLink

	PlanView        []GeometrySegment
	Elevations      []OffsetPoly3
	Superelevations []OffsetPoly3
	LaneOffsets     []OffsetPoly3
	Sections        []*LaneSection
}

// InJunction reports whether the road is a connecting road of some junction.
func (r *Road) InJunction() bool {
	return r.JunctionID >= 0
}

// Link returns the predecessor or successor link for the given tag.
func (r *Road) Link(tag LinkageTag) *RoadLink {
	if tag == TagPredecessor {
		return r.Predecessor
	}
	return r.Successor
}

// FirstSection returns the lane section at s=0, or nil.
func (r *Road) FirstSection() *LaneSection {
	if len(r.Sections) == 0 {
		return nil
	}
	return r.Sections[0]
}

// LastSection returns the lane section touching the road end, or nil.
func (r *Road) LastSection() *LaneSection {
	if len(r.Sections) == 0 {
		return nil
	}
	return r.Sections[len(r.Sections)-1]
}

// SectionAt returns the lane section active at s.
func (r *Road) SectionAt(s float64) *LaneSection {
	if s < 0 || s > r.Length || len(r.Sections) == 0 {
		return nil
	}
	i := sort.Search(len(r.Sections), func(i int) bool { return r.Sections[i].S > s })
	if i == 0 {
		return r.Sections[0]
	}
	return r.Sections[i-1]
}

// ContactSection returns the section touching the given road end.
func (r *Road) ContactSection(cp ContactPoint) *LaneSection {
	if cp == ContactStart {
		return r.FirstSection()
	}
	return r.LastSection()
}

// LaneLink maps an incoming lane id to a connecting-road lane id.
type LaneLink struct {
	From, To int
}

// Connection is one junction connection record.
type Connection struct {
	ID             int
	IncomingRoad   int
	ConnectingRoad int
	ContactPoint   ContactPoint
	LaneLinks      []LaneLink
}

// Junction is a set of connections resolving ambiguous road linkage.
type Junction struct {
	ID          int
	Name        string
	Connections []*Connection
}

// Document is the root of the model. Roads and Junctions keep file order;
// the id maps are the arenas every cross-reference resolves through.
type Document struct {
	RevMajor, RevMinor int

	Roads     []*Road
	Junctions []*Junction

	roadByID     map[int]*Road
	junctionByID map[int]*Junction
}

// SchemaVersion returns the declared standard version as "major.minor.0";
// the patch component is not part of the header and defaults to zero.
func (d *Document) SchemaVersion() string {
	return fmt.Sprintf("%d.%d.0", d.RevMajor, d.RevMinor)
}

// Road resolves a road id.
func (d *Document) Road(id int) (*Road, bool) {
	r, ok := d.roadByID[id]
	return r, ok
}

// Junction resolves a junction id.
func (d *Document) Junction(id int) (*Junction, bool) {
	j, ok := d.junctionByID[id]
	return j, ok
}
