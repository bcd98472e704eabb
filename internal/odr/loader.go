package odr

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// xmlOpenDrive mirrors the subset of the OpenDRIVE schema the model needs.
// The document is assumed schema-valid; the loader only rejects what makes
// a model impossible to build.
type xmlOpenDrive struct {
	Header    xmlHeader     `xml:"header"`
	Roads     []xmlRoad     `xml:"road"`
	Junctions []xmlJunction `xml:"junction"`
}

type xmlHeader struct {
	RevMajor string `xml:"revMajor,attr"`
	RevMinor string `xml:"revMinor,attr"`
}

type xmlRoad struct {
	ID       string               `xml:"id,attr"`
	Name     string               `xml:"name,attr"`
	Length   string               `xml:"length,attr"`
	Junction string               `xml:"junction,attr"`
	Rule     string               `xml:"rule,attr"`
	Link     *xmlLink             `xml:"link"`
	PlanView xmlPlanView          `xml:"planView"`
	Profile  *xmlElevationProfile `xml:"elevationProfile"`
	Lateral  *xmlLateralProfile   `xml:"lateralProfile"`
	Lanes    xmlLanes             `xml:"lanes"`
}

type xmlLink struct {
	Predecessor *xmlLinkElement `xml:"predecessor"`
	Successor   *xmlLinkElement `xml:"successor"`
}

type xmlLinkElement struct {
	ElementType  string `xml:"elementType,attr"`
	ElementID    string `xml:"elementId,attr"`
	ContactPoint string `xml:"contactPoint,attr"`
	ID           string `xml:"id,attr"` // lane-level links use id instead
}

type xmlPlanView struct {
	Geometry []xmlGeometry `xml:"geometry"`
}

type xmlGeometry struct {
	S       string `xml:"s,attr"`
	X       string `xml:"x,attr"`
	Y       string `xml:"y,attr"`
	Hdg     string `xml:"hdg,attr"`
	Length  string `xml:"length,attr"`
	Line    *struct{} `xml:"line"`
	Arc     *struct {
		Curvature string `xml:"curvature,attr"`
	} `xml:"arc"`
	Spiral *struct {
		CurvStart string `xml:"curvStart,attr"`
		CurvEnd   string `xml:"curvEnd,attr"`
	} `xml:"spiral"`
	Poly3 *struct {
		A string `xml:"a,attr"`
		B string `xml:"b,attr"`
		C string `xml:"c,attr"`
		D string `xml:"d,attr"`
	} `xml:"poly3"`
	ParamPoly3 *struct {
		AU     string `xml:"aU,attr"`
		BU     string `xml:"bU,attr"`
		CU     string `xml:"cU,attr"`
		DU     string `xml:"dU,attr"`
		AV     string `xml:"aV,attr"`
		BV     string `xml:"bV,attr"`
		CV     string `xml:"cV,attr"`
		DV     string `xml:"dV,attr"`
		PRange string `xml:"pRange,attr"`
	} `xml:"paramPoly3"`
}

type xmlElevationProfile struct {
	Elevations []xmlPoly3Record `xml:"elevation"`
}

type xmlLateralProfile struct {
	Superelevations []xmlPoly3Record `xml:"superelevation"`
}

type xmlPoly3Record struct {
	S string `xml:"s,attr"`
	A string `xml:"a,attr"`
	B string `xml:"b,attr"`
	C string `xml:"c,attr"`
	D string `xml:"d,attr"`
}

type xmlLanes struct {
	LaneOffsets []xmlPoly3Record `xml:"laneOffset"`
	Sections    []xmlLaneSection `xml:"laneSection"`
}

type xmlLaneSection struct {
	S      string        `xml:"s,attr"`
	Left   *xmlLaneGroup `xml:"left"`
	Center *xmlLaneGroup `xml:"center"`
	Right  *xmlLaneGroup `xml:"right"`
}

type xmlLaneGroup struct {
	Lanes []xmlLane `xml:"lane"`
}

type xmlLane struct {
	ID        string        `xml:"id,attr"`
	Type      string        `xml:"type,attr"`
	Level     string        `xml:"level,attr"`
	Direction string        `xml:"direction,attr"`
	Link      *xmlLaneLinks `xml:"link"`
	Widths    []xmlWidth    `xml:"width"`
	Borders   []xmlWidth    `xml:"border"`
	Access    []xmlAccess   `xml:"access"`
}

type xmlLaneLinks struct {
	Predecessors []xmlLinkElement `xml:"predecessor"`
	Successors   []xmlLinkElement `xml:"successor"`
}

type xmlWidth struct {
	SOffset string `xml:"sOffset,attr"`
	A       string `xml:"a,attr"`
	B       string `xml:"b,attr"`
	C       string `xml:"c,attr"`
	D       string `xml:"d,attr"`
}

type xmlAccess struct {
	SOffset     string `xml:"sOffset,attr"`
	Rule        string `xml:"rule,attr"`
	Restriction string `xml:"restriction,attr"`
}

type xmlJunction struct {
	ID          string          `xml:"id,attr"`
	Name        string          `xml:"name,attr"`
	Connections []xmlConnection `xml:"connection"`
}

type xmlConnection struct {
	ID             string        `xml:"id,attr"`
	IncomingRoad   string        `xml:"incomingRoad,attr"`
	ConnectingRoad string        `xml:"connectingRoad,attr"`
	ContactPoint   string        `xml:"contactPoint,attr"`
	LaneLinks      []xmlLaneLink `xml:"laneLink"`
}

type xmlLaneLink struct {
	From string `xml:"from,attr"`
	To   string `xml:"to,attr"`
}

// LoadFile reads and builds a document from a .xodr file.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load builds a document from an OpenDRIVE XML stream. Any returned error is
// fatal for a check run: the model could not be built.
func Load(r io.Reader) (*Document, error) {
	var raw xmlOpenDrive
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	b := &builder{}

	doc := &Document{
		RevMajor:     b.intAttr("header revMajor", raw.Header.RevMajor),
		RevMinor:     b.intAttr("header revMinor", raw.Header.RevMinor),
		roadByID:     make(map[int]*Road),
		junctionByID: make(map[int]*Junction),
	}

	for i := range raw.Roads {
		road := b.road(&raw.Roads[i])
		if road == nil {
			continue
		}
		if _, dup := doc.roadByID[road.ID]; dup {
			b.fail("duplicate road id %d", road.ID)
			continue
		}
		doc.roadByID[road.ID] = road
		doc.Roads = append(doc.Roads, road)
	}
	for i := range raw.Junctions {
		j := b.junction(&raw.Junctions[i])
		if j == nil {
			continue
		}
		if _, dup := doc.junctionByID[j.ID]; dup {
			b.fail("duplicate junction id %d", j.ID)
			continue
		}
		doc.junctionByID[j.ID] = j
		doc.Junctions = append(doc.Junctions, j)
	}
	if b.err != nil {
		return nil, b.err
	}
	return doc, nil
}

// builder accumulates the first build failure; conversions after a failure
// still run but their results are discarded.
type builder struct {
	err error
}

func (b *builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

func (b *builder) floatAttr(what, v string) float64 {
	if v == "" {
		b.fail("missing %s", what)
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		b.fail("%s: invalid number %q", what, v)
		return 0
	}
	return f
}

func (b *builder) intAttr(what, v string) int {
	if v == "" {
		b.fail("missing %s", what)
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		b.fail("%s: invalid integer %q", what, v)
		return 0
	}
	return n
}

func (b *builder) road(x *xmlRoad) *Road {
	r := &Road{
		ID:         b.intAttr("road id", x.ID),
		Name:       x.Name,
		Length:     b.floatAttr("road length", x.Length),
		JunctionID: -1,
		Rule:       TrafficRHT,
	}
	if x.Junction != "" && x.Junction != "-1" {
		r.JunctionID = b.intAttr(fmt.Sprintf("road %s junction", x.ID), x.Junction)
	}
	if x.Rule == string(TrafficLHT) {
		r.Rule = TrafficLHT
	}
	if x.Link != nil {
		r.Predecessor = b.roadLink(x.ID, x.Link.Predecessor)
		r.Successor = b.roadLink(x.ID, x.Link.Successor)
	}
	if len(x.PlanView.Geometry) == 0 {
		b.fail("road %s has no plan view geometry", x.ID)
		return nil
	}
	for i := range x.PlanView.Geometry {
		r.PlanView = append(r.PlanView, b.geometry(x.ID, &x.PlanView.Geometry[i]))
	}
	if x.Profile != nil {
		r.Elevations = b.poly3Records("elevation", x.Profile.Elevations)
	}
	if x.Lateral != nil {
		r.Superelevations = b.poly3Records("superelevation", x.Lateral.Superelevations)
	}
	r.LaneOffsets = b.poly3Records("laneOffset", x.Lanes.LaneOffsets)

	for i := range x.Lanes.Sections {
		r.Sections = append(r.Sections, b.laneSection(x.ID, &x.Lanes.Sections[i]))
	}
	// Section lengths derive from the next section start or the road end.
	for i, ls := range r.Sections {
		if ls == nil {
			return nil
		}
		if i+1 < len(r.Sections) {
			ls.Length = r.Sections[i+1].S - ls.S
		} else {
			ls.Length = r.Length - ls.S
		}
	}
	return r
}

func (b *builder) roadLink(roadID string, x *xmlLinkElement) *RoadLink {
	if x == nil {
		return nil
	}
	l := &RoadLink{
		ElementType: x.ElementType,
		ElementID:   b.intAttr(fmt.Sprintf("road %s link elementId", roadID), x.ElementID),
	}
	switch x.ContactPoint {
	case "":
	case string(ContactStart):
		l.ContactPoint = ContactStart
	case string(ContactEnd):
		l.ContactPoint = ContactEnd
	default:
		b.fail("road %s link: invalid contactPoint %q", roadID, x.ContactPoint)
	}
	return l
}

func (b *builder) geometry(roadID string, x *xmlGeometry) GeometrySegment {
	what := fmt.Sprintf("road %s geometry", roadID)
	seg := GeometrySegment{
		S0:     b.floatAttr(what+" s", x.S),
		X0:     b.floatAttr(what+" x", x.X),
		Y0:     b.floatAttr(what+" y", x.Y),
		Hdg0:   b.floatAttr(what+" hdg", x.Hdg),
		Length: b.floatAttr(what+" length", x.Length),
	}
	switch {
	case x.Line != nil:
		seg.Curve = Line{}
	case x.Arc != nil:
		seg.Curve = Arc{Curvature: b.floatAttr(what+" curvature", x.Arc.Curvature)}
	case x.Spiral != nil:
		seg.Curve = Spiral{
			CurvStart: b.floatAttr(what+" curvStart", x.Spiral.CurvStart),
			CurvEnd:   b.floatAttr(what+" curvEnd", x.Spiral.CurvEnd),
		}
	case x.Poly3 != nil:
		seg.Curve = Poly3Curve{V: Poly3{
			A: b.floatAttr(what+" a", x.Poly3.A),
			B: b.floatAttr(what+" b", x.Poly3.B),
			C: b.floatAttr(what+" c", x.Poly3.C),
			D: b.floatAttr(what+" d", x.Poly3.D),
		}}
	case x.ParamPoly3 != nil:
		pr := PRangeNormalized
		if x.ParamPoly3.PRange == string(PRangeArcLength) {
			pr = PRangeArcLength
		}
		seg.Curve = ParamPoly3{
			U: Poly3{
				A: b.floatAttr(what+" aU", x.ParamPoly3.AU),
				B: b.floatAttr(what+" bU", x.ParamPoly3.BU),
				C: b.floatAttr(what+" cU", x.ParamPoly3.CU),
				D: b.floatAttr(what+" dU", x.ParamPoly3.DU),
			},
			V: Poly3{
				A: b.floatAttr(what+" aV", x.ParamPoly3.AV),
				B: b.floatAttr(what+" bV", x.ParamPoly3.BV),
				C: b.floatAttr(what+" cV", x.ParamPoly3.CV),
				D: b.floatAttr(what+" dV", x.ParamPoly3.DV),
			},
			PRange: pr,
		}
	default:
		b.fail("%s at s=%s has no curve element", what, x.S)
	}
	return seg
}

func (b *builder) poly3Records(what string, xs []xmlPoly3Record) []OffsetPoly3 {
	out := make([]OffsetPoly3, 0, len(xs))
	for _, x := range xs {
		out = append(out, OffsetPoly3{
			SOffset: b.floatAttr(what+" s", x.S),
			Poly3: Poly3{
				A: b.floatAttr(what+" a", x.A),
				B: b.floatAttr(what+" b", x.B),
				C: b.floatAttr(what+" c", x.C),
				D: b.floatAttr(what+" d", x.D),
			},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SOffset < out[j].SOffset })
	return out
}

func (b *builder) laneSection(roadID string, x *xmlLaneSection) *LaneSection {
	ls := &LaneSection{S: b.floatAttr(fmt.Sprintf("road %s laneSection s", roadID), x.S)}
	if x.Left != nil {
		for i := range x.Left.Lanes {
			ls.Left = append(ls.Left, b.lane(roadID, &x.Left.Lanes[i]))
		}
		// Center-outward order: ascending id on the left.
		sort.SliceStable(ls.Left, func(i, j int) bool { return ls.Left[i].ID < ls.Left[j].ID })
	}
	if x.Center != nil && len(x.Center.Lanes) > 0 {
		ls.Center = b.lane(roadID, &x.Center.Lanes[0])
	}
	if x.Right != nil {
		for i := range x.Right.Lanes {
			ls.Right = append(ls.Right, b.lane(roadID, &x.Right.Lanes[i]))
		}
		// Center-outward order: descending id on the right.
		sort.SliceStable(ls.Right, func(i, j int) bool { return ls.Right[i].ID > ls.Right[j].ID })
	}
	return ls
}

func (b *builder) lane(roadID string, x *xmlLane) *Lane {
	l := &Lane{
		ID:        b.intAttr(fmt.Sprintf("road %s lane id", roadID), x.ID),
		Type:      x.Type,
		Level:     x.Level == "true",
		Direction: LaneDirection(x.Direction),
	}
	if l.Direction == "" {
		l.Direction = DirectionStandard
	}
	for _, w := range x.Widths {
		l.Widths = append(l.Widths, b.widthRecord(roadID, w))
	}
	for _, w := range x.Borders {
		l.Borders = append(l.Borders, b.widthRecord(roadID, w))
	}
	sort.SliceStable(l.Widths, func(i, j int) bool { return l.Widths[i].SOffset < l.Widths[j].SOffset })
	sort.SliceStable(l.Borders, func(i, j int) bool { return l.Borders[i].SOffset < l.Borders[j].SOffset })
	for _, a := range x.Access {
		l.Access = append(l.Access, AccessRecord{
			SOffset:     b.floatAttr("lane access sOffset", a.SOffset),
			Rule:        a.Rule,
			Restriction: a.Restriction,
		})
	}
	if x.Link != nil {
		for _, p := range x.Link.Predecessors {
			l.Predecessors = append(l.Predecessors, b.intAttr("lane link predecessor id", p.ID))
		}
		for _, s := range x.Link.Successors {
			l.Successors = append(l.Successors, b.intAttr("lane link successor id", s.ID))
		}
	}
	return l
}

func (b *builder) widthRecord(roadID string, x xmlWidth) OffsetPoly3 {
	what := fmt.Sprintf("road %s lane width", roadID)
	return OffsetPoly3{
		SOffset: b.floatAttr(what+" sOffset", x.SOffset),
		Poly3: Poly3{
			A: b.floatAttr(what+" a", x.A),
			B: b.floatAttr(what+" b", x.B),
			C: b.floatAttr(what+" c", x.C),
			D: b.floatAttr(what+" d", x.D),
		},
	}
}

func (b *builder) junction(x *xmlJunction) *Junction {
	j := &Junction{
		ID:   b.intAttr("junction id", x.ID),
		Name: x.Name,
	}
	for _, c := range x.Connections {
		conn := &Connection{
			ID:             b.intAttr("connection id", c.ID),
			IncomingRoad:   b.intAttr("connection incomingRoad", c.IncomingRoad),
			ConnectingRoad: b.intAttr("connection connectingRoad", c.ConnectingRoad),
		}
		switch c.ContactPoint {
		case string(ContactStart), "":
			conn.ContactPoint = ContactStart
		case string(ContactEnd):
			conn.ContactPoint = ContactEnd
		default:
			b.fail("junction %d connection %d: invalid contactPoint %q", j.ID, conn.ID, c.ContactPoint)
		}
		for _, ll := range c.LaneLinks {
			conn.LaneLinks = append(conn.LaneLinks, LaneLink{
				From: b.intAttr("laneLink from", ll.From),
				To:   b.intAttr("laneLink to", ll.To),
			})
		}
		j.Connections = append(j.Connections, conn)
	}
	return j
}
