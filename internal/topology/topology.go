// Package topology builds the connectivity view of a document: which road
// ends reference which, and how junction connections tie incoming roads to
// connecting roads. Adjacency lives in maps keyed by road end; every query
// returns sorted slices so output is deterministic regardless of map order.
package topology

import (
	"sort"

	"github.com/odrtools/odrlint/internal/odr"
)

// EndKey identifies one end of a road.
type EndKey struct {
	RoadID  int
	Contact odr.ContactPoint
}

// LinkRef records that FromRoad references an end through its predecessor
// or successor element.
type LinkRef struct {
	FromRoad int
	Tag      odr.LinkageTag
}

// ConnRef locates one junction connection record.
type ConnRef struct {
	JunctionID int
	Connection *odr.Connection
}

// Topology is the precomputed connectivity index of a document. It is
// built once and read-only afterwards.
type Topology struct {
	doc *odr.Document

	// endRefs counts road-level references to each road end, made by roads
	// outside junctions. More than one reference to the same end is the
	// ambiguity a junction exists to resolve.
	endRefs map[EndKey][]LinkRef

	incomingTo   map[int][]ConnRef // incoming road id -> connections
	ofConnecting map[int][]ConnRef // connecting road id -> connections
}

// Build indexes the document's road links and junction connections.
func Build(doc *odr.Document) *Topology {
	t := &Topology{
		doc:          doc,
		endRefs:      make(map[EndKey][]LinkRef),
		incomingTo:   make(map[int][]ConnRef),
		ofConnecting: make(map[int][]ConnRef),
	}
	for _, road := range doc.Roads {
		if road.InJunction() {
			continue
		}
		for _, tag := range []odr.LinkageTag{odr.TagPredecessor, odr.TagSuccessor} {
			link := road.Link(tag)
			if link == nil || link.ElementType != "road" {
				continue
			}
			key := EndKey{RoadID: link.ElementID, Contact: link.ContactPoint}
			t.endRefs[key] = append(t.endRefs[key], LinkRef{FromRoad: road.ID, Tag: tag})
		}
	}
	for _, j := range doc.Junctions {
		for _, conn := range j.Connections {
			ref := ConnRef{JunctionID: j.ID, Connection: conn}
			t.incomingTo[conn.IncomingRoad] = append(t.incomingTo[conn.IncomingRoad], ref)
			t.ofConnecting[conn.ConnectingRoad] = append(t.ofConnecting[conn.ConnectingRoad], ref)
		}
	}
	for _, refs := range t.endRefs {
		sort.Slice(refs, func(i, j int) bool {
			if refs[i].FromRoad != refs[j].FromRoad {
				return refs[i].FromRoad < refs[j].FromRoad
			}
			return refs[i].Tag < refs[j].Tag
		})
	}
	for _, m := range []map[int][]ConnRef{t.incomingTo, t.ofConnecting} {
		for _, refs := range m {
			sortConnRefs(refs)
		}
	}
	return t
}

func sortConnRefs(refs []ConnRef) {
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].JunctionID != refs[j].JunctionID {
			return refs[i].JunctionID < refs[j].JunctionID
		}
		return refs[i].Connection.ID < refs[j].Connection.ID
	})
}

// EndReferences returns the road-level references pointing at the given
// road end, sorted by referencing road id.
func (t *Topology) EndReferences(roadID int, cp odr.ContactPoint) []LinkRef {
	return t.endRefs[EndKey{RoadID: roadID, Contact: cp}]
}

// ConnectionsIncomingTo returns all junction connections whose incoming
// road is roadID.
func (t *Topology) ConnectionsIncomingTo(roadID int) []ConnRef {
	return t.incomingTo[roadID]
}

// ConnectionsOfConnectingRoad returns all junction connections whose
// connecting road is roadID.
func (t *Topology) ConnectionsOfConnectingRoad(roadID int) []ConnRef {
	return t.ofConnecting[roadID]
}

// ConnectionsBetween returns the connections of junctionID joining the
// given incoming and connecting road pair.
func (t *Topology) ConnectionsBetween(junctionID, incomingID, connectingID int) []*odr.Connection {
	var out []*odr.Connection
	for _, ref := range t.incomingTo[incomingID] {
		if ref.JunctionID == junctionID && ref.Connection.ConnectingRoad == connectingID {
			out = append(out, ref.Connection)
		}
	}
	return out
}

// ContactSection resolves a road link to the lane section it attaches to
// on the target road, along with the linkage tag viewed from the target:
// attaching at the start section means the referencing road is the
// target's predecessor side.
func (t *Topology) ContactSection(link *odr.RoadLink) (*odr.Road, *odr.LaneSection, bool) {
	if link == nil || link.ElementType != "road" {
		return nil, nil, false
	}
	road, ok := t.doc.Road(link.ElementID)
	if !ok {
		return nil, nil, false
	}
	sec := road.ContactSection(link.ContactPoint)
	if sec == nil {
		return nil, nil, false
	}
	return road, sec, true
}

// ContactingSections resolves a junction connection to the lane sections
// meeting at the connecting road's contact point: the incoming road's
// section facing the junction and the connecting road's contact section.
func (t *Topology) ContactingSections(conn *odr.Connection) (incoming, connecting *odr.LaneSection, ok bool) {
	in, okIn := t.doc.Road(conn.IncomingRoad)
	cr, okCr := t.doc.Road(conn.ConnectingRoad)
	if !okIn || !okCr {
		return nil, nil, false
	}
	connecting = cr.ContactSection(conn.ContactPoint)

	// The incoming road faces the junction with whichever of its ends links
	// to the junction the connecting road belongs to.
	var inContact odr.ContactPoint
	found := false
	for _, tag := range []odr.LinkageTag{odr.TagPredecessor, odr.TagSuccessor} {
		link := in.Link(tag)
		if link != nil && link.ElementType == "junction" && link.ElementID == cr.JunctionID {
			if tag == odr.TagPredecessor {
				inContact = odr.ContactStart
			} else {
				inContact = odr.ContactEnd
			}
			found = true
		}
	}
	if !found {
		return nil, nil, false
	}
	incoming = in.ContactSection(inContact)
	if incoming == nil || connecting == nil {
		return nil, nil, false
	}
	return incoming, connecting, true
}

// IncomingContact reports which end of the incoming road faces the given
// junction, when exactly determinable from the road's links.
func (t *Topology) IncomingContact(roadID, junctionID int) (odr.ContactPoint, bool) {
	road, ok := t.doc.Road(roadID)
	if !ok {
		return "", false
	}
	if l := road.Predecessor; l != nil && l.ElementType == "junction" && l.ElementID == junctionID {
		return odr.ContactStart, true
	}
	if l := road.Successor; l != nil && l.ElementType == "junction" && l.ElementID == junctionID {
		return odr.ContactEnd, true
	}
	return "", false
}
