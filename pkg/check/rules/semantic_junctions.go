package rules

import (
	"fmt"

	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// checkConnectRoadNoIncomingRoad flags connections whose incoming road is
// itself a connecting road of some junction.
func checkConnectRoadNoIncomingRoad(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	for _, junction := range ctx.Doc.Junctions {
		for _, conn := range junction.Connections {
			incoming, ok := ctx.Doc.Road(conn.IncomingRoad)
			if !ok {
				continue
			}
			if incoming.InJunction() {
				s := incoming.Length / 2
				if cp, found := ctx.Topo.IncomingContact(incoming.ID, junction.ID); found {
					if cp == odr.ContactStart {
						s = 0
					} else {
						s = incoming.Length
					}
				}
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message:  fmt.Sprintf("Connecting road %d is used as incoming road in junction %d.", incoming.ID, junction.ID),
					Location: roadLoc(incoming.ID, s),
				})
			}
		}
	}
	return issues
}

// checkOneConnectionElement flags connecting roads represented by more than
// one connection element, across all junctions. Later standard revisions
// allow this, so the descriptor caps the applicable version.
func checkOneConnectionElement(ctx *check.Ctx) []check.Issue {
	count := make(map[int]int)
	for _, junction := range ctx.Doc.Junctions {
		for _, conn := range junction.Connections {
			count[conn.ConnectingRoad]++
		}
	}

	var issues []check.Issue
	seen := make(map[int]bool)
	for _, junction := range ctx.Doc.Junctions {
		for _, conn := range junction.Connections {
			if count[conn.ConnectingRoad] > 1 && !seen[conn.ConnectingRoad] {
				seen[conn.ConnectingRoad] = true
				s := 0.0
				if road, ok := ctx.Doc.Road(conn.ConnectingRoad); ok {
					s = road.Length / 2
				}
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message:  fmt.Sprintf("Connecting road %d shall be represented by only one connection element.", conn.ConnectingRoad),
					Location: roadLoc(conn.ConnectingRoad, s),
				})
			}
		}
	}
	return issues
}

// checkOneLinkToIncoming enforces connection cardinality: at most one
// connection per incoming/connecting road pair within a junction, and at
// most one lane link per incoming lane within a connection.
func checkOneLinkToIncoming(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	for _, junction := range ctx.Doc.Junctions {
		type pair struct{ incoming, connecting int }
		pairs := make(map[pair]int)
		for _, conn := range junction.Connections {
			pairs[pair{conn.IncomingRoad, conn.ConnectingRoad}]++
		}
		flagged := make(map[pair]bool)
		for _, conn := range junction.Connections {
			p := pair{conn.IncomingRoad, conn.ConnectingRoad}
			if pairs[p] > 1 && !flagged[p] {
				flagged[p] = true
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message: fmt.Sprintf(
						"Junction %d links incoming road %d to connecting road %d through more than one connection.",
						junction.ID, conn.IncomingRoad, conn.ConnectingRoad),
					Location: roadLoc(conn.IncomingRoad, 0),
				})
			}

			fromCount := make(map[int]int)
			for _, ll := range conn.LaneLinks {
				fromCount[ll.From]++
			}
			for _, ll := range conn.LaneLinks {
				if fromCount[ll.From] > 1 {
					fromCount[ll.From] = 0
					issues = append(issues, check.Issue{
						Severity: check.SeverityError,
						Message: fmt.Sprintf(
							"Connection %d of junction %d links incoming lane %d more than once.",
							conn.ID, junction.ID, ll.From),
						Location: laneLoc(conn.IncomingRoad, 0, ll.From),
					})
				}
			}
		}
	}
	return issues
}

// checkStartAlongLinkage: with contact point start, the connecting road
// runs along its predecessor linkage, which must name the incoming road.
func checkStartAlongLinkage(ctx *check.Ctx) []check.Issue {
	return checkContactLinkage(ctx, odr.ContactStart, odr.TagPredecessor)
}

// checkEndOppositeLinkage: with contact point end, the connecting road runs
// opposite to its successor linkage, which must name the incoming road.
func checkEndOppositeLinkage(ctx *check.Ctx) []check.Issue {
	return checkContactLinkage(ctx, odr.ContactEnd, odr.TagSuccessor)
}

func checkContactLinkage(ctx *check.Ctx, cp odr.ContactPoint, tag odr.LinkageTag) []check.Issue {
	var issues []check.Issue
	for _, junction := range ctx.Doc.Junctions {
		for _, conn := range junction.Connections {
			if conn.ContactPoint != cp {
				continue
			}
			connecting, ok := ctx.Doc.Road(conn.ConnectingRoad)
			if !ok {
				continue
			}
			link := connecting.Link(tag)
			if link == nil || link.ElementType != "road" {
				continue
			}
			if link.ElementID != conn.IncomingRoad {
				s := 0.0
				if cp == odr.ContactEnd {
					s = connecting.Length
				}
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message: fmt.Sprintf(
						"Contact point %s of connection %d requires the connecting road's %s to be incoming road %d.",
						cp, conn.ID, tag, conn.IncomingRoad),
					Location: roadLoc(connecting.ID, s),
				})
			}
		}
	}
	return issues
}
