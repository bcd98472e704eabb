package rules

import (
	"math"

	"github.com/odrtools/odrlint/internal/geometry"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

func evalWidth(lane *odr.Lane, sOffset float64) float64 {
	return geometry.EvalLaneWidth(lane, sOffset)
}

// zeroWidthSeverity: a zero-width link on the center lane is only a
// warning, the center lane has no width by definition.
func zeroWidthSeverity(laneID int) check.Severity {
	if laneID == 0 {
		return check.SeverityWarning
	}
	return check.SeverityError
}

// checkZeroWidthAtStart flags lanes that start with zero width yet declare
// a predecessor, either explicitly or implied by a junction connection.
func checkZeroWidthAtStart(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon

	for _, road := range ctx.Doc.Roads {
		for _, section := range road.Sections {
			for _, lane := range section.Lanes() {
				if len(lane.Widths) == 0 {
					continue
				}
				if math.Abs(evalWidth(lane, 0)) < eps && len(lane.Predecessors) > 0 {
					issues = append(issues, check.Issue{
						Severity: zeroWidthSeverity(lane.ID),
						Message:  "Lane with zero width at the start of the lane section shall have no predecessor link.",
						Location: laneLoc(road.ID, section.S, lane.ID),
					})
				}
			}
		}

		first := road.FirstSection()
		if first == nil {
			continue
		}

		// Incoming road: the junction at the road start implies predecessors
		// for the lanes referenced as laneLink @from.
		if l := road.Predecessor; l != nil && l.ElementType == "junction" {
			implied := make(map[int]bool)
			for _, ref := range ctx.Topo.ConnectionsIncomingTo(road.ID) {
				if ref.JunctionID != l.ElementID {
					continue
				}
				for _, ll := range ref.Connection.LaneLinks {
					implied[ll.From] = true
				}
			}
			issues = append(issues, zeroWidthImplied(road, first, first.S, 0, implied, eps,
				"Lane with zero width at the road start is referenced by a junction connection.")...)
		}

		// Connecting road: connections attaching at the start imply
		// predecessors for the lanes referenced as laneLink @to.
		if road.InJunction() {
			implied := make(map[int]bool)
			for _, ref := range ctx.Topo.ConnectionsOfConnectingRoad(road.ID) {
				if ref.Connection.ContactPoint != odr.ContactStart {
					continue
				}
				for _, ll := range ref.Connection.LaneLinks {
					implied[ll.To] = true
				}
			}
			issues = append(issues, zeroWidthImplied(road, first, first.S, 0, implied, eps,
				"Connecting road lane with zero width at the start is linked by a junction connection.")...)
		}
	}
	return issues
}

// checkZeroWidthAtEnd is the successor-side mirror of checkZeroWidthAtStart.
func checkZeroWidthAtEnd(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon

	for _, road := range ctx.Doc.Roads {
		for _, section := range road.Sections {
			for _, lane := range section.Lanes() {
				if len(lane.Widths) == 0 {
					continue
				}
				if math.Abs(evalWidth(lane, section.Length)) < eps && len(lane.Successors) > 0 {
					issues = append(issues, check.Issue{
						Severity: zeroWidthSeverity(lane.ID),
						Message:  "Lane with zero width at the end of the lane section shall have no successor link.",
						Location: laneLoc(road.ID, section.S+section.Length, lane.ID),
					})
				}
			}
		}

		last := road.LastSection()
		if last == nil {
			continue
		}

		if l := road.Successor; l != nil && l.ElementType == "junction" {
			implied := make(map[int]bool)
			for _, ref := range ctx.Topo.ConnectionsIncomingTo(road.ID) {
				if ref.JunctionID != l.ElementID {
					continue
				}
				for _, ll := range ref.Connection.LaneLinks {
					implied[ll.From] = true
				}
			}
			issues = append(issues, zeroWidthImplied(road, last, road.Length, last.Length, implied, eps,
				"Lane with zero width at the road end is referenced by a junction connection.")...)
		}

		if road.InJunction() {
			implied := make(map[int]bool)
			for _, ref := range ctx.Topo.ConnectionsOfConnectingRoad(road.ID) {
				if ref.Connection.ContactPoint != odr.ContactEnd {
					continue
				}
				for _, ll := range ref.Connection.LaneLinks {
					implied[ll.To] = true
				}
			}
			issues = append(issues, zeroWidthImplied(road, last, road.Length, last.Length, implied, eps,
				"Connecting road lane with zero width at the end is linked by a junction connection.")...)
		}
	}
	return issues
}

func zeroWidthImplied(road *odr.Road, section *odr.LaneSection, s, widthAt float64, implied map[int]bool, eps float64, msg string) []check.Issue {
	var issues []check.Issue
	for _, lane := range section.Lanes() {
		if len(lane.Widths) == 0 || !implied[lane.ID] {
			continue
		}
		if math.Abs(evalWidth(lane, widthAt)) < eps {
			issues = append(issues, check.Issue{
				Severity: zeroWidthSeverity(lane.ID),
				Message:  msg,
				Location: laneLoc(road.ID, s, lane.ID),
			})
		}
	}
	return issues
}
