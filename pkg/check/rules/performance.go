package rules

import (
	"math"

	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// checkAvoidRedundantInfo flags consecutive records that declare the same
// function twice: profile and width cubics whose difference polynomial is
// zero, and consecutive line geometries with equal heading.
func checkAvoidRedundantInfo(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon

	redundantRecords := func(roadID int, records []odr.OffsetPoly3, what string) {
		for i := 0; i+1 < len(records); i++ {
			if sameEquations(records[i], records[i+1], eps) {
				issues = append(issues, check.Issue{
					Severity: check.SeverityWarning,
					Message:  "Redundant " + what + " declaration.",
					Location: roadLoc(roadID, records[i+1].SOffset),
				})
			}
		}
	}

	for _, road := range ctx.Doc.Roads {
		redundantRecords(road.ID, road.Elevations, "elevation")
		redundantRecords(road.ID, road.Superelevations, "superelevation")
		redundantRecords(road.ID, road.LaneOffsets, "lane offset")

		for i := 0; i+1 < len(road.PlanView); i++ {
			cur, next := road.PlanView[i], road.PlanView[i+1]
			_, curLine := cur.Curve.(odr.Line)
			_, nextLine := next.Curve.(odr.Line)
			if curLine && nextLine && math.Abs(cur.Hdg0-next.Hdg0) < eps {
				issues = append(issues, check.Issue{
					Severity: check.SeverityWarning,
					Message:  "Redundant line geometry declaration.",
					Location: roadLoc(road.ID, next.S0),
				})
			}
		}

		for _, section := range road.Sections {
			for _, lane := range section.Lanes() {
				for i := 0; i+1 < len(lane.Widths); i++ {
					if sameEquations(lane.Widths[i], lane.Widths[i+1], eps) {
						issues = append(issues, check.Issue{
							Severity: check.SeverityWarning,
							Message:  "Redundant lane width declaration.",
							Location: laneLoc(road.ID, section.S+lane.Widths[i+1].SOffset, lane.ID),
						})
					}
				}
			}
		}
	}
	return issues
}
