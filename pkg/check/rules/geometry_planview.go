package rules

import (
	"fmt"
	"math"

	"github.com/odrtools/odrlint/internal/geometry"
	"github.com/odrtools/odrlint/pkg/check"
)

// checkElemAscOrder verifies plan-view ordering: strictly ascending s
// coordinates, s-contiguity of consecutive records, and positional
// continuity of each segment's end point with the next segment's origin.
func checkElemAscOrder(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon
	gapTol := ctx.Tol.HorizontalGap

	for _, road := range ctx.Doc.Roads {
		lastS := 0.0
		for i, seg := range road.PlanView {
			if i > 0 && seg.S0 <= lastS {
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message:  "Geometry elements shall be defined in ascending order along the reference line.",
					Location: roadLoc(road.ID, seg.S0),
				})
			}
			if seg.S0 > lastS {
				lastS = seg.S0
			}
		}

		for i := 1; i < len(road.PlanView); i++ {
			prev, cur := road.PlanView[i-1], road.PlanView[i]

			if math.Abs(prev.S0+prev.Length-cur.S0) > eps {
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message: fmt.Sprintf(
						"Geometry element at s=%g does not continue where the previous element ends (s=%g).",
						cur.S0, prev.S0+prev.Length),
					Location: roadLoc(road.ID, cur.S0),
				})
				continue
			}

			end, err := geometry.Eval(prev, prev.S0+prev.Length)
			if err != nil {
				continue
			}
			gap := planarDistance(end.X, end.Y, cur.X0, cur.Y0)
			if gap > gapTol {
				issues = append(issues, check.Issue{
					Severity: check.SeverityError,
					Message: fmt.Sprintf(
						"The transition between geometry elements has a horizontal gap of %g meters.", gap),
					Location: roadLoc(road.ID, cur.S0),
				})
			}
		}
	}
	return issues
}
