package rules

import (
	"fmt"
	"math"

	"github.com/odrtools/odrlint/internal/geometry"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// paramPoly3Lengths compares the integrated curve length of every
// parametric-cubic geometry with the given pRange against its declared
// length. The parameter runs over [0, length] for arcLength curves and
// [0, 1] for normalized ones; a mismatch beyond tolerance means p was
// chosen outside the required range (or the declared length is wrong).
func paramPoly3Lengths(ctx *check.Ctx, pr odr.PRange, severity check.Severity, msg string) []check.Issue {
	var issues []check.Issue
	tol := ctx.Tol.LengthTolerance

	for _, road := range ctx.Doc.Roads {
		for _, seg := range road.PlanView {
			pp, ok := seg.Curve.(odr.ParamPoly3)
			if !ok || pp.PRange != pr || seg.Length <= 0 {
				continue
			}
			to := seg.Length
			if pr == odr.PRangeNormalized {
				to = 1
			}
			curveLen := geometry.ParamCurveLength(pp, 0, to)
			if math.Abs(curveLen-seg.Length) > tol {
				issues = append(issues, check.Issue{
					Severity: severity,
					Message:  fmt.Sprintf("%s (declared %g m, integrated %g m).", msg, seg.Length, curveLen),
					Location: roadLoc(road.ID, seg.S0+seg.Length/2),
				})
			}
		}
	}
	return issues
}

func checkParamPoly3LengthMatch(ctx *check.Ctx) []check.Issue {
	return paramPoly3Lengths(ctx, odr.PRangeNormalized, check.SeverityWarning,
		"Declared length does not match the actual curve length")
}

func checkParamPoly3ArcLengthRange(ctx *check.Ctx) []check.Issue {
	return paramPoly3Lengths(ctx, odr.PRangeArcLength, check.SeverityError,
		"Curve length over p in [0, length] does not match the declared length")
}

func checkParamPoly3NormalizedRange(ctx *check.Ctx) []check.Issue {
	return paramPoly3Lengths(ctx, odr.PRangeNormalized, check.SeverityError,
		"Curve length over p in [0, 1] does not match the declared length")
}
