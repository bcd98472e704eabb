package rules

import (
	"fmt"

	"github.com/odrtools/odrlint/internal/geometry"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// checkLaneBorderOverlap samples the border curves of lanes that define
// explicit borders and flags an outer lane whose border crosses to the
// inner side of a more central lane's border anywhere in the section.
func checkLaneBorderOverlap(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon
	step := ctx.Tol.OverlapSampleStep
	if step <= 0 {
		step = 0.5
	}

	for _, road := range ctx.Doc.Roads {
		for _, section := range road.Sections {
			for _, side := range [][]*odr.Lane{section.Left, section.Right} {
				issues = append(issues, overlapOnSide(road, section, side, step, eps)...)
			}
		}
	}
	return issues
}

// overlapOnSide walks lane pairs ordered center to border. Sign normalizes
// both sides so "inside" always means a smaller absolute t.
func overlapOnSide(road *odr.Road, section *odr.LaneSection, side []*odr.Lane, step, eps float64) []check.Issue {
	var issues []check.Issue
	bordered := make([]*odr.Lane, 0, len(side))
	for _, lane := range side {
		if len(lane.Borders) > 0 {
			bordered = append(bordered, lane)
		}
	}
	if len(bordered) < 2 {
		return nil
	}
	sign := 1.0
	if bordered[0].ID < 0 {
		sign = -1.0
	}

	for inner := 0; inner < len(bordered); inner++ {
		for outer := inner + 1; outer < len(bordered); outer++ {
			innerLane, outerLane := bordered[inner], bordered[outer]
			for sOff := 0.0; ; sOff += step {
				if sOff > section.Length {
					sOff = section.Length
				}
				tInner := sign * geometry.EvalLaneBorder(innerLane, sOff)
				tOuter := sign * geometry.EvalLaneBorder(outerLane, sOff)
				if tOuter < tInner-eps {
					issues = append(issues, check.Issue{
						Severity: check.SeverityError,
						Message: fmt.Sprintf(
							"Border of lane %d intersects or stays within the border of inner lane %d.",
							outerLane.ID, innerLane.ID),
						Location: laneLoc(road.ID, section.S+sOff, outerLane.ID),
					})
					break
				}
				if sOff >= section.Length {
					break
				}
			}
		}
	}
	return issues
}
