package rules

import (
	"fmt"
	"sort"

	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// checkIsJunctionNeeded flags road ends referenced directly by more than
// one road outside a junction: that linkage is ambiguous and a junction is
// required to resolve it.
func checkIsJunctionNeeded(ctx *check.Ctx) []check.Issue {
	if len(ctx.Doc.Roads) < 2 {
		return nil
	}

	type end struct {
		roadID  int
		contact odr.ContactPoint
	}
	var ambiguous []end
	for _, road := range ctx.Doc.Roads {
		for _, cp := range []odr.ContactPoint{odr.ContactStart, odr.ContactEnd} {
			if len(ctx.Topo.EndReferences(road.ID, cp)) > 1 {
				ambiguous = append(ambiguous, end{roadID: road.ID, contact: cp})
			}
		}
	}
	sort.Slice(ambiguous, func(i, j int) bool {
		if ambiguous[i].roadID != ambiguous[j].roadID {
			return ambiguous[i].roadID < ambiguous[j].roadID
		}
		return ambiguous[i].contact < ambiguous[j].contact
	})

	var issues []check.Issue
	for _, e := range ambiguous {
		s := 0.0
		if e.contact == odr.ContactEnd {
			if road, ok := ctx.Doc.Road(e.roadID); ok {
				s = road.Length
			}
		}
		tag := odr.TagPredecessor
		if e.contact == odr.ContactEnd {
			tag = odr.TagSuccessor
		}
		issues = append(issues, check.Issue{
			Severity: check.SeverityError,
			Message:  fmt.Sprintf("Road cannot have ambiguous %s, a junction is needed.", tag),
			Location: roadLoc(e.roadID, s),
		})
	}
	return issues
}
