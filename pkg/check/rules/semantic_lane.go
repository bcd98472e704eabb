package rules

import (
	"fmt"
	"math"

	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

func laneLinks(lane *odr.Lane, tag odr.LinkageTag) []int {
	if tag == odr.TagPredecessor {
		return lane.Predecessors
	}
	return lane.Successors
}

// contactTag is the linkage direction a section uses to point back at
// whatever touches it at the given contact point.
func contactTag(cp odr.ContactPoint) odr.LinkageTag {
	if cp == odr.ContactStart {
		return odr.TagPredecessor
	}
	return odr.TagSuccessor
}

// checkLaneLevelTrueOneSide flags a level=false lane appearing outward of a
// level=true lane on the same side, and level disagreements across linked
// lanes within a road and between linked roads.
func checkLaneLevelTrueOneSide(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue

	for _, road := range ctx.Doc.Roads {
		for _, section := range road.Sections {
			mid := section.S + section.Length/2
			for _, side := range [][]*odr.Lane{section.Left, section.Right} {
				foundTrue := false
				for _, lane := range side {
					if lane.Level {
						foundTrue = true
					} else if foundTrue {
						issues = append(issues, check.Issue{
							Severity: check.SeverityError,
							Message:  "Lane level false encountered on same side after level true.",
							Location: laneLoc(road.ID, mid, lane.ID),
						})
					}
				}
			}
		}

		// Level changes between consecutive lane sections are warnings; one
		// issue per lane regardless of how many links disagree.
		for i := 1; i < len(road.Sections); i++ {
			prev, cur := road.Sections[i-1], road.Sections[i]
			flagged := make(map[int]bool)
			for _, lane := range cur.Lanes() {
				for _, id := range lane.Predecessors {
					if other, ok := prev.Lane(id); ok && other.ID != 0 && other.Level != lane.Level {
						flagged[lane.ID] = true
					}
				}
			}
			for _, lane := range prev.Lanes() {
				for _, id := range lane.Successors {
					if other, ok := cur.Lane(id); ok && other.ID != 0 && other.Level != lane.Level {
						flagged[lane.ID] = true
					}
				}
			}
			for _, lane := range append(cur.Lanes(), prev.Lanes()...) {
				if flagged[lane.ID] {
					issues = append(issues, check.Issue{
						Severity: check.SeverityWarning,
						Message:  "Lane levels are not the same in two consecutive lane sections.",
						Location: laneLoc(road.ID, cur.S, lane.ID),
					})
					flagged[lane.ID] = false
				}
			}
		}

		issues = append(issues, levelAcrossRoadLink(ctx, road, odr.TagPredecessor)...)
		issues = append(issues, levelAcrossRoadLink(ctx, road, odr.TagSuccessor)...)
	}
	return issues
}

func levelAcrossRoadLink(ctx *check.Ctx, road *odr.Road, tag odr.LinkageTag) []check.Issue {
	var issues []check.Issue
	var section *odr.LaneSection
	var s float64
	if tag == odr.TagPredecessor {
		section = road.FirstSection()
		s = 0
	} else {
		section = road.LastSection()
		s = road.Length
	}
	if section == nil {
		return nil
	}
	_, otherSection, ok := ctx.Topo.ContactSection(road.Link(tag))
	if !ok {
		return nil
	}
	for _, lane := range section.Lanes() {
		for _, id := range laneLinks(lane, tag) {
			other, found := otherSection.Lane(id)
			if !found {
				continue
			}
			if other.Level != lane.Level {
				issues = append(issues, check.Issue{
					Severity: check.SeverityWarning,
					Message:  "Lane levels are not the same between two connected roads.",
					Location: laneLoc(road.ID, s, lane.ID),
				})
			}
		}
	}
	return issues
}

// checkAccessNoMix flags lanes carrying both allow and deny access rules at
// the same sOffset.
func checkAccessNoMix(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon

	for _, road := range ctx.Doc.Roads {
		for _, section := range road.Sections {
			for _, lane := range section.Lanes() {
				for i, rec := range lane.Access {
					for _, earlier := range lane.Access[:i] {
						if math.Abs(earlier.SOffset-rec.SOffset) <= eps && earlier.Rule != rec.Rule {
							issues = append(issues, check.Issue{
								Severity: check.SeverityError,
								Message: fmt.Sprintf(
									"At a given s-position, either only deny or only allow access values shall be given, not mixed (found %s after %s).",
									rec.Rule, earlier.Rule),
								Location: laneLoc(road.ID, section.S+rec.SOffset, lane.ID),
							})
						}
					}
				}
			}
		}
	}
	return issues
}

// checkLanesAcrossLaneSections verifies that lane links are reciprocal:
// between consecutive sections of every road, and across road boundaries
// for roads outside junctions.
func checkLanesAcrossLaneSections(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue

	reciprocal := func(roadID int, s float64,
		first *odr.LaneSection, firstTag odr.LinkageTag,
		second *odr.LaneSection, secondTag odr.LinkageTag) {
		for _, lane := range first.Lanes() {
			for _, id := range laneLinks(lane, firstTag) {
				other, ok := second.Lane(id)
				if !ok {
					continue
				}
				back := false
				for _, backID := range laneLinks(other, secondTag) {
					if backID == lane.ID {
						back = true
					}
				}
				if !back {
					issues = append(issues, check.Issue{
						Severity: check.SeverityError,
						Message:  fmt.Sprintf("Missing reciprocal lane link from lane %d back to lane %d.", other.ID, lane.ID),
						Location: laneLoc(roadID, s, lane.ID),
					})
				}
			}
		}
	}

	for _, road := range ctx.Doc.Roads {
		for i := 1; i < len(road.Sections); i++ {
			prev, cur := road.Sections[i-1], road.Sections[i]
			reciprocal(road.ID, cur.S, prev, odr.TagSuccessor, cur, odr.TagPredecessor)
			reciprocal(road.ID, cur.S, cur, odr.TagPredecessor, prev, odr.TagSuccessor)
		}

		// First and last sections of junction roads omit links by design.
		if road.InJunction() {
			continue
		}
		for _, tag := range []odr.LinkageTag{odr.TagPredecessor, odr.TagSuccessor} {
			link := road.Link(tag)
			_, otherSection, ok := ctx.Topo.ContactSection(link)
			if !ok {
				continue
			}
			var section *odr.LaneSection
			var s float64
			if tag == odr.TagPredecessor {
				section, s = road.FirstSection(), 0
			} else {
				section, s = road.LastSection(), road.Length
			}
			if section == nil {
				continue
			}
			otherTag := contactTag(link.ContactPoint)
			reciprocal(road.ID, s, section, tag, otherSection, otherTag)
			reciprocal(road.ID, s, otherSection, otherTag, section, tag)
		}
	}
	return issues
}

// checkNewLaneAppear flags links pointing at lanes that have zero width at
// the shared boundary: a lane appearing from zero width shall not be linked.
func checkNewLaneAppear(ctx *check.Ctx) []check.Issue {
	var issues []check.Issue
	eps := ctx.Tol.FloatEpsilon

	flagIfZero := func(roadID int, s float64, fromLane *odr.Lane, target *odr.Lane, widthAt float64, tag odr.LinkageTag) {
		if math.Abs(evalWidth(target, widthAt)) < eps {
			issues = append(issues, check.Issue{
				Severity: check.SeverityError,
				Message:  fmt.Sprintf("Lane %s link points to lane %d with zero width at the boundary.", tag, target.ID),
				Location: laneLoc(roadID, s, fromLane.ID),
			})
		}
	}

	for _, road := range ctx.Doc.Roads {
		for i := 1; i < len(road.Sections); i++ {
			prev, cur := road.Sections[i-1], road.Sections[i]
			for _, lane := range prev.Lanes() {
				for _, id := range lane.Successors {
					if target, ok := cur.Lane(id); ok && target.ID != 0 {
						flagIfZero(road.ID, cur.S, lane, target, 0, odr.TagSuccessor)
					}
				}
			}
			for _, lane := range cur.Lanes() {
				for _, id := range lane.Predecessors {
					if target, ok := prev.Lane(id); ok && target.ID != 0 {
						flagIfZero(road.ID, cur.S, lane, target, prev.Length, odr.TagPredecessor)
					}
				}
			}
		}

		if road.InJunction() {
			continue
		}
		for _, tag := range []odr.LinkageTag{odr.TagPredecessor, odr.TagSuccessor} {
			link := road.Link(tag)
			otherRoad, otherSection, ok := ctx.Topo.ContactSection(link)
			if !ok {
				continue
			}
			var section *odr.LaneSection
			var s float64
			if tag == odr.TagPredecessor {
				section, s = road.FirstSection(), 0
			} else {
				section, s = road.LastSection(), road.Length
			}
			if section == nil {
				continue
			}
			widthAt := 0.0
			if link.ContactPoint == odr.ContactEnd {
				widthAt = otherRoad.Length - otherSection.S
			}
			for _, lane := range section.Lanes() {
				for _, id := range laneLinks(lane, tag) {
					if target, ok := otherSection.Lane(id); ok && target.ID != 0 {
						flagIfZero(road.ID, s, lane, target, widthAt, tag)
					}
				}
			}
		}
	}
	return issues
}
