// Package rules holds the checker descriptors. All descriptors live in the
// single ordered list below; the runner consumes the list as-is, so order
// here is report order.
package rules

import (
	"math"

	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/pkg/check"
)

// Checker ids referenced as preconditions.
const (
	idElemAscOrder = "road_geometry_elem_asc_order"
)

// geometryPreconditions gate checkers that evaluate positions along the
// reference line: a misordered plan view makes those positions meaningless.
var geometryPreconditions = []string{idElemAscOrder}

// All is the complete descriptor list in declaration order.
var All = []check.Descriptor{
	{
		ID:          idElemAscOrder,
		RuleUID:     "asam.net:xodr:1.4.0:road.geometry.elem_asc_order",
		Description: "Geometry elements shall be defined in ascending order along the reference line, with no positional gap between consecutive elements.",
		Check:       checkElemAscOrder,
	},
	{
		ID:          "road_lane_level_true_one_side",
		RuleUID:     "asam.net:xodr:1.7.0:road.lane.level_true_one_side",
		Description: "Lane level false shall not occur on the same side after level true, and levels shall agree across linked lanes.",
		Check:       checkLaneLevelTrueOneSide,
	},
	{
		ID:          "road_lane_access_no_mix_of_deny_or_allow",
		RuleUID:     "asam.net:xodr:1.7.0:road.lane.access.no_mix_of_deny_or_allow",
		Description: "At a given s-position, either only deny or only allow access values shall be given, not mixed.",
		Check:       checkAccessNoMix,
	},
	{
		ID:          "road_lane_link_lanes_across_lane_sections",
		RuleUID:     "asam.net:xodr:1.4.0:road.lane.link.lanes_across_lane_sections",
		Description: "Lanes that continue across lane sections shall be connected in both directions.",
		Check:       checkLanesAcrossLaneSections,
	},
	{
		ID:          "road_lane_link_new_lane_appear",
		RuleUID:     "asam.net:xodr:1.4.0:road.lane.link.new_lane_appear",
		Description: "A newly appearing lane with zero width at the boundary shall not be linked.",
		Check:       checkNewLaneAppear,
	},
	{
		ID:          "road_lane_link_zero_width_at_start",
		RuleUID:     "asam.net:xodr:1.7.0:road.lane.link.zero_width_at_start",
		Description: "Lanes with zero width at the start of a lane section shall have no predecessor link.",
		Check:       checkZeroWidthAtStart,
	},
	{
		ID:          "road_lane_link_zero_width_at_end",
		RuleUID:     "asam.net:xodr:1.7.0:road.lane.link.zero_width_at_end",
		Description: "Lanes with zero width at the end of a lane section shall have no successor link.",
		Check:       checkZeroWidthAtEnd,
	},
	{
		ID:          "road_linkage_is_junction_needed",
		RuleUID:     "asam.net:xodr:1.4.0:road.linkage.is_junction_needed",
		Description: "If the relationship to successor or predecessor is ambiguous, junctions shall be used.",
		Check:       checkIsJunctionNeeded,
	},
	{
		ID:          "junctions_connection_connect_road_no_incoming_road",
		RuleUID:     "asam.net:xodr:1.4.0:junctions.connection.connect_road_no_incoming_road",
		Description: "Connecting roads shall not be incoming roads.",
		Check:       checkConnectRoadNoIncomingRoad,
	},
	{
		ID:                "junctions_connection_one_connection_element",
		RuleUID:           "asam.net:xodr:1.7.0:junctions.connection.one_connection_element",
		Description:       "Each connecting road shall be represented by exactly one connection element.",
		ApplicableVersion: "<=1.7.0",
		Check:             checkOneConnectionElement,
	},
	{
		ID:          "junctions_connection_one_link_to_incoming",
		RuleUID:     "asam.net:xodr:1.8.0:junctions.connection.one_link_to_incoming",
		Description: "Each incoming road shall be linked to a connecting road by at most one connection, with at most one lane link per incoming lane.",
		Check:       checkOneLinkToIncoming,
	},
	{
		ID:          "junctions_connection_start_along_linkage",
		RuleUID:     "asam.net:xodr:1.7.0:junctions.connection.start_along_linkage",
		Description: "Contact point start shall indicate that the connecting road runs along the linkage indicated in the element.",
		Check:       checkStartAlongLinkage,
	},
	{
		ID:          "junctions_connection_end_opposite_linkage",
		RuleUID:     "asam.net:xodr:1.7.0:junctions.connection.end_opposite_linkage",
		Description: "Contact point end shall indicate that the connecting road runs opposite to the linkage indicated in the element.",
		Check:       checkEndOppositeLinkage,
	},
	{
		ID:          "road_geometry_parampoly3_length_match",
		RuleUID:     "asam.net:xodr:1.7.0:road.geometry.parampoly3.length_match",
		Description: "The actual curve length, as determined by numerical integration over the parameter range, should match the declared length.",
		Check:       checkParamPoly3LengthMatch,
	},
	{
		ID:          "road_geometry_parampoly3_arclength_range",
		RuleUID:     "asam.net:xodr:1.7.0:road.geometry.parampoly3.arclength_range",
		Description: "If pRange is arcLength, p shall be chosen in [0, length].",
		Check:       checkParamPoly3ArcLengthRange,
	},
	{
		ID:          "road_geometry_parampoly3_normalized_range",
		RuleUID:     "asam.net:xodr:1.7.0:road.geometry.parampoly3.normalized_range",
		Description: "If pRange is normalized, p shall be chosen in [0, 1].",
		Check:       checkParamPoly3NormalizedRange,
	},
	{
		ID:            "road_lane_border_overlap_with_inner_lanes",
		RuleUID:       "asam.net:xodr:1.4.0:road.lane.border.overlap_with_inner_lanes",
		Description:   "Lane borders shall not intersect inner lanes.",
		Preconditions: geometryPreconditions,
		Check:         checkLaneBorderOverlap,
	},
	{
		ID:          "performance_avoid_redundant_info",
		RuleUID:     "asam.net:xodr:1.7.0:performance.avoid_redundant_info",
		Description: "Redundant geometry, elevation, superelevation, lane offset and lane width declarations should be avoided.",
		Check:       checkAvoidRedundantInfo,
	},
	{
		ID:            "lane_smoothness_contact_point_no_horizontal_gaps",
		RuleUID:       "asam.net:xodr:1.7.0:lane_smoothness.contact_point_no_horizontal_gaps",
		Description:   "Two connected drivable lanes shall have no horizontal gaps.",
		Preconditions: geometryPreconditions,
		Check:         checkContactPointNoHorizontalGaps,
	},
}

// drivableLaneTypes limits gap detection to lanes where a vehicle or rider
// actually travels.
var drivableLaneTypes = map[string]bool{
	"driving":        true,
	"entry":          true,
	"exit":           true,
	"onRamp":         true,
	"offRamp":        true,
	"connectingRamp": true,
	"slipLane":       true,
	"parking":        true,
	"biking":         true,
	"border":         true,
	"stop":           true,
	"restricted":     true,
}

// sameEquations reports whether two offset cubics describe the same
// function of s. The difference polynomial is expanded around s=0 and all
// four coefficients compared against eps.
func sameEquations(first, second odr.OffsetPoly3, eps float64) bool {
	s1, s2 := first.SOffset, second.SOffset
	a3 := first.A - second.A -
		first.B*s1 + second.B*s2 +
		first.C*s1*s1 - second.C*s2*s2 -
		first.D*s1*s1*s1 + second.D*s2*s2*s2
	b3 := first.B - second.B -
		2*first.C*s1 + 2*second.C*s2 +
		3*first.D*s1*s1 - 3*second.D*s2*s2
	c3 := first.C - second.C -
		3*first.D*s1 + 3*second.D*s2
	d3 := first.D - second.D
	return math.Abs(a3) < eps && math.Abs(b3) < eps &&
		math.Abs(c3) < eps && math.Abs(d3) < eps
}

func planarDistance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

func laneLoc(roadID int, s float64, laneID int) check.Location {
	id := laneID
	return check.Location{RoadID: roadID, S: s, LaneID: &id}
}

func roadLoc(roadID int, s float64) check.Location {
	return check.Location{RoadID: roadID, S: s}
}
