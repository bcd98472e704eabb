// Package check defines the checker descriptor model and the orchestrator
// that runs descriptors against a loaded document.
package check

import (
	"fmt"
	"strings"

	"github.com/odrtools/odrlint/internal/config"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/internal/topology"
	"github.com/odrtools/odrlint/internal/version"
)

// Severity classifies an issue.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps a config string to a severity.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(s)) {
	case SeverityFatal:
		return SeverityFatal, true
	case SeverityError:
		return SeverityError, true
	case SeverityWarning:
		return SeverityWarning, true
	case SeverityInfo:
		return SeverityInfo, true
	}
	return "", false
}

// Location points an issue at a spot in the network. RoadID -1 means the
// issue is not tied to a single road. LaneID is optional.
type Location struct {
	RoadID int     `yaml:"road_id"`
	S      float64 `yaml:"s"`
	LaneID *int    `yaml:"lane_id,omitempty"`
}

// Issue is a single rule violation. Checks fill Severity, Message and
// Location; the runner stamps CheckerID and RuleUID and applies severity
// overrides afterwards.
type Issue struct {
	CheckerID string   `yaml:"checker_id"`
	RuleUID   string   `yaml:"rule_uid"`
	Severity  Severity `yaml:"severity"`
	Message   string   `yaml:"message"`
	Location  Location `yaml:"location"`
}

// Ctx is the read-only context shared by all checks in a run.
type Ctx struct {
	Doc  *odr.Document
	Topo *topology.Topology
	Tol  config.Tolerances
}

// Descriptor declares one checker. Descriptors live in a single static
// ordered list; there is no registration side channel.
type Descriptor struct {
	// ID is the short checker identifier used in reports.
	ID string
	// RuleUID is the full rule identifier
	// "emanating_entity:standard:definition_version:rule.name".
	RuleUID string
	Description string
	// Preconditions lists checker IDs that must complete with zero issues
	// before this checker runs.
	Preconditions []string
	// ApplicableVersion constrains the schema versions the checker applies
	// to. Empty means from the definition version onward.
	ApplicableVersion string
	Check             func(*Ctx) []Issue
}

// DefinitionVersion extracts the rule's definition version, the third
// segment of the rule uid.
func (d Descriptor) DefinitionVersion() (version.Version, error) {
	parts := strings.Split(d.RuleUID, ":")
	if len(parts) != 4 {
		return version.Version{}, fmt.Errorf("rule uid %q: want 4 colon-separated segments", d.RuleUID)
	}
	v, err := version.ParseVersion(parts[2])
	if err != nil {
		return version.Version{}, fmt.Errorf("rule uid %q: %w", d.RuleUID, err)
	}
	return v, nil
}

// Status of one checker after a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

// CheckerResult is the outcome of one descriptor.
type CheckerResult struct {
	ID      string  `yaml:"checker_id"`
	RuleUID string  `yaml:"rule_uid"`
	Status  Status  `yaml:"status"`
	Reason  string  `yaml:"reason,omitempty"`
	Issues  []Issue `yaml:"issues,omitempty"`
}
