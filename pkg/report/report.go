// Package report assembles and renders the result of a check run.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/odrtools/odrlint/pkg/check"
)

// Summary counts issues by severity.
type Summary struct {
	Fatal    int `yaml:"fatal"`
	Errors   int `yaml:"errors"`
	Warnings int `yaml:"warnings"`
	Infos    int `yaml:"infos"`
}

// Report is the serializable outcome of one check run.
type Report struct {
	RunID         string                `yaml:"run_id"`
	Input         string                `yaml:"input"`
	SchemaVersion string                `yaml:"schema_version,omitempty"`
	GeneratedAt   time.Time             `yaml:"generated_at"`
	Checkers      []check.CheckerResult `yaml:"checkers"`
	Summary       Summary               `yaml:"summary"`
}

// New builds a report from checker results.
func New(input, schemaVersion string, results []check.CheckerResult) *Report {
	r := &Report{
		RunID:         uuid.NewString(),
		Input:         input,
		SchemaVersion: schemaVersion,
		GeneratedAt:   time.Now().UTC(),
		Checkers:      results,
	}
	for _, issue := range check.AllIssues(results) {
		switch issue.Severity {
		case check.SeverityFatal:
			r.Summary.Fatal++
		case check.SeverityError:
			r.Summary.Errors++
		case check.SeverityWarning:
			r.Summary.Warnings++
		default:
			r.Summary.Infos++
		}
	}
	return r
}

// HasBlockingIssues reports whether the run found fatal issues or errors.
func (r *Report) HasBlockingIssues() bool {
	return r.Summary.Fatal > 0 || r.Summary.Errors > 0
}

// WriteYAML serializes the report.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

// RenderTable writes a human-readable issue table followed by a one-line
// summary.
func (r *Report) RenderTable(w io.Writer) {
	issues := check.AllIssues(r.Checkers)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Rule", "Road", "S", "Lane", "Message"})

	for _, issue := range issues {
		lane := ""
		if issue.Location.LaneID != nil {
			lane = fmt.Sprintf("%d", *issue.Location.LaneID)
		}
		road := ""
		if issue.Location.RoadID >= 0 {
			road = fmt.Sprintf("%d", issue.Location.RoadID)
		}
		t.AppendRow(table.Row{
			issue.Severity,
			issue.RuleUID,
			road,
			fmt.Sprintf("%.2f", issue.Location.S),
			lane,
			issue.Message,
		})
	}
	t.Render()

	skipped := 0
	for _, res := range r.Checkers {
		if res.Status == check.StatusSkipped {
			skipped++
		}
	}
	fmt.Fprintf(w, "%d issues (%d errors, %d warnings), %d checkers run, %d skipped\n",
		len(issues), r.Summary.Fatal+r.Summary.Errors, r.Summary.Warnings,
		len(r.Checkers)-skipped, skipped)
}
