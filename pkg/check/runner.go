package check

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/odrtools/odrlint/internal/config"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/internal/topology"
	"github.com/odrtools/odrlint/internal/version"
)

// Runner executes a fixed descriptor list against a document.
type Runner struct {
	descriptors []Descriptor
	cfg         config.Config
	log         *slog.Logger

	byID   map[string]int
	defVer []version.Version
	spec   []version.Constraint
	levels [][]int
}

// NewRunner validates the descriptor list and precomputes the execution
// schedule. Any validation failure is fatal: the run must not start.
func NewRunner(descriptors []Descriptor, cfg config.Config, log *slog.Logger) (*Runner, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Runner{
		descriptors: descriptors,
		cfg:         cfg,
		log:         log,
		byID:        make(map[string]int, len(descriptors)),
		defVer:      make([]version.Version, len(descriptors)),
		spec:        make([]version.Constraint, len(descriptors)),
	}
	for i, d := range descriptors {
		if d.ID == "" || d.Check == nil {
			return nil, fmt.Errorf("descriptor %d: missing id or check function", i)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate checker id %q", d.ID)
		}
		r.byID[d.ID] = i

		dv, err := d.DefinitionVersion()
		if err != nil {
			return nil, err
		}
		r.defVer[i] = dv

		c, err := version.Parse(d.ApplicableVersion)
		if err != nil {
			return nil, fmt.Errorf("checker %q: %w", d.ID, err)
		}
		r.spec[i] = c
	}
	for _, d := range descriptors {
		for _, pre := range d.Preconditions {
			if _, ok := r.byID[pre]; !ok {
				return nil, fmt.Errorf("checker %q: unknown precondition %q", d.ID, pre)
			}
		}
	}
	levels, err := r.schedule()
	if err != nil {
		return nil, err
	}
	r.levels = levels
	return r, nil
}

// schedule groups descriptors into waves by precondition depth. Checkers in
// one wave share no edges and run concurrently; a wave starts only when the
// previous wave finished.
func (r *Runner) schedule() ([][]int, error) {
	depth := make([]int, len(r.descriptors))
	state := make([]int, len(r.descriptors)) // 0 unvisited, 1 visiting, 2 done

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case 1:
			return fmt.Errorf("precondition cycle through checker %q", r.descriptors[i].ID)
		case 2:
			return nil
		}
		state[i] = 1
		d := 0
		for _, pre := range r.descriptors[i].Preconditions {
			j := r.byID[pre]
			if err := visit(j); err != nil {
				return err
			}
			if depth[j]+1 > d {
				d = depth[j] + 1
			}
		}
		depth[i] = d
		state[i] = 2
		return nil
	}
	maxDepth := 0
	for i := range r.descriptors {
		if err := visit(i); err != nil {
			return nil, err
		}
		if depth[i] > maxDepth {
			maxDepth = depth[i]
		}
	}
	levels := make([][]int, maxDepth+1)
	for i := range r.descriptors {
		levels[depth[i]] = append(levels[depth[i]], i)
	}
	return levels, nil
}

// applicable decides whether descriptor i applies to the file version.
// A constraint with its own lower bound stands alone; otherwise the
// rule's definition version acts as the implicit lower bound.
func (r *Runner) applicable(i int, v version.Version) bool {
	spec := r.spec[i]
	if len(spec) > 0 && !spec.Match(v) {
		return false
	}
	if len(spec) > 0 && spec.HasLowerBound() {
		return true
	}
	return v.Compare(r.defVer[i]) >= 0
}

// Run executes all applicable checkers over the document and returns one
// result per descriptor, in declaration order.
func (r *Runner) Run(ctx context.Context, doc *odr.Document) ([]CheckerResult, error) {
	fileVer, err := version.ParseVersion(doc.SchemaVersion())
	if err != nil {
		return nil, fmt.Errorf("file schema version: %w", err)
	}

	cctx := &Ctx{
		Doc:  doc,
		Topo: topology.Build(doc),
		Tol:  r.cfg.Tolerances,
	}

	results := make([]CheckerResult, len(r.descriptors))
	for i, d := range r.descriptors {
		results[i] = CheckerResult{ID: d.ID, RuleUID: d.RuleUID, Status: StatusCompleted}
	}

	for _, level := range r.levels {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workerLimit())
		for _, i := range level {
			d := r.descriptors[i]

			switch {
			case r.cfg.IsDisabled(d.RuleUID):
				results[i].Status = StatusSkipped
				results[i].Reason = "disabled by configuration"
				continue
			case !r.applicable(i, fileVer):
				results[i].Status = StatusSkipped
				results[i].Reason = fmt.Sprintf("not applicable to version %s", fileVer)
				continue
			}
			if blocked, pre := r.blockedBy(d, results); blocked {
				results[i].Status = StatusSkipped
				results[i].Reason = fmt.Sprintf("precondition %s reported issues", pre)
				continue
			}

			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				issues, runErr := runCheck(d, cctx)
				if runErr != nil {
					r.log.Error("checker failed", "checker", d.ID, "error", runErr)
					results[i].Status = StatusError
					results[i].Reason = runErr.Error()
					return nil
				}
				for j := range issues {
					issues[j].CheckerID = d.ID
					issues[j].RuleUID = d.RuleUID
					if ov, ok := r.cfg.SeverityOverrides[d.RuleUID]; ok {
						if sev, valid := ParseSeverity(ov); valid {
							issues[j].Severity = sev
						}
					}
				}
				results[i].Issues = issues
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func (r *Runner) workerLimit() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return 1
}

// blockedBy reports whether any precondition of d did not complete cleanly.
// Preconditions always live in earlier waves, so their results are final.
func (r *Runner) blockedBy(d Descriptor, results []CheckerResult) (bool, string) {
	for _, pre := range d.Preconditions {
		res := results[r.byID[pre]]
		if res.Status == StatusError || len(res.Issues) > 0 {
			return true, pre
		}
	}
	return false, ""
}

func runCheck(d Descriptor, cctx *Ctx) (issues []Issue, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return d.Check(cctx), nil
}

// AllIssues flattens results into one list, keeping descriptor declaration
// order and per-checker issue order.
func AllIssues(results []CheckerResult) []Issue {
	var out []Issue
	for _, res := range results {
		out = append(out, res.Issues...)
	}
	return out
}

// FatalResult wraps a model-build failure as the single result of a run
// that executed no checkers.
func FatalResult(err error) []CheckerResult {
	return []CheckerResult{{
		ID:     "model_build",
		Status: StatusError,
		Reason: err.Error(),
		Issues: []Issue{{
			CheckerID: "model_build",
			Severity:  SeverityFatal,
			Message:   err.Error(),
			Location:  Location{RoadID: -1},
		}},
	}}
}

// SortIssues orders issues by road, then s, then rule uid. Used by report
// rendering when a location-major view is wanted.
func SortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Location.RoadID != issues[j].Location.RoadID {
			return issues[i].Location.RoadID < issues[j].Location.RoadID
		}
		if issues[i].Location.S != issues[j].Location.S {
			return issues[i].Location.S < issues[j].Location.S
		}
		return issues[i].RuleUID < issues[j].RuleUID
	})
}
