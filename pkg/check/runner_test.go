package check

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odrtools/odrlint/internal/config"
	"github.com/odrtools/odrlint/internal/odr"
	"github.com/odrtools/odrlint/internal/testutil"
)

func loadDoc(t *testing.T, minor int) *odr.Document {
	t.Helper()
	xodr := fmt.Sprintf(`<OpenDRIVE>
  <header revMajor="1" revMinor="%d"/>
  <road id="1" length="10" junction="-1">
    <planView><geometry s="0" x="0" y="0" hdg="0" length="10"><line/></geometry></planView>
    <lanes><laneSection s="0"><center><lane id="0" type="none" level="false"/></center></laneSection></lanes>
  </road>
</OpenDRIVE>`, minor)
	doc, err := odr.Load(strings.NewReader(xodr))
	require.NoError(t, err)
	return doc
}

func noIssues(*Ctx) []Issue { return nil }

func oneIssue(sev Severity, msg string) func(*Ctx) []Issue {
	return func(*Ctx) []Issue {
		return []Issue{{Severity: sev, Message: msg, Location: Location{RoadID: 1}}}
	}
}

func TestRunnerStampsAndOrders(t *testing.T) {
	descriptors := []Descriptor{
		{
			ID:      "first",
			RuleUID: "asam.net:xodr:1.4.0:road.first",
			Check:   oneIssue(SeverityError, "broken"),
		},
		{
			ID:      "second",
			RuleUID: "asam.net:xodr:1.4.0:road.second",
			Check:   noIssues,
		},
	}
	r, err := NewRunner(descriptors, config.Default(), testutil.NewTestLogger(t))
	require.NoError(t, err)

	results, err := r.Run(context.Background(), loadDoc(t, 7))
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "first", results[0].ID)
	assert.Equal(t, "second", results[1].ID)
	assert.Equal(t, StatusCompleted, results[0].Status)
	assert.Equal(t, StatusCompleted, results[1].Status)

	require.Len(t, results[0].Issues, 1)
	issue := results[0].Issues[0]
	assert.Equal(t, "first", issue.CheckerID)
	assert.Equal(t, "asam.net:xodr:1.4.0:road.first", issue.RuleUID)
	assert.Empty(t, results[1].Issues)
}

func TestRunnerPreconditionBlocks(t *testing.T) {
	descriptors := []Descriptor{
		{
			ID:      "base",
			RuleUID: "asam.net:xodr:1.4.0:road.base",
			Check:   oneIssue(SeverityError, "bad geometry"),
		},
		{
			ID:            "dependent",
			RuleUID:       "asam.net:xodr:1.4.0:road.dependent",
			Preconditions: []string{"base"},
			Check: func(*Ctx) []Issue {
				t.Error("dependent must not run when its precondition reported issues")
				return nil
			},
		},
	}
	r, err := NewRunner(descriptors, config.Default(), nil)
	require.NoError(t, err)

	results, err := r.Run(context.Background(), loadDoc(t, 7))
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Contains(t, results[1].Reason, "base")
}

func TestRunnerPreconditionClean(t *testing.T) {
	ran := false
	descriptors := []Descriptor{
		{
			ID:      "base",
			RuleUID: "asam.net:xodr:1.4.0:road.base",
			Check:   noIssues,
		},
		{
			ID:            "dependent",
			RuleUID:       "asam.net:xodr:1.4.0:road.dependent",
			Preconditions: []string{"base"},
			Check: func(*Ctx) []Issue {
				ran = true
				return nil
			},
		},
	}
	r, err := NewRunner(descriptors, config.Default(), nil)
	require.NoError(t, err)

	results, err := r.Run(context.Background(), loadDoc(t, 7))
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, StatusCompleted, results[1].Status)
}

func TestRunnerVersionGating(t *testing.T) {
	descriptors := []Descriptor{
		{
			// No explicit constraint: the definition version is the implicit
			// lower bound.
			ID:      "implicit",
			RuleUID: "asam.net:xodr:1.7.0:road.implicit",
			Check:   noIssues,
		},
		{
			// Upper bound only: the definition version still gates below.
			ID:                "capped",
			RuleUID:           "asam.net:xodr:1.7.0:road.capped",
			ApplicableVersion: "<=1.7.0",
			Check:             noIssues,
		},
		{
			// Explicit lower bound replaces the definition version.
			ID:                "lowered",
			RuleUID:           "asam.net:xodr:1.7.0:road.lowered",
			ApplicableVersion: ">=1.6.0",
			Check:             noIssues,
		},
	}
	r, err := NewRunner(descriptors, config.Default(), nil)
	require.NoError(t, err)

	byVersion := map[int][]Status{
		6: {StatusSkipped, StatusSkipped, StatusCompleted},
		7: {StatusCompleted, StatusCompleted, StatusCompleted},
		8: {StatusCompleted, StatusSkipped, StatusCompleted},
	}
	for minor, want := range byVersion {
		results, err := r.Run(context.Background(), loadDoc(t, minor))
		require.NoError(t, err)
		for i, st := range want {
			assert.Equal(t, st, results[i].Status, "version 1.%d.0 checker %s", minor, results[i].ID)
		}
	}
}

func TestRunnerDisabledRule(t *testing.T) {
	descriptors := []Descriptor{{
		ID:      "first",
		RuleUID: "asam.net:xodr:1.4.0:road.first",
		Check:   oneIssue(SeverityError, "broken"),
	}}
	cfg := config.Default()
	cfg.Disabled = []string{"asam.net:xodr:1.4.0:road.first"}

	r, err := NewRunner(descriptors, cfg, nil)
	require.NoError(t, err)
	results, err := r.Run(context.Background(), loadDoc(t, 7))
	require.NoError(t, err)

	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, "disabled by configuration", results[0].Reason)
	assert.Empty(t, results[0].Issues)
}

func TestRunnerSeverityOverride(t *testing.T) {
	descriptors := []Descriptor{{
		ID:      "first",
		RuleUID: "asam.net:xodr:1.4.0:road.first",
		Check:   oneIssue(SeverityError, "broken"),
	}}
	cfg := config.Default()
	cfg.SeverityOverrides = map[string]string{"asam.net:xodr:1.4.0:road.first": "warning"}

	r, err := NewRunner(descriptors, cfg, nil)
	require.NoError(t, err)
	results, err := r.Run(context.Background(), loadDoc(t, 7))
	require.NoError(t, err)

	require.Len(t, results[0].Issues, 1)
	assert.Equal(t, SeverityWarning, results[0].Issues[0].Severity)
}

func TestRunnerRecoversPanic(t *testing.T) {
	descriptors := []Descriptor{{
		ID:      "panics",
		RuleUID: "asam.net:xodr:1.4.0:road.panics",
		Check:   func(*Ctx) []Issue { panic("boom") },
	}}
	r, err := NewRunner(descriptors, config.Default(), testutil.NewTestLogger(t))
	require.NoError(t, err)
	results, err := r.Run(context.Background(), loadDoc(t, 7))
	require.NoError(t, err)

	assert.Equal(t, StatusError, results[0].Status)
	assert.Contains(t, results[0].Reason, "boom")
}

func TestNewRunnerValidation(t *testing.T) {
	ok := Descriptor{ID: "a", RuleUID: "asam.net:xodr:1.4.0:road.a", Check: noIssues}

	cases := []struct {
		name        string
		descriptors []Descriptor
	}{
		{"missing check", []Descriptor{{ID: "a", RuleUID: "asam.net:xodr:1.4.0:road.a"}}},
		{"duplicate id", []Descriptor{ok, ok}},
		{"bad rule uid", []Descriptor{{ID: "a", RuleUID: "road.a", Check: noIssues}}},
		{"unknown precondition", []Descriptor{{
			ID: "a", RuleUID: "asam.net:xodr:1.4.0:road.a",
			Preconditions: []string{"nope"}, Check: noIssues,
		}}},
		{"bad constraint", []Descriptor{{
			ID: "a", RuleUID: "asam.net:xodr:1.4.0:road.a",
			ApplicableVersion: "1.7.0", Check: noIssues,
		}}},
		{"cycle", []Descriptor{
			{ID: "a", RuleUID: "asam.net:xodr:1.4.0:road.a", Preconditions: []string{"b"}, Check: noIssues},
			{ID: "b", RuleUID: "asam.net:xodr:1.4.0:road.b", Preconditions: []string{"a"}, Check: noIssues},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRunner(tc.descriptors, config.Default(), nil)
			assert.Error(t, err)
		})
	}
}

func TestFatalResult(t *testing.T) {
	results := FatalResult(fmt.Errorf("bad file"))
	require.Len(t, results, 1)
	assert.Equal(t, StatusError, results[0].Status)
	require.Len(t, results[0].Issues, 1)
	assert.Equal(t, SeverityFatal, results[0].Issues[0].Severity)
	assert.Equal(t, -1, results[0].Issues[0].Location.RoadID)
}
