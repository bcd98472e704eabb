// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug-level slog.Logger routed through t.Log, so
// runner output stays attached to the test that produced it and is only
// printed for failures or -v runs.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(logSink{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logSink struct {
	t testing.TB
}

func (s logSink) Write(p []byte) (int, error) {
	s.t.Helper()
	s.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
