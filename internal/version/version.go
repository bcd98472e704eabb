// Package version implements the applicable-version mini-language used to
// gate checkers by standard revision: comma-separated comparison clauses
// over full three-part versions, e.g. ">=1.6.0,<1.8.0". Comma means AND.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator of a single clause.
type Op string

const (
	OpLT Op = "<"
	OpLE Op = "<="
	OpGT Op = ">"
	OpGE Op = ">="
)

// Version is a full major.minor.patch revision.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 comparing v against o component-wise.
func (v Version) Compare(o Version) int {
	for _, d := range [3]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// ParseVersion parses a strict three-part version. Partial versions such as
// "1.6" are rejected.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q: want major.minor.patch", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || (len(p) > 1 && p[0] == '0') {
			return Version{}, fmt.Errorf("version %q: invalid component %q", s, p)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Bound is a single parsed clause.
type Bound struct {
	Op      Op
	Version Version
}

func (b Bound) matches(v Version) bool {
	c := v.Compare(b.Version)
	switch b.Op {
	case OpLT:
		return c < 0
	case OpLE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpGE:
		return c >= 0
	}
	return false
}

// Constraint is a conjunction of bounds. The empty constraint matches
// everything.
type Constraint []Bound

// Parse parses a comma-separated clause list. The empty string parses to the
// empty constraint.
func Parse(spec string) (Constraint, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	var c Constraint
	for _, clause := range strings.Split(spec, ",") {
		b, err := parseClause(strings.TrimSpace(clause))
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", spec, err)
		}
		c = append(c, b)
	}
	return c, nil
}

func parseClause(clause string) (Bound, error) {
	if clause == "" {
		return Bound{}, fmt.Errorf("empty clause")
	}
	var op Op
	rest := clause
	switch {
	case strings.HasPrefix(clause, "<="):
		op, rest = OpLE, clause[2:]
	case strings.HasPrefix(clause, ">="):
		op, rest = OpGE, clause[2:]
	case strings.HasPrefix(clause, "<"):
		op, rest = OpLT, clause[1:]
	case strings.HasPrefix(clause, ">"):
		op, rest = OpGT, clause[1:]
	default:
		return Bound{}, fmt.Errorf("clause %q: missing comparison operator", clause)
	}
	v, err := ParseVersion(rest)
	if err != nil {
		return Bound{}, err
	}
	return Bound{Op: op, Version: v}, nil
}

// Match reports whether v satisfies every bound. Clause order is irrelevant.
func (c Constraint) Match(v Version) bool {
	for _, b := range c {
		if !b.matches(v) {
			return false
		}
	}
	return true
}

// HasLowerBound reports whether any clause constrains from below. Callers
// use this to decide whether a rule's definition version still applies as
// the implicit lower bound.
func (c Constraint) HasLowerBound() bool {
	for _, b := range c {
		if b.Op == OpGT || b.Op == OpGE {
			return true
		}
	}
	return false
}
