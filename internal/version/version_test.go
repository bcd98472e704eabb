package version

import "testing"

func mustVersion(t *testing.T, s string) Version {
	t.Helper()
	v, err := ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

func TestParseVersion(t *testing.T) {
	v := mustVersion(t, "1.7.0")
	if v.Major != 1 || v.Minor != 7 || v.Patch != 0 {
		t.Errorf("got %+v", v)
	}

	for _, bad := range []string{"", "1", "1.7", "1.7.0.0", "a.b.c", "1.-7.0"} {
		if _, err := ParseVersion(bad); err == nil {
			t.Errorf("ParseVersion(%q): want error", bad)
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.6.0", "1.6.0", 0},
		{"1.6.0", "1.7.0", -1},
		{"1.8.0", "1.7.0", 1},
		{"2.0.0", "1.9.9", 1},
		{"1.6.1", "1.6.0", 1},
	}
	for _, tt := range tests {
		got := mustVersion(t, tt.a).Compare(mustVersion(t, tt.b))
		if got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestConstraintMatch(t *testing.T) {
	c, err := Parse(">=1.6.0,<1.8.0")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		v    string
		want bool
	}{
		{"1.6.0", true},
		{"1.7.0", true},
		{"1.8.0", false},
		{"1.5.0", false},
	}
	for _, tt := range tests {
		if got := c.Match(mustVersion(t, tt.v)); got != tt.want {
			t.Errorf("Match(%s) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestClauseOrderCommutative(t *testing.T) {
	a, err := Parse(">=1.6.0,<1.8.0")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Parse("<1.8.0,>=1.6.0")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"1.5.0", "1.6.0", "1.7.0", "1.7.9", "1.8.0", "2.0.0"} {
		ver := mustVersion(t, v)
		if a.Match(ver) != b.Match(ver) {
			t.Errorf("clause order changed result for %s", v)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{"1.6.0", "=1.6.0", ">=1.6", ">=1.6.0,", ">= ,<1.8.0"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q): want error", bad)
		}
	}
	// Empty specification is the empty constraint and matches anything.
	c, err := Parse("")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Match(mustVersion(t, "1.1.0")) {
		t.Error("empty constraint should match")
	}
	if c.HasLowerBound() {
		t.Error("empty constraint has no lower bound")
	}
}

func TestHasLowerBound(t *testing.T) {
	tests := []struct {
		spec string
		want bool
	}{
		{"<=1.7.0", false},
		{"<1.8.0", false},
		{">=1.6.0", true},
		{">1.5.0,<1.8.0", true},
	}
	for _, tt := range tests {
		c, err := Parse(tt.spec)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.spec, err)
		}
		if got := c.HasLowerBound(); got != tt.want {
			t.Errorf("HasLowerBound(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}
