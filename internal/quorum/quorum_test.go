package quorum

import "testing"

func TestRequired(t *testing.T) {
	tests := []struct {
		formula    Formula
		population int
		want       int
	}{
		{Zero, 0, 0},
		{Zero, 100, 0},
		{Four, 1, 4},
		{Four, 1000, 4},
		// ceil(sqrt(n*2)): sqrt(20) = 4.47 -> 5.
		{SqrtDouble, 10, 5},
		{SqrtDouble, 2, 2},
		{SqrtDouble, 50, 10},
		// floor(sqrt(n)) floors inside the formula; the uniform outer ceil
		// then has nothing left to round. Population 10 requires 3 voters.
		{FloorSqrt, 10, 3},
		{FloorSqrt, 15, 3},
		{FloorSqrt, 16, 4},
		// Linear fractions round up.
		{Half, 9, 5},
		{Half, 10, 5},
		{Third, 10, 4},
		{Third, 9, 3},
		// Unknown selectors from older records evaluate to zero.
		{Formula("n*n"), 10, 0},
		// Negative populations clamp to zero.
		{Half, -4, 0},
	}
	for _, tt := range tests {
		if got := Required(tt.formula, tt.population); got != tt.want {
			t.Errorf("Required(%q, %d) = %d, want %d", tt.formula, tt.population, got, tt.want)
		}
	}
}

func TestReached(t *testing.T) {
	if Reached(FloorSqrt, 10, 2) {
		t.Error("2 votes should not reach floor(sqrt(10)) = 3")
	}
	if !Reached(FloorSqrt, 10, 3) {
		t.Error("3 votes should reach floor(sqrt(10)) = 3")
	}
	if !Reached(Zero, 0, 0) {
		t.Error("zero quorum is always reached")
	}
}

func TestParse(t *testing.T) {
	for _, f := range Formulas {
		got, ok := Parse(string(f))
		if !ok || got != f {
			t.Errorf("Parse(%q) = %q, %v", f, got, ok)
		}
	}
	// Arbitrary expressions are rejected, never evaluated.
	for _, s := range []string{"", "5", "sqrt(n)", "n", "ceil(sqrt(n * 2))"} {
		if _, ok := Parse(s); ok {
			t.Errorf("Parse(%q) accepted a selector outside the whitelist", s)
		}
	}
}
