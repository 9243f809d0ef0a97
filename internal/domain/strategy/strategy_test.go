package strategy

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Strategy{Coverage, Hybrid, CoverageHybrid, Best}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", s)
		}
	}

	invalid := []Strategy{"", "bogus", "cover", "BEST", "coverage-hybrid"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", s)
		}
	}
}

func TestDefault(t *testing.T) {
	if Default != Best {
		t.Errorf("Default = %q, want %q", Default, Best)
	}
}
