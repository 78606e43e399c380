// Package confidence - Score tests
package confidence

import (
	"math"
	"testing"
)

// TestNewClamps proves scores are always bounded to [0, 1]
func TestNewClamps(t *testing.T) {
	cases := []struct {
		in   float64
		want Score
	}{
		{-0.5, 0},
		{0, 0},
		{0.6, 0.6},
		{1, 1},
		{1.7, 1},
	}
	for _, c := range cases {
		if got := New(c.in); got != c.want {
			t.Errorf("New(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestVariance proves the spread is proportional to (1 - score)
func TestVariance(t *testing.T) {
	if v := Certain.Variance(); v != 0 {
		t.Errorf("full confidence should imply zero spread, got %v", v)
	}
	if v := Score(0).Variance(); math.Abs(v-0.3) > 1e-12 {
		t.Errorf("zero confidence should imply 0.3 spread, got %v", v)
	}
	if v := RuleBased.Variance(); math.Abs(v-0.12) > 1e-12 {
		t.Errorf("rule-based variance = %v, want 0.12", v)
	}
}

// TestVarianceMonotonic proves lower confidence never narrows the range
func TestVarianceMonotonic(t *testing.T) {
	prev := math.Inf(1)
	for s := 0.0; s <= 1.0; s += 0.05 {
		v := New(s).Variance()
		if v > prev {
			t.Fatalf("variance increased from %v to %v at score %v", prev, v, s)
		}
		prev = v
	}
}

// TestCombineIsPessimistic proves the aggregate is never better than
// its weakest contributor
func TestCombineIsPessimistic(t *testing.T) {
	if got := Combine(0.9, 0.4, 0.7); got != 0.4 {
		t.Errorf("Combine = %v, want 0.4", got)
	}
	if got := Combine(); got != Certain {
		t.Errorf("Combine of nothing = %v, want certain", got)
	}
	if got := Combine(0.8); got != 0.8 {
		t.Errorf("Combine of one = %v, want 0.8", got)
	}
}

// TestLevelBuckets checks the coarse labels
func TestLevelBuckets(t *testing.T) {
	cases := []struct {
		score Score
		want  string
	}{
		{0.95, "high"},
		{0.9, "high"},
		{0.75, "medium"},
		{0.6, "low"},
		{0.3, "very_low"},
	}
	for _, c := range cases {
		if got := Level(c.score); got != c.want {
			t.Errorf("Level(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}
