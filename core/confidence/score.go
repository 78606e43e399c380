// Package confidence - Bounded estimator confidence scores
// Confidence combines pessimistically, never optimistically.
package confidence

// Score is an estimator confidence in [0, 1].
type Score float64

const (
	// RuleBased is the fixed confidence assigned to deterministic
	// table-driven estimates.
	RuleBased Score = 0.6

	// Certain is full confidence.
	Certain Score = 1.0

	// rangeSpread is the maximum half-width of a price range,
	// reached at confidence zero.
	rangeSpread = 0.3
)

// New clamps v into [0, 1] and returns it as a Score.
func New(v float64) Score {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return Score(v)
}

// Value returns the score as a float64.
func (s Score) Value() float64 {
	return float64(s)
}

// Variance returns the price-range half-width implied by the score.
// Full confidence yields zero spread; zero confidence yields 30%.
func (s Score) Variance() float64 {
	return (1 - float64(s)) * rangeSpread
}

// Combine merges scores pessimistically: the aggregate is never
// better than its weakest contributor.
func Combine(scores ...Score) Score {
	if len(scores) == 0 {
		return Certain
	}
	min := scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
	}
	return min
}

// Level buckets a score into a coarse human-readable label.
func Level(s Score) string {
	switch {
	case s >= 0.9:
		return "high"
	case s >= 0.7:
		return "medium"
	case s >= 0.5:
		return "low"
	default:
		return "very_low"
	}
}
