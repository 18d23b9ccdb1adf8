// Package edge converts market quotes and model distributions into signed
// expected-value verdicts.
package edge

import (
	"fmt"

	"github.com/yourusername/rebound-edge/internal/models"
)

// DecimalOdds converts a quoted price to decimal odds.
func DecimalOdds(o models.Odds) (float64, error) {
	switch o.Format {
	case models.OddsDecimal:
		if o.Value <= 1 {
			return 0, fmt.Errorf("decimal odds must exceed 1, got %g", o.Value)
		}
		return o.Value, nil
	case models.OddsAmerican:
		if o.Value >= 100 {
			return 1 + o.Value/100, nil
		}
		if o.Value <= -100 {
			return 1 + 100/-o.Value, nil
		}
		return 0, fmt.Errorf("american odds must be outside (-100, 100), got %g", o.Value)
	default:
		return 0, fmt.Errorf("unknown odds format %q", o.Format)
	}
}

// ImpliedProbability returns the raw (vig-inflated) probability implied by a price.
func ImpliedProbability(o models.Odds) (float64, error) {
	dec, err := DecimalOdds(o)
	if err != nil {
		return 0, err
	}
	return 1 / dec, nil
}

// PayoutMultiplier returns net winnings per unit stake for a price.
func PayoutMultiplier(o models.Odds) (float64, error) {
	dec, err := DecimalOdds(o)
	if err != nil {
		return 0, err
	}
	return dec - 1, nil
}

// DeVig normalizes a two-way pair of implied probabilities so they sum to
// exactly 1, stripping the bookmaker's margin. Comparing a vig-inflated
// implied probability against a true model probability understates edge, so
// every comparison goes through this first. Idempotent: a fair pair maps to
// itself.
func DeVig(overProb, underProb float64) (float64, float64) {
	total := overProb + underProb
	if total <= 0 {
		return 0, 0
	}
	return overProb / total, underProb / total
}
