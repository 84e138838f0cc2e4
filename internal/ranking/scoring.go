// Package ranking converts a noisy supplier candidate list into a ranked,
// deduplicated top-N selection. Scoring is deterministic: the same inputs
// always produce the same scores and the same order.
package ranking

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/storeforge/storeforge/api/schemas"
)

// Sub-score curves. Every curve is bounded to [0,100] and monotonic in its
// factor, which is what keeps the composite score monotonic per factor.

// ratingScore is a step function over the 0-5 star scale.
func ratingScore(rating float64) float64 {
	switch {
	case rating >= 4.8:
		return 100
	case rating >= 4.5:
		return 90
	case rating >= 4.0:
		return 70
	case rating >= 3.5:
		return 50
	default:
		return 30
	}
}

// reviewsScore grows logarithmically and saturates near 10k reviews.
func reviewsScore(count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Min(100, 25*math.Log10(1+float64(count)))
}

// ordersScore grows logarithmically and saturates near 100k orders.
func ordersScore(count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Min(100, 20*math.Log10(1+float64(count)))
}

// marginScore applies the anchored step table: >=150% margin scores 100,
// >=100% scores 80, >=50% scores 60. Below 50% the score falls off linearly
// (margin% x 1.2, continuous at the 50% anchor, floored at 0). A non
// positive cost price leaves the margin undefined and scores 0.
func marginScore(cost, suggested decimal.Decimal) float64 {
	if cost.Sign() <= 0 {
		return 0
	}
	hundred := decimal.NewFromInt(100)
	marginPct, _ := suggested.Sub(cost).Div(cost).Mul(hundred).Float64()

	switch {
	case marginPct >= 150:
		return 100
	case marginPct >= 100:
		return 80
	case marginPct >= 50:
		return 60
	case marginPct <= 0:
		return 0
	default:
		return marginPct * 1.2
	}
}

// shippingScore is inverse-linear in shipping days: three days or less
// scores 100, thirty days or more scores 0.
func shippingScore(days int) float64 {
	switch {
	case days <= 3:
		return 100
	case days >= 30:
		return 0
	default:
		return 100 * float64(30-days) / 27
	}
}

// imagesScore grows linearly and saturates once five images are available.
func imagesScore(count int) float64 {
	if count <= 0 {
		return 0
	}
	if count >= 5 {
		return 100
	}
	return float64(count) * 20
}

// Score computes the weighted composite score for one candidate and writes
// it into the candidate's WinningScore field.
func Score(c *schemas.ScoutedCandidate, weights schemas.ScoringWeights) float64 {
	w := weights.Normalized()

	composite := w.Rating*ratingScore(c.Rating) +
		w.Reviews*reviewsScore(c.ReviewCount) +
		w.Orders*ordersScore(c.OrderCount) +
		w.Margin*marginScore(c.CostPrice, c.SuggestedPrice) +
		w.Shipping*shippingScore(c.ShippingDays) +
		w.Images*imagesScore(len(c.Images))

	c.WinningScore = composite
	return composite
}
