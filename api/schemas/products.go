package schemas

import "github.com/shopspring/decimal"

// ScoutedCandidate is one product returned by a supplier search, before
// ranking and filtering. Prices are fixed point decimals; floating point
// rounding would corrupt margin based ranking.
type ScoutedCandidate struct {
	Source         string          `json:"source"`
	SourceID       string          `json:"source_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
	Rating         float64         `json:"rating"` // 0.0-5.0
	ReviewCount    int             `json:"review_count"`
	OrderCount     int             `json:"order_count"`
	ShippingDays   int             `json:"shipping_days"`
	Images         []string        `json:"images"`

	// WinningScore is written only by the ranking engine; 0.0 until scored.
	WinningScore float64 `json:"winning_score"`
}

// MarginPercent returns the margin over cost as a percentage, or false when
// the cost price is non positive and the margin is undefined.
func (c *ScoutedCandidate) MarginPercent() (decimal.Decimal, bool) {
	if c.CostPrice.Sign() <= 0 {
		return decimal.Zero, false
	}
	hundred := decimal.NewFromInt(100)
	return c.SuggestedPrice.Sub(c.CostPrice).Div(c.CostPrice).Mul(hundred), true
}

// ScoringWeights holds the six non negative factors combined into a
// candidate's winning score. They should sum to 1.0; Normalized compensates
// when they do not, so any positive combination is valid input.
type ScoringWeights struct {
	Rating   float64 `json:"rating" mapstructure:"rating"`
	Reviews  float64 `json:"reviews" mapstructure:"reviews"`
	Orders   float64 `json:"orders" mapstructure:"orders"`
	Margin   float64 `json:"margin" mapstructure:"margin"`
	Shipping float64 `json:"shipping" mapstructure:"shipping"`
	Images   float64 `json:"images" mapstructure:"images"`
}

// DefaultScoringWeights mirror the relative importance the sourcing stage
// assigns out of the box.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Rating:   0.20,
		Reviews:  0.15,
		Orders:   0.20,
		Margin:   0.25,
		Shipping: 0.10,
		Images:   0.10,
	}
}

// Normalized returns a copy whose weights sum to 1.0. Weights that sum to
// zero (or contain only non positive entries) fall back to a uniform split.
func (w ScoringWeights) Normalized() ScoringWeights {
	sum := w.Rating + w.Reviews + w.Orders + w.Margin + w.Shipping + w.Images
	if sum <= 0 {
		u := 1.0 / 6.0
		return ScoringWeights{Rating: u, Reviews: u, Orders: u, Margin: u, Shipping: u, Images: u}
	}
	return ScoringWeights{
		Rating:   w.Rating / sum,
		Reviews:  w.Reviews / sum,
		Orders:   w.Orders / sum,
		Margin:   w.Margin / sum,
		Shipping: w.Shipping / sum,
		Images:   w.Images / sum,
	}
}
