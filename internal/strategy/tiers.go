package strategy

import "coinpilot/internal/risk"

// TierPolicy holds the fixed policy constants for one risk tier. Leverage
// and drawdown are capped per tier regardless of signal strength, matching
// standard risk-management practice.
type TierPolicy struct {
	Level         risk.Tolerance
	Name          string
	Description   string
	MaxSymbols    int     // top-K symbols selected for the tier
	Leverage      float64 // >= 1
	MaxDrawdown   float64 // percent
	ROIMultiplier float64 // applied to the goal's target ROI
	MinConfidence float64 // composite-confidence bar for the universe filter (0-1)
}

// tierPolicies is ordered conservative -> moderate -> aggressive. Every
// generation returns all three tiers in this order so callers can compare.
var tierPolicies = []TierPolicy{
	{
		Level:         risk.ToleranceConservative,
		Name:          "Conservative Growth",
		Description:   "Low-risk strategy focusing on the highest-conviction symbols with no leverage. Suitable for capital preservation with modest growth.",
		MaxSymbols:    3,
		Leverage:      1,
		MaxDrawdown:   10,
		ROIMultiplier: 0.6,
		MinConfidence: 0.75,
	},
	{
		Level:         risk.ToleranceModerate,
		Name:          "Balanced Growth",
		Description:   "Moderate risk with 2x leverage. Balanced portfolio across top-ranked symbols with signal-weighted entry points.",
		MaxSymbols:    4,
		Leverage:      2,
		MaxDrawdown:   20,
		ROIMultiplier: 1.0,
		MinConfidence: 0.60,
	},
	{
		Level:         risk.ToleranceAggressive,
		Name:          "Aggressive Growth",
		Description:   "High-risk, high-reward strategy with 5x leverage. Diversified across a wider set of trending symbols.",
		MaxSymbols:    5,
		Leverage:      5,
		MaxDrawdown:   35,
		ROIMultiplier: 1.5,
		MinConfidence: 0.50,
	},
}

// Tiers returns the tier policies in presentation order.
func Tiers() []TierPolicy {
	out := make([]TierPolicy, len(tierPolicies))
	copy(out, tierPolicies)
	return out
}
