package strategy

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"coinpilot/internal/risk"
	"coinpilot/internal/signal"
)

var (
	// ErrInvalidGoal is returned when the submitted goal has non-positive inputs
	ErrInvalidGoal = errors.New("invalid goal: target ROI, capital and timeframe must be positive")
	// ErrNoViableAllocations is returned when no candidate survives the risk
	// gate for a tier. Callers should surface this as insufficient signal
	// coverage, not a crash.
	ErrNoViableAllocations = errors.New("no viable allocations for tier")
)

// Goal is the user's stated trading objective.
type Goal struct {
	TargetROI     float64        `json:"target_roi"` // percent
	Capital       float64        `json:"capital"`
	TimeframeDays int            `json:"timeframe_days"`
	RiskTolerance risk.Tolerance `json:"risk_tolerance"`
}

// Validate checks the goal's inputs.
func (g Goal) Validate() error {
	if g.TargetROI <= 0 || g.Capital <= 0 || g.TimeframeDays <= 0 {
		return ErrInvalidGoal
	}
	return nil
}

// Strategy is a named, risk-tiered allocation bundle. It is immutable once
// presented; regeneration supersedes rather than mutates. ExpectedROI is a
// presentation estimate scaled from the goal's target, not a backtested
// figure.
type Strategy struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	RiskLevel   risk.Tolerance             `json:"risk_level"`
	ExpectedROI float64                    `json:"expected_roi"`
	MaxDrawdown float64                    `json:"max_drawdown"`
	Leverage    float64                    `json:"leverage"`
	Allocations []risk.CandidateAllocation `json:"allocations"`
	Description string                     `json:"description"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// PriceLookup maps symbol to its current price at generation time.
type PriceLookup map[string]float64

// Generate produces one strategy per risk tier, ordered conservative ->
// moderate -> aggressive regardless of the requested tolerance, so the
// caller can compare. For each tier the universe is filtered to bullish
// symbols meeting the tier's confidence bar, ranked by score*confidence
// (ties broken by symbol name for reproducibility), and the top-K are
// allocated by rank weight normalized to sum to 100. Every candidate is
// passed through the risk gate; a rejected candidate's share is
// redistributed proportionally among the accepted ones. The whole
// generation fails with ErrNoViableAllocations if any tier ends up with
// zero surviving candidates.
func Generate(goal Goal, universe []signal.AggregatedSignal, profile risk.Profile, state risk.PortfolioState, prices PriceLookup) ([]Strategy, error) {
	if err := goal.Validate(); err != nil {
		return nil, err
	}

	strategies := make([]Strategy, 0, len(tierPolicies))
	for _, tier := range tierPolicies {
		s, err := generateTier(goal, tier, universe, profile, state, prices)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}

	return strategies, nil
}

func generateTier(goal Goal, tier TierPolicy, universe []signal.AggregatedSignal, profile risk.Profile, state risk.PortfolioState, prices PriceLookup) (Strategy, error) {
	ranked := rankUniverse(universe, tier.MinConfidence, prices)
	if len(ranked) > tier.MaxSymbols {
		ranked = ranked[:tier.MaxSymbols]
	}

	expectedROI := goal.TargetROI * tier.ROIMultiplier

	// Rank weights K, K-1, ..., 1 normalized to 100.
	k := len(ranked)
	totalWeight := float64(k*(k+1)) / 2
	accepted := make([]risk.CandidateAllocation, 0, k)
	rejectedShare := 0.0

	for i := range ranked {
		sig := ranked[i]
		entry := prices[sig.Symbol]
		pct := float64(k-i) / totalWeight * 100

		candidate := risk.CandidateAllocation{
			Symbol:        sig.Symbol,
			AllocationPct: pct,
			EntryPrice:    entry,
			TargetPrice:   entry * (1 + expectedROI/100),
			Side:          risk.SideBuy,
			SourceSignal:  &ranked[i],
		}

		if result := risk.Evaluate(candidate, profile, state); result.Allowed {
			accepted = append(accepted, candidate)
		} else {
			rejectedShare += pct
		}
	}

	if len(accepted) == 0 {
		return Strategy{}, ErrNoViableAllocations
	}

	// Redistribute rejected share proportionally so allocations still sum
	// to 100. The executor re-gates each allocation at activation time
	// against a fresh portfolio snapshot.
	if rejectedShare > 0 {
		acceptedTotal := 0.0
		for _, a := range accepted {
			acceptedTotal += a.AllocationPct
		}
		for i := range accepted {
			accepted[i].AllocationPct += rejectedShare * (accepted[i].AllocationPct / acceptedTotal)
		}
	}

	return Strategy{
		ID:          uuid.New().String(),
		Name:        tier.Name,
		RiskLevel:   tier.Level,
		ExpectedROI: expectedROI,
		MaxDrawdown: tier.MaxDrawdown,
		Leverage:    tier.Leverage,
		Allocations: accepted,
		Description: tier.Description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// rankUniverse filters to bullish signals meeting the confidence bar with
// a known price, sorted by score*confidence descending; ties break on
// symbol name ascending for deterministic output.
func rankUniverse(universe []signal.AggregatedSignal, minConfidence float64, prices PriceLookup) []signal.AggregatedSignal {
	filtered := make([]signal.AggregatedSignal, 0, len(universe))
	for _, sig := range universe {
		if sig.Direction != signal.DirectionBullish {
			continue
		}
		if sig.CompositeConfidence < minConfidence {
			continue
		}
		if prices[sig.Symbol] <= 0 {
			continue
		}
		filtered = append(filtered, sig)
	}

	sort.Slice(filtered, func(i, j int) bool {
		wi := filtered[i].CompositeScore * filtered[i].CompositeConfidence
		wj := filtered[j].CompositeScore * filtered[j].CompositeConfidence
		if wi != wj {
			return wi > wj
		}
		return filtered[i].Symbol < filtered[j].Symbol
	})

	return filtered
}
