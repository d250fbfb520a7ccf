package risk

import (
	"coinpilot/internal/signal"
)

// Side is the direction of a proposed position
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Reason identifies a violated gate rule
type Reason string

const (
	ReasonPositionTooLarge     Reason = "POSITION_TOO_LARGE"
	ReasonTooManyOpenPositions Reason = "TOO_MANY_OPEN_POSITIONS"
	ReasonDailyLossLimitHit    Reason = "DAILY_LOSS_LIMIT_HIT"
	ReasonConfidenceTooLow     Reason = "CONFIDENCE_TOO_LOW"
	ReasonSymbolNotAllowed     Reason = "SYMBOL_NOT_ALLOWED"
)

// CandidateAllocation is a proposed position within a strategy,
// pre-execution. SourceSignal points at the aggregated signal that
// justified it; the candidate does not own it.
type CandidateAllocation struct {
	Symbol        string                   `json:"symbol"`
	AllocationPct float64                  `json:"allocation_pct"` // share of capital, 0-100
	EntryPrice    float64                  `json:"entry_price"`
	TargetPrice   float64                  `json:"target_price"`
	Side          Side                     `json:"side"`
	SourceSignal  *signal.AggregatedSignal `json:"source_signal,omitempty"`
}

// GateResult is the outcome of a single gate check. Reasons is empty
// if and only if the candidate is allowed.
type GateResult struct {
	Allowed bool     `json:"allowed"`
	Reasons []Reason `json:"reasons,omitempty"`
}

// Evaluate validates a candidate allocation against the user's risk
// profile and current portfolio state. All rules are evaluated rather than
// short-circuited so the caller sees every violation at once.
//
// The daily-loss rule blocks every new candidate for the remainder of the
// trading day, not just this one; since realized losses can flip the rule
// mid-batch, callers must re-fetch PortfolioState before each evaluation.
//
// Evaluate is pure and side-effect-free.
func Evaluate(candidate CandidateAllocation, profile Profile, state PortfolioState) GateResult {
	var reasons []Reason

	if candidate.AllocationPct > profile.MaxPositionSizePct {
		reasons = append(reasons, ReasonPositionTooLarge)
	}

	if state.OpenPositionsCount >= profile.MaxOpenPositions {
		reasons = append(reasons, ReasonTooManyOpenPositions)
	}

	if state.RealizedLossPctToday > profile.DailyLossLimitPct {
		reasons = append(reasons, ReasonDailyLossLimitHit)
	}

	if candidate.SourceSignal == nil || candidate.SourceSignal.CompositeConfidence*100 < profile.MinConfidence {
		reasons = append(reasons, ReasonConfidenceTooLow)
	}

	if !profile.SymbolAllowed(candidate.Symbol) {
		reasons = append(reasons, ReasonSymbolNotAllowed)
	}

	return GateResult{
		Allowed: len(reasons) == 0,
		Reasons: reasons,
	}
}
