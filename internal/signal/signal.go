package signal

import (
	"errors"
	"time"
)

// Source identifies which estimator produced a signal
type Source string

const (
	SourceSentiment Source = "sentiment"
	SourceOnChain   Source = "onchain"
	SourceTechnical Source = "technical"
)

// Direction is the user-facing label derived from a composite score
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
	DirectionNeutral Direction = "neutral"
)

// Score thresholds for direction labels. These define the vocabulary
// surfaced to users (badges, panel labels) and are not configurable.
const (
	bullishThreshold = 0.1
	bearishThreshold = -0.1
)

var (
	// ErrInsufficientSignalData is returned when no usable signals exist for a symbol
	ErrInsufficientSignalData = errors.New("insufficient signal data")
	// ErrDegenerateWeights is returned when every constituent signal has zero confidence
	ErrDegenerateWeights = errors.New("degenerate signal weights: total confidence is zero")
)

// Signal is one estimator's directional reading for a symbol.
// Immutable once produced.
type Signal struct {
	Source     Source    `json:"source"`
	Symbol     string    `json:"symbol"`
	Score      float64   `json:"score"`      // -1.0 (very bearish) to 1.0 (very bullish)
	Confidence float64   `json:"confidence"` // 0.0 to 1.0, derived from sample size / agreement
	ObservedAt time.Time `json:"observed_at"`
	Summary    string    `json:"summary,omitempty"`
}

// AggregatedSignal is the per-symbol fused view of all constituent signals.
// A new value replaces the prior one on each evaluation cycle; it is never
// mutated in place.
type AggregatedSignal struct {
	Symbol              string    `json:"symbol"`
	CompositeScore      float64   `json:"composite_score"`
	CompositeConfidence float64   `json:"composite_confidence"`
	Direction           Direction `json:"direction"`
	Constituents        []Signal  `json:"constituents"`
	ComputedAt          time.Time `json:"computed_at"`
}

// DirectionForScore maps a composite score to its user-facing direction label
func DirectionForScore(score float64) Direction {
	switch {
	case score > bullishThreshold:
		return DirectionBullish
	case score < bearishThreshold:
		return DirectionBearish
	default:
		return DirectionNeutral
	}
}
