package signal

import "time"

// Aggregate fuses the constituent signals for a symbol into a single
// directional recommendation. Each signal's contribution to the composite
// score is weighted by its own confidence:
//
//	compositeScore = Σ(score_i * confidence_i) / Σ(confidence_i)
//
// The composite confidence is the simple mean of the constituent
// confidences, deliberately not weighted by itself to avoid runaway
// self-reinforcement.
//
// Aggregate is a pure function over its inputs: no I/O, no retries.
func Aggregate(symbol string, signals []Signal) (AggregatedSignal, error) {
	if len(signals) == 0 {
		return AggregatedSignal{}, ErrInsufficientSignalData
	}

	var weightedSum, totalConfidence float64
	for _, s := range signals {
		weightedSum += s.Score * s.Confidence
		totalConfidence += s.Confidence
	}

	if totalConfidence == 0 {
		return AggregatedSignal{}, ErrDegenerateWeights
	}

	compositeScore := weightedSum / totalConfidence
	compositeConfidence := totalConfidence / float64(len(signals))

	constituents := make([]Signal, len(signals))
	copy(constituents, signals)

	return AggregatedSignal{
		Symbol:              symbol,
		CompositeScore:      compositeScore,
		CompositeConfidence: compositeConfidence,
		Direction:           DirectionForScore(compositeScore),
		Constituents:        constituents,
		ComputedAt:          time.Now().UTC(),
	}, nil
}
