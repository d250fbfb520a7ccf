package signal

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func TestAggregateEmptyInput(t *testing.T) {
	_, err := Aggregate("BTCUSDT", nil)
	if err != ErrInsufficientSignalData {
		t.Fatalf("Expected ErrInsufficientSignalData, got %v", err)
	}

	_, err = Aggregate("BTCUSDT", []Signal{})
	if err != ErrInsufficientSignalData {
		t.Fatalf("Expected ErrInsufficientSignalData for empty slice, got %v", err)
	}
}

func TestAggregateDegenerateWeights(t *testing.T) {
	signals := []Signal{
		{Source: SourceSentiment, Symbol: "BTCUSDT", Score: 0.5, Confidence: 0},
		{Source: SourceOnChain, Symbol: "BTCUSDT", Score: -0.3, Confidence: 0},
	}

	_, err := Aggregate("BTCUSDT", signals)
	if err != ErrDegenerateWeights {
		t.Fatalf("Expected ErrDegenerateWeights, got %v", err)
	}
}

// TestAggregateWeightedScenario verifies the documented fusion example:
// sentiment 0.6@0.8, onchain 0.4@0.5, technical 0.2@0.9 fuse to ~0.3909
// and a bullish direction.
func TestAggregateWeightedScenario(t *testing.T) {
	signals := []Signal{
		{Source: SourceSentiment, Symbol: "BTCUSDT", Score: 0.6, Confidence: 0.8},
		{Source: SourceOnChain, Symbol: "BTCUSDT", Score: 0.4, Confidence: 0.5},
		{Source: SourceTechnical, Symbol: "BTCUSDT", Score: 0.2, Confidence: 0.9},
	}

	agg, err := Aggregate("BTCUSDT", signals)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	expectedScore := (0.6*0.8 + 0.4*0.5 + 0.2*0.9) / (0.8 + 0.5 + 0.9)
	if math.Abs(agg.CompositeScore-expectedScore) > epsilon {
		t.Errorf("Expected composite score %.6f, got %.6f", expectedScore, agg.CompositeScore)
	}
	if math.Abs(agg.CompositeScore-0.390909) > 0.001 {
		t.Errorf("Expected composite score ~0.3909, got %.6f", agg.CompositeScore)
	}

	expectedConfidence := (0.8 + 0.5 + 0.9) / 3.0
	if math.Abs(agg.CompositeConfidence-expectedConfidence) > epsilon {
		t.Errorf("Expected composite confidence %.6f, got %.6f", expectedConfidence, agg.CompositeConfidence)
	}

	if agg.Direction != DirectionBullish {
		t.Errorf("Expected bullish direction, got %s", agg.Direction)
	}
}

// TestAggregateScoreWithinInputRange verifies the weighted average never
// exceeds the range of its inputs.
func TestAggregateScoreWithinInputRange(t *testing.T) {
	cases := [][]Signal{
		{
			{Score: -0.9, Confidence: 0.2},
			{Score: 0.7, Confidence: 0.9},
		},
		{
			{Score: 0.1, Confidence: 0.5},
			{Score: 0.1, Confidence: 1.0},
		},
		{
			{Score: -0.4, Confidence: 0.3},
			{Score: -0.2, Confidence: 0.6},
			{Score: -0.8, Confidence: 0.1},
		},
	}

	for i, signals := range cases {
		agg, err := Aggregate("ETHUSDT", signals)
		if err != nil {
			t.Fatalf("case %d: Aggregate failed: %v", i, err)
		}

		minScore, maxScore := signals[0].Score, signals[0].Score
		for _, s := range signals {
			if s.Score < minScore {
				minScore = s.Score
			}
			if s.Score > maxScore {
				maxScore = s.Score
			}
		}

		if agg.CompositeScore < minScore-epsilon || agg.CompositeScore > maxScore+epsilon {
			t.Errorf("case %d: composite score %.6f outside input range [%.6f, %.6f]",
				i, agg.CompositeScore, minScore, maxScore)
		}
	}
}

// TestAggregateOrderIndependence verifies that permuting the input yields
// identical composite values.
func TestAggregateOrderIndependence(t *testing.T) {
	a := Signal{Source: SourceSentiment, Score: 0.6, Confidence: 0.8}
	b := Signal{Source: SourceOnChain, Score: -0.4, Confidence: 0.5}
	c := Signal{Source: SourceTechnical, Score: 0.2, Confidence: 0.9}

	orderings := [][]Signal{
		{a, b, c},
		{c, a, b},
		{b, c, a},
	}

	first, err := Aggregate("BTCUSDT", orderings[0])
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	for i, signals := range orderings[1:] {
		agg, err := Aggregate("BTCUSDT", signals)
		if err != nil {
			t.Fatalf("ordering %d: Aggregate failed: %v", i+1, err)
		}
		if math.Abs(agg.CompositeScore-first.CompositeScore) > epsilon {
			t.Errorf("ordering %d: composite score %.9f != %.9f", i+1, agg.CompositeScore, first.CompositeScore)
		}
		if math.Abs(agg.CompositeConfidence-first.CompositeConfidence) > epsilon {
			t.Errorf("ordering %d: composite confidence %.9f != %.9f", i+1, agg.CompositeConfidence, first.CompositeConfidence)
		}
	}
}

func TestAggregatePreservesConstituentOrder(t *testing.T) {
	signals := []Signal{
		{Source: SourceTechnical, Score: 0.2, Confidence: 0.9},
		{Source: SourceSentiment, Score: 0.6, Confidence: 0.8},
	}

	agg, err := Aggregate("BTCUSDT", signals)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if len(agg.Constituents) != 2 {
		t.Fatalf("Expected 2 constituents, got %d", len(agg.Constituents))
	}
	if agg.Constituents[0].Source != SourceTechnical || agg.Constituents[1].Source != SourceSentiment {
		t.Errorf("Constituent order not preserved: %v, %v",
			agg.Constituents[0].Source, agg.Constituents[1].Source)
	}
}

func TestDirectionThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  Direction
	}{
		{0.5, DirectionBullish},
		{0.11, DirectionBullish},
		{0.1, DirectionNeutral},
		{0.0, DirectionNeutral},
		{-0.1, DirectionNeutral},
		{-0.11, DirectionBearish},
		{-0.9, DirectionBearish},
	}

	for _, tc := range cases {
		if got := DirectionForScore(tc.score); got != tc.want {
			t.Errorf("DirectionForScore(%.2f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestAggregateSetsComputedAt(t *testing.T) {
	before := time.Now().UTC()
	agg, err := Aggregate("BTCUSDT", []Signal{{Score: 0.3, Confidence: 0.5}})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if agg.ComputedAt.Before(before) {
		t.Errorf("ComputedAt %v is before test start %v", agg.ComputedAt, before)
	}
}
