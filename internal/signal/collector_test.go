package signal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeSource is a configurable signal source for collector tests
type fakeSource struct {
	name   Source
	signal Signal
	err    error
	delay  time.Duration
}

func (f *fakeSource) Name() Source { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, symbol string) (Signal, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Signal{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Signal{}, f.err
	}
	sig := f.signal
	sig.Symbol = symbol
	return sig, nil
}

func TestCollectAllSourcesSucceed(t *testing.T) {
	sources := []SignalSource{
		&fakeSource{name: SourceSentiment, signal: Signal{Source: SourceSentiment, Score: 0.6, Confidence: 0.8}},
		&fakeSource{name: SourceOnChain, signal: Signal{Source: SourceOnChain, Score: 0.4, Confidence: 0.5}},
		&fakeSource{name: SourceTechnical, signal: Signal{Source: SourceTechnical, Score: 0.2, Confidence: 0.9}},
	}

	collector := NewCollector(sources, time.Second, zerolog.Nop())

	signals, err := collector.Collect(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(signals) != 3 {
		t.Fatalf("Expected 3 signals, got %d", len(signals))
	}

	// Results come back in source registration order regardless of
	// goroutine completion order
	if signals[0].Source != SourceSentiment || signals[1].Source != SourceOnChain || signals[2].Source != SourceTechnical {
		t.Errorf("Signals not in registration order: %v, %v, %v",
			signals[0].Source, signals[1].Source, signals[2].Source)
	}
}

// TestCollectFailedSourceExcluded verifies that a failing source is absent
// from the result rather than contributing a zero score.
func TestCollectFailedSourceExcluded(t *testing.T) {
	sources := []SignalSource{
		&fakeSource{name: SourceSentiment, signal: Signal{Source: SourceSentiment, Score: 0.6, Confidence: 0.8}},
		&fakeSource{name: SourceOnChain, err: errors.New("provider unavailable")},
		&fakeSource{name: SourceTechnical, signal: Signal{Source: SourceTechnical, Score: 0.2, Confidence: 0.9}},
	}

	collector := NewCollector(sources, time.Second, zerolog.Nop())

	signals, err := collector.Collect(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("Expected 2 signals, got %d", len(signals))
	}
	for _, s := range signals {
		if s.Source == SourceOnChain {
			t.Error("Failed source should have been excluded")
		}
	}
}

func TestCollectSlowSourceTimesOut(t *testing.T) {
	sources := []SignalSource{
		&fakeSource{name: SourceSentiment, signal: Signal{Source: SourceSentiment, Score: 0.5, Confidence: 0.7}},
		&fakeSource{name: SourceOnChain, delay: 500 * time.Millisecond, signal: Signal{Source: SourceOnChain, Score: 0.9, Confidence: 0.9}},
	}

	collector := NewCollector(sources, 50*time.Millisecond, zerolog.Nop())

	signals, err := collector.Collect(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal after timeout exclusion, got %d", len(signals))
	}
	if signals[0].Source != SourceSentiment {
		t.Errorf("Expected surviving source sentiment, got %s", signals[0].Source)
	}
}

func TestCollectAllSourcesFail(t *testing.T) {
	sources := []SignalSource{
		&fakeSource{name: SourceSentiment, err: errors.New("down")},
		&fakeSource{name: SourceOnChain, err: errors.New("down")},
		&fakeSource{name: SourceTechnical, err: errors.New("down")},
	}

	collector := NewCollector(sources, time.Second, zerolog.Nop())

	_, err := collector.Collect(context.Background(), "BTCUSDT")
	if err != ErrInsufficientSignalData {
		t.Fatalf("Expected ErrInsufficientSignalData, got %v", err)
	}
}

func TestCollectAggregated(t *testing.T) {
	sources := []SignalSource{
		&fakeSource{name: SourceSentiment, signal: Signal{Source: SourceSentiment, Score: 0.6, Confidence: 0.8}},
		&fakeSource{name: SourceTechnical, signal: Signal{Source: SourceTechnical, Score: 0.2, Confidence: 0.9}},
	}

	collector := NewCollector(sources, time.Second, zerolog.Nop())

	agg, err := collector.CollectAggregated(context.Background(), "ETHUSDT")
	if err != nil {
		t.Fatalf("CollectAggregated failed: %v", err)
	}
	if agg.Symbol != "ETHUSDT" {
		t.Errorf("Expected symbol ETHUSDT, got %s", agg.Symbol)
	}
	if agg.Direction != DirectionBullish {
		t.Errorf("Expected bullish, got %s", agg.Direction)
	}
	if len(agg.Constituents) != 2 {
		t.Errorf("Expected 2 constituents, got %d", len(agg.Constituents))
	}
}
