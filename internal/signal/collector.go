package signal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SignalSource is a single estimator backed by an external data feed.
// Fetch must honor the context deadline; implementations are expected to
// stay within the collector's per-source latency budget.
type SignalSource interface {
	Name() Source
	Fetch(ctx context.Context, symbol string) (Signal, error)
}

// Collector fans out to all configured signal sources concurrently and
// aggregates whatever comes back in time. A source that fails or times out
// is treated as absent and excluded from the weighted average, not scored
// as zero, since zero would wrongly imply a confident-neutral reading.
type Collector struct {
	sources []SignalSource
	timeout time.Duration
	logger  zerolog.Logger
}

// NewCollector creates a collector over the given sources. timeout bounds
// each collection cycle; zero means the caller's context is the only bound.
func NewCollector(sources []SignalSource, timeout time.Duration, logger zerolog.Logger) *Collector {
	return &Collector{
		sources: sources,
		timeout: timeout,
		logger:  logger.With().Str("component", "SignalCollector").Logger(),
	}
}

// Collect fetches from every source concurrently and returns the surviving
// signals in source registration order. If every source fails,
// ErrInsufficientSignalData is returned.
func (c *Collector) Collect(ctx context.Context, symbol string) ([]Signal, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	results := make([]*Signal, len(c.sources))
	var wg sync.WaitGroup

	for i, src := range c.sources {
		wg.Add(1)
		go func(idx int, source SignalSource) {
			defer wg.Done()

			sig, err := source.Fetch(ctx, symbol)
			if err != nil {
				c.logger.Warn().
					Str("symbol", symbol).
					Str("source", string(source.Name())).
					Err(err).
					Msg("Signal source excluded from aggregation")
				return
			}
			results[idx] = &sig
		}(i, src)
	}

	wg.Wait()

	signals := make([]Signal, 0, len(c.sources))
	for _, r := range results {
		if r != nil {
			signals = append(signals, *r)
		}
	}

	if len(signals) == 0 {
		return nil, ErrInsufficientSignalData
	}

	c.logger.Debug().
		Str("symbol", symbol).
		Int("collected", len(signals)).
		Int("sources", len(c.sources)).
		Msg("Signal collection complete")

	return signals, nil
}

// CollectAggregated runs a full collect-then-aggregate cycle for a symbol.
func (c *Collector) CollectAggregated(ctx context.Context, symbol string) (AggregatedSignal, error) {
	signals, err := c.Collect(ctx, symbol)
	if err != nil {
		return AggregatedSignal{}, err
	}
	return Aggregate(symbol, signals)
}
