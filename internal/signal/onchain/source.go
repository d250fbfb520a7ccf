package onchain

import (
	"context"

	"github.com/rs/zerolog"

	"coinpilot/internal/signal"
)

// Source adapts a MetricsProvider to the signal source interface.
// The whale accumulation score carries most of the weight; address
// growth and exchange supply nudge it.
type Source struct {
	provider MetricsProvider
	logger   zerolog.Logger
}

func NewSource(provider MetricsProvider, logger zerolog.Logger) *Source {
	return &Source{
		provider: provider,
		logger:   logger.With().Str("component", "onchain_source").Logger(),
	}
}

func (s *Source) Name() signal.Source {
	return signal.SourceOnChain
}

func (s *Source) Fetch(ctx context.Context, symbol string) (signal.Signal, error) {
	metrics, err := s.provider.GetMetrics(ctx, symbol)
	if err != nil {
		return signal.Signal{}, err
	}

	score := scoreMetrics(metrics)

	s.logger.Debug().
		Str("symbol", symbol).
		Float64("whale_score", metrics.WhaleAccumulationScore).
		Float64("score", score).
		Msg("on-chain metrics scored")

	return signal.Signal{
		Source:     signal.SourceOnChain,
		Symbol:     symbol,
		Score:      score,
		Confidence: confidenceFor(metrics),
		ObservedAt: metrics.UpdatedAt,
		Summary:    metrics.Summary,
	}, nil
}

func scoreMetrics(m *Metrics) float64 {
	score := m.WhaleAccumulationScore * 0.6

	// Address growth relative to the large-cap baseline of ~500k.
	if m.ActiveAddresses24h > 0 {
		growth := (float64(m.ActiveAddresses24h) - 500000) / 500000
		score += clamp(growth/0.1, -1, 1) * 0.25
	}

	// Rising exchange supply reads as sell-side pressure. 12.5% is the
	// midpoint of the typical 10-15% band.
	if m.SupplyOnExchanges > 0 {
		pressure := (m.SupplyOnExchanges - 12.5) / 2.5
		score -= clamp(pressure, -1, 1) * 0.15
	}

	return clamp(score, -1, 1)
}

// confidenceFor reflects metric completeness. A provider returning
// whale data plus activity counts earns more trust than a sparse one.
func confidenceFor(m *Metrics) float64 {
	conf := 0.4
	if m.WhaleAccumulationScore != 0 {
		conf += 0.2
	}
	if m.ActiveAddresses24h > 0 {
		conf += 0.1
	}
	if m.TransactionCount24h > 0 {
		conf += 0.1
	}
	if m.SupplyOnExchanges > 0 {
		conf += 0.1
	}
	if conf > 0.9 {
		conf = 0.9
	}
	return conf
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
