package sentiment

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coinpilot/internal/signal"
)

// SentimentProvider produces sentiment analyses. Satisfied by Analyzer
// and by Fixture for offline use.
type SentimentProvider interface {
	Analyze(ctx context.Context, symbol string) (*Analysis, error)
}

// Source adapts a SentimentProvider to the signal source interface.
type Source struct {
	provider SentimentProvider
	logger   zerolog.Logger
}

func NewSource(provider SentimentProvider, logger zerolog.Logger) *Source {
	return &Source{
		provider: provider,
		logger:   logger.With().Str("component", "sentiment_source").Logger(),
	}
}

func (s *Source) Name() signal.Source {
	return signal.SourceSentiment
}

func (s *Source) Fetch(ctx context.Context, symbol string) (signal.Signal, error) {
	analysis, err := s.provider.Analyze(ctx, symbol)
	if err != nil {
		return signal.Signal{}, err
	}

	s.logger.Debug().
		Str("symbol", symbol).
		Float64("score", analysis.Score).
		Int("source_count", analysis.SourceCount).
		Msg("sentiment analyzed")

	return signal.Signal{
		Source:     signal.SourceSentiment,
		Symbol:     symbol,
		Score:      analysis.Score,
		Confidence: confidenceFor(analysis.SourceCount),
		ObservedAt: analysis.UpdatedAt,
		Summary:    analysis.Summary,
	}, nil
}

// confidenceFor scales with corroborating sources. The index alone is
// a weak read; dozens of scored articles firm it up.
func confidenceFor(sourceCount int) float64 {
	switch {
	case sourceCount >= 50:
		return 0.85
	case sourceCount >= 20:
		return 0.75
	case sourceCount >= 5:
		return 0.65
	default:
		return 0.5
	}
}

// Fixture is a deterministic provider for development and tests. The
// same symbol always yields the same analysis, keyed by a hash of the
// symbol name.
type Fixture struct{}

func NewFixture() *Fixture {
	return &Fixture{}
}

func (f *Fixture) Analyze(_ context.Context, symbol string) (*Analysis, error) {
	h := fixtureHash(symbol)

	// Score in [-0.6, 0.8) mirroring the live distribution
	score := float64(int(h%140))/100.0 - 0.6
	fgIndex := int(50 + score*50)

	return &Analysis{
		Symbol:         symbol,
		Score:          score,
		FearGreedIndex: fgIndex,
		FearGreedLabel: fearGreedLabel(fgIndex),
		NewsScore:      score,
		SourceCount:    int(100 + h%500),
		Summary:        Summarize(score),
		UpdatedAt:      time.Now().UTC(),
	}, nil
}

func fearGreedLabel(index int) string {
	switch {
	case index <= 20:
		return "Extreme Fear"
	case index <= 40:
		return "Fear"
	case index <= 60:
		return "Neutral"
	case index <= 80:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}

func fixtureHash(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
