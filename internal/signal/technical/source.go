// Package technical derives a trading signal from chart indicators
// computed over several timeframes of candlestick data.
package technical

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"coinpilot/internal/binance"
	"coinpilot/internal/signal"
)

var timeframes = []string{"1h", "4h", "1d"}

const klineLimit = 100

// Source computes a technical-analysis signal from EMA, RSI and MACD
// readings on 1h, 4h and 1d candles. The per-timeframe scores are
// averaged; confidence reflects how strongly the timeframes agree.
type Source struct {
	client binance.MarketDataClient
	logger zerolog.Logger
}

func NewSource(client binance.MarketDataClient, logger zerolog.Logger) *Source {
	return &Source{
		client: client,
		logger: logger.With().Str("component", "technical_source").Logger(),
	}
}

func (s *Source) Name() signal.Source {
	return signal.SourceTechnical
}

func (s *Source) Fetch(ctx context.Context, symbol string) (signal.Signal, error) {
	scores := make([]float64, 0, len(timeframes))

	for _, tf := range timeframes {
		klines, err := s.client.GetKlines(ctx, binance.KlinesRequest{
			Symbol:   symbol,
			Interval: tf,
			Limit:    klineLimit,
		})
		if err != nil {
			return signal.Signal{}, fmt.Errorf("fetching %s klines for %s: %w", tf, symbol, err)
		}
		if len(klines) < 51 {
			return signal.Signal{}, fmt.Errorf("insufficient %s klines for %s: got %d", tf, symbol, len(klines))
		}

		score := scoreTimeframe(klines)
		scores = append(scores, score)

		s.logger.Debug().
			Str("symbol", symbol).
			Str("timeframe", tf).
			Float64("score", score).
			Msg("timeframe scored")
	}

	composite := mean(scores)
	confidence := agreementConfidence(scores)

	return signal.Signal{
		Source:     signal.SourceTechnical,
		Symbol:     symbol,
		Score:      clamp(composite, -1, 1),
		Confidence: confidence,
		ObservedAt: time.Now().UTC(),
		Summary:    summarize(composite, confidence),
	}, nil
}

// scoreTimeframe combines three indicator votes into a [-1, 1] score:
// EMA20/EMA50 cross for trend, RSI14 for exhaustion, MACD histogram
// for momentum.
func scoreTimeframe(klines []binance.Kline) float64 {
	score := 0.0

	ema20 := CalculateEMA(klines, 20)
	ema50 := CalculateEMA(klines, 50)
	if ema50 > 0 {
		spread := (ema20 - ema50) / ema50
		// Saturate at a 2% spread
		score += clamp(spread/0.02, -1, 1) * 0.4
	}

	rsi := CalculateRSI(klines, 14)
	switch {
	case rsi >= 70:
		score -= 0.3 // overbought
	case rsi <= 30:
		score += 0.3 // oversold, mean-reversion long
	default:
		score += (rsi - 50) / 50 * 0.3
	}

	macd := CalculateMACD(klines, 12, 26, 9)
	lastClose := klines[len(klines)-1].Close
	if lastClose > 0 {
		histPct := macd.Histogram / lastClose
		score += clamp(histPct/0.005, -1, 1) * 0.3
	}

	return clamp(score, -1, 1)
}

// agreementConfidence maps the spread of per-timeframe scores to [0, 1].
// Identical scores yield full confidence; widely split timeframes drop
// toward the floor.
func agreementConfidence(scores []float64) float64 {
	if len(scores) < 2 {
		return 0.5
	}

	m := mean(scores)
	variance := 0.0
	for _, s := range scores {
		d := s - m
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(len(scores)))

	// stdDev ranges 0 (all agree) to ~1 (max disagreement on [-1,1]).
	conf := 1.0 - stdDev
	return clamp(conf, 0.2, 1.0)
}

func summarize(score, confidence float64) string {
	var bias string
	switch {
	case score > 0.3:
		bias = "strong bullish chart structure"
	case score > 0.1:
		bias = "mildly bullish chart structure"
	case score < -0.3:
		bias = "strong bearish chart structure"
	case score < -0.1:
		bias = "mildly bearish chart structure"
	default:
		bias = "neutral chart structure"
	}
	return fmt.Sprintf("%s across 1h/4h/1d (agreement %.0f%%)", bias, confidence*100)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
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
