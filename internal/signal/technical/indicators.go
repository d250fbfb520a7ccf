package technical

import (
	"coinpilot/internal/binance"
)

// CalculateSMA calculates Simple Moving Average over the last period closes
func CalculateSMA(klines []binance.Kline, period int) float64 {
	if len(klines) < period {
		return 0
	}

	sum := 0.0
	startIdx := len(klines) - period

	for i := startIdx; i < len(klines); i++ {
		sum += klines[i].Close
	}

	return sum / float64(period)
}

// CalculateEMA calculates Exponential Moving Average
func CalculateEMA(klines []binance.Kline, period int) float64 {
	if len(klines) < period {
		return 0
	}

	// Seed with SMA over the first period candles
	sma := CalculateSMA(klines[:period], period)
	multiplier := 2.0 / float64(period+1)

	ema := sma
	for i := period; i < len(klines); i++ {
		ema = (klines[i].Close * multiplier) + (ema * (1 - multiplier))
	}

	return ema
}

// CalculateRSI calculates the Relative Strength Index
func CalculateRSI(klines []binance.Kline, period int) float64 {
	if len(klines) < period+1 {
		return 50.0 // Neutral RSI
	}

	gains := 0.0
	losses := 0.0

	for i := len(klines) - period; i < len(klines); i++ {
		change := klines[i].Close - klines[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDResult holds MACD indicator values
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// CalculateMACD calculates MACD, Signal line, and Histogram.
// The signal line is an EMA of the MACD series over signalPeriod.
func CalculateMACD(klines []binance.Kline, fastPeriod, slowPeriod, signalPeriod int) *MACDResult {
	if len(klines) < slowPeriod+signalPeriod {
		return &MACDResult{0, 0, 0}
	}

	// Build the MACD series over the tail so the signal line has history.
	macdSeries := make([]float64, 0, signalPeriod*2)
	for i := len(klines) - signalPeriod*2; i <= len(klines); i++ {
		if i < slowPeriod {
			continue
		}
		window := klines[:i]
		fast := CalculateEMA(window, fastPeriod)
		slow := CalculateEMA(window, slowPeriod)
		macdSeries = append(macdSeries, fast-slow)
	}

	if len(macdSeries) == 0 {
		return &MACDResult{0, 0, 0}
	}

	macdLine := macdSeries[len(macdSeries)-1]
	signalLine := emaOf(macdSeries, signalPeriod)

	return &MACDResult{
		MACD:      macdLine,
		Signal:    signalLine,
		Histogram: macdLine - signalLine,
	}
}

func emaOf(values []float64, period int) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < period {
		period = len(values)
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i] * multiplier) + (ema * (1 - multiplier))
	}
	return ema
}
