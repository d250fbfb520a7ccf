// Package market fronts the exchange client with a Redis cache and
// degrades to sentinel values when upstream data is unavailable, so
// dashboard endpoints never fail hard on market-data hiccups.
package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coinpilot/internal/binance"
	"coinpilot/internal/cache"
	"coinpilot/internal/database"
)

// HistoryStore persists candles so chart data survives exchange outages.
// *database.Repository satisfies it.
type HistoryStore interface {
	SaveHistoricalPrices(ctx context.Context, symbol, interval string, klines []database.HistoricalPrice) error
	GetHistoricalPrices(ctx context.Context, symbol, interval string, limit int) ([]database.HistoricalPrice, error)
}

// Service serves market data cache-first. A nil cache disables caching
// and a nil history store disables the database fallback, without
// changing behavior otherwise.
type Service struct {
	client  binance.MarketDataClient
	cache   *cache.Service
	history HistoryStore
	logger  zerolog.Logger
}

func NewService(client binance.MarketDataClient, cacheSvc *cache.Service, logger zerolog.Logger) *Service {
	return &Service{
		client: client,
		cache:  cacheSvc,
		logger: logger.With().Str("component", "market").Logger(),
	}
}

// WithHistory enables persisting fetched candles and serving them back
// when the exchange is unreachable.
func (s *Service) WithHistory(store HistoryStore) *Service {
	s.history = store
	return s
}

// Price returns the current price for a symbol as a decimal string.
// Unavailable data degrades to "0" rather than an error.
func (s *Service) Price(ctx context.Context, symbol string) string {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cache.PriceKey(symbol)); err == nil {
			return cached
		}
	}

	price, err := s.client.GetCurrentPrice(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("price unavailable, serving sentinel")
		return "0"
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, cache.PriceKey(symbol), price, cache.PriceTTL)
	}
	return price
}

// Ticker returns 24hr statistics. Unavailable data degrades to an
// empty ticker carrying only the symbol.
func (s *Service) Ticker(ctx context.Context, symbol string) binance.Ticker24hr {
	if s.cache != nil {
		var cached binance.Ticker24hr
		if err := s.cache.GetJSON(ctx, cache.TickerKey(symbol), &cached); err == nil {
			return cached
		}
	}

	ticker, err := s.client.Get24hrTicker(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("ticker unavailable, serving empty")
		return binance.Ticker24hr{Symbol: symbol}
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cache.TickerKey(symbol), ticker, cache.TickerTTL)
	}
	return *ticker
}

// Klines returns candles, most recent last. Unavailable data degrades
// to an empty slice.
func (s *Service) Klines(ctx context.Context, symbol, interval string, limit int) []binance.Kline {
	key := cache.KlinesKey(symbol, interval)

	if s.cache != nil {
		var cached []binance.Kline
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil && len(cached) >= limit && limit > 0 {
			return cached[len(cached)-limit:]
		}
	}

	klines, err := s.client.GetKlines(ctx, binance.KlinesRequest{
		Symbol:   symbol,
		Interval: interval,
		Limit:    limit,
	})
	if err != nil {
		if stored := s.storedKlines(ctx, symbol, interval, limit); len(stored) > 0 {
			s.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).
				Msg("klines unavailable, serving stored history")
			return stored
		}
		s.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", interval).
			Msg("klines unavailable, serving empty")
		return []binance.Kline{}
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, klines, cache.KlinesTTL(interval))
	}
	if s.history != nil {
		if err := s.history.SaveHistoricalPrices(ctx, symbol, interval, toHistory(klines)); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("candle persist failed")
		}
	}
	return klines
}

func (s *Service) storedKlines(ctx context.Context, symbol, interval string, limit int) []binance.Kline {
	if s.history == nil {
		return nil
	}
	stored, err := s.history.GetHistoricalPrices(ctx, symbol, interval, limit)
	if err != nil {
		return nil
	}

	klines := make([]binance.Kline, len(stored))
	for i, h := range stored {
		klines[i] = binance.Kline{
			OpenTime:  h.OpenTime,
			Open:      h.Open,
			High:      h.High,
			Low:       h.Low,
			Close:     h.Close,
			Volume:    h.Volume,
			CloseTime: h.CloseTime,
		}
	}
	return klines
}

func toHistory(klines []binance.Kline) []database.HistoricalPrice {
	out := make([]database.HistoricalPrice, len(klines))
	for i, k := range klines {
		out[i] = database.HistoricalPrice{
			OpenTime:  k.OpenTime,
			Open:      k.Open,
			High:      k.High,
			Low:       k.Low,
			Close:     k.Close,
			Volume:    k.Volume,
			CloseTime: k.CloseTime,
		}
	}
	return out
}

// Prices returns current prices for all symbols, or an empty map.
func (s *Service) Prices(ctx context.Context) map[string]string {
	prices, err := s.client.GetPrices(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("bulk prices unavailable, serving empty")
		return map[string]string{}
	}
	return prices
}

// TradingSymbols returns tradable symbols, or an empty slice.
func (s *Service) TradingSymbols(ctx context.Context) []binance.SymbolInfo {
	symbols, err := s.client.GetTradingSymbols(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("exchange info unavailable, serving empty")
		return []binance.SymbolInfo{}
	}
	return symbols
}

// Warm pre-fetches prices for a set of symbols into the cache. Used at
// startup so first dashboard loads are instant.
func (s *Service) Warm(ctx context.Context, symbols []string) {
	if s.cache == nil {
		return
	}

	start := time.Now()
	warmed := 0
	for _, symbol := range symbols {
		price, err := s.client.GetCurrentPrice(ctx, symbol)
		if err != nil {
			continue
		}
		if err := s.cache.Set(ctx, cache.PriceKey(symbol), price, cache.PriceTTL); err == nil {
			warmed++
		}
	}

	s.logger.Info().Int("warmed", warmed).Dur("took", time.Since(start)).Msg("price cache warmed")
}
