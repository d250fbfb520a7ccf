// Package autotrader runs the periodic pipeline that turns live signals
// into executed trades for users who opted in: collect signals over the
// user's watchlist, generate tiered strategies, pick the tier matching
// the user's tolerance, and hand it to the executor.
package autotrader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"coinpilot/internal/binance"
	"coinpilot/internal/database"
	"coinpilot/internal/events"
	"coinpilot/internal/executor"
	"coinpilot/internal/risk"
	"coinpilot/internal/signal"
	"coinpilot/internal/strategy"
)

// defaultUniverse backs users with an empty watchlist.
var defaultUniverse = []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"}

// Store is the persistence surface the autotrader needs.
type Store interface {
	ListAutoTradingUsers(ctx context.Context) ([]string, error)
	GetRiskProfile(ctx context.Context, userID string) (risk.Profile, error)
	PortfolioState(ctx context.Context, userID string) (risk.PortfolioState, error)
	GetWatchlist(ctx context.Context, userID string) ([]database.WatchlistEntry, error)
	InsertLog(ctx context.Context, l database.AutoTradingLog) error
}

// Config tunes the trading loop.
type Config struct {
	Interval   time.Duration // time between cycles
	CapitalUSD float64       // notional capital per user per cycle
	Goal       strategy.Goal // default goal used for generation
}

// DefaultConfig returns the loop defaults.
func DefaultConfig() Config {
	return Config{
		Interval:   5 * time.Minute,
		CapitalUSD: 10000,
		Goal: strategy.Goal{
			TargetROI:     5,
			Capital:       10000,
			TimeframeDays: 30,
		},
	}
}

// AutoTrader drives the end-to-end pipeline on a timer.
type AutoTrader struct {
	config    Config
	collector *signal.Collector
	market    binance.MarketDataClient
	exec      *executor.Executor
	store     Store
	bus       *events.Bus
	logger    zerolog.Logger

	stopOnce sync.Once
	stopChan chan struct{}
}

func New(cfg Config, collector *signal.Collector, market binance.MarketDataClient, exec *executor.Executor, store Store, bus *events.Bus, logger zerolog.Logger) *AutoTrader {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &AutoTrader{
		config:    cfg,
		collector: collector,
		market:    market,
		exec:      exec,
		store:     store,
		bus:       bus,
		logger:    logger.With().Str("component", "autotrader").Logger(),
		stopChan:  make(chan struct{}),
	}
}

// Start runs trading cycles until the context is canceled or Stop is
// called. It blocks; run it in its own goroutine.
func (a *AutoTrader) Start(ctx context.Context) {
	a.logger.Info().Dur("interval", a.config.Interval).Msg("auto trading loop started")

	ticker := time.NewTicker(a.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.RunCycle(ctx)
		case <-a.stopChan:
			a.logger.Info().Msg("auto trading loop stopped")
			return
		case <-ctx.Done():
			a.logger.Info().Msg("auto trading loop canceled")
			return
		}
	}
}

// Stop terminates the loop.
func (a *AutoTrader) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })
}

// RunCycle processes every opted-in user once.
func (a *AutoTrader) RunCycle(ctx context.Context) {
	userIDs, err := a.store.ListAutoTradingUsers(ctx)
	if err != nil {
		a.logger.Error().Err(err).Msg("listing auto-trading users failed")
		return
	}

	for _, userID := range userIDs {
		if err := a.runUser(ctx, userID); err != nil {
			a.logger.Warn().Err(err).Str("user_id", userID).Msg("user cycle failed")
		}
	}
}

func (a *AutoTrader) runUser(ctx context.Context, userID string) error {
	profile, err := a.store.GetRiskProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	if !profile.AutoTradingEnabled {
		return nil
	}

	universe := a.universeFor(ctx, userID)

	signals, prices := a.collectUniverse(ctx, universe)
	if len(signals) == 0 {
		_ = a.store.InsertLog(ctx, database.AutoTradingLog{
			UserID: userID,
			Level:  "warn",
			Action: "CYCLE_SKIPPED",
			Detail: "no signals collected for universe",
		})
		return nil
	}

	state, err := a.store.PortfolioState(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading portfolio state: %w", err)
	}

	strategies, err := strategy.Generate(a.config.Goal, signals, profile, state, prices)
	if err != nil {
		if errors.Is(err, strategy.ErrNoViableAllocations) {
			_ = a.store.InsertLog(ctx, database.AutoTradingLog{
				UserID: userID,
				Level:  "info",
				Action: "CYCLE_SKIPPED",
				Detail: "no viable allocations under current risk limits",
			})
			return nil
		}
		return fmt.Errorf("generating strategies: %w", err)
	}

	chosen, ok := pickTier(strategies, profile.Tolerance)
	if !ok {
		return nil
	}

	results, err := a.exec.ExecuteStrategy(ctx, userID, chosen, a.config.CapitalUSD)
	if err != nil {
		return fmt.Errorf("executing strategy: %w", err)
	}

	executed := 0
	for _, r := range results {
		if r.Executed {
			executed++
		}
	}

	a.logger.Info().
		Str("user_id", userID).
		Str("strategy", chosen.Name).
		Int("executed", executed).
		Int("allocations", len(results)).
		Msg("trading cycle complete")

	return nil
}

// universeFor returns the user's watchlist symbols, or the default
// universe when the watchlist is empty.
func (a *AutoTrader) universeFor(ctx context.Context, userID string) []string {
	entries, err := a.store.GetWatchlist(ctx, userID)
	if err != nil || len(entries) == 0 {
		return defaultUniverse
	}

	symbols := make([]string, 0, len(entries))
	for _, e := range entries {
		symbols = append(symbols, e.Symbol)
	}
	return symbols
}

// collectUniverse gathers aggregated signals and current prices for
// each symbol. Symbols whose collection or price lookup fails are
// dropped rather than failing the cycle.
func (a *AutoTrader) collectUniverse(ctx context.Context, universe []string) ([]signal.AggregatedSignal, strategy.PriceLookup) {
	var (
		mu      sync.Mutex
		signals []signal.AggregatedSignal
		prices  = make(strategy.PriceLookup)
		wg      sync.WaitGroup
	)

	for _, symbol := range universe {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()

			agg, err := a.collector.CollectAggregated(ctx, sym)
			if err != nil {
				a.logger.Warn().Err(err).Str("symbol", sym).Msg("symbol dropped from cycle")
				return
			}

			priceStr, err := a.market.GetCurrentPrice(ctx, sym)
			if err != nil {
				a.logger.Warn().Err(err).Str("symbol", sym).Msg("price unavailable, symbol dropped")
				return
			}
			price, err := strconv.ParseFloat(priceStr, 64)
			if err != nil || price <= 0 {
				return
			}

			mu.Lock()
			signals = append(signals, agg)
			prices[sym] = price
			mu.Unlock()

			a.bus.PublishSignalUpdate(sym, agg.CompositeScore, agg.CompositeConfidence, string(agg.Direction))
		}(symbol)
	}

	wg.Wait()
	return signals, prices
}

// pickTier selects the generated strategy matching the tolerance.
func pickTier(strategies []strategy.Strategy, tolerance risk.Tolerance) (strategy.Strategy, bool) {
	for _, s := range strategies {
		if s.RiskLevel == tolerance {
			return s, true
		}
	}
	return strategy.Strategy{}, false
}
