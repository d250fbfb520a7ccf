package autotrader

import (
	"context"
	"sync"
	"testing"
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

// fakeStore backs both the autotrader and the executor in tests.
type fakeStore struct {
	mu        sync.Mutex
	users     []string
	profiles  map[string]risk.Profile
	watchlist map[string][]database.WatchlistEntry
	state     risk.PortfolioState
	trades    []database.Trade
	logs      []database.AutoTradingLog
	nextID    int64
}

func (f *fakeStore) ListAutoTradingUsers(ctx context.Context) ([]string, error) {
	return f.users, nil
}

func (f *fakeStore) GetRiskProfile(ctx context.Context, userID string) (risk.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return risk.DefaultProfile(userID), nil
}

func (f *fakeStore) PortfolioState(ctx context.Context, userID string) (risk.PortfolioState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, nil
}

func (f *fakeStore) GetWatchlist(ctx context.Context, userID string) ([]database.WatchlistEntry, error) {
	return f.watchlist[userID], nil
}

func (f *fakeStore) InsertTrade(ctx context.Context, t database.Trade) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.trades = append(f.trades, t)
	f.state.OpenPositionsCount++
	return f.nextID, nil
}

func (f *fakeStore) InsertLog(ctx context.Context, l database.AutoTradingLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, l)
	return nil
}

// steadySource always returns the same bullish, high-confidence signal.
type steadySource struct {
	name  signal.Source
	score float64
	conf  float64
}

func (s *steadySource) Name() signal.Source { return s.name }

func (s *steadySource) Fetch(ctx context.Context, symbol string) (signal.Signal, error) {
	return signal.Signal{
		Source:     s.name,
		Symbol:     symbol,
		Score:      s.score,
		Confidence: s.conf,
		ObservedAt: time.Now().UTC(),
	}, nil
}

func newTestAutoTrader(store *fakeStore) (*AutoTrader, *binance.MockClient) {
	market := binance.NewMockClient()
	collector := signal.NewCollector([]signal.SignalSource{
		&steadySource{name: signal.SourceSentiment, score: 0.6, conf: 0.9},
		&steadySource{name: signal.SourceOnChain, score: 0.5, conf: 0.85},
	}, 2*time.Second, zerolog.Nop())

	bus := events.NewBus()
	exec := executor.New(market, store, bus, zerolog.Nop())

	cfg := DefaultConfig()
	cfg.Interval = time.Hour // cycles driven manually in tests

	return New(cfg, collector, market, exec, store, bus, zerolog.Nop()), market
}

func TestRunCycleExecutesForEnabledUser(t *testing.T) {
	profile := risk.DefaultProfile("user-1")
	profile.AutoTradingEnabled = true
	profile.MaxOpenPositions = 10
	profile.MaxPositionSizePct = 50
	profile.MinConfidence = 50

	store := &fakeStore{
		users:    []string{"user-1"},
		profiles: map[string]risk.Profile{"user-1": profile},
		watchlist: map[string][]database.WatchlistEntry{
			"user-1": {
				{Symbol: "BTCUSDT"},
				{Symbol: "ETHUSDT"},
				{Symbol: "SOLUSDT"},
				{Symbol: "BNBUSDT"},
			},
		},
	}

	at, market := newTestAutoTrader(store)
	at.RunCycle(context.Background())

	if len(store.trades) == 0 {
		t.Fatal("expected at least one trade for the enabled user")
	}
	if len(market.PlacedOrders()) != len(store.trades) {
		t.Errorf("orders (%d) and trades (%d) out of sync",
			len(market.PlacedOrders()), len(store.trades))
	}
	for _, trade := range store.trades {
		if trade.UserID != "user-1" {
			t.Errorf("trade for wrong user: %s", trade.UserID)
		}
		if trade.Side != "BUY" {
			t.Errorf("bullish signals should open BUY positions, got %s", trade.Side)
		}
	}
}

func TestRunCycleSkipsDisabledUser(t *testing.T) {
	store := &fakeStore{
		users:    []string{"user-2"},
		profiles: map[string]risk.Profile{"user-2": risk.DefaultProfile("user-2")},
	}

	at, market := newTestAutoTrader(store)
	at.RunCycle(context.Background())

	if len(store.trades) != 0 {
		t.Errorf("disabled user should not trade, got %d trades", len(store.trades))
	}
	if len(market.PlacedOrders()) != 0 {
		t.Error("no orders should be placed")
	}
}

func TestUniverseFallsBackToDefault(t *testing.T) {
	store := &fakeStore{watchlist: map[string][]database.WatchlistEntry{}}
	at, _ := newTestAutoTrader(store)

	universe := at.universeFor(context.Background(), "user-empty")
	if len(universe) != len(defaultUniverse) {
		t.Errorf("got %d symbols, want default universe of %d", len(universe), len(defaultUniverse))
	}
}

func TestPickTier(t *testing.T) {
	strategies := []strategy.Strategy{
		{Name: "Conservative Growth", RiskLevel: risk.ToleranceConservative},
		{Name: "Balanced Growth", RiskLevel: risk.ToleranceModerate},
		{Name: "Aggressive Growth", RiskLevel: risk.ToleranceAggressive},
	}

	chosen, ok := pickTier(strategies, risk.ToleranceAggressive)
	if !ok || chosen.Name != "Aggressive Growth" {
		t.Errorf("chose %s, want Aggressive Growth", chosen.Name)
	}

	if _, ok := pickTier(nil, risk.ToleranceModerate); ok {
		t.Error("empty strategy list should not match")
	}
}

func TestStartStop(t *testing.T) {
	store := &fakeStore{}
	at, _ := newTestAutoTrader(store)

	done := make(chan struct{})
	go func() {
		at.Start(context.Background())
		close(done)
	}()

	at.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}
