package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"coinpilot/internal/risk"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ============================================================================
// Users
// ============================================================================

// EnsureUser creates the user row if it does not exist yet.
func (r *Repository) EnsureUser(ctx context.Context, userID string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`,
		userID)
	if err != nil {
		return fmt.Errorf("ensuring user: %w", err)
	}
	return nil
}

// GetUser fetches a user by ID.
func (r *Repository) GetUser(ctx context.Context, userID string) (*User, error) {
	var u User
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, COALESCE(email, ''), created_at, updated_at FROM users WHERE id = $1`,
		userID).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &u, nil
}

// ============================================================================
// Symbols
// ============================================================================

// UpsertSymbol stores or refreshes a tradable symbol.
func (r *Repository) UpsertSymbol(ctx context.Context, s Symbol) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO symbols (symbol, base_asset, quote_asset, status, updated_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (symbol) DO UPDATE SET status = $4, updated_at = NOW()`,
		s.Symbol, s.BaseAsset, s.QuoteAsset, s.Status)
	if err != nil {
		return fmt.Errorf("upserting symbol: %w", err)
	}
	return nil
}

// ListSymbols returns all tracked symbols.
func (r *Repository) ListSymbols(ctx context.Context) ([]Symbol, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT symbol, base_asset, quote_asset, status, updated_at FROM symbols ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing symbols: %w", err)
	}
	defer rows.Close()

	var symbols []Symbol
	for rows.Next() {
		var s Symbol
		if err := rows.Scan(&s.Symbol, &s.BaseAsset, &s.QuoteAsset, &s.Status, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// ============================================================================
// Watchlist
// ============================================================================

// GetWatchlist returns the user's watchlist, oldest entries first.
func (r *Repository) GetWatchlist(ctx context.Context, userID string) ([]WatchlistEntry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, symbol, added_at FROM user_watchlists
		 WHERE user_id = $1 ORDER BY added_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("fetching watchlist: %w", err)
	}
	defer rows.Close()

	var entries []WatchlistEntry
	for rows.Next() {
		var e WatchlistEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Symbol, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scanning watchlist entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddToWatchlist adds a symbol to the user's watchlist. Adding a symbol
// that is already present is a no-op.
func (r *Repository) AddToWatchlist(ctx context.Context, userID, symbol string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO user_watchlists (user_id, symbol) VALUES ($1, $2)
		 ON CONFLICT (user_id, symbol) DO NOTHING`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("adding to watchlist: %w", err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from the user's watchlist.
func (r *Repository) RemoveFromWatchlist(ctx context.Context, userID, symbol string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM user_watchlists WHERE user_id = $1 AND symbol = $2`,
		userID, symbol)
	if err != nil {
		return fmt.Errorf("removing from watchlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================================
// Preferences
// ============================================================================

// GetPreferences returns the user's dashboard preferences, falling back
// to defaults when no row exists.
func (r *Repository) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	var p Preferences
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, default_quote, theme, updated_at FROM user_preferences WHERE user_id = $1`,
		userID).Scan(&p.UserID, &p.DefaultQuote, &p.Theme, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Preferences{
				UserID:       userID,
				DefaultQuote: "USDT",
				Theme:        "dark",
				UpdatedAt:    time.Now().UTC(),
			}, nil
		}
		return nil, fmt.Errorf("fetching preferences: %w", err)
	}
	return &p, nil
}

// UpdatePreferences upserts the user's dashboard preferences.
func (r *Repository) UpdatePreferences(ctx context.Context, p Preferences) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO user_preferences (user_id, default_quote, theme, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET default_quote = $2, theme = $3, updated_at = NOW()`,
		p.UserID, p.DefaultQuote, p.Theme)
	if err != nil {
		return fmt.Errorf("updating preferences: %w", err)
	}
	return nil
}

// ============================================================================
// Risk profiles
// ============================================================================

// ProfileUpdate carries a partial risk profile change. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Tolerance            *string   `json:"tolerance,omitempty"`
	MaxPositionSizePct   *float64  `json:"maxPositionSizePct,omitempty"`
	MaxOpenPositions     *int      `json:"maxOpenPositions,omitempty"`
	DailyLossLimitPct    *float64  `json:"dailyLossLimitPct,omitempty"`
	MinConfidence        *float64  `json:"minConfidence,omitempty"`
	UseLimitOrders       *bool     `json:"useLimitOrders,omitempty"`
	SlippageTolerancePct *float64  `json:"slippageTolerancePct,omitempty"`
	UseStopLoss          *bool     `json:"useStopLoss,omitempty"`
	StopLossPct          *float64  `json:"stopLossPct,omitempty"`
	UseTakeProfit        *bool     `json:"useTakeProfit,omitempty"`
	TakeProfitPct        *float64  `json:"takeProfitPct,omitempty"`
	AllowedSymbols       *[]string `json:"allowedSymbols,omitempty"`
	AutoTradingEnabled   *bool     `json:"autoTradingEnabled,omitempty"`
}

// MergeProfile applies a partial update on top of a profile. Nil fields
// keep their current values.
func MergeProfile(p risk.Profile, update ProfileUpdate) risk.Profile {
	if update.Tolerance != nil {
		p.Tolerance = risk.Tolerance(*update.Tolerance)
	}
	if update.MaxPositionSizePct != nil {
		p.MaxPositionSizePct = *update.MaxPositionSizePct
	}
	if update.MaxOpenPositions != nil {
		p.MaxOpenPositions = *update.MaxOpenPositions
	}
	if update.DailyLossLimitPct != nil {
		p.DailyLossLimitPct = *update.DailyLossLimitPct
	}
	if update.MinConfidence != nil {
		p.MinConfidence = *update.MinConfidence
	}
	if update.UseLimitOrders != nil {
		p.UseLimitOrders = *update.UseLimitOrders
	}
	if update.SlippageTolerancePct != nil {
		p.SlippageTolerancePct = *update.SlippageTolerancePct
	}
	if update.UseStopLoss != nil {
		p.UseStopLoss = *update.UseStopLoss
	}
	if update.StopLossPct != nil {
		p.StopLossPct = *update.StopLossPct
	}
	if update.UseTakeProfit != nil {
		p.UseTakeProfit = *update.UseTakeProfit
	}
	if update.TakeProfitPct != nil {
		p.TakeProfitPct = *update.TakeProfitPct
	}
	if update.AllowedSymbols != nil {
		p.AllowedSymbols = *update.AllowedSymbols
	}
	if update.AutoTradingEnabled != nil {
		p.AutoTradingEnabled = *update.AutoTradingEnabled
	}
	return p
}

// GetRiskProfile returns the stored profile, or the default profile
// when the user has never saved one.
func (r *Repository) GetRiskProfile(ctx context.Context, userID string) (risk.Profile, error) {
	var p risk.Profile
	var tolerance string

	err := r.db.Pool.QueryRow(ctx,
		`SELECT tolerance, max_position_size_pct, max_open_positions, daily_loss_limit_pct,
		        min_confidence, use_limit_orders, slippage_tolerance_pct,
		        use_stop_loss, stop_loss_pct, use_take_profit, take_profit_pct,
		        COALESCE(allowed_symbols, '{}'), auto_trading_enabled
		 FROM risk_profiles WHERE user_id = $1`,
		userID).Scan(
		&tolerance, &p.MaxPositionSizePct, &p.MaxOpenPositions, &p.DailyLossLimitPct,
		&p.MinConfidence, &p.UseLimitOrders, &p.SlippageTolerancePct,
		&p.UseStopLoss, &p.StopLossPct, &p.UseTakeProfit, &p.TakeProfitPct,
		&p.AllowedSymbols, &p.AutoTradingEnabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return risk.DefaultProfile(userID), nil
		}
		return risk.Profile{}, fmt.Errorf("fetching risk profile: %w", err)
	}

	p.UserID = userID
	p.Tolerance = risk.Tolerance(tolerance)
	return p, nil
}

// UpdateRiskProfile applies a partial update on top of the current
// profile (stored or default) and persists the merged result. It
// returns the merged profile.
func (r *Repository) UpdateRiskProfile(ctx context.Context, userID string, update ProfileUpdate) (risk.Profile, error) {
	current, err := r.GetRiskProfile(ctx, userID)
	if err != nil {
		return risk.Profile{}, err
	}

	p := MergeProfile(current, update)
	if err := p.Validate(); err != nil {
		return risk.Profile{}, err
	}

	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO risk_profiles (
			user_id, tolerance, max_position_size_pct, max_open_positions,
			daily_loss_limit_pct, min_confidence, use_limit_orders,
			slippage_tolerance_pct, use_stop_loss, stop_loss_pct,
			use_take_profit, take_profit_pct, allowed_symbols,
			auto_trading_enabled, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			tolerance = $2, max_position_size_pct = $3, max_open_positions = $4,
			daily_loss_limit_pct = $5, min_confidence = $6, use_limit_orders = $7,
			slippage_tolerance_pct = $8, use_stop_loss = $9, stop_loss_pct = $10,
			use_take_profit = $11, take_profit_pct = $12, allowed_symbols = $13,
			auto_trading_enabled = $14, updated_at = NOW()`,
		userID, string(p.Tolerance), p.MaxPositionSizePct, p.MaxOpenPositions,
		p.DailyLossLimitPct, p.MinConfidence, p.UseLimitOrders,
		p.SlippageTolerancePct, p.UseStopLoss, p.StopLossPct,
		p.UseTakeProfit, p.TakeProfitPct, p.AllowedSymbols,
		p.AutoTradingEnabled)
	if err != nil {
		return risk.Profile{}, fmt.Errorf("saving risk profile: %w", err)
	}

	return p, nil
}

// ListAutoTradingUsers returns the IDs of users whose profiles have
// automated trading switched on.
func (r *Repository) ListAutoTradingUsers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT user_id FROM risk_profiles WHERE auto_trading_enabled = TRUE`)
	if err != nil {
		return nil, fmt.Errorf("listing auto-trading users: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// ============================================================================
// Strategies
// ============================================================================

// SaveStrategy persists a generated strategy. Allocations must be a
// JSON document.
func (r *Repository) SaveStrategy(ctx context.Context, s StrategyRecord) error {
	if !json.Valid(s.Allocations) {
		return fmt.Errorf("allocations is not valid JSON")
	}
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO trading_strategies
		 (id, user_id, name, risk_level, expected_roi, max_drawdown, leverage, allocations, description, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.UserID, s.Name, s.RiskLevel, s.ExpectedROI, s.MaxDrawdown,
		s.Leverage, s.Allocations, s.Description, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving strategy: %w", err)
	}
	return nil
}

// ListStrategies returns the user's strategies, most recent first.
func (r *Repository) ListStrategies(ctx context.Context, userID string, limit int) ([]StrategyRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, name, risk_level, expected_roi, max_drawdown, leverage, allocations, COALESCE(description, ''), created_at
		 FROM trading_strategies WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing strategies: %w", err)
	}
	defer rows.Close()

	var records []StrategyRecord
	for rows.Next() {
		var s StrategyRecord
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.RiskLevel, &s.ExpectedROI,
			&s.MaxDrawdown, &s.Leverage, &s.Allocations, &s.Description, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning strategy: %w", err)
		}
		records = append(records, s)
	}
	return records, rows.Err()
}

// GetStrategy fetches a single strategy owned by the user.
func (r *Repository) GetStrategy(ctx context.Context, userID string, id uuid.UUID) (*StrategyRecord, error) {
	var s StrategyRecord
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, user_id, name, risk_level, expected_roi, max_drawdown, leverage, allocations, COALESCE(description, ''), created_at
		 FROM trading_strategies WHERE user_id = $1 AND id = $2`,
		userID, id).Scan(&s.ID, &s.UserID, &s.Name, &s.RiskLevel, &s.ExpectedROI,
		&s.MaxDrawdown, &s.Leverage, &s.Allocations, &s.Description, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching strategy: %w", err)
	}
	return &s, nil
}

// ============================================================================
// Trades
// ============================================================================

// InsertTrade records a new trade and returns its ID.
func (r *Repository) InsertTrade(ctx context.Context, t Trade) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO auto_trades
		 (user_id, strategy_id, client_order_id, exchange_order_id, symbol, side, order_type,
		  entry_price, quantity, stop_loss, take_profit, status, opened_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		t.UserID, t.StrategyID, t.ClientOrderID, t.ExchangeOrderID, t.Symbol, t.Side,
		t.OrderType, t.EntryPrice, t.Quantity, t.StopLoss, t.TakeProfit, t.Status,
		t.OpenedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting trade: %w", err)
	}
	return id, nil
}

// CloseTrade marks a trade closed with its exit economics.
func (r *Repository) CloseTrade(ctx context.Context, userID string, tradeID int64, exitPrice, pnl, pnlPercent float64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE auto_trades
		 SET exit_price = $3, pnl = $4, pnl_percent = $5, status = $6, closed_at = NOW(), updated_at = NOW()
		 WHERE user_id = $1 AND id = $2 AND status = $7`,
		userID, tradeID, exitPrice, pnl, pnlPercent, TradeStatusClosed, TradeStatusOpen)
	if err != nil {
		return fmt.Errorf("closing trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTrades returns the user's trades, most recent first.
func (r *Repository) ListTrades(ctx context.Context, userID string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, strategy_id, COALESCE(client_order_id, ''), COALESCE(exchange_order_id, 0),
		        symbol, side, order_type, entry_price, exit_price, quantity,
		        stop_loss, take_profit, pnl, pnl_percent, status, opened_at, closed_at
		 FROM auto_trades WHERE user_id = $1 ORDER BY opened_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.UserID, &t.StrategyID, &t.ClientOrderID, &t.ExchangeOrderID,
			&t.Symbol, &t.Side, &t.OrderType, &t.EntryPrice, &t.ExitPrice, &t.Quantity,
			&t.StopLoss, &t.TakeProfit, &t.PnL, &t.PnLPercent, &t.Status,
			&t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, fmt.Errorf("scanning trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// CountOpenTrades returns how many of the user's trades are in a
// non-terminal status.
func (r *Repository) CountOpenTrades(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM auto_trades WHERE user_id = $1 AND status = $2`,
		userID, TradeStatusOpen).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting open trades: %w", err)
	}
	return count, nil
}

// RealizedLossPctToday sums today's realized losses as a positive
// percentage. Profitable days return 0.
func (r *Repository) RealizedLossPctToday(ctx context.Context, userID string) (float64, error) {
	var netPct float64
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(pnl_percent), 0) FROM auto_trades
		 WHERE user_id = $1 AND status = $2 AND closed_at >= date_trunc('day', NOW())`,
		userID, TradeStatusClosed).Scan(&netPct)
	if err != nil {
		return 0, fmt.Errorf("summing daily pnl: %w", err)
	}

	if netPct >= 0 {
		return 0, nil
	}
	return -netPct, nil
}

// PortfolioState assembles the live risk inputs for a user.
func (r *Repository) PortfolioState(ctx context.Context, userID string) (risk.PortfolioState, error) {
	openCount, err := r.CountOpenTrades(ctx, userID)
	if err != nil {
		return risk.PortfolioState{}, err
	}
	lossPct, err := r.RealizedLossPctToday(ctx, userID)
	if err != nil {
		return risk.PortfolioState{}, err
	}
	return risk.PortfolioState{
		OpenPositionsCount:    openCount,
		RealizedLossPctToday:  lossPct,
	}, nil
}

// ============================================================================
// Logs
// ============================================================================

// InsertLog appends an auto-trading audit line.
func (r *Repository) InsertLog(ctx context.Context, l AutoTradingLog) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO auto_trading_logs (user_id, level, action, symbol, detail)
		 VALUES ($1, $2, $3, $4, $5)`,
		l.UserID, l.Level, l.Action, l.Symbol, l.Detail)
	if err != nil {
		return fmt.Errorf("inserting log: %w", err)
	}
	return nil
}

// ListLogs returns the user's audit lines, most recent first.
func (r *Repository) ListLogs(ctx context.Context, userID string, limit int) ([]AutoTradingLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, user_id, level, action, COALESCE(symbol, ''), COALESCE(detail, ''), created_at
		 FROM auto_trading_logs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var logs []AutoTradingLog
	for rows.Next() {
		var l AutoTradingLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Level, &l.Action, &l.Symbol, &l.Detail, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// ============================================================================
// Historical prices
// ============================================================================

// SaveHistoricalPrices bulk-inserts candles, skipping duplicates.
func (r *Repository) SaveHistoricalPrices(ctx context.Context, symbol, interval string, klines []HistoricalPrice) error {
	for _, k := range klines {
		_, err := r.db.Pool.Exec(ctx,
			`INSERT INTO historical_prices (symbol, interval, open_time, open, high, low, close, volume, close_time)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 ON CONFLICT (symbol, interval, open_time) DO NOTHING`,
			symbol, interval, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume, k.CloseTime)
		if err != nil {
			return fmt.Errorf("saving historical price: %w", err)
		}
	}
	return nil
}

// HistoricalPrice is a stored candle row.
type HistoricalPrice struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
}

// GetHistoricalPrices returns stored candles, oldest first.
func (r *Repository) GetHistoricalPrices(ctx context.Context, symbol, interval string, limit int) ([]HistoricalPrice, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT open_time, open, high, low, close, volume, close_time
		 FROM (
			SELECT open_time, open, high, low, close, volume, close_time
			FROM historical_prices
			WHERE symbol = $1 AND interval = $2
			ORDER BY open_time DESC LIMIT $3
		 ) sub ORDER BY open_time ASC`,
		symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching historical prices: %w", err)
	}
	defer rows.Close()

	var prices []HistoricalPrice
	for rows.Next() {
		var p HistoricalPrice
		if err := rows.Scan(&p.OpenTime, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.CloseTime); err != nil {
			return nil, fmt.Errorf("scanning historical price: %w", err)
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
