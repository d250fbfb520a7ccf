// Package executor turns gated strategy allocations into exchange
// orders and records the resulting trades.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"coinpilot/internal/binance"
	"coinpilot/internal/database"
	"coinpilot/internal/events"
	"coinpilot/internal/risk"
	"coinpilot/internal/strategy"
)

// ErrRejected is returned when the risk gate blocks an allocation at
// execution time.
var ErrRejected = errors.New("allocation rejected by risk gate")

// ErrAutoTradingDisabled is returned when the user's profile has
// automated trading switched off.
var ErrAutoTradingDisabled = errors.New("auto trading is disabled for user")

const quantityPrecision = 6

// Store is the persistence surface the executor needs.
type Store interface {
	GetRiskProfile(ctx context.Context, userID string) (risk.Profile, error)
	PortfolioState(ctx context.Context, userID string) (risk.PortfolioState, error)
	InsertTrade(ctx context.Context, t database.Trade) (int64, error)
	InsertLog(ctx context.Context, l database.AutoTradingLog) error
}

// Executor places orders for strategy allocations. Each allocation is
// re-gated against fresh portfolio state immediately before the order
// goes out; the stale gate result from generation time is not trusted.
type Executor struct {
	client binance.TradingClient
	store  Store
	bus    *events.Bus
	logger zerolog.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func New(client binance.TradingClient, store Store, bus *events.Bus, logger zerolog.Logger) *Executor {
	return &Executor{
		client:    client,
		store:     store,
		bus:       bus,
		logger:    logger.With().Str("component", "executor").Logger(),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the per-user mutex, creating it on first use. The
// check-then-act between gate evaluation and order placement must not
// interleave for the same user.
func (e *Executor) lockFor(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// ExecutionResult reports the outcome per allocation.
type ExecutionResult struct {
	Symbol    string        `json:"symbol"`
	Executed  bool          `json:"executed"`
	TradeID   int64         `json:"tradeId,omitempty"`
	OrderID   int64         `json:"orderId,omitempty"`
	Quantity  string        `json:"quantity,omitempty"`
	Reasons   []risk.Reason `json:"reasons,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ExecuteStrategy activates a strategy: each allocation is re-gated and,
// if allowed, converted into an order sized from capitalUSD. Rejected or
// failed allocations do not abort the rest; every outcome is reported.
func (e *Executor) ExecuteStrategy(ctx context.Context, userID string, strat strategy.Strategy, capitalUSD float64) ([]ExecutionResult, error) {
	if capitalUSD <= 0 {
		return nil, fmt.Errorf("capital must be positive, got %.2f", capitalUSD)
	}

	profile, err := e.store.GetRiskProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading risk profile: %w", err)
	}
	if !profile.AutoTradingEnabled {
		return nil, ErrAutoTradingDisabled
	}

	var strategyID *uuid.UUID
	if id, err := uuid.Parse(strat.ID); err == nil {
		strategyID = &id
	}

	lock := e.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	results := make([]ExecutionResult, 0, len(strat.Allocations))
	for _, alloc := range strat.Allocations {
		result := e.executeAllocation(ctx, userID, strategyID, profile, alloc, capitalUSD)
		results = append(results, result)
	}

	return results, nil
}

func (e *Executor) executeAllocation(ctx context.Context, userID string, strategyID *uuid.UUID, profile risk.Profile, alloc risk.CandidateAllocation, capitalUSD float64) ExecutionResult {
	result := ExecutionResult{Symbol: alloc.Symbol}

	// Fresh state per allocation: each fill changes the open-position
	// count and can flip the daily-loss rule mid-batch.
	state, err := e.store.PortfolioState(ctx, userID)
	if err != nil {
		result.Error = fmt.Sprintf("loading portfolio state: %v", err)
		return result
	}

	gate := risk.Evaluate(alloc, profile, state)
	if !gate.Allowed {
		result.Reasons = gate.Reasons
		e.logRejection(ctx, userID, alloc.Symbol, gate.Reasons)
		return result
	}

	quantity := positionQuantity(capitalUSD, alloc.AllocationPct, alloc.EntryPrice)
	if quantity.IsZero() {
		result.Error = "computed quantity rounds to zero"
		return result
	}

	order := binance.OrderParams{
		Symbol:        alloc.Symbol,
		Side:          string(alloc.Side),
		Type:          "MARKET",
		Quantity:      quantity.String(),
		ClientOrderID: "cp-" + uuid.New().String(),
	}
	if profile.UseLimitOrders {
		order.Type = "LIMIT"
		order.Price = limitPrice(alloc.EntryPrice, alloc.Side, profile.SlippageTolerancePct).String()
	}

	resp, err := e.client.PlaceOrder(ctx, order)
	if err != nil {
		result.Error = fmt.Sprintf("placing order: %v", err)
		e.logger.Error().Err(err).
			Str("user_id", userID).
			Str("symbol", alloc.Symbol).
			Msg("order placement failed")
		e.bus.PublishError("executor", "order placement failed", err)
		return result
	}

	levels := risk.LevelsFor(profile, alloc.Side, alloc.EntryPrice)

	qtyFloat, _ := quantity.Float64()
	trade := database.Trade{
		UserID:          userID,
		StrategyID:      strategyID,
		ClientOrderID:   order.ClientOrderID,
		ExchangeOrderID: resp.OrderID,
		Symbol:          alloc.Symbol,
		Side:            string(alloc.Side),
		OrderType:       order.Type,
		EntryPrice:      alloc.EntryPrice,
		Quantity:        qtyFloat,
		Status:          database.TradeStatusOpen,
		OpenedAt:        time.Now().UTC(),
	}
	if levels.StopLoss > 0 {
		sl := levels.StopLoss
		trade.StopLoss = &sl
	}
	if levels.TakeProfit > 0 {
		tp := levels.TakeProfit
		trade.TakeProfit = &tp
	}

	tradeID, err := e.store.InsertTrade(ctx, trade)
	if err != nil {
		// The order is live on the exchange; surface the persistence
		// failure loudly but still report the execution.
		e.logger.Error().Err(err).
			Str("user_id", userID).
			Int64("order_id", resp.OrderID).
			Msg("trade recorded on exchange but not in database")
		result.Error = fmt.Sprintf("persisting trade: %v", err)
	}

	result.Executed = true
	result.TradeID = tradeID
	result.OrderID = resp.OrderID
	result.Quantity = quantity.String()

	e.logger.Info().
		Str("user_id", userID).
		Str("symbol", alloc.Symbol).
		Str("side", string(alloc.Side)).
		Str("quantity", quantity.String()).
		Int64("order_id", resp.OrderID).
		Msg("trade executed")

	e.bus.PublishTradeExecuted(userID, alloc.Symbol, string(alloc.Side), alloc.EntryPrice, qtyFloat, resp.OrderID)

	_ = e.store.InsertLog(ctx, database.AutoTradingLog{
		UserID: userID,
		Level:  "info",
		Action: "TRADE_EXECUTED",
		Symbol: alloc.Symbol,
		Detail: fmt.Sprintf("%s %s %s @ %.8f", alloc.Side, quantity.String(), alloc.Symbol, alloc.EntryPrice),
	})

	return result
}

func (e *Executor) logRejection(ctx context.Context, userID, symbol string, reasons []risk.Reason) {
	strs := make([]string, len(reasons))
	for i, r := range reasons {
		strs[i] = string(r)
	}

	e.logger.Warn().
		Str("user_id", userID).
		Str("symbol", symbol).
		Strs("reasons", strs).
		Msg("allocation rejected at execution")

	e.bus.PublishTradeRejected(userID, symbol, strs)

	_ = e.store.InsertLog(ctx, database.AutoTradingLog{
		UserID: userID,
		Level:  "warn",
		Action: "TRADE_REJECTED",
		Symbol: symbol,
		Detail: fmt.Sprintf("reasons: %v", strs),
	})
}

// positionQuantity sizes a position: capital * pct / 100 / price,
// truncated to the exchange's quantity precision.
func positionQuantity(capitalUSD, allocationPct, entryPrice float64) decimal.Decimal {
	if entryPrice <= 0 || allocationPct <= 0 {
		return decimal.Zero
	}

	capital := decimal.NewFromFloat(capitalUSD)
	pct := decimal.NewFromFloat(allocationPct).Div(decimal.NewFromInt(100))
	price := decimal.NewFromFloat(entryPrice)

	return capital.Mul(pct).Div(price).Truncate(quantityPrecision)
}

// limitPrice pads the entry by the slippage tolerance so the limit
// order can still fill in a moving market. Buys pad up, sells pad down.
func limitPrice(entryPrice float64, side risk.Side, slippagePct float64) decimal.Decimal {
	price := decimal.NewFromFloat(entryPrice)
	pad := price.Mul(decimal.NewFromFloat(slippagePct)).Div(decimal.NewFromInt(100))

	if side == risk.SideSell {
		return price.Sub(pad).Truncate(8)
	}
	return price.Add(pad).Truncate(8)
}
