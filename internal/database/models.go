package database

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account known to the dashboard
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Symbol represents a tradable pair tracked by the dashboard
type Symbol struct {
	Symbol     string    `json:"symbol"`
	BaseAsset  string    `json:"baseAsset"`
	QuoteAsset string    `json:"quoteAsset"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// WatchlistEntry represents a symbol on a user's watchlist
type WatchlistEntry struct {
	ID      int64     `json:"id"`
	UserID  string    `json:"userId"`
	Symbol  string    `json:"symbol"`
	AddedAt time.Time `json:"addedAt"`
}

// Preferences holds per-user dashboard preferences
type Preferences struct {
	UserID       string    `json:"userId"`
	DefaultQuote string    `json:"defaultQuote"`
	Theme        string    `json:"theme"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StrategyRecord is a persisted generated strategy. Allocations are
// stored as JSONB.
type StrategyRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	RiskLevel   string    `json:"riskLevel"`
	ExpectedROI float64   `json:"expectedRoi"`
	MaxDrawdown float64   `json:"maxDrawdown"`
	Leverage    int       `json:"leverage"`
	Allocations []byte    `json:"allocations"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Trade statuses
const (
	TradeStatusOpen     = "OPEN"
	TradeStatusClosed   = "CLOSED"
	TradeStatusCanceled = "CANCELED"
	TradeStatusFailed   = "FAILED"
)

// Trade represents an executed (or attempted) automated trade
type Trade struct {
	ID              int64      `json:"id"`
	UserID          string     `json:"userId"`
	StrategyID      *uuid.UUID `json:"strategyId,omitempty"`
	ClientOrderID   string     `json:"clientOrderId,omitempty"`
	ExchangeOrderID int64      `json:"exchangeOrderId,omitempty"`
	Symbol          string     `json:"symbol"`
	Side            string     `json:"side"`
	OrderType       string     `json:"orderType"`
	EntryPrice      float64    `json:"entryPrice"`
	ExitPrice       *float64   `json:"exitPrice,omitempty"`
	Quantity        float64    `json:"quantity"`
	StopLoss        *float64   `json:"stopLoss,omitempty"`
	TakeProfit      *float64   `json:"takeProfit,omitempty"`
	PnL             *float64   `json:"pnl,omitempty"`
	PnLPercent      *float64   `json:"pnlPercent,omitempty"`
	Status          string     `json:"status"`
	OpenedAt        time.Time  `json:"openedAt"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
}

// AutoTradingLog is an audit line for the automated trading pipeline
type AutoTradingLog struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Level     string    `json:"level"`
	Action    string    `json:"action"`
	Symbol    string    `json:"symbol,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
