package risk

import "fmt"

// Tolerance is a user's stated appetite for risk
type Tolerance string

const (
	ToleranceConservative Tolerance = "conservative"
	ToleranceModerate     Tolerance = "moderate"
	ToleranceAggressive   Tolerance = "aggressive"
)

// Profile holds a user's risk configuration. It is owned by the user,
// mutated only through an explicit update, and read-only during strategy
// generation.
type Profile struct {
	UserID                string    `json:"user_id"`
	Tolerance             Tolerance `json:"tolerance"`
	MaxPositionSizePct    float64   `json:"max_position_size_pct"` // 0-100, share of capital per position
	MaxOpenPositions      int       `json:"max_open_positions"`
	DailyLossLimitPct     float64   `json:"daily_loss_limit_pct"` // 0-100
	MinConfidence         float64   `json:"min_confidence"`       // 0-100
	UseLimitOrders        bool      `json:"use_limit_orders"`
	SlippageTolerancePct  float64   `json:"slippage_tolerance_pct"` // plain percentage
	UseStopLoss           bool      `json:"use_stop_loss"`
	StopLossPct           float64   `json:"stop_loss_pct"`
	UseTakeProfit         bool      `json:"use_take_profit"`
	TakeProfitPct         float64   `json:"take_profit_pct"`
	AllowedSymbols        []string  `json:"allowed_symbols"` // nil or empty = all symbols
	AutoTradingEnabled    bool      `json:"auto_trading_enabled"`
}

// DefaultProfile returns the documented defaults applied when a user has
// no stored risk configuration.
func DefaultProfile(userID string) Profile {
	return Profile{
		UserID:               userID,
		Tolerance:            ToleranceModerate,
		MaxPositionSizePct:   10,
		MaxOpenPositions:     3,
		DailyLossLimitPct:    5,
		MinConfidence:        75,
		UseLimitOrders:       true,
		SlippageTolerancePct: 0.5,
		UseStopLoss:          true,
		StopLossPct:          2,
		UseTakeProfit:        true,
		TakeProfitPct:        5,
	}
}

// Validate checks that the profile's bounds are sane.
func (p Profile) Validate() error {
	switch p.Tolerance {
	case ToleranceConservative, ToleranceModerate, ToleranceAggressive:
	default:
		return fmt.Errorf("unknown tolerance %q", p.Tolerance)
	}
	if p.MaxPositionSizePct <= 0 || p.MaxPositionSizePct > 100 {
		return fmt.Errorf("max position size must be in (0, 100], got %.2f", p.MaxPositionSizePct)
	}
	if p.MaxOpenPositions < 0 {
		return fmt.Errorf("max open positions cannot be negative, got %d", p.MaxOpenPositions)
	}
	if p.DailyLossLimitPct < 0 || p.DailyLossLimitPct > 100 {
		return fmt.Errorf("daily loss limit must be in [0, 100], got %.2f", p.DailyLossLimitPct)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be in [0, 100], got %.2f", p.MinConfidence)
	}
	if p.SlippageTolerancePct < 0 {
		return fmt.Errorf("slippage tolerance cannot be negative")
	}
	if p.UseStopLoss && p.StopLossPct <= 0 {
		return fmt.Errorf("stop loss percent must be positive when enabled")
	}
	if p.UseTakeProfit && p.TakeProfitPct <= 0 {
		return fmt.Errorf("take profit percent must be positive when enabled")
	}
	return nil
}

// SymbolAllowed reports whether the profile permits trading the symbol.
// An empty allowlist means all symbols are permitted.
func (p Profile) SymbolAllowed(symbol string) bool {
	if len(p.AllowedSymbols) == 0 {
		return true
	}
	for _, s := range p.AllowedSymbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// PortfolioState is a point-in-time snapshot of a user's open exposure.
// Callers must re-fetch it before each gate evaluation; the gate never
// caches portfolio state.
type PortfolioState struct {
	OpenPositionsCount    int     `json:"open_positions_count"`
	RealizedLossPctToday  float64 `json:"realized_loss_pct_today"` // positive number = loss
}
