package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"coinpilot/internal/cache"
	"coinpilot/internal/database"
	"coinpilot/internal/risk"
	"coinpilot/internal/signal"
	"coinpilot/internal/strategy"
)

func (s *Server) handleHealth(c *gin.Context) {
	cacheStatus := "disabled"
	if s.cache != nil {
		if s.cache.IsHealthy() {
			cacheStatus = "healthy"
		} else {
			cacheStatus = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"cache":     cacheStatus,
		"wsClients": s.hub.ClientCount(),
		"time":      time.Now().UTC(),
	})
}

func (s *Server) handlePrice(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	price := s.market.Price(c.Request.Context(), symbol)
	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "price": price})
}

func (s *Server) handleTicker(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	c.JSON(http.StatusOK, s.market.Ticker(c.Request.Context(), symbol))
}

func (s *Server) handleKlines(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	interval := c.DefaultQuery("interval", "1h")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}

	klines := s.market.Klines(c.Request.Context(), symbol, interval, limit)
	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"klines":   klines,
	})
}

func (s *Server) handlePrices(c *gin.Context) {
	c.JSON(http.StatusOK, s.market.Prices(c.Request.Context()))
}

func (s *Server) handleSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.market.TradingSymbols(c.Request.Context())})
}

// handleSignals aggregates signals for a symbol on demand. Results are
// cached briefly so dashboard polling does not re-run the full fan-out.
func (s *Server) handleSignals(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	ctx := c.Request.Context()

	if s.cache != nil {
		var cached signal.AggregatedSignal
		if err := s.cache.GetJSON(ctx, cache.SignalsKey(symbol), &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	agg, err := s.collector.CollectAggregated(ctx, symbol)
	if err != nil {
		if errors.Is(err, signal.ErrInsufficientSignalData) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insufficient signal coverage for " + symbol})
			return
		}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("signal aggregation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signal aggregation failed"})
		return
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cache.SignalsKey(symbol), agg, cache.SignalsTTL)
	}
	s.bus.PublishSignalUpdate(agg.Symbol, agg.CompositeScore, agg.CompositeConfidence, string(agg.Direction))

	c.JSON(http.StatusOK, agg)
}

type generateRequest struct {
	Goal    strategy.Goal `json:"goal"`
	Symbols []string      `json:"symbols"`
}

// handleGenerateStrategies runs the full pipeline for a submitted goal:
// collect signals over the requested universe (watchlist when omitted),
// then produce one strategy per risk tier and persist each.
func (s *Server) handleGenerateStrategies(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Goal.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)

	universe := normalizeSymbols(req.Symbols)
	if len(universe) == 0 {
		entries, err := s.store.GetWatchlist(ctx, uid)
		if err != nil {
			s.logger.Error().Err(err).Str("user", uid).Msg("watchlist load failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		for _, e := range entries {
			universe = append(universe, e.Symbol)
		}
	}
	if len(universe) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no symbols: provide symbols or populate your watchlist"})
		return
	}

	signals, prices := s.collectUniverse(c, universe)
	if len(signals) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insufficient signal coverage across requested symbols"})
		return
	}

	profile, err := s.store.GetRiskProfile(ctx, uid)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uid).Msg("risk profile load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	state, err := s.store.PortfolioState(ctx, uid)
	if err != nil {
		s.logger.Error().Err(err).Str("user", uid).Msg("portfolio state load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	strategies, err := strategy.Generate(req.Goal, signals, profile, state, prices)
	if err != nil {
		if errors.Is(err, strategy.ErrNoViableAllocations) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no viable allocations: signals too weak or risk limits too tight"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, strat := range strategies {
		if err := s.saveStrategy(c, uid, strat); err != nil {
			s.logger.Error().Err(err).Str("strategy", strat.ID).Msg("strategy persist failed")
		}
		s.bus.PublishStrategyGenerated(uid, strat.ID, strat.Name, string(strat.RiskLevel), len(strat.Allocations))
	}

	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}

func (s *Server) saveStrategy(c *gin.Context, uid string, strat strategy.Strategy) error {
	id, err := uuid.Parse(strat.ID)
	if err != nil {
		return err
	}
	allocations, err := json.Marshal(strat.Allocations)
	if err != nil {
		return err
	}

	return s.store.SaveStrategy(c.Request.Context(), database.StrategyRecord{
		ID:          id,
		UserID:      uid,
		Name:        strat.Name,
		RiskLevel:   string(strat.RiskLevel),
		ExpectedROI: strat.ExpectedROI,
		MaxDrawdown: strat.MaxDrawdown,
		Leverage:    int(strat.Leverage),
		Allocations: allocations,
		Description: strat.Description,
		CreatedAt:   strat.CreatedAt,
	})
}

// collectUniverse aggregates signals and looks up prices for every symbol
// concurrently via the collector's own timeout budget. Symbols without a
// usable signal or price are dropped.
func (s *Server) collectUniverse(c *gin.Context, symbols []string) ([]signal.AggregatedSignal, strategy.PriceLookup) {
	ctx := c.Request.Context()

	type result struct {
		agg   signal.AggregatedSignal
		price float64
		ok    bool
	}

	results := make([]result, len(symbols))
	done := make(chan int, len(symbols))

	for i, symbol := range symbols {
		go func(i int, symbol string) {
			defer func() { done <- i }()

			agg, err := s.collector.CollectAggregated(ctx, symbol)
			if err != nil {
				return
			}
			price, err := strconv.ParseFloat(s.market.Price(ctx, symbol), 64)
			if err != nil || price <= 0 {
				return
			}
			results[i] = result{agg: agg, price: price, ok: true}
		}(i, symbol)
	}
	for range symbols {
		<-done
	}

	signals := make([]signal.AggregatedSignal, 0, len(symbols))
	prices := make(strategy.PriceLookup, len(symbols))
	for _, r := range results {
		if !r.ok {
			continue
		}
		signals = append(signals, r.agg)
		prices[r.agg.Symbol] = r.price
	}
	return signals, prices
}

func (s *Server) handleListStrategies(c *gin.Context) {
	limit := queryLimit(c, 20, 100)
	strategies, err := s.store.ListStrategies(c.Request.Context(), userID(c), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("strategy list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": strategies})
}

func (s *Server) handleGetStrategy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid strategy id"})
		return
	}

	record, err := s.store.GetStrategy(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found"})
			return
		}
		s.logger.Error().Err(err).Msg("strategy load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleGetRiskProfile(c *gin.Context) {
	profile, err := s.store.GetRiskProfile(c.Request.Context(), userID(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("risk profile load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleUpdateRiskProfile(c *gin.Context) {
	var update database.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	uid := userID(c)
	profile, err := s.store.UpdateRiskProfile(c.Request.Context(), uid, update)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.bus.PublishProfileUpdated(uid, updatedFields(update))
	c.JSON(http.StatusOK, profile)
}

func updatedFields(u database.ProfileUpdate) []string {
	fields := []string{}
	if u.Tolerance != nil {
		fields = append(fields, "tolerance")
	}
	if u.MaxPositionSizePct != nil {
		fields = append(fields, "maxPositionSizePct")
	}
	if u.MaxOpenPositions != nil {
		fields = append(fields, "maxOpenPositions")
	}
	if u.DailyLossLimitPct != nil {
		fields = append(fields, "dailyLossLimitPct")
	}
	if u.MinConfidence != nil {
		fields = append(fields, "minConfidence")
	}
	if u.UseLimitOrders != nil {
		fields = append(fields, "useLimitOrders")
	}
	if u.SlippageTolerancePct != nil {
		fields = append(fields, "slippageTolerancePct")
	}
	if u.UseStopLoss != nil {
		fields = append(fields, "useStopLoss")
	}
	if u.StopLossPct != nil {
		fields = append(fields, "stopLossPct")
	}
	if u.UseTakeProfit != nil {
		fields = append(fields, "useTakeProfit")
	}
	if u.TakeProfitPct != nil {
		fields = append(fields, "takeProfitPct")
	}
	if u.AllowedSymbols != nil {
		fields = append(fields, "allowedSymbols")
	}
	if u.AutoTradingEnabled != nil {
		fields = append(fields, "autoTradingEnabled")
	}
	return fields
}

type riskCheckRequest struct {
	Symbol        string  `json:"symbol"`
	AllocationPct float64 `json:"allocationPct"`
	EntryPrice    float64 `json:"entryPrice"`
	Side          string  `json:"side"`
	Confidence    float64 `json:"confidence"`
}

// handleRiskCheck dry-runs the risk gate against the caller's current
// profile and portfolio without placing anything.
func (s *Server) handleRiskCheck(c *gin.Context) {
	var req riskCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Symbol == "" || req.AllocationPct <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol and a positive allocationPct are required"})
		return
	}

	side := risk.SideBuy
	if strings.EqualFold(req.Side, "SELL") {
		side = risk.SideSell
	}

	ctx := c.Request.Context()
	uid := userID(c)

	profile, err := s.store.GetRiskProfile(ctx, uid)
	if err != nil {
		s.logger.Error().Err(err).Msg("risk profile load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	state, err := s.store.PortfolioState(ctx, uid)
	if err != nil {
		s.logger.Error().Err(err).Msg("portfolio state load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	candidate := risk.CandidateAllocation{
		Symbol:        strings.ToUpper(req.Symbol),
		AllocationPct: req.AllocationPct,
		EntryPrice:    req.EntryPrice,
		Side:          side,
		SourceSignal: &signal.AggregatedSignal{
			Symbol:              strings.ToUpper(req.Symbol),
			CompositeConfidence: req.Confidence,
		},
	}

	c.JSON(http.StatusOK, risk.Evaluate(candidate, profile, state))
}

func (s *Server) handleGetWatchlist(c *gin.Context) {
	entries, err := s.store.GetWatchlist(c.Request.Context(), userID(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("watchlist load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"watchlist": entries})
}

type watchlistRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleAddToWatchlist(c *gin.Context) {
	var req watchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	if err := s.store.AddToWatchlist(c.Request.Context(), userID(c), symbol); err != nil {
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("watchlist add failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"symbol": symbol})
}

func (s *Server) handleRemoveFromWatchlist(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	err := s.store.RemoveFromWatchlist(c.Request.Context(), userID(c), symbol)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "symbol not in watchlist"})
			return
		}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("watchlist remove failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symbol": symbol})
}

func (s *Server) handleGetPreferences(c *gin.Context) {
	prefs, err := s.store.GetPreferences(c.Request.Context(), userID(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("preferences load failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	var prefs database.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	prefs.UserID = userID(c)
	if err := s.store.UpdatePreferences(c.Request.Context(), prefs); err != nil {
		s.logger.Error().Err(err).Msg("preferences update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleListTrades(c *gin.Context) {
	limit := queryLimit(c, 50, 200)
	trades, err := s.store.ListTrades(c.Request.Context(), userID(c), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("trade list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleListLogs(c *gin.Context) {
	limit := queryLimit(c, 100, 500)
	logs, err := s.store.ListLogs(c.Request.Context(), userID(c), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("log list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func queryLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
