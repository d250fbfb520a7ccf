// Package api exposes the dashboard HTTP surface: market data proxy,
// signal aggregation, strategy generation, risk profile management and
// a websocket event stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coinpilot/internal/cache"
	"coinpilot/internal/database"
	"coinpilot/internal/events"
	"coinpilot/internal/market"
	"coinpilot/internal/risk"
	"coinpilot/internal/signal"
)

// Store is the persistence surface the handlers need. *database.Repository
// satisfies it.
type Store interface {
	EnsureUser(ctx context.Context, userID string) error
	GetRiskProfile(ctx context.Context, userID string) (risk.Profile, error)
	UpdateRiskProfile(ctx context.Context, userID string, update database.ProfileUpdate) (risk.Profile, error)
	PortfolioState(ctx context.Context, userID string) (risk.PortfolioState, error)
	GetWatchlist(ctx context.Context, userID string) ([]database.WatchlistEntry, error)
	AddToWatchlist(ctx context.Context, userID, symbol string) error
	RemoveFromWatchlist(ctx context.Context, userID, symbol string) error
	GetPreferences(ctx context.Context, userID string) (*database.Preferences, error)
	UpdatePreferences(ctx context.Context, p database.Preferences) error
	SaveStrategy(ctx context.Context, s database.StrategyRecord) error
	ListStrategies(ctx context.Context, userID string, limit int) ([]database.StrategyRecord, error)
	GetStrategy(ctx context.Context, userID string, id uuid.UUID) (*database.StrategyRecord, error)
	ListTrades(ctx context.Context, userID string, limit int) ([]database.Trade, error)
	ListLogs(ctx context.Context, userID string, limit int) ([]database.AutoTradingLog, error)
}

var _ Store = (*database.Repository)(nil)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string
	Port int
}

// Server wires the gin router to the application services.
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	store       Store
	market      *market.Service
	collector   *signal.Collector
	bus         *events.Bus
	hub         *WSHub
	cache       *cache.Service
	rateLimiter *RateLimiter
	logger      zerolog.Logger
}

// NewServer builds the router and starts the websocket hub. cacheSvc
// may be nil when the cache is disabled.
func NewServer(cfg ServerConfig, store Store, mkt *market.Service, collector *signal.Collector, bus *events.Bus, cacheSvc *cache.Service, production bool, logger zerolog.Logger) *Server {
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router:      gin.New(),
		store:       store,
		market:      mkt,
		collector:   collector,
		bus:         bus,
		hub:         NewWSHub(bus, logger),
		cache:       cacheSvc,
		rateLimiter: NewRateLimiter(120, time.Minute),
		logger:      logger.With().Str("component", "api").Logger(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-User-ID")
	corsConfig.AllowCredentials = true
	s.router.Use(cors.New(corsConfig))

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go s.hub.Run()

	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	api.Use(s.userScope())

	mkt := api.Group("/market")
	mkt.Use(s.rateLimit())
	{
		mkt.GET("/price/:symbol", s.handlePrice)
		mkt.GET("/ticker/:symbol", s.handleTicker)
		mkt.GET("/klines/:symbol", s.handleKlines)
		mkt.GET("/prices", s.handlePrices)
		mkt.GET("/symbols", s.handleSymbols)
	}

	api.GET("/signals/:symbol", s.rateLimit(), s.handleSignals)

	api.POST("/strategies/generate", s.rateLimit(), s.handleGenerateStrategies)
	api.GET("/strategies", s.handleListStrategies)
	api.GET("/strategies/:id", s.handleGetStrategy)

	api.GET("/risk/profile", s.handleGetRiskProfile)
	api.PUT("/risk/profile", s.handleUpdateRiskProfile)
	api.POST("/risk/check", s.handleRiskCheck)

	api.GET("/watchlist", s.handleGetWatchlist)
	api.POST("/watchlist", s.handleAddToWatchlist)
	api.DELETE("/watchlist/:symbol", s.handleRemoveFromWatchlist)

	api.GET("/preferences", s.handleGetPreferences)
	api.PUT("/preferences", s.handleUpdatePreferences)

	api.GET("/trades", s.handleListTrades)
	api.GET("/logs", s.handleListLogs)
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == "/health" {
			return
		}
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

// userScope resolves the acting user from the X-User-ID header, falling
// back to the shared demo user, and makes sure a users row exists.
func (s *Server) userScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = "demo"
		}

		if err := s.store.EnsureUser(c.Request.Context(), userID); err != nil {
			s.logger.Error().Err(err).Str("user", userID).Msg("ensure user failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return "demo"
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		if !s.rateLimiter.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// RateLimiter is a sliding-window per-key limiter for the routes that
// fan out to the exchange.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow records a request for key and reports whether it is within the
// window limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)

	kept := rl.requests[key][:0]
	for _, t := range rl.requests[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.requests[key] = kept
		return false
	}

	rl.requests[key] = append(kept, now)
	return true
}
