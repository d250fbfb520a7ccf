package main

import (
	"context"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"coinpilot/config"
	"coinpilot/internal/api"
	"coinpilot/internal/autotrader"
	"coinpilot/internal/binance"
	"coinpilot/internal/cache"
	"coinpilot/internal/database"
	"coinpilot/internal/events"
	"coinpilot/internal/executor"
	"coinpilot/internal/logging"
	"coinpilot/internal/market"
	"coinpilot/internal/signal"
	"coinpilot/internal/signal/onchain"
	"coinpilot/internal/signal/sentiment"
	"coinpilot/internal/signal/technical"
	"coinpilot/internal/strategy"
)

func main() {
	// .env is optional; real deployments set environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LoggingConfig.Level,
		Format: cfg.LoggingConfig.Format,
	})
	logger.Info().Msg("Starting coinpilot")

	// Database
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	if err := db.RunMigrations(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Migrations failed")
	}
	repo := database.NewRepository(db)

	// Redis cache; the app runs without it, just slower
	var cacheSvc *cache.Service
	if cfg.RedisConfig.Enabled {
		cacheSvc, err = cache.NewService(cfg.RedisConfig, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Cache unavailable, continuing without it")
			cacheSvc = nil
		} else {
			defer cacheSvc.Close()
		}
	}

	bus := events.NewBus()

	// Exchange client: mock mode serves deterministic fixtures for local
	// development without API keys
	var client binance.TradingClient
	if cfg.BinanceConfig.MockMode {
		logger.Info().Msg("Exchange mock mode enabled")
		client = binance.NewMockClient()
	} else {
		client = binance.NewClient(cfg.BinanceConfig.APIKey, cfg.BinanceConfig.SecretKey, cfg.BinanceConfig.BaseURL)
	}

	marketSvc := market.NewService(client, cacheSvc, logger).WithHistory(repo)
	go marketSvc.Warm(context.Background(), []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"})

	collector := buildCollector(cfg, client, logger)

	exec := executor.New(client, repo, bus, logger)

	// Background trading loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var trader *autotrader.AutoTrader
	if cfg.AutotraderConfig.Enabled {
		trader = autotrader.New(autotrader.Config{
			Interval:   time.Duration(cfg.AutotraderConfig.IntervalSecs) * time.Second,
			CapitalUSD: cfg.AutotraderConfig.CapitalUSD,
			Goal: strategy.Goal{
				TargetROI:     cfg.AutotraderConfig.TargetROI,
				Capital:       cfg.AutotraderConfig.CapitalUSD,
				TimeframeDays: cfg.AutotraderConfig.TimeframeDays,
			},
		}, collector, client, exec, repo, bus, logger)

		go trader.Start(ctx)
	}

	server := api.NewServer(api.ServerConfig{
		Host: cfg.ServerConfig.Host,
		Port: cfg.ServerConfig.Port,
	}, repo, marketSvc, collector, bus, cacheSvc, cfg.ServerConfig.ProductionMode, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down")
	if trader != nil {
		trader.Stop()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ServerConfig.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown failed")
	}

	logger.Info().Msg("Shutdown complete")
}

// buildCollector assembles the signal sources. Fixture mode swaps the
// live sentiment and on-chain feeds for deterministic offline providers;
// the technical source always runs against the exchange client, which is
// itself a fixture in mock mode.
func buildCollector(cfg *config.Config, client binance.MarketDataClient, logger zerolog.Logger) *signal.Collector {
	sources := []signal.SignalSource{
		technical.NewSource(client, logger),
	}

	if cfg.SignalsConfig.UseFixtures {
		sources = append(sources,
			sentiment.NewSource(sentiment.NewFixture(), logger),
			onchain.NewSource(onchain.NewFixture(), logger),
		)
	} else {
		analyzer := sentiment.NewAnalyzer(sentiment.Config{
			FearGreedURL:      cfg.SignalsConfig.FearGreedURL,
			CryptoPanicURL:    cfg.SignalsConfig.CryptoPanicURL,
			CryptoPanicAPIKey: cfg.SignalsConfig.CryptoPanicAPIKey,
		})
		sources = append(sources, sentiment.NewSource(analyzer, logger))

		if cfg.SignalsConfig.OnChainBaseURL != "" {
			sources = append(sources,
				onchain.NewSource(onchain.NewClient(cfg.SignalsConfig.OnChainBaseURL, cfg.SignalsConfig.OnChainAPIKey), logger))
		}
	}

	timeout := time.Duration(cfg.SignalsConfig.CollectTimeout) * time.Second
	return signal.NewCollector(sources, timeout, logger)
}
