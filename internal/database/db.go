package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config, logger zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "database").Logger()
	log.Info().Str("database", cfg.Database).Msg("connected to PostgreSQL")

	return &DB{Pool: pool, logger: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info().Msg("database connection closed")
	}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS symbols (
		symbol VARCHAR(20) PRIMARY KEY,
		base_asset VARCHAR(10) NOT NULL,
		quote_asset VARCHAR(10) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'TRADING',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS user_watchlists (
		id SERIAL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		symbol VARCHAR(20) NOT NULL,
		added_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, symbol)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlists_user ON user_watchlists(user_id)`,

	`CREATE TABLE IF NOT EXISTS user_preferences (
		user_id VARCHAR(64) PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		default_quote VARCHAR(10) NOT NULL DEFAULT 'USDT',
		theme VARCHAR(20) NOT NULL DEFAULT 'dark',
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS risk_profiles (
		user_id VARCHAR(64) PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		tolerance VARCHAR(20) NOT NULL DEFAULT 'moderate',
		max_position_size_pct DECIMAL(6, 2) NOT NULL DEFAULT 10,
		max_open_positions INTEGER NOT NULL DEFAULT 3,
		daily_loss_limit_pct DECIMAL(6, 2) NOT NULL DEFAULT 5,
		min_confidence DECIMAL(6, 2) NOT NULL DEFAULT 75,
		use_limit_orders BOOLEAN NOT NULL DEFAULT TRUE,
		slippage_tolerance_pct DECIMAL(6, 3) NOT NULL DEFAULT 0.5,
		use_stop_loss BOOLEAN NOT NULL DEFAULT TRUE,
		stop_loss_pct DECIMAL(6, 2) NOT NULL DEFAULT 2,
		use_take_profit BOOLEAN NOT NULL DEFAULT TRUE,
		take_profit_pct DECIMAL(6, 2) NOT NULL DEFAULT 5,
		allowed_symbols TEXT[],
		auto_trading_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS trading_strategies (
		id UUID PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		risk_level VARCHAR(20) NOT NULL,
		expected_roi DECIMAL(10, 4) NOT NULL,
		max_drawdown DECIMAL(6, 2) NOT NULL,
		leverage INTEGER NOT NULL,
		allocations JSONB NOT NULL,
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_strategies_user ON trading_strategies(user_id)`,

	`CREATE TABLE IF NOT EXISTS auto_trades (
		id SERIAL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		strategy_id UUID REFERENCES trading_strategies(id) ON DELETE SET NULL,
		client_order_id VARCHAR(64),
		exchange_order_id BIGINT,
		symbol VARCHAR(20) NOT NULL,
		side VARCHAR(4) NOT NULL,
		order_type VARCHAR(20) NOT NULL,
		entry_price DECIMAL(20, 8) NOT NULL,
		exit_price DECIMAL(20, 8),
		quantity DECIMAL(20, 8) NOT NULL,
		stop_loss DECIMAL(20, 8),
		take_profit DECIMAL(20, 8),
		pnl DECIMAL(20, 8),
		pnl_percent DECIMAL(10, 4),
		status VARCHAR(20) NOT NULL DEFAULT 'OPEN',
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auto_trades_user ON auto_trades(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_auto_trades_status ON auto_trades(status)`,
	`CREATE INDEX IF NOT EXISTS idx_auto_trades_symbol ON auto_trades(symbol)`,

	`CREATE TABLE IF NOT EXISTS auto_trading_logs (
		id SERIAL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		level VARCHAR(10) NOT NULL DEFAULT 'info',
		action VARCHAR(50) NOT NULL,
		symbol VARCHAR(20),
		detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auto_trading_logs_user ON auto_trading_logs(user_id)`,

	`CREATE TABLE IF NOT EXISTS historical_prices (
		id SERIAL PRIMARY KEY,
		symbol VARCHAR(20) NOT NULL,
		interval VARCHAR(5) NOT NULL,
		open_time BIGINT NOT NULL,
		open DECIMAL(20, 8) NOT NULL,
		high DECIMAL(20, 8) NOT NULL,
		low DECIMAL(20, 8) NOT NULL,
		close DECIMAL(20, 8) NOT NULL,
		volume DECIMAL(24, 8) NOT NULL,
		close_time BIGINT NOT NULL,
		UNIQUE(symbol, interval, open_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_historical_prices_lookup ON historical_prices(symbol, interval, open_time)`,
}

// RunMigrations executes database migrations
func (db *DB) RunMigrations(ctx context.Context) error {
	db.logger.Info().Msg("running database migrations")

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}

	db.logger.Info().Int("count", len(migrations)).Msg("migrations complete")
	return nil
}
