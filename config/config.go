package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ServerConfig     ServerConfig     `json:"server"`
	DatabaseConfig   DatabaseConfig   `json:"database"`
	RedisConfig      RedisConfig      `json:"redis"`
	BinanceConfig    BinanceConfig    `json:"binance"`
	SignalsConfig    SignalsConfig    `json:"signals"`
	AutotraderConfig AutotraderConfig `json:"autotrader"`
	LoggingConfig    LoggingConfig    `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	ProductionMode  bool   `json:"production_mode"`
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds Redis configuration for market data caching
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type BinanceConfig struct {
	APIKey    string `json:"api_key"`
	SecretKey string `json:"secret_key"`
	BaseURL   string `json:"base_url"`
	MockMode  bool   `json:"mock_mode"` // Use simulated data when the exchange API is unavailable
}

// SignalsConfig holds signal source configuration
type SignalsConfig struct {
	FearGreedURL      string `json:"fear_greed_url"`
	CryptoPanicURL    string `json:"cryptopanic_url"`
	CryptoPanicAPIKey string `json:"cryptopanic_api_key"`
	OnChainBaseURL    string `json:"onchain_base_url"`
	OnChainAPIKey     string `json:"onchain_api_key"`
	UseFixtures       bool   `json:"use_fixtures"`     // Deterministic offline fixtures instead of live feeds
	CollectTimeout    int    `json:"collect_timeout"`  // Seconds per collection cycle
}

// AutotraderConfig holds the background trading loop configuration
type AutotraderConfig struct {
	Enabled       bool    `json:"enabled"`
	IntervalSecs  int     `json:"interval_secs"`
	CapitalUSD    float64 `json:"capital_usd"`
	TargetROI     float64 `json:"target_roi"` // Percent over the timeframe
	TimeframeDays int     `json:"timeframe_days"`
}

type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or console
}

func Load() (*Config, error) {
	// First try to load base config from file
	cfg, err := loadFromFile("config.json")
	if err != nil {
		// If no config file, start with empty config
		cfg = &Config{}
	}

	// Apply environment variable overrides (these take precedence)
	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", defaultInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", defaultStr(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("PRODUCTION_MODE", boolStr(cfg.ServerConfig.ProductionMode)) == "true"
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", defaultInt(cfg.ServerConfig.ShutdownTimeout, 10))

	// Database config
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", defaultStr(cfg.DatabaseConfig.Host, "localhost"))
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", defaultInt(cfg.DatabaseConfig.Port, 5432))
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", defaultStr(cfg.DatabaseConfig.User, "postgres"))
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", defaultStr(cfg.DatabaseConfig.Database, "coinpilot"))
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", defaultStr(cfg.DatabaseConfig.SSLMode, "disable"))

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolStr(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", defaultStr(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", defaultInt(cfg.RedisConfig.PoolSize, 10))

	// Binance config
	cfg.BinanceConfig.APIKey = getEnvOrDefault("BINANCE_API_KEY", cfg.BinanceConfig.APIKey)
	cfg.BinanceConfig.SecretKey = getEnvOrDefault("BINANCE_SECRET_KEY", cfg.BinanceConfig.SecretKey)
	cfg.BinanceConfig.BaseURL = getEnvOrDefault("BINANCE_BASE_URL", defaultStr(cfg.BinanceConfig.BaseURL, "https://api.binance.com"))
	cfg.BinanceConfig.MockMode = getEnvOrDefault("MOCK_MODE", boolStr(cfg.BinanceConfig.MockMode)) == "true"

	// Signals config
	cfg.SignalsConfig.FearGreedURL = getEnvOrDefault("FEAR_GREED_URL", defaultStr(cfg.SignalsConfig.FearGreedURL, "https://api.alternative.me/fng/"))
	cfg.SignalsConfig.CryptoPanicURL = getEnvOrDefault("CRYPTOPANIC_URL", cfg.SignalsConfig.CryptoPanicURL)
	cfg.SignalsConfig.CryptoPanicAPIKey = getEnvOrDefault("CRYPTOPANIC_API_KEY", cfg.SignalsConfig.CryptoPanicAPIKey)
	cfg.SignalsConfig.OnChainBaseURL = getEnvOrDefault("ONCHAIN_BASE_URL", cfg.SignalsConfig.OnChainBaseURL)
	cfg.SignalsConfig.OnChainAPIKey = getEnvOrDefault("ONCHAIN_API_KEY", cfg.SignalsConfig.OnChainAPIKey)
	cfg.SignalsConfig.UseFixtures = getEnvOrDefault("SIGNALS_USE_FIXTURES", boolStr(cfg.SignalsConfig.UseFixtures)) == "true"
	cfg.SignalsConfig.CollectTimeout = getEnvIntOrDefault("SIGNALS_COLLECT_TIMEOUT", defaultInt(cfg.SignalsConfig.CollectTimeout, 10))

	// Autotrader config
	cfg.AutotraderConfig.Enabled = getEnvOrDefault("AUTOTRADER_ENABLED", boolStr(cfg.AutotraderConfig.Enabled)) == "true"
	cfg.AutotraderConfig.IntervalSecs = getEnvIntOrDefault("AUTOTRADER_INTERVAL_SECS", defaultInt(cfg.AutotraderConfig.IntervalSecs, 300))
	cfg.AutotraderConfig.CapitalUSD = getEnvFloatOrDefault("AUTOTRADER_CAPITAL_USD", defaultFloat(cfg.AutotraderConfig.CapitalUSD, 10000))
	cfg.AutotraderConfig.TargetROI = getEnvFloatOrDefault("AUTOTRADER_TARGET_ROI", defaultFloat(cfg.AutotraderConfig.TargetROI, 5))
	cfg.AutotraderConfig.TimeframeDays = getEnvIntOrDefault("AUTOTRADER_TIMEFRAME_DAYS", defaultInt(cfg.AutotraderConfig.TimeframeDays, 30))

	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", defaultStr(cfg.LoggingConfig.Level, "info"))
	cfg.LoggingConfig.Format = getEnvOrDefault("LOG_FORMAT", defaultStr(cfg.LoggingConfig.Format, "json"))
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func defaultStr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func defaultFloat(value, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	return value
}

func boolStr(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

// GenerateSampleConfig creates a sample configuration file
func GenerateSampleConfig(filename string) error {
	config := Config{
		ServerConfig: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ShutdownTimeout: 10,
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "",
			Database: "coinpilot",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Enabled:  true,
			Address:  "localhost:6379",
			DB:       0,
			PoolSize: 10,
		},
		BinanceConfig: BinanceConfig{
			BaseURL:  "https://api.binance.com",
			MockMode: true,
		},
		SignalsConfig: SignalsConfig{
			FearGreedURL:   "https://api.alternative.me/fng/",
			UseFixtures:    true,
			CollectTimeout: 10,
		},
		AutotraderConfig: AutotraderConfig{
			Enabled:       false,
			IntervalSecs:  300,
			CapitalUSD:    10000,
			TargetROI:     5,
			TimeframeDays: 30,
		},
		LoggingConfig: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
