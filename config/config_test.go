package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	applyEnvOverrides(cfg)

	if cfg.ServerConfig.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.ServerConfig.Port)
	}
	if cfg.DatabaseConfig.Database != "coinpilot" {
		t.Errorf("Expected default database coinpilot, got %q", cfg.DatabaseConfig.Database)
	}
	if cfg.BinanceConfig.BaseURL != "https://api.binance.com" {
		t.Errorf("Unexpected default base URL %q", cfg.BinanceConfig.BaseURL)
	}
	if cfg.SignalsConfig.CollectTimeout != 10 {
		t.Errorf("Expected default collect timeout 10, got %d", cfg.SignalsConfig.CollectTimeout)
	}
	if cfg.AutotraderConfig.IntervalSecs != 300 {
		t.Errorf("Expected default autotrader interval 300, got %d", cfg.AutotraderConfig.IntervalSecs)
	}
	if cfg.LoggingConfig.Level != "info" {
		t.Errorf("Expected default log level info, got %q", cfg.LoggingConfig.Level)
	}
}

func TestEnvOverridesTakePrecedence(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("AUTOTRADER_CAPITAL_USD", "2500.5")

	cfg := &Config{ServerConfig: ServerConfig{Port: 8081}}
	applyEnvOverrides(cfg)

	if cfg.ServerConfig.Port != 9090 {
		t.Errorf("Expected env override port 9090, got %d", cfg.ServerConfig.Port)
	}
	if !cfg.BinanceConfig.MockMode {
		t.Error("Expected mock mode enabled from env")
	}
	if cfg.AutotraderConfig.CapitalUSD != 2500.5 {
		t.Errorf("Expected capital 2500.5, got %v", cfg.AutotraderConfig.CapitalUSD)
	}
}

func TestFileValuesSurviveWithoutEnv(t *testing.T) {
	cfg := &Config{
		ServerConfig:   ServerConfig{Port: 9999},
		DatabaseConfig: DatabaseConfig{Host: "db.internal"},
	}
	applyEnvOverrides(cfg)

	if cfg.ServerConfig.Port != 9999 {
		t.Errorf("Expected file value 9999 preserved, got %d", cfg.ServerConfig.Port)
	}
	if cfg.DatabaseConfig.Host != "db.internal" {
		t.Errorf("Expected file host preserved, got %q", cfg.DatabaseConfig.Host)
	}
}

func TestGenerateSampleConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := GenerateSampleConfig(path); err != nil {
		t.Fatalf("GenerateSampleConfig failed: %v", err)
	}

	cfg, err := loadFromFile(path)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.ServerConfig.Port != 8080 {
		t.Errorf("Expected sample port 8080, got %d", cfg.ServerConfig.Port)
	}
	if !cfg.BinanceConfig.MockMode {
		t.Error("Expected sample config to enable mock mode")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := loadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Expected error for missing file")
	}
	if _, err := os.Stat("config.json"); err == nil {
		t.Skip("config.json present in working dir, skipping Load fallback check")
	}
}
