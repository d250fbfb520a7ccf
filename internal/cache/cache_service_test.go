package cache

import (
	"testing"
	"time"
)

func TestKeyBuilders(t *testing.T) {
	if got := PriceKey("BTCUSDT"); got != "market:price:BTCUSDT" {
		t.Errorf("PriceKey = %s", got)
	}
	if got := TickerKey("ETHUSDT"); got != "market:ticker:ETHUSDT" {
		t.Errorf("TickerKey = %s", got)
	}
	if got := KlinesKey("BTCUSDT", "1h"); got != "market:klines:BTCUSDT:1h" {
		t.Errorf("KlinesKey = %s", got)
	}
	if got := SignalsKey("SOLUSDT"); got != "signals:SOLUSDT" {
		t.Errorf("SignalsKey = %s", got)
	}
}

func TestKlinesTTLScalesWithInterval(t *testing.T) {
	if KlinesTTL("1m") >= KlinesTTL("1h") {
		t.Error("1m candles should cache shorter than 1h candles")
	}
	if KlinesTTL("1d") != time.Hour {
		t.Errorf("KlinesTTL(1d) = %v, want 1h", KlinesTTL("1d"))
	}
	if KlinesTTL("unknown") != 5*time.Minute {
		t.Errorf("unknown interval should default to 5m, got %v", KlinesTTL("unknown"))
	}
}

func TestCircuitBreakerTransitions(t *testing.T) {
	s := &Service{maxFailures: 3, checkInterval: 30 * time.Second, healthy: true}

	s.recordFailure()
	s.recordFailure()
	if !s.IsHealthy() {
		t.Fatal("breaker should stay closed below maxFailures")
	}

	s.recordFailure()
	if s.IsHealthy() {
		t.Fatal("breaker should open at maxFailures")
	}

	s.recordSuccess()
	if !s.IsHealthy() {
		t.Fatal("breaker should close on success")
	}
	if s.failureCount != 0 {
		t.Errorf("failure count = %d, want 0 after recovery", s.failureCount)
	}
}
