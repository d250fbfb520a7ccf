package market

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"coinpilot/internal/binance"
	"coinpilot/internal/database"
)

func newTestService() (*Service, *binance.MockClient) {
	client := binance.NewMockClient()
	return NewService(client, nil, zerolog.Nop()), client
}

func TestPriceServesSentinelOnUnknownSymbol(t *testing.T) {
	svc, _ := newTestService()

	price := svc.Price(context.Background(), "NOSUCHUSDT")
	if price != "0" {
		t.Errorf("Expected sentinel price 0, got %q", price)
	}
}

func TestPriceReturnsLiveValue(t *testing.T) {
	svc, client := newTestService()
	client.SetPrice("BTCUSDT", 50000)

	price := svc.Price(context.Background(), "BTCUSDT")
	if price == "0" || price == "" {
		t.Fatalf("Expected a real price, got %q", price)
	}
}

func TestTickerDegradesToEmpty(t *testing.T) {
	svc, _ := newTestService()

	ticker := svc.Ticker(context.Background(), "NOSUCHUSDT")
	if ticker.Symbol != "NOSUCHUSDT" {
		t.Errorf("Expected symbol carried through, got %q", ticker.Symbol)
	}
	if ticker.LastPrice != 0 {
		t.Errorf("Expected zero last price on degradation, got %v", ticker.LastPrice)
	}
}

func TestKlinesDegradeToEmptySlice(t *testing.T) {
	svc, _ := newTestService()

	klines := svc.Klines(context.Background(), "NOSUCHUSDT", "1h", 50)
	if klines == nil {
		t.Fatal("Expected empty slice, got nil")
	}
	if len(klines) != 0 {
		t.Errorf("Expected no klines for unknown symbol, got %d", len(klines))
	}
}

func TestKlinesReturnsRequestedCount(t *testing.T) {
	svc, _ := newTestService()

	klines := svc.Klines(context.Background(), "ETHUSDT", "1h", 30)
	if len(klines) != 30 {
		t.Fatalf("Expected 30 klines, got %d", len(klines))
	}
}

type fakeHistory struct {
	saved  map[string][]database.HistoricalPrice
	stored []database.HistoricalPrice
}

func (f *fakeHistory) SaveHistoricalPrices(_ context.Context, symbol, interval string, klines []database.HistoricalPrice) error {
	if f.saved == nil {
		f.saved = make(map[string][]database.HistoricalPrice)
	}
	f.saved[symbol+":"+interval] = klines
	return nil
}

func (f *fakeHistory) GetHistoricalPrices(_ context.Context, symbol, interval string, limit int) ([]database.HistoricalPrice, error) {
	return f.stored, nil
}

func TestKlinesPersistToHistory(t *testing.T) {
	svc, _ := newTestService()
	history := &fakeHistory{}
	svc.WithHistory(history)

	svc.Klines(context.Background(), "BTCUSDT", "4h", 10)

	if len(history.saved["BTCUSDT:4h"]) != 10 {
		t.Fatalf("Expected 10 persisted candles, got %d", len(history.saved["BTCUSDT:4h"]))
	}
}

func TestKlinesFallBackToStoredHistory(t *testing.T) {
	svc, _ := newTestService()
	history := &fakeHistory{
		stored: []database.HistoricalPrice{
			{OpenTime: 1000, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100, CloseTime: 1999},
			{OpenTime: 2000, Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 120, CloseTime: 2999},
		},
	}
	svc.WithHistory(history)

	klines := svc.Klines(context.Background(), "NOSUCHUSDT", "1h", 50)
	if len(klines) != 2 {
		t.Fatalf("Expected 2 stored candles, got %d", len(klines))
	}
	if klines[1].Close != 11.5 {
		t.Errorf("Expected stored close carried through, got %v", klines[1].Close)
	}
}
