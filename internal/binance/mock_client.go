package binance

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"
)

// MockClient serves deterministic market data fixtures for development
// and tests. The same symbol and interval always yield the same series,
// so test assertions and local demos are reproducible across runs.
type MockClient struct {
	mu     sync.RWMutex
	prices map[string]float64
	orders []OrderParams
	nextID int64
}

var mockBasePrices = map[string]float64{
	"BTCUSDT":   67250.50,
	"ETHUSDT":   3180.25,
	"BNBUSDT":   585.40,
	"SOLUSDT":   148.90,
	"XRPUSDT":   0.5420,
	"ADAUSDT":   0.4510,
	"DOGEUSDT":  0.1250,
	"AVAXUSDT":  28.75,
	"DOTUSDT":   6.82,
	"LINKUSDT":  14.35,
	"MATICUSDT": 0.6840,
	"LTCUSDT":   84.20,
	"ATOMUSDT":  8.15,
	"UNIUSDT":   7.95,
	"NEARUSDT":  5.48,
}

func NewMockClient() *MockClient {
	prices := make(map[string]float64, len(mockBasePrices))
	for symbol, price := range mockBasePrices {
		prices[symbol] = price
	}
	return &MockClient{
		prices: prices,
		nextID: 1000,
	}
}

// SetPrice overrides the fixture price for a symbol.
func (m *MockClient) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[symbol] = price
}

func (m *MockClient) GetCurrentPrice(_ context.Context, symbol string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	price, ok := m.prices[symbol]
	if !ok {
		return "", fmt.Errorf("unknown symbol: %s", symbol)
	}
	return formatPrice(price), nil
}

func (m *MockClient) GetPrices(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prices := make(map[string]string, len(m.prices))
	for symbol, price := range m.prices {
		prices[symbol] = formatPrice(price)
	}
	return prices, nil
}

func (m *MockClient) Get24hrTicker(_ context.Context, symbol string) (*Ticker24hr, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	price, ok := m.prices[symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol: %s", symbol)
	}

	// Symbol hash drives the fixture's change percent so distinct
	// symbols show distinct but stable figures.
	h := symbolHash(symbol)
	changePct := float64(int(h%700))/100.0 - 3.0 // -3.00 .. +3.99
	change := price * changePct / 100

	now := time.Now().UnixMilli()
	return &Ticker24hr{
		Symbol:             symbol,
		PriceChange:        change,
		PriceChangePercent: changePct,
		WeightedAvgPrice:   price,
		LastPrice:          price,
		HighPrice:          price * 1.02,
		LowPrice:           price * 0.98,
		Volume:             float64(10000 + h%90000),
		QuoteVolume:        price * float64(10000+h%90000),
		OpenTime:           now - 24*60*60*1000,
		CloseTime:          now,
		Count:              int64(50000 + h%50000),
	}, nil
}

func (m *MockClient) GetKlines(_ context.Context, req KlinesRequest) ([]Kline, error) {
	m.mu.RLock()
	base, ok := m.prices[req.Symbol]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown symbol: %s", req.Symbol)
	}

	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	step := intervalMillis(req.Interval)
	end := time.Now().Truncate(time.Minute).UnixMilli()
	if req.EndTime > 0 {
		end = req.EndTime
	}

	phase := float64(symbolHash(req.Symbol) % 360)
	klines := make([]Kline, limit)
	for i := 0; i < limit; i++ {
		// Oldest first, most recent last.
		idx := limit - 1 - i
		openTime := end - int64(idx+1)*step

		// Sine wave around the base price; amplitude 1.5%, period 40
		// candles, phase keyed by symbol.
		wave := func(offset float64) float64 {
			angle := (float64(limit-idx) + offset + phase) * 2 * math.Pi / 40
			return base * (1 + 0.015*math.Sin(angle))
		}

		open := wave(0)
		closeP := wave(1)
		high := math.Max(open, closeP) * 1.002
		low := math.Min(open, closeP) * 0.998

		klines[i] = Kline{
			OpenTime:  openTime,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closeP,
			Volume:    1000 + 100*math.Abs(math.Sin(float64(idx)+phase)),
			CloseTime: openTime + step - 1,
		}
	}

	return klines, nil
}

func (m *MockClient) GetExchangeInfo(_ context.Context) (*ExchangeInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]SymbolInfo, 0, len(m.prices))
	for symbol := range m.prices {
		symbols = append(symbols, SymbolInfo{
			Symbol:               symbol,
			Status:               "TRADING",
			BaseAsset:            symbol[:len(symbol)-4],
			QuoteAsset:           "USDT",
			IsSpotTradingAllowed: true,
		})
	}
	return &ExchangeInfo{Symbols: symbols}, nil
}

func (m *MockClient) GetTradingSymbols(ctx context.Context) ([]SymbolInfo, error) {
	info, err := m.GetExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}
	return info.Symbols, nil
}

func (m *MockClient) PlaceOrder(_ context.Context, order OrderParams) (*OrderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	price, ok := m.prices[order.Symbol]
	if !ok {
		return nil, fmt.Errorf("unknown symbol: %s", order.Symbol)
	}

	m.orders = append(m.orders, order)
	m.nextID++

	qty, _ := strconv.ParseFloat(order.Quantity, 64)
	fillPrice := price
	if order.Price != "" {
		fillPrice, _ = strconv.ParseFloat(order.Price, 64)
	}

	return &OrderResponse{
		Symbol:              order.Symbol,
		OrderID:             m.nextID,
		ClientOrderID:       order.ClientOrderID,
		TransactTime:        time.Now().UnixMilli(),
		Price:               fillPrice,
		OrigQty:             qty,
		ExecutedQty:         qty,
		CummulativeQuoteQty: qty * fillPrice,
		Status:              "FILLED",
		Type:                order.Type,
		Side:                order.Side,
	}, nil
}

func (m *MockClient) CancelOrder(_ context.Context, symbol string, orderID int64) error {
	return nil
}

func (m *MockClient) GetAccountInfo(_ context.Context) (*AccountInfo, error) {
	return &AccountInfo{
		CanTrade:    true,
		CanWithdraw: true,
		CanDeposit:  true,
		UpdateTime:  time.Now().UnixMilli(),
		AccountType: "SPOT",
		Balances: []AssetBalance{
			{Asset: "USDT", Free: "10000.00", Locked: "0.00"},
			{Asset: "BTC", Free: "0.15", Locked: "0.00"},
			{Asset: "ETH", Free: "2.50", Locked: "0.00"},
		},
	}, nil
}

// PlacedOrders returns the orders recorded by PlaceOrder, oldest first.
func (m *MockClient) PlacedOrders() []OrderParams {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]OrderParams, len(m.orders))
	copy(out, m.orders)
	return out
}

func formatPrice(price float64) string {
	if price >= 1 {
		return strconv.FormatFloat(price, 'f', 2, 64)
	}
	return strconv.FormatFloat(price, 'f', 4, 64)
}

func symbolHash(symbol string) uint64 {
	// FNV-1a
	var h uint64 = 14695981039346656037
	for i := 0; i < len(symbol); i++ {
		h ^= uint64(symbol[i])
		h *= 1099511628211
	}
	return h
}

func intervalMillis(interval string) int64 {
	switch interval {
	case "1m":
		return 60 * 1000
	case "5m":
		return 5 * 60 * 1000
	case "15m":
		return 15 * 60 * 1000
	case "30m":
		return 30 * 60 * 1000
	case "1h":
		return 60 * 60 * 1000
	case "4h":
		return 4 * 60 * 60 * 1000
	case "1d":
		return 24 * 60 * 60 * 1000
	case "1w":
		return 7 * 24 * 60 * 60 * 1000
	default:
		return 60 * 60 * 1000
	}
}
