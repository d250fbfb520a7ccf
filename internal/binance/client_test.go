package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-key", "test-secret", server.URL)
	return server, client
}

func TestGetCurrentPrice(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %s, want BTCUSDT", got)
		}
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"67250.50000000"}`))
	})

	price, err := client.GetCurrentPrice(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("GetCurrentPrice: %v", err)
	}
	if price != "67250.50000000" {
		t.Errorf("price = %s, want 67250.50000000", price)
	}
}

func TestGetCurrentPriceAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	})

	if _, err := client.GetCurrentPrice(context.Background(), "NOPE"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestGetKlines(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("interval") != "1h" {
			t.Errorf("interval = %s, want 1h", q.Get("interval"))
		}
		if q.Get("limit") != "2" {
			t.Errorf("limit = %s, want 2", q.Get("limit"))
		}
		w.Write([]byte(`[
			[1700000000000,"100.0","105.0","99.0","104.0","1200.5",1700003599999,"0",0,"0","0","0"],
			[1700003600000,"104.0","106.0","103.0","105.5","980.2",1700007199999,"0",0,"0","0","0"]
		]`))
	})

	klines, err := client.GetKlines(context.Background(), KlinesRequest{
		Symbol:   "ETHUSDT",
		Interval: "1h",
		Limit:    2,
	})
	if err != nil {
		t.Fatalf("GetKlines: %v", err)
	}
	if len(klines) != 2 {
		t.Fatalf("got %d klines, want 2", len(klines))
	}
	if klines[0].Close != 104.0 {
		t.Errorf("klines[0].Close = %f, want 104.0", klines[0].Close)
	}
	if klines[1].OpenTime <= klines[0].OpenTime {
		t.Error("klines should be ordered most recent last")
	}
}

func TestGet24hrTicker(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"symbol":"BTCUSDT","priceChange":"1250.00","priceChangePercent":"1.89",
			"weightedAvgPrice":"66800.00","lastPrice":"67250.50","highPrice":"68000.00",
			"lowPrice":"65900.00","volume":"28450.5","quoteVolume":"1900000000.0",
			"openTime":1700000000000,"closeTime":1700086400000,"count":1250000
		}`))
	})

	ticker, err := client.Get24hrTicker(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("Get24hrTicker: %v", err)
	}
	if ticker.PriceChangePercent != 1.89 {
		t.Errorf("PriceChangePercent = %f, want 1.89", ticker.PriceChangePercent)
	}
	if ticker.LastPrice != 67250.50 {
		t.Errorf("LastPrice = %f, want 67250.50", ticker.LastPrice)
	}
}

func TestPlaceOrderSignsRequest(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-MBX-APIKEY") != "test-key" {
			t.Error("missing API key header")
		}
		q := r.URL.Query()
		if q.Get("signature") == "" {
			t.Error("missing signature")
		}
		if q.Get("timestamp") == "" {
			t.Error("missing timestamp")
		}
		w.Write([]byte(`{
			"symbol":"BTCUSDT","orderId":12345,"clientOrderId":"abc-123",
			"transactTime":1700000000000,"price":"0.00","origQty":"0.01",
			"executedQty":"0.01","cummulativeQuoteQty":"672.50",
			"status":"FILLED","type":"MARKET","side":"BUY"
		}`))
	})

	resp, err := client.PlaceOrder(context.Background(), OrderParams{
		Symbol:        "BTCUSDT",
		Side:          "BUY",
		Type:          "MARKET",
		Quantity:      "0.01",
		ClientOrderID: "abc-123",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if resp.OrderID != 12345 {
		t.Errorf("OrderID = %d, want 12345", resp.OrderID)
	}
	if resp.Status != "FILLED" {
		t.Errorf("Status = %s, want FILLED", resp.Status)
	}
}

// The HMAC payload must be the exact query string sent on the wire, not a
// reordered rendering of the same parameters.
func TestPlaceOrderSignatureCoversSentQuery(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.RawQuery
		idx := strings.LastIndex(raw, "&signature=")
		if idx < 0 {
			t.Fatal("signature not appended to query")
		}
		payload := raw[:idx]
		mac := hmac.New(sha256.New, []byte("test-secret"))
		mac.Write([]byte(payload))
		want := hex.EncodeToString(mac.Sum(nil))
		if got := raw[idx+len("&signature="):]; got != want {
			t.Errorf("signature = %s, want %s over %q", got, want, payload)
		}
		w.Write([]byte(`{
			"symbol":"BTCUSDT","orderId":1,"clientOrderId":"abc-123",
			"transactTime":1700000000000,"price":"67000.00","origQty":"0.01",
			"executedQty":"0.00","cummulativeQuoteQty":"0.00",
			"status":"NEW","type":"LIMIT","side":"BUY"
		}`))
	})

	_, err := client.PlaceOrder(context.Background(), OrderParams{
		Symbol:        "BTCUSDT",
		Side:          "BUY",
		Type:          "LIMIT",
		Quantity:      "0.01",
		Price:         "67000.00",
		ClientOrderID: "abc-123",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
}

func TestMockClientDeterministicKlines(t *testing.T) {
	mock := NewMockClient()
	ctx := context.Background()

	req := KlinesRequest{Symbol: "BTCUSDT", Interval: "1h", Limit: 50, EndTime: 1700000000000}

	first, err := mock.GetKlines(ctx, req)
	if err != nil {
		t.Fatalf("GetKlines: %v", err)
	}
	second, err := mock.GetKlines(ctx, req)
	if err != nil {
		t.Fatalf("GetKlines: %v", err)
	}

	if len(first) != 50 {
		t.Fatalf("got %d klines, want 50", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("kline %d differs between identical requests", i)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i].OpenTime <= first[i-1].OpenTime {
			t.Fatal("klines not ordered most recent last")
		}
	}
}

func TestMockClientUnknownSymbol(t *testing.T) {
	mock := NewMockClient()
	if _, err := mock.GetCurrentPrice(context.Background(), "FAKEUSDT"); err == nil {
		t.Fatal("expected error for unknown symbol")
	}
}

func TestMockClientOrderRecording(t *testing.T) {
	mock := NewMockClient()
	resp, err := mock.PlaceOrder(context.Background(), OrderParams{
		Symbol:   "ETHUSDT",
		Side:     "BUY",
		Type:     "MARKET",
		Quantity: "1.5",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if resp.Status != "FILLED" {
		t.Errorf("Status = %s, want FILLED", resp.Status)
	}
	if got := len(mock.PlacedOrders()); got != 1 {
		t.Errorf("recorded %d orders, want 1", got)
	}
}
