package binance

import "context"

// MarketDataClient is the read-only market data surface used by signal
// sources and the API layer. Both Client and MockClient implement it.
type MarketDataClient interface {
	GetCurrentPrice(ctx context.Context, symbol string) (string, error)
	GetPrices(ctx context.Context) (map[string]string, error)
	Get24hrTicker(ctx context.Context, symbol string) (*Ticker24hr, error)
	GetKlines(ctx context.Context, req KlinesRequest) ([]Kline, error)
	GetExchangeInfo(ctx context.Context) (*ExchangeInfo, error)
	GetTradingSymbols(ctx context.Context) ([]SymbolInfo, error)
}

// TradingClient extends MarketDataClient with order placement.
type TradingClient interface {
	MarketDataClient
	PlaceOrder(ctx context.Context, order OrderParams) (*OrderResponse, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)
}

var _ TradingClient = (*Client)(nil)
var _ TradingClient = (*MockClient)(nil)
