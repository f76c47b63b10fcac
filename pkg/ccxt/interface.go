package ccxt

import (
	"context"
)

// CCXTClient defines the interface for low-level CCXT HTTP operations
type CCXTClient interface {
	HealthCheck(ctx context.Context) (*HealthResponse, error)
	GetOHLCV(ctx context.Context, exchange, symbol, timeframe string, limit int) (*OHLCVResponse, error)
	GetMarkets(ctx context.Context, exchange string) (*MarketsResponse, error)
	Close() error
}

var _ CCXTClient = (*Client)(nil)
