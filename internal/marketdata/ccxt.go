// Package marketdata adapts the ccxt sidecar and CoinMarketCap clients to the
// scanner's provider interfaces.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/dss-scanner/internal/logging"
	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/internal/services"
	"github.com/irfndi/dss-scanner/pkg/ccxt"
)

// CandleSource serves candles for one exchange through the ccxt sidecar.
type CandleSource struct {
	client   ccxt.CCXTClient
	exchange string
	logger   *logrus.Logger
}

// NewCandleSource creates a candle provider for exchange.
func NewCandleSource(client ccxt.CCXTClient, exchange string, logger *logrus.Logger) *CandleSource {
	return &CandleSource{client: client, exchange: exchange, logger: logger}
}

// FetchCandles implements services.CandleProvider.
func (s *CandleSource) FetchCandles(ctx context.Context, pair, timeframe string, limit int) (*models.PriceSeries, error) {
	resp, err := s.client.GetOHLCV(ctx, s.exchange, pair, timeframe, limit)
	if err != nil {
		return nil, ClassifyError(err)
	}

	candles := make([]models.Candle, 0, len(resp.OHLCV))
	for _, o := range resp.OHLCV {
		candles = append(candles, models.Candle{
			Timestamp: o.Timestamp,
			Open:      o.Open.InexactFloat64(),
			High:      o.High.InexactFloat64(),
			Low:       o.Low.InexactFloat64(),
			Close:     o.Close.InexactFloat64(),
			Volume:    o.Volume.InexactFloat64(),
		})
	}
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	s.logger.WithFields(logrus.Fields{
		"pair":      pair,
		"timeframe": timeframe,
		"candles":   len(candles),
	}).Debug("Candles fetched")

	return &models.PriceSeries{Pair: pair, Timeframe: timeframe, Candles: candles}, nil
}

// ClassifyError maps ccxt client errors onto transient or permanent candle errors.
// Throttling, 5xx answers and transport failures are transient; other 4xx
// answers and undecodable bodies are permanent.
func ClassifyError(err error) error {
	var apiErr *ccxt.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Retryable() {
			return services.NewTransientError(err)
		}
		return services.NewPermanentError(err)
	case errors.Is(err, ccxt.ErrMalformedResponse):
		return services.NewPermanentError(err)
	default:
		return services.NewTransientError(err)
	}
}

// Catalog lists the tradable pairs of one exchange.
type Catalog struct {
	client   ccxt.CCXTClient
	exchange string
	logger   *logrus.Logger
}

// NewCatalog creates an exchange catalog.
func NewCatalog(client ccxt.CCXTClient, exchange string, logger *logrus.Logger) *Catalog {
	return &Catalog{client: client, exchange: exchange, logger: logger}
}

// LoadTradablePairs implements services.ExchangeCatalog.
func (c *Catalog) LoadTradablePairs(ctx context.Context) (map[string]struct{}, error) {
	resp, err := c.client.GetMarkets(ctx, c.exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s markets: %w", c.exchange, err)
	}

	ids := resp.PairIDs()
	pairs := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		pairs[strings.ToUpper(id)] = struct{}{}
	}

	logging.WithExchange(c.logger, c.exchange).WithField("pairs", len(pairs)).Debug("Exchange catalog loaded")

	return pairs, nil
}
