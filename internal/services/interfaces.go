package services

import (
	"context"
	"time"

	"github.com/irfndi/dss-scanner/internal/models"
)

// RankingProvider lists assets in market-cap order.
type RankingProvider interface {
	List(ctx context.Context, limit int) ([]models.RankedAsset, error)
}

// ExchangeCatalog returns the set of tradable "SYM/QUOTE" pair ids.
type ExchangeCatalog interface {
	LoadTradablePairs(ctx context.Context) (map[string]struct{}, error)
}

// CandleProvider fetches OHLCV candles. Implementations must be safe for
// concurrent use and classify failures with NewTransientError/NewPermanentError.
type CandleProvider interface {
	FetchCandles(ctx context.Context, pair, timeframe string, limit int) (*models.PriceSeries, error)
}

// ResultSink receives each completed scan.
type ResultSink interface {
	Publish(ctx context.Context, result *models.ScanResult) error
}

// ProgressFunc is called after every completed symbol.
type ProgressFunc func(completed, total int)

// MetricsRecorder receives scan instrumentation. A nil recorder is replaced by a no-op.
type MetricsRecorder interface {
	ObserveCandleFetch(timeframe, outcome string, attempts int)
	ObserveSymbol(signal models.Signal, duration time.Duration)
	ObserveScan(duration time.Duration, rows int, err error)
	SetProgress(fraction float64)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCandleFetch(string, string, int)     {}
func (noopMetrics) ObserveSymbol(models.Signal, time.Duration) {}
func (noopMetrics) ObserveScan(time.Duration, int, error)      {}
func (noopMetrics) SetProgress(float64)                        {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
