package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/dss-scanner/internal/models"
)

// Fetch outcomes reported to metrics.
const (
	FetchOutcomeOK        = "ok"
	FetchOutcomeEmpty     = "empty"
	FetchOutcomePermanent = "permanent"
	FetchOutcomeExhausted = "exhausted"
	FetchOutcomeCancelled = "cancelled"
)

// CandleFetcher wraps a CandleProvider with the retry policy. It never
// returns an error: every failure collapses into "unavailable".
type CandleFetcher struct {
	provider CandleProvider
	recovery *ErrorRecoveryManager
	metrics  MetricsRecorder
	logger   *logrus.Logger
}

// NewCandleFetcher creates a fetcher retrying per policy.
func NewCandleFetcher(provider CandleProvider, policy RetryPolicy, metrics MetricsRecorder, logger *logrus.Logger) *CandleFetcher {
	return &CandleFetcher{
		provider: provider,
		recovery: NewErrorRecoveryManager(logger, policy),
		metrics:  metricsOrNoop(metrics),
		logger:   logger,
	}
}

// Fetch returns the candle series for pair on timeframe, or false when the
// data is unavailable after applying the retry policy.
func (f *CandleFetcher) Fetch(ctx context.Context, pair, timeframe string, limit int) (*models.PriceSeries, bool) {
	fields := logrus.Fields{"pair": pair, "timeframe": timeframe}

	var series *models.PriceSeries
	attempts, err := f.recovery.ExecuteWithRetry(ctx, "fetch_candles", fields, func(ctx context.Context) error {
		s, err := f.provider.FetchCandles(ctx, pair, timeframe, limit)
		if err != nil {
			return err
		}
		series = s
		return nil
	})

	if err != nil {
		outcome := FetchOutcomeExhausted
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = FetchOutcomeCancelled
		case IsPermanent(err):
			outcome = FetchOutcomePermanent
		}
		f.metrics.ObserveCandleFetch(timeframe, outcome, attempts)
		f.logger.WithFields(fields).WithFields(logrus.Fields{
			"attempts": attempts,
			"outcome":  outcome,
		}).Debug("Candles unavailable")
		return nil, false
	}

	if series.Len() == 0 {
		f.metrics.ObserveCandleFetch(timeframe, FetchOutcomeEmpty, attempts)
		f.logger.WithFields(fields).Debug("Empty candle response")
		return nil, false
	}

	f.metrics.ObserveCandleFetch(timeframe, FetchOutcomeOK, attempts)
	return series, true
}
