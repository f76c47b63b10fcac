package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/dss-scanner/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func seriesOf(pair, timeframe string, closes ...float64) *models.PriceSeries {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
		}
	}
	return &models.PriceSeries{Pair: pair, Timeframe: timeframe, Candles: candles}
}

type waitRecorder struct {
	calls []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	w.calls = append(w.calls, d)
	return ctx.Err()
}

func newTestFetcher(provider CandleProvider) (*CandleFetcher, *waitRecorder) {
	fetcher := NewCandleFetcher(provider, DefaultRetryPolicy(), nil, quietLogger())
	recorder := &waitRecorder{}
	fetcher.recovery.wait = recorder.wait
	return fetcher, recorder
}

func TestCandleFetcher_RecoversAfterTransientFailures(t *testing.T) {
	provider := new(MockCandleProvider)
	series := seriesOf("BTC/USDT", "1d", 1, 2, 3)
	provider.On("FetchCandles", mock.Anything, "BTC/USDT", "1d", 300).
		Return(nil, NewTransientError(errors.New("timeout"))).Twice()
	provider.On("FetchCandles", mock.Anything, "BTC/USDT", "1d", 300).
		Return(series, nil).Once()

	fetcher, waits := newTestFetcher(provider)
	got, ok := fetcher.Fetch(context.Background(), "BTC/USDT", "1d", 300)

	require.True(t, ok)
	assert.Same(t, series, got)
	provider.AssertNumberOfCalls(t, "FetchCandles", 3)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, waits.calls)
}

func TestCandleFetcher_PermanentFailureStopsImmediately(t *testing.T) {
	provider := new(MockCandleProvider)
	provider.On("FetchCandles", mock.Anything, "FOO/USDT", "1w", 300).
		Return(nil, NewPermanentError(errors.New("bad symbol")))

	fetcher, waits := newTestFetcher(provider)
	got, ok := fetcher.Fetch(context.Background(), "FOO/USDT", "1w", 300)

	assert.False(t, ok)
	assert.Nil(t, got)
	provider.AssertNumberOfCalls(t, "FetchCandles", 1)
	assert.Empty(t, waits.calls)
}

func TestCandleFetcher_ExhaustsAttempts(t *testing.T) {
	provider := new(MockCandleProvider)
	provider.On("FetchCandles", mock.Anything, "ETH/USDT", "1d", 300).
		Return(nil, NewTransientError(errors.New("503")))

	fetcher, waits := newTestFetcher(provider)
	_, ok := fetcher.Fetch(context.Background(), "ETH/USDT", "1d", 300)

	assert.False(t, ok)
	provider.AssertNumberOfCalls(t, "FetchCandles", 3)
	assert.Len(t, waits.calls, 2)
}

func TestCandleFetcher_UnclassifiedErrorIsRetried(t *testing.T) {
	provider := new(MockCandleProvider)
	provider.On("FetchCandles", mock.Anything, "ETH/USDT", "1d", 300).
		Return(nil, errors.New("connection reset")).Once()
	provider.On("FetchCandles", mock.Anything, "ETH/USDT", "1d", 300).
		Return(seriesOf("ETH/USDT", "1d", 5), nil).Once()

	fetcher, _ := newTestFetcher(provider)
	_, ok := fetcher.Fetch(context.Background(), "ETH/USDT", "1d", 300)

	assert.True(t, ok)
	provider.AssertNumberOfCalls(t, "FetchCandles", 2)
}

func TestCandleFetcher_EmptySeriesIsUnavailable(t *testing.T) {
	provider := new(MockCandleProvider)
	provider.On("FetchCandles", mock.Anything, "SOL/USDT", "1d", 300).
		Return(&models.PriceSeries{Pair: "SOL/USDT", Timeframe: "1d"}, nil)

	fetcher, waits := newTestFetcher(provider)
	_, ok := fetcher.Fetch(context.Background(), "SOL/USDT", "1d", 300)

	assert.False(t, ok)
	provider.AssertNumberOfCalls(t, "FetchCandles", 1)
	assert.Empty(t, waits.calls)
}

func TestCandleFetcher_Cancellation(t *testing.T) {
	t.Run("cancelled before start", func(t *testing.T) {
		provider := new(MockCandleProvider)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fetcher, _ := newTestFetcher(provider)
		_, ok := fetcher.Fetch(ctx, "BTC/USDT", "1d", 300)

		assert.False(t, ok)
		provider.AssertNotCalled(t, "FetchCandles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled during backoff", func(t *testing.T) {
		provider := new(MockCandleProvider)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		provider.On("FetchCandles", mock.Anything, "BTC/USDT", "1d", 300).
			Run(func(mock.Arguments) { cancel() }).
			Return(nil, NewTransientError(errors.New("timeout")))

		fetcher := NewCandleFetcher(provider, RetryPolicy{MaxAttempts: 3, Backoff: time.Hour}, nil, quietLogger())

		done := make(chan bool, 1)
		go func() {
			_, ok := fetcher.Fetch(ctx, "BTC/USDT", "1d", 300)
			done <- ok
		}()

		select {
		case ok := <-done:
			assert.False(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("fetch did not observe cancellation")
		}
		provider.AssertNumberOfCalls(t, "FetchCandles", 1)
	})
}

func TestErrorClassification(t *testing.T) {
	transient := NewTransientError(errors.New("timeout"))
	permanent := NewPermanentError(errors.New("404"))
	wrapped := errors.Join(errors.New("outer"), permanent)

	assert.True(t, IsTransient(transient))
	assert.False(t, IsPermanent(transient))
	assert.True(t, IsPermanent(permanent))
	assert.True(t, IsPermanent(wrapped))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.Contains(t, transient.Error(), "transient")

	fatal := NewProviderFatalError("coinmarketcap", errors.New("401"))
	assert.True(t, IsProviderFatal(fatal))
	assert.False(t, IsProviderFatal(permanent))
	assert.Equal(t, "coinmarketcap provider failed: 401", fatal.Error())
}

func TestNewErrorRecoveryManager_NormalizesPolicy(t *testing.T) {
	erm := NewErrorRecoveryManager(quietLogger(), RetryPolicy{MaxAttempts: 0, Backoff: -time.Second})
	assert.Equal(t, RetryPolicy{MaxAttempts: 1, Backoff: 0}, erm.Policy())
}
