package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/dss-scanner/internal/models"
)

// MockCandleProvider implements CandleProvider for testing within the services package
type MockCandleProvider struct {
	mock.Mock
}

func (m *MockCandleProvider) FetchCandles(ctx context.Context, pair, timeframe string, limit int) (*models.PriceSeries, error) {
	args := m.Called(ctx, pair, timeframe, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceSeries), args.Error(1)
}

// MockRankingProvider implements RankingProvider
type MockRankingProvider struct {
	mock.Mock
}

func (m *MockRankingProvider) List(ctx context.Context, limit int) ([]models.RankedAsset, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankedAsset), args.Error(1)
}

// MockExchangeCatalog implements ExchangeCatalog
type MockExchangeCatalog struct {
	mock.Mock
}

func (m *MockExchangeCatalog) LoadTradablePairs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

// MockResultSink implements ResultSink
type MockResultSink struct {
	mock.Mock
}

func (m *MockResultSink) Publish(ctx context.Context, result *models.ScanResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}
