package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/dss-scanner/internal/models"
)

// Provider names used in ProviderFatalError.
const (
	ProviderRanking = "ranking"
	ProviderCatalog = "catalog"
	// ProviderUniverse is reported when both providers answered but nothing is scannable.
	ProviderUniverse = "universe"
)

// UniverseConfig selects which ranked assets are scanned.
type UniverseConfig struct {
	RankingLimit  int
	Excluded      map[string]struct{}
	QuoteCurrency string
}

// UniverseBuilder intersects the ranking with the exchange catalog.
type UniverseBuilder struct {
	ranking RankingProvider
	catalog ExchangeCatalog
	config  UniverseConfig
	logger  *logrus.Logger
}

// NewUniverseBuilder creates a builder. Excluded symbols are matched case-insensitively.
func NewUniverseBuilder(ranking RankingProvider, catalog ExchangeCatalog, config UniverseConfig, logger *logrus.Logger) *UniverseBuilder {
	excluded := make(map[string]struct{}, len(config.Excluded))
	for s := range config.Excluded {
		excluded[strings.ToUpper(s)] = struct{}{}
	}
	config.Excluded = excluded
	return &UniverseBuilder{ranking: ranking, catalog: catalog, config: config, logger: logger}
}

// Build returns the ranked universe. Excluded symbols are dropped first, then
// pairs missing from the catalog. RankIndex follows ranking order. Any
// ranking or catalog failure is returned as a ProviderFatalError, as is an
// empty result (wrapping ErrEmptyUniverse).
func (b *UniverseBuilder) Build(ctx context.Context) (models.Universe, error) {
	assets, err := b.ranking.List(ctx, b.config.RankingLimit)
	if err != nil {
		return nil, asFatal(ProviderRanking, err)
	}

	tradable, err := b.catalog.LoadTradablePairs(ctx)
	if err != nil {
		return nil, asFatal(ProviderCatalog, err)
	}

	universe := make(models.Universe, 0, len(assets))
	seen := make(map[string]struct{}, len(assets))
	excluded, missing := 0, 0

	for _, asset := range assets {
		symbol := strings.ToUpper(strings.TrimSpace(asset.Symbol))
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}

		if _, skip := b.config.Excluded[symbol]; skip {
			excluded++
			continue
		}

		pair := models.PairID(symbol, b.config.QuoteCurrency)
		if _, ok := tradable[pair]; !ok {
			missing++
			continue
		}

		universe = append(universe, models.UniverseEntry{
			Symbol:    symbol,
			Pair:      pair,
			RankIndex: len(universe),
		})
	}

	b.logger.WithFields(logrus.Fields{
		"ranked":   len(assets),
		"excluded": excluded,
		"missing":  missing,
		"universe": len(universe),
	}).Info("Universe built")

	if len(universe) == 0 {
		return nil, NewProviderFatalError(ProviderUniverse, ErrEmptyUniverse)
	}
	return universe, nil
}

func asFatal(provider string, err error) error {
	if IsProviderFatal(err) {
		return err
	}
	return NewProviderFatalError(provider, err)
}
