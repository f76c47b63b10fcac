package cache

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/irfndi/dss-scanner/internal/logging"
	"github.com/irfndi/dss-scanner/internal/models"
)

// CatalogLoader is satisfied by services.ExchangeCatalog.
type CatalogLoader interface {
	LoadTradablePairs(ctx context.Context) (map[string]struct{}, error)
}

// RankingLister is satisfied by services.RankingProvider.
type RankingLister interface {
	List(ctx context.Context, limit int) ([]models.RankedAsset, error)
}

// CachedCatalog serves the exchange catalog from a ListCache and collapses
// concurrent loads into one upstream call. Empty catalogs are not cached.
type CachedCatalog struct {
	next   CatalogLoader
	cache  ListCache
	key    string
	ttl    time.Duration
	group  singleflight.Group
	logger *logrus.Logger
}

// NewCachedCatalog caches next's pairs under "catalog:<exchange>" for ttl.
func NewCachedCatalog(next CatalogLoader, cache ListCache, exchange string, ttl time.Duration, logger *logrus.Logger) *CachedCatalog {
	return &CachedCatalog{next: next, cache: cache, key: "catalog:" + exchange, ttl: ttl, logger: logger}
}

// LoadTradablePairs implements services.ExchangeCatalog.
func (c *CachedCatalog) LoadTradablePairs(ctx context.Context) (map[string]struct{}, error) {
	start := time.Now()
	if pairs, ok := c.cache.Get(ctx, c.key); ok {
		logging.LogCacheOperation(c.logger, "get", c.key, true, time.Since(start).Milliseconds())
		return toSet(pairs), nil
	}
	logging.LogCacheOperation(c.logger, "get", c.key, false, time.Since(start).Milliseconds())

	v, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		pairs, err := c.next.LoadTradablePairs(ctx)
		if err != nil {
			return nil, err
		}
		if len(pairs) > 0 {
			c.cache.Set(ctx, c.key, sortedKeys(pairs), c.ttl)
		}
		return pairs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]struct{}), nil
}

// CachedRanking serves the ranking from a ListCache. Cached entries keep the
// ranking order; Rank is restored as the 1-based position. Empty rankings are
// not cached.
type CachedRanking struct {
	next   RankingLister
	cache  ListCache
	ttl    time.Duration
	group  singleflight.Group
	logger *logrus.Logger
}

// NewCachedRanking caches next's listings per limit for ttl.
func NewCachedRanking(next RankingLister, cache ListCache, ttl time.Duration, logger *logrus.Logger) *CachedRanking {
	return &CachedRanking{next: next, cache: cache, ttl: ttl, logger: logger}
}

// List implements services.RankingProvider.
func (r *CachedRanking) List(ctx context.Context, limit int) ([]models.RankedAsset, error) {
	key := "ranking:" + strconv.Itoa(limit)

	start := time.Now()
	if symbols, ok := r.cache.Get(ctx, key); ok {
		logging.LogCacheOperation(r.logger, "get", key, true, time.Since(start).Milliseconds())
		assets := make([]models.RankedAsset, len(symbols))
		for i, s := range symbols {
			assets[i] = models.RankedAsset{Symbol: s, Rank: i + 1}
		}
		return assets, nil
	}
	logging.LogCacheOperation(r.logger, "get", key, false, time.Since(start).Milliseconds())

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		assets, err := r.next.List(ctx, limit)
		if err != nil {
			return nil, err
		}
		if len(assets) == 0 {
			return assets, nil
		}
		symbols := make([]string, len(assets))
		for i, a := range assets {
			symbols[i] = a.Symbol
		}
		r.cache.Set(ctx, key, symbols, r.ttl)
		return assets, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.RankedAsset), nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
