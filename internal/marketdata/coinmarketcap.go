package marketdata

import (
	"context"
	"fmt"

	"github.com/irfndi/dss-scanner/internal/models"
	"github.com/irfndi/dss-scanner/pkg/coinmarketcap"
)

// ListingsClient is the part of the CoinMarketCap client the ranking needs.
type ListingsClient interface {
	LatestListings(ctx context.Context, limit int) ([]coinmarketcap.Listing, error)
}

// Ranking serves the market-cap ranking from CoinMarketCap.
type Ranking struct {
	client ListingsClient
}

// NewRanking creates a ranking provider.
func NewRanking(client ListingsClient) *Ranking {
	return &Ranking{client: client}
}

// List implements services.RankingProvider. Assets keep the API order; Rank
// falls back to the 1-based position when cmc_rank is absent.
func (r *Ranking) List(ctx context.Context, limit int) ([]models.RankedAsset, error) {
	listings, err := r.client.LatestListings(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coinmarketcap listings: %w", err)
	}

	assets := make([]models.RankedAsset, 0, len(listings))
	for i, l := range listings {
		rank := l.CMCRank
		if rank == 0 {
			rank = i + 1
		}
		assets = append(assets, models.RankedAsset{Symbol: l.Symbol, Rank: rank})
	}
	return assets, nil
}
