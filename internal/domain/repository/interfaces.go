package repository

import (
	"context"

	"CryptoInsight/internal/domain/models"
)

// AssetResolver maps a free-text query onto a known asset.
type AssetResolver interface {
	Resolve(ctx context.Context, query string) (models.AssetIdentity, bool)
}

// PriceHistorySource returns recent daily prices for an asset id.
type PriceHistorySource interface {
	PriceHistory(ctx context.Context, id string) (models.PriceSeries, bool)
}

// SpotPriceSource returns USD prices for a batch of asset ids.
type SpotPriceSource interface {
	SimplePrices(ctx context.Context, ids []string) (map[string]float64, error)
}

// SentimentSource returns the market-wide Fear & Greed value. The bool is
// false when the neutral default was substituted.
type SentimentSource interface {
	Sentiment(ctx context.Context) (int, bool)
}

// PositioningSource returns the derivatives long/short split for a ticker.
type PositioningSource interface {
	Positioning(ctx context.Context, symbol string) ([]models.LongShortPoint, bool)
}

type Metrics interface {
	RecordSourceFetch(source, outcome string)
	RecordCacheLookup(class string, hit bool)
	RecordSynthesis(agent, outcome string, seconds float64)
	RecordActiveSessions(n int)
	RecordLastPrice(symbol string, price float64)
}
