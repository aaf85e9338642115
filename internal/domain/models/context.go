package models

// AssetIdentity is a resolved asset.
type AssetIdentity struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// PriceSeries is a recent daily price history with its latest value.
type PriceSeries struct {
	History      []PricePoint `json:"history"`
	CurrentPrice float64      `json:"currentPrice"`
}

// PartialMarketContext is what the aggregator managed to fetch for one request.
// Nil pointers and empty slices mean the source was unavailable.
type PartialMarketContext struct {
	Query       string
	Resolved    bool
	ID          string
	Symbol      string
	DisplayName string

	Price         *PriceSeries
	Sentiment     int
	SentimentLive bool
	Positioning   []LongShortPoint
}

// NewUnresolvedContext builds the context used when the query could not be resolved.
func NewUnresolvedContext(query string) *PartialMarketContext {
	return &PartialMarketContext{
		Query:       query,
		DisplayName: query,
		Sentiment:   DefaultSentiment,
	}
}

// NewResolvedContext seeds a context from a resolved identity.
func NewResolvedContext(query string, id AssetIdentity) *PartialMarketContext {
	return &PartialMarketContext{
		Query:       query,
		Resolved:    true,
		ID:          id.ID,
		Symbol:      id.Symbol,
		DisplayName: id.Name,
		Sentiment:   DefaultSentiment,
	}
}
