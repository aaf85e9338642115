package coingecko

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/domain/repository"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/util"
)

const sourceName = "coingecko"

// knownIDs covers tickers whose CoinGecko id is not the lower-cased name.
var knownIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"MATIC": "matic-network",
}

// IDFor maps a portfolio holding onto a CoinGecko id: known tickers first,
// then the lower-cased name, then the lower-cased symbol.
func IDFor(symbol, name string) string {
	if id, ok := knownIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	if name != "" {
		return strings.ToLower(name)
	}
	return strings.ToLower(symbol)
}

// Client talks to the public CoinGecko v3 API.
type Client struct {
	http    *xhttp.Client
	days    int
	logger  *applogger.Logger
	metrics repository.Metrics
}

// NewClient builds a client rooted at baseURL (e.g. https://api.coingecko.com/api/v3).
func NewClient(baseURL string, timeout time.Duration, days int, l *applogger.Logger, m repository.Metrics) *Client {
	if days <= 0 {
		days = 7
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithBaseURL(baseURL), xhttp.WithTimeout(timeout)),
		days:    days,
		logger:  l.With(applogger.String("source", sourceName)),
		metrics: m,
	}
}

type searchResponse struct {
	Coins []struct {
		ID     string `json:"id"`
		Symbol string `json:"symbol"`
		Name   string `json:"name"`
	} `json:"coins"`
}

// Resolve returns the first search hit for query.
func (c *Client) Resolve(ctx context.Context, query string) (models.AssetIdentity, bool) {
	var out searchResponse
	if err := c.http.GetJSON(ctx, "/search", map[string]string{"query": query}, &out); err != nil {
		c.fail("search", err)
		return models.AssetIdentity{}, false
	}
	if len(out.Coins) == 0 {
		c.logger.Info("no asset matched query", applogger.String("query", query))
		c.metrics.RecordSourceFetch(sourceName, "unavailable")
		return models.AssetIdentity{}, false
	}
	hit := out.Coins[0]
	c.metrics.RecordSourceFetch(sourceName, "ok")
	return models.AssetIdentity{ID: hit.ID, Symbol: strings.ToUpper(hit.Symbol), Name: hit.Name}, true
}

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// PriceHistory returns daily USD prices, oldest first. The last point is the current price.
func (c *Client) PriceHistory(ctx context.Context, id string) (models.PriceSeries, bool) {
	var out marketChartResponse
	err := c.http.GetJSON(ctx, fmt.Sprintf("/coins/%s/market_chart", id), map[string]string{
		"vs_currency": "usd",
		"days":        strconv.Itoa(c.days),
		"interval":    "daily",
	}, &out)
	if err != nil {
		c.fail("market_chart", err)
		return models.PriceSeries{}, false
	}
	if len(out.Prices) == 0 {
		c.logger.Warn("empty price history", applogger.String("id", id))
		c.metrics.RecordSourceFetch(sourceName, "unavailable")
		return models.PriceSeries{}, false
	}

	history := make([]models.PricePoint, 0, len(out.Prices))
	for _, p := range out.Prices {
		history = append(history, models.PricePoint{
			Time:  util.MillisLabel(int64(p[0])),
			Price: p[1],
		})
	}
	current := out.Prices[len(out.Prices)-1][1]
	c.metrics.RecordSourceFetch(sourceName, "ok")
	return models.PriceSeries{History: history, CurrentPrice: current}, true
}

// SimplePrices fetches spot USD prices for ids. Ids CoinGecko does not know are absent from the map.
func (c *Client) SimplePrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}
	var out map[string]map[string]float64
	err := c.http.GetJSON(ctx, "/simple/price", map[string]string{
		"ids":           strings.Join(ids, ","),
		"vs_currencies": "usd",
	}, &out)
	if err != nil {
		c.fail("simple_price", err)
		return nil, fmt.Errorf("coingecko simple price: %w", err)
	}

	prices := make(map[string]float64, len(out))
	for id, quote := range out {
		if usd, ok := quote["usd"]; ok && usd > 0 {
			prices[id] = usd
		}
	}
	c.metrics.RecordSourceFetch(sourceName, "ok")
	return prices, nil
}

func (c *Client) fail(op string, err error) {
	c.logger.Warn("coingecko request failed",
		applogger.String("op", op),
		applogger.Int("status", xhttp.StatusCode(err)),
		applogger.Error(err),
	)
	c.metrics.RecordSourceFetch(sourceName, "error")
}

var (
	_ repository.AssetResolver      = (*Client)(nil)
	_ repository.PriceHistorySource = (*Client)(nil)
	_ repository.SpotPriceSource    = (*Client)(nil)
)
