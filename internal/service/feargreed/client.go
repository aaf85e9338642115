package feargreed

import (
	"context"
	"time"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/domain/repository"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/util"
)

const sourceName = "fear_greed"

// Client reads the alternative.me Fear & Greed index.
type Client struct {
	http    *xhttp.Client
	logger  *applogger.Logger
	metrics repository.Metrics
}

func NewClient(baseURL string, timeout time.Duration, l *applogger.Logger, m repository.Metrics) *Client {
	return &Client{
		http:    xhttp.NewClient(xhttp.WithBaseURL(baseURL), xhttp.WithTimeout(timeout)),
		logger:  l.With(applogger.String("source", sourceName)),
		metrics: m,
	}
}

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// Sentiment returns today's index value. On any failure it returns the
// neutral default and false.
func (c *Client) Sentiment(ctx context.Context) (int, bool) {
	var out fngResponse
	if err := c.http.GetJSON(ctx, "/fng/", map[string]string{"limit": "1"}, &out); err != nil {
		c.logger.Warn("fear & greed request failed", applogger.Error(err))
		c.metrics.RecordSourceFetch(sourceName, "error")
		return models.DefaultSentiment, false
	}
	if len(out.Data) == 0 {
		c.metrics.RecordSourceFetch(sourceName, "unavailable")
		return models.DefaultSentiment, false
	}

	v := util.ParseIntDefault(out.Data[0].Value, -1)
	if v < 0 || v > 100 {
		c.logger.Warn("fear & greed value out of range", applogger.String("value", out.Data[0].Value))
		c.metrics.RecordSourceFetch(sourceName, "unavailable")
		return models.DefaultSentiment, false
	}
	c.metrics.RecordSourceFetch(sourceName, "ok")
	return v, true
}

var _ repository.SentimentSource = (*Client)(nil)
