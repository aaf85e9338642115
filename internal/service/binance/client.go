package binance

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/domain/repository"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/util"

	"github.com/shopspring/decimal"
)

const sourceName = "binance"

var hundred = decimal.NewFromInt(100)

// Options tunes the long/short query.
type Options struct {
	Period string // e.g. "1d"
	Limit  int
	Quote  string // quote asset appended to the ticker, e.g. "USDT"
}

// Client reads the futures global long/short account ratio.
type Client struct {
	http    *xhttp.Client
	opts    Options
	logger  *applogger.Logger
	metrics repository.Metrics
}

func NewClient(baseURL string, timeout time.Duration, opts Options, l *applogger.Logger, m repository.Metrics) *Client {
	if opts.Period == "" {
		opts.Period = "1d"
	}
	if opts.Limit <= 0 {
		opts.Limit = 7
	}
	if opts.Quote == "" {
		opts.Quote = "USDT"
	}
	return &Client{
		http:    xhttp.NewClient(xhttp.WithBaseURL(baseURL), xhttp.WithTimeout(timeout)),
		opts:    opts,
		logger:  l.With(applogger.String("source", sourceName)),
		metrics: m,
	}
}

type ratioEntry struct {
	Symbol         string `json:"symbol"`
	LongAccount    string `json:"longAccount"`
	ShortAccount   string `json:"shortAccount"`
	LongShortRatio string `json:"longShortRatio"`
	Timestamp      int64  `json:"timestamp"`
}

// Positioning returns the daily long/short split for symbol in percent,
// rounded to one decimal. Unlisted pairs and transport errors both yield false.
func (c *Client) Positioning(ctx context.Context, symbol string) ([]models.LongShortPoint, bool) {
	pair := strings.ToUpper(symbol) + c.opts.Quote

	var out []ratioEntry
	err := c.http.GetJSON(ctx, "/futures/data/globalLongShortAccountRatio", map[string]string{
		"symbol": pair,
		"period": c.opts.Period,
		"limit":  strconv.Itoa(c.opts.Limit),
	}, &out)
	if err != nil {
		if code := xhttp.StatusCode(err); code >= http.StatusBadRequest && code < http.StatusInternalServerError {
			c.logger.Info("pair not listed on futures", applogger.String("pair", pair), applogger.Int("status", code))
			c.metrics.RecordSourceFetch(sourceName, "unavailable")
		} else {
			c.logger.Warn("binance request failed", applogger.String("pair", pair), applogger.Error(err))
			c.metrics.RecordSourceFetch(sourceName, "error")
		}
		return nil, false
	}

	points := make([]models.LongShortPoint, 0, len(out))
	for _, e := range out {
		long, lerr := percent(e.LongAccount)
		short, serr := percent(e.ShortAccount)
		if lerr != nil || serr != nil {
			c.logger.Warn("unparseable ratio entry", applogger.String("pair", pair), applogger.Error(errors.Join(lerr, serr)))
			continue
		}
		points = append(points, models.LongShortPoint{
			Time:  util.MillisLabel(e.Timestamp),
			Long:  long,
			Short: short,
		})
	}
	if len(points) == 0 {
		c.metrics.RecordSourceFetch(sourceName, "unavailable")
		return nil, false
	}
	c.metrics.RecordSourceFetch(sourceName, "ok")
	return points, true
}

// percent turns a fraction string like "0.6523" into 65.2.
func percent(fraction string) (float64, error) {
	d, err := decimal.NewFromString(fraction)
	if err != nil {
		return 0, err
	}
	return d.Mul(hundred).Round(1).InexactFloat64(), nil
}

var _ repository.PositioningSource = (*Client)(nil)
