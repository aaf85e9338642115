package usecase

import (
	"context"
	"time"

	"CryptoInsight/internal/domain/models"
	domrepo "CryptoInsight/internal/domain/repository"
	"CryptoInsight/internal/services/normalize"
	applogger "CryptoInsight/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Sources bundles the upstream market data clients.
type Sources struct {
	Resolver    domrepo.AssetResolver
	Prices      domrepo.PriceHistorySource
	Sentiment   domrepo.SentimentSource
	Positioning domrepo.PositioningSource
}

// Aggregator gathers live market context for an asset and turns it into a MarketRecord.
type Aggregator struct {
	src        Sources
	synth      *Synthesizer
	stageDelay time.Duration
	logger     *applogger.Logger
	metrics    domrepo.Metrics
}

func NewAggregator(src Sources, synth *Synthesizer, stageDelay time.Duration, l *applogger.Logger, m domrepo.Metrics) *Aggregator {
	return &Aggregator{
		src:        src,
		synth:      synth,
		stageDelay: stageDelay,
		logger:     l.With(applogger.String("component", "aggregator")),
		metrics:    m,
	}
}

// Gather resolves query and, when resolved, fetches price history, sentiment
// and positioning concurrently. It never fails: missing sources leave gaps.
func (a *Aggregator) Gather(ctx context.Context, query string) *models.PartialMarketContext {
	id, ok := a.src.Resolver.Resolve(ctx, query)
	if !ok {
		a.logger.Info("query not resolved, synthesizing from name only", applogger.String("query", query))
		return models.NewUnresolvedContext(query)
	}

	pc := models.NewResolvedContext(query, id)

	var (
		series      models.PriceSeries
		seriesOK    bool
		sentiment   int
		sentimentOK bool
		positioning []models.LongShortPoint
	)

	// Source clients absorb their own failures, so no goroutine returns an error.
	var g errgroup.Group
	g.Go(func() error {
		series, seriesOK = a.src.Prices.PriceHistory(ctx, id.ID)
		return nil
	})
	g.Go(func() error {
		sentiment, sentimentOK = a.src.Sentiment.Sentiment(ctx)
		return nil
	})
	g.Go(func() error {
		positioning, _ = a.src.Positioning.Positioning(ctx, id.Symbol)
		return nil
	})
	_ = g.Wait()

	if seriesOK {
		pc.Price = &series
	}
	if sentimentOK {
		pc.Sentiment = models.ClampSentiment(sentiment)
		pc.SentimentLive = true
	}
	pc.Positioning = positioning

	a.logger.Debug("market context gathered",
		applogger.String("id", id.ID),
		applogger.Bool("price", seriesOK),
		applogger.Bool("sentiment_live", sentimentOK),
		applogger.Int("positioning_points", len(positioning)),
	)
	return pc
}

// Analyze produces the canonical record for query. Only synthesis failures
// surface as errors (wrapping models.ErrSynthesis).
func (a *Aggregator) Analyze(ctx context.Context, query string) (models.MarketRecord, error) {
	pc := a.Gather(ctx, query)

	if err := a.pace(ctx); err != nil {
		return models.MarketRecord{}, err
	}

	raw, err := a.synth.Structured(ctx, SynthesisRequest{
		Agent:       AgentAggregator,
		Instruction: aggregatorInstruction(pc),
		Message:     aggregatorMessage(pc.DisplayName),
		Schema:      MarketRecordSchema,
		Class:       ClassMarket,
	})
	if err != nil {
		return models.MarketRecord{}, err
	}

	rec := normalize.Normalize(raw)
	a.overlay(&rec, pc)
	return rec, nil
}

// overlay writes fetched values over whatever the model produced, so a cached
// synthesis never masks fresher live data.
func (a *Aggregator) overlay(rec *models.MarketRecord, pc *models.PartialMarketContext) {
	if rec.CoinName == "" {
		rec.CoinName = pc.DisplayName
	}
	if pc.Resolved && pc.Symbol != "" {
		rec.Symbol = pc.Symbol
	}
	if pc.Price != nil {
		rec.PriceHistory = append([]models.PricePoint(nil), pc.Price.History...)
		rec.CurrentPrice = pc.Price.CurrentPrice
		a.metrics.RecordLastPrice(pc.Symbol, pc.Price.CurrentPrice)
	}
	if len(pc.Positioning) > 0 {
		rec.LongShortRatio = append([]models.LongShortPoint(nil), pc.Positioning...)
	}
	if pc.SentimentLive {
		rec.SentimentScore = pc.Sentiment
	}
	rec.EnsureSlices()
}

func (a *Aggregator) pace(ctx context.Context) error {
	if a.stageDelay <= 0 {
		return nil
	}
	t := time.NewTimer(a.stageDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
