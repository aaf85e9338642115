package di

import (
	"context"
	"fmt"

	"CryptoInsight/internal/domain/repository"
	"CryptoInsight/internal/domain/service"
	"CryptoInsight/internal/handler/api"
	"CryptoInsight/internal/service/binance"
	"CryptoInsight/internal/service/coingecko"
	"CryptoInsight/internal/service/feargreed"
	"CryptoInsight/internal/service/llm"
	"CryptoInsight/internal/service/ratelimit"
	"CryptoInsight/internal/service/session"
	"CryptoInsight/internal/usecase"
	"CryptoInsight/pkg/cache"
	"CryptoInsight/pkg/config"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/metrics"
	"CryptoInsight/pkg/server"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideResponseCache creates the synthesized-response cache.
func ProvideResponseCache(cfg *config.Config, l *applogger.Logger) *cache.MemoryCache {
	return cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.MaxSize),
		cache.WithMemoryCleanup(cfg.Cache.CleanupInterval),
		cache.WithMemoryStats(cfg.Cache.StatsLogInterval),
		cache.WithMemoryLogger(l.With(applogger.String("component", "cache"))),
	)
}

// ProvideTextGenerator selects the LLM backend named by llm.provider.
func ProvideTextGenerator(cfg *config.Config, l *applogger.Logger) (service.TextGenerator, error) {
	ctx := context.Background()
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		gen, err := llm.NewOpenAI(ctx, llm.OpenAIConfig{
			APIKey:    cfg.LLM.APIKey,
			BaseURL:   cfg.LLM.BaseURL,
			Model:     cfg.LLM.Model,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   cfg.LLM.Timeout,
		}, l)
		if err != nil {
			return nil, fmt.Errorf("openai backend: %w", err)
		}
		return gen, nil
	case config.ProviderGemini:
		gen, err := llm.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Timeout, l)
		if err != nil {
			return nil, fmt.Errorf("gemini backend: %w", err)
		}
		return gen, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// ProvideSessionStore creates the session store. Expired or cleared
// sessions release the backend's conversation history.
func ProvideSessionStore(cfg *config.Config, l *applogger.Logger, gen service.TextGenerator) *session.Store {
	return session.New(
		session.WithTimeout(cfg.Session.Timeout),
		session.WithSweepInterval(cfg.Session.SweepInterval),
		session.WithLogger(l.With(applogger.String("component", "sessions"))),
		session.WithExpireHook(gen.EndSession),
	)
}

// ProvideCoinGecko creates the search, history and spot price client.
func ProvideCoinGecko(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *coingecko.Client {
	return coingecko.NewClient(cfg.Sources.CoinGeckoURL, cfg.Sources.Timeout, cfg.Sources.HistoryDays, l, m)
}

// ProvideFearGreed creates the sentiment index client.
func ProvideFearGreed(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *feargreed.Client {
	return feargreed.NewClient(cfg.Sources.FearGreedURL, cfg.Sources.Timeout, l, m)
}

// ProvideBinance creates the long/short ratio client.
func ProvideBinance(cfg *config.Config, l *applogger.Logger, m repository.Metrics) *binance.Client {
	return binance.NewClient(cfg.Sources.BinanceURL, cfg.Sources.Timeout, binance.Options{
		Period: cfg.Sources.RatioPeriod,
		Limit:  cfg.Sources.RatioLimit,
		Quote:  cfg.Sources.QuoteAsset,
	}, l, m)
}

// ProvideSynthesizer creates the cache-checked generation front.
func ProvideSynthesizer(cfg *config.Config, gen service.TextGenerator, store *cache.MemoryCache, l *applogger.Logger, m repository.Metrics) *usecase.Synthesizer {
	return usecase.NewSynthesizer(gen, store, usecase.SynthesisTTL{
		Market:         cfg.Cache.MarketTTL,
		Conversational: cfg.Cache.ConversationTTL,
	}, l, m)
}

// ProvideAggregator creates the market context aggregator.
func ProvideAggregator(
	cfg *config.Config,
	cg *coingecko.Client,
	fg *feargreed.Client,
	bn *binance.Client,
	synth *usecase.Synthesizer,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.Aggregator {
	src := usecase.Sources{Resolver: cg, Prices: cg, Sentiment: fg, Positioning: bn}
	return usecase.NewAggregator(src, synth, cfg.Aggregator.StageDelay, l, m)
}

// ProvideInsightService creates the operation surface.
func ProvideInsightService(
	agg *usecase.Aggregator,
	synth *usecase.Synthesizer,
	sessions *session.Store,
	cg *coingecko.Client,
	store *cache.MemoryCache,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.InsightService {
	return usecase.NewInsightService(agg, synth, sessions, cg, store, l, m)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHTTPHandler creates the echo route set.
func ProvideHTTPHandler(svc *usecase.InsightService, rl *ratelimit.Limiter, l *applogger.Logger) *api.InsightEchoHandler {
	var mw echo.MiddlewareFunc
	if rl != nil {
		mw = api.RateLimit(rl, l)
	}
	return api.NewInsightEchoHandler(l, svc, mw)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.InsightEchoHandler, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	svc *usecase.InsightService,
	store *cache.MemoryCache,
	sessions *session.Store,
	rl *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, srv, svc, store, sessions, rl)
}
