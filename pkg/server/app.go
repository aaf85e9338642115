package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CryptoInsight/internal/service/ratelimit"
	"CryptoInsight/internal/service/session"
	"CryptoInsight/internal/usecase"
	"CryptoInsight/pkg/cache"
	"CryptoInsight/pkg/config"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"
)

// limiterIdle is how long a client bucket may sit untouched before it is pruned.
const limiterIdle = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	httpServer *xhttp.Server
	insight    *usecase.InsightService
	cache      *cache.MemoryCache
	sessions   *session.Store
	limiter    *ratelimit.Limiter

	stop chan struct{}
	done chan struct{}
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	insight *usecase.InsightService,
	store *cache.MemoryCache,
	sessions *session.Store,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		logger:     l,
		httpServer: httpServer,
		insight:    insight,
		cache:      store,
		sessions:   sessions,
		limiter:    limiter,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Insight exposes the operation surface for one-shot CLI commands.
func (a *App) Insight() *usecase.InsightService { return a.insight }

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.logger }

// Run starts the HTTP server and background sweeps, then blocks until
// interrupted.
func (a *App) Run() error {
	a.sessions.Start()
	go a.pruneLimiter()

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		close(a.stop)
		<-a.done
		a.Close()
		return err
	}
	a.logger.Info("cryptoinsight started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("llm_provider", a.cfg.LLM.Provider),
		applogger.String("llm_model", a.cfg.LLM.Model),
		applogger.Int("port", a.cfg.Server.Port),
	)

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(context.Background())
}

func (a *App) pruneLimiter() {
	defer close(a.done)
	if a.limiter == nil {
		<-a.stop
		return
	}
	t := time.NewTicker(limiterIdle)
	defer t.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-t.C:
			if n := a.limiter.Prune(limiterIdle); n > 0 {
				a.logger.Debug("rate limiter pruned", applogger.Int("clients", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	close(a.stop)
	<-a.done
	a.Close()

	a.logger.Info("shutdown complete")
	return nil
}

// Close stops the session and cache sweeps. It is safe to call without Run.
func (a *App) Close() {
	a.sessions.Stop()
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("cache close error", applogger.Error(err))
	}
}
