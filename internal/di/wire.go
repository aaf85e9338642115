//go:build wireinject
// +build wireinject

package di

import (
	"CryptoInsight/pkg/config"
	"CryptoInsight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideResponseCache,
		ProvideTextGenerator,
		ProvideSessionStore,

		// Market data sources
		ProvideCoinGecko,
		ProvideFearGreed,
		ProvideBinance,

		// Use cases
		ProvideSynthesizer,
		ProvideAggregator,
		ProvideInsightService,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
