package api

import (
	"CryptoInsight/internal/service/metrics"
	"CryptoInsight/internal/service/ratelimit"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RateLimit rejects clients that exhaust their token bucket. Clients are
// keyed by echo's RealIP.
func RateLimit(rl *ratelimit.Limiter, l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !rl.Allow(ip) {
				metrics.RateLimited.Inc()
				l.Warn("rate limited", applogger.String("remote", ip), applogger.String("route", c.Path()))
				return xhttp.TooManyRequestsResponse(c)
			}
			return next(c)
		}
	}
}
