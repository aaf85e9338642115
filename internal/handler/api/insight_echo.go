package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/service/metrics"
	xhttp "CryptoInsight/pkg/http"
	applogger "CryptoInsight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Insight is the operation surface the HTTP layer needs.
type Insight interface {
	AnalyzeAsset(ctx context.Context, name string) (models.MarketRecord, error)
	GenerateReport(ctx context.Context, rec models.MarketRecord) string
	ClassifyIntent(ctx context.Context, message string) models.Intent
	Chat(ctx context.Context, message, userID string, ctxData *models.MarketRecord) string
	RefreshPortfolioPrices(ctx context.Context, items []models.PortfolioItem) []models.PortfolioItem
	AnalyzePortfolio(ctx context.Context, items []models.PortfolioItem) models.PortfolioAnalysis
	PreviewTransaction(ctx context.Context, text string) (models.TransactionPreview, error)
	SessionStats() models.SessionStats
	ClearSession(userID string) bool
	ClearAllSessions() int
	CacheStats() models.CacheStats
}

// InsightEchoHandler exposes Insight over echo.
type InsightEchoHandler struct {
	logger  *applogger.Logger
	svc     Insight
	limiter echo.MiddlewareFunc
	started time.Time
}

func NewInsightEchoHandler(logger *applogger.Logger, svc Insight, limiter echo.MiddlewareFunc) *InsightEchoHandler {
	metrics.Register()
	return &InsightEchoHandler{logger: logger, svc: svc, limiter: limiter, started: time.Now()}
}

func (h *InsightEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	// Routes that reach the text backend are rate limited.
	var limited []echo.MiddlewareFunc
	if h.limiter != nil {
		limited = append(limited, h.limiter)
	}
	g.POST("/analyze-coin", h.AnalyzeCoin, limited...)
	g.POST("/market-report", h.MarketReport, limited...)
	g.POST("/determine-intent", h.DetermineIntent, limited...)
	g.POST("/chat", h.Chat, limited...)
	g.POST("/analyze-portfolio", h.AnalyzePortfolio, limited...)
	g.POST("/transaction-preview", h.TransactionPreview, limited...)

	g.POST("/update-portfolio", h.UpdatePortfolio)
	g.GET("/sessions", h.Sessions)
	g.DELETE("/sessions", h.ClearAllSessions)
	g.DELETE("/sessions/:userId", h.ClearSession)
	g.GET("/cache/stats", h.CacheStats)
}

func (h *InsightEchoHandler) observe(op string) func() {
	start := time.Now()
	return func() { metrics.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds()) }
}

// fail maps usecase errors onto the response envelope.
func (h *InsightEchoHandler) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, models.ErrSynthesis) {
		metrics.OperationErrors.WithLabelValues(op, "synthesis").Inc()
		h.logger.Error(op+" synthesis failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("AI generation failed, try again").WithError(err))
	}
	metrics.OperationErrors.WithLabelValues(op, "internal").Inc()
	h.logger.Error(op+" failed", applogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

func (h *InsightEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *InsightEchoHandler) AnalyzeCoin(c echo.Context) error {
	defer h.observe("analyze_coin")()
	req := &models.AnalyzeCoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.svc.AnalyzeAsset(c.Request().Context(), req.CoinName)
	if err != nil {
		return h.fail(c, "analyze_coin", err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *InsightEchoHandler) MarketReport(c echo.Context) error {
	defer h.observe("market_report")()
	req := &models.MarketReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Data.EnsureSlices()

	report := h.svc.GenerateReport(c.Request().Context(), *req.Data)
	return xhttp.SuccessResponse(c, map[string]string{"report": report})
}

func (h *InsightEchoHandler) DetermineIntent(c echo.Context) error {
	defer h.observe("determine_intent")()
	req := &models.DetermineIntentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.svc.ClassifyIntent(c.Request().Context(), req.UserMessage))
}

func (h *InsightEchoHandler) Chat(c echo.Context) error {
	defer h.observe("chat")()
	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	resp := h.svc.Chat(c.Request().Context(), req.UserMessage, req.UserID, req.ContextData)
	return xhttp.SuccessResponse(c, map[string]string{"response": resp})
}

func (h *InsightEchoHandler) AnalyzePortfolio(c echo.Context) error {
	defer h.observe("analyze_portfolio")()
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.svc.AnalyzePortfolio(c.Request().Context(), req.Portfolio))
}

func (h *InsightEchoHandler) UpdatePortfolio(c echo.Context) error {
	defer h.observe("update_portfolio")()
	req := &models.PortfolioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.svc.RefreshPortfolioPrices(c.Request().Context(), req.Portfolio))
}

func (h *InsightEchoHandler) TransactionPreview(c echo.Context) error {
	defer h.observe("transaction_preview")()
	req := &models.TransactionPreviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.svc.PreviewTransaction(c.Request().Context(), req.UserText)
	if err != nil {
		return h.fail(c, "transaction_preview", err)
	}
	return xhttp.SuccessResponse(c, p)
}

func (h *InsightEchoHandler) Sessions(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.SessionStats())
}

func (h *InsightEchoHandler) ClearSession(c echo.Context) error {
	req := &models.SessionPathRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.svc.ClearSession(req.UserID) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no session for user %s", req.UserID).WithParam("userId", req.UserID))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"userId": req.UserID, "cleared": true})
}

func (h *InsightEchoHandler) ClearAllSessions(c echo.Context) error {
	n := h.svc.ClearAllSessions()
	h.logger.Info("all sessions cleared", applogger.Int("count", n))
	return xhttp.SuccessResponse(c, map[string]int{"cleared": n})
}

func (h *InsightEchoHandler) CacheStats(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.DataResponse(c, http.StatusOK, h.svc.CacheStats())
}
