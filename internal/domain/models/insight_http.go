package models

// Requests for insight HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeCoinRequest struct {
	CoinName string `json:"coinName" validate:"required,max=100"`
}

type MarketReportRequest struct {
	Data *MarketRecord `json:"data" validate:"required"`
}

type DetermineIntentRequest struct {
	UserMessage string `json:"userMessage" validate:"required,max=4000"`
	UserID      string `json:"userId" default:"default"`
}

type ChatRequest struct {
	UserMessage string        `json:"userMessage" validate:"required,max=4000"`
	UserID      string        `json:"userId" default:"default" validate:"max=128"`
	ContextData *MarketRecord `json:"contextData"`
}

type PortfolioRequest struct {
	Portfolio []PortfolioItem `json:"portfolio" validate:"required,min=1,max=100,dive"`
}

type TransactionPreviewRequest struct {
	UserText string `json:"userText" validate:"required,max=2000"`
}

type SessionPathRequest struct {
	UserID string `param:"userId" validate:"required"`
}
