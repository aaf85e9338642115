package models

import "errors"

// ErrSynthesis is returned when the text backend fails or its structured
// output cannot be parsed.
var ErrSynthesis = errors.New("synthesis failed")

// IntentType enumerates the classified intents.
type IntentType string

const (
	IntentAnalyze           IntentType = "ANALYZE"
	IntentChat              IntentType = "CHAT"
	IntentPortfolioAnalysis IntentType = "PORTFOLIO_ANALYSIS"
	IntentTransaction       IntentType = "TRANSACTION"
)

// Valid reports whether t is one of the known intents.
func (t IntentType) Valid() bool {
	switch t {
	case IntentAnalyze, IntentChat, IntentPortfolioAnalysis, IntentTransaction:
		return true
	}
	return false
}

// Intent is the classifier result. CoinName is only set for ANALYZE.
type Intent struct {
	Type     IntentType `json:"type"`
	CoinName string     `json:"coinName,omitempty"`
}

// PortfolioItem is one holding as sent by the client.
type PortfolioItem struct {
	Symbol       string  `json:"symbol" validate:"required"`
	Name         string  `json:"name"`
	Amount       float64 `json:"amount" validate:"gte=0"`
	AvgPrice     float64 `json:"avgPrice" validate:"gte=0"`
	CurrentPrice float64 `json:"currentPrice" validate:"gte=0"`
}

// PositionSummary is the computed view of one holding.
type PositionSummary struct {
	Asset        string  `json:"asset"`
	Amount       float64 `json:"amount"`
	AvgPrice     float64 `json:"avgPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	CurrentValue float64 `json:"currentValue"`
	PnLPercent   float64 `json:"pnlPercent"`
	Allocation   float64 `json:"allocation"`
}

// PortfolioSummary aggregates all positions.
type PortfolioSummary struct {
	TotalValue float64           `json:"totalValue"`
	TotalCost  float64           `json:"totalCost"`
	PnLPercent float64           `json:"pnlPercent"`
	Positions  []PositionSummary `json:"positions"`
}

// PortfolioAnalysis pairs the computed summary with model commentary.
type PortfolioAnalysis struct {
	Summary  PortfolioSummary `json:"summary"`
	Analysis string           `json:"analysis"`
}

// TransactionType enumerates previewable transaction kinds.
type TransactionType string

const (
	TxSend TransactionType = "SEND"
	TxSwap TransactionType = "SWAP"
	TxBuy  TransactionType = "BUY"
	TxSell TransactionType = "SELL"
)

// TransactionPreview is an unsigned, human-reviewable transaction draft.
type TransactionPreview struct {
	Type         TransactionType `json:"type"`
	Token        string          `json:"token"`
	Amount       float64         `json:"amount"`
	ToAddress    string          `json:"toAddress"`
	Network      string          `json:"network"`
	EstimatedGas string          `json:"estimatedGas"`
	Summary      string          `json:"summary"`
}

// SessionStats describes the live session table.
type SessionStats struct {
	ActiveSessions int      `json:"activeSessions"`
	Users          []string `json:"users"`
}

// CacheStats describes response cache effectiveness.
type CacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
	Size    int     `json:"size"`
}
