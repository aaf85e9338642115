package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"CryptoInsight/internal/domain/models"
	domrepo "CryptoInsight/internal/domain/repository"
	"CryptoInsight/internal/service/coingecko"
	"CryptoInsight/internal/services/portfolio"
	"CryptoInsight/pkg/cache"
	applogger "CryptoInsight/pkg/logger"
)

// DefaultUserID is the session owner for requests without a user.
const DefaultUserID = "default"

const defaultNetwork = "Ethereum Mainnet"

// SessionStore maps users to conversation tokens.
type SessionStore interface {
	GetOrCreate(userID string) string
	Clear(userID string) bool
	ClearAll() int
	Count() int
	Stats() models.SessionStats
}

// InsightService is the operation surface consumed by the HTTP handlers and the CLI.
type InsightService struct {
	agg      *Aggregator
	synth    *Synthesizer
	sessions SessionStore
	spot     domrepo.SpotPriceSource
	cache    cache.Store
	logger   *applogger.Logger
	metrics  domrepo.Metrics
}

func NewInsightService(agg *Aggregator, synth *Synthesizer, sessions SessionStore, spot domrepo.SpotPriceSource, store cache.Store, l *applogger.Logger, m domrepo.Metrics) *InsightService {
	return &InsightService{
		agg:      agg,
		synth:    synth,
		sessions: sessions,
		spot:     spot,
		cache:    store,
		logger:   l.With(applogger.String("component", "insight")),
		metrics:  m,
	}
}

// AnalyzeAsset builds the market record for a free-text asset name.
func (s *InsightService) AnalyzeAsset(ctx context.Context, name string) (models.MarketRecord, error) {
	name = strings.TrimSpace(name)
	rec, err := s.agg.Analyze(ctx, name)
	if err != nil {
		return models.MarketRecord{}, err
	}
	s.logger.Info("asset analyzed",
		applogger.String("query", name),
		applogger.String("coin", rec.CoinName),
		applogger.Int("sentiment", rec.SentimentScore),
	)
	return rec, nil
}

// GenerateReport writes a markdown deep-dive for rec. It never fails.
func (s *InsightService) GenerateReport(ctx context.Context, rec models.MarketRecord) string {
	return s.synth.Narrative(ctx, SynthesisRequest{
		Agent:       AgentAnalyst,
		Instruction: analystInstruction,
		Message:     analystMessage(rec),
		Class:       ClassMarket,
		Fallback:    FallbackReport,
	})
}

// ClassifyIntent maps a user message onto an intent, degrading to CHAT on
// any failure or unusable answer.
func (s *InsightService) ClassifyIntent(ctx context.Context, message string) models.Intent {
	chat := models.Intent{Type: models.IntentChat}

	raw, err := s.synth.Structured(ctx, SynthesisRequest{
		Agent:       AgentIntent,
		Instruction: intentInstruction,
		Message:     intentMessage(message),
		Schema:      IntentSchema,
		Class:       ClassConversational,
	})
	if err != nil {
		return chat
	}

	typ, _ := raw["type"].(string)
	intent := models.Intent{Type: models.IntentType(strings.ToUpper(strings.TrimSpace(typ)))}
	if !intent.Type.Valid() {
		s.logger.Warn("unknown intent type, treating as chat", applogger.String("type", typ))
		return chat
	}
	if intent.Type == models.IntentAnalyze {
		name, _ := raw["coinName"].(string)
		intent.CoinName = strings.TrimSpace(name)
		if intent.CoinName == "" {
			return chat
		}
	}
	return intent
}

// Chat answers message within userID's conversation, optionally grounded in
// the dashboard record the user is viewing. It never fails.
func (s *InsightService) Chat(ctx context.Context, message, userID string, ctxData *models.MarketRecord) string {
	if userID == "" {
		userID = DefaultUserID
	}
	token := s.sessions.GetOrCreate(userID)
	s.metrics.RecordActiveSessions(s.sessions.Count())

	return s.synth.Narrative(ctx, SynthesisRequest{
		Agent:       AgentChat,
		Instruction: chatInstructionWith(ctxData),
		Message:     message,
		Class:       ClassConversational,
		SessionID:   token,
		Fallback:    FallbackChat,
	})
}

// RefreshPortfolioPrices replaces each holding's current price with the
// live spot price when one is available. On upstream failure the input is
// returned unchanged.
func (s *InsightService) RefreshPortfolioPrices(ctx context.Context, items []models.PortfolioItem) []models.PortfolioItem {
	out := append([]models.PortfolioItem(nil), items...)
	if len(out) == 0 {
		return out
	}

	ids := make([]string, len(out))
	seen := make(map[string]bool, len(out))
	unique := make([]string, 0, len(out))
	for i, it := range out {
		ids[i] = coingecko.IDFor(it.Symbol, it.Name)
		if ids[i] != "" && !seen[ids[i]] {
			seen[ids[i]] = true
			unique = append(unique, ids[i])
		}
	}

	prices, err := s.spot.SimplePrices(ctx, unique)
	if err != nil {
		s.logger.Warn("portfolio price refresh failed, keeping client prices", applogger.Error(err))
		return out
	}

	updated := 0
	for i := range out {
		if p, ok := prices[ids[i]]; ok {
			out[i].CurrentPrice = p
			updated++
		}
	}
	s.logger.Debug("portfolio prices refreshed", applogger.Int("holdings", len(out)), applogger.Int("updated", updated))
	return out
}

// AnalyzePortfolio values the holdings exactly and asks the model for commentary.
func (s *InsightService) AnalyzePortfolio(ctx context.Context, items []models.PortfolioItem) models.PortfolioAnalysis {
	summary := portfolio.Summarize(items)
	analysis := s.synth.Narrative(ctx, SynthesisRequest{
		Agent:       AgentPortfolio,
		Instruction: portfolioInstruction,
		Message:     portfolioMessage(summary),
		Class:       ClassConversational,
		Fallback:    FallbackPortfolio,
	})
	return models.PortfolioAnalysis{Summary: summary, Analysis: analysis}
}

// transactionDraft tolerates amounts encoded as strings.
type transactionDraft struct {
	Type         string      `json:"type"`
	Token        string      `json:"token"`
	Amount       json.Number `json:"amount"`
	ToAddress    string      `json:"toAddress"`
	Network      string      `json:"network"`
	EstimatedGas string      `json:"estimatedGas"`
	Summary      string      `json:"summary"`
}

// PreviewTransaction extracts an unsigned transaction draft from text.
// Nothing is signed or broadcast.
func (s *InsightService) PreviewTransaction(ctx context.Context, text string) (models.TransactionPreview, error) {
	raw, err := s.synth.Structured(ctx, SynthesisRequest{
		Agent:       AgentTransaction,
		Instruction: transactionInstruction,
		Message:     transactionMessage(text),
		Schema:      TransactionSchema,
		Class:       ClassConversational,
	})
	if err != nil {
		return models.TransactionPreview{}, err
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return models.TransactionPreview{}, fmt.Errorf("%w: %v", models.ErrSynthesis, err)
	}
	var d transactionDraft
	if err := json.Unmarshal(b, &d); err != nil {
		return models.TransactionPreview{}, fmt.Errorf("%w: transaction draft: %v", models.ErrSynthesis, err)
	}

	p := models.TransactionPreview{
		Type:         models.TransactionType(strings.ToUpper(strings.TrimSpace(d.Type))),
		Token:        strings.ToUpper(strings.TrimSpace(d.Token)),
		ToAddress:    strings.TrimSpace(d.ToAddress),
		Network:      strings.TrimSpace(d.Network),
		EstimatedGas: d.EstimatedGas,
		Summary:      d.Summary,
	}
	switch p.Type {
	case models.TxSend, models.TxSwap, models.TxBuy, models.TxSell:
	default:
		return models.TransactionPreview{}, fmt.Errorf("%w: unknown transaction type %q", models.ErrSynthesis, d.Type)
	}
	if d.Amount != "" {
		if p.Amount, err = d.Amount.Float64(); err != nil {
			return models.TransactionPreview{}, fmt.Errorf("%w: amount %q: %v", models.ErrSynthesis, d.Amount, err)
		}
	}
	if p.Token == "" {
		p.Token = "ETH"
	}
	if p.Network == "" {
		p.Network = defaultNetwork
	}
	if !strings.HasPrefix(p.ToAddress, "0x") {
		if p.Type == models.TxSend {
			p.ToAddress = PlaceholderAddress
		} else {
			p.ToAddress = UniswapV2Router
		}
	}
	return p, nil
}

func (s *InsightService) SessionStats() models.SessionStats {
	return s.sessions.Stats()
}

// ClearSession drops userID's conversation; it reports whether one existed.
func (s *InsightService) ClearSession(userID string) bool {
	ok := s.sessions.Clear(userID)
	s.metrics.RecordActiveSessions(s.sessions.Count())
	return ok
}

func (s *InsightService) ClearAllSessions() int {
	n := s.sessions.ClearAll()
	s.metrics.RecordActiveSessions(0)
	return n
}

func (s *InsightService) CacheStats() models.CacheStats {
	st := s.cache.Stats()
	return models.CacheStats{Hits: st.Hits, Misses: st.Misses, HitRate: st.HitRate(), Size: st.Size}
}
