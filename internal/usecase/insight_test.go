package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/domain/service"
	"CryptoInsight/internal/service/session"
	applogger "CryptoInsight/pkg/logger"
	"CryptoInsight/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSpot struct {
	prices map[string]float64
	err    error
	asked  []string
}

func (f *fakeSpot) SimplePrices(_ context.Context, ids []string) (map[string]float64, error) {
	f.asked = append(f.asked, ids...)
	return f.prices, f.err
}

type sessionGauge struct {
	metrics.Nop
	last []int
}

func (g *sessionGauge) RecordActiveSessions(n int) { g.last = append(g.last, n) }

type insightFixture struct {
	svc      *InsightService
	gen      *fakeGenerator
	spot     *fakeSpot
	sessions *session.Store
}

func newInsightFixture(t *testing.T, respond func(service.GenerateRequest) (string, error)) *insightFixture {
	t.Helper()
	gen := &fakeGenerator{respond: respond}
	synth, store := newTestSynthesizer(t, gen, nil)
	src := &fakeSources{known: map[string]models.AssetIdentity{"btc": bitcoin}}
	agg := NewAggregator(Sources{Resolver: src, Prices: src, Sentiment: src, Positioning: src}, synth, 0, applogger.NewNop(), metrics.Nop{})
	spot := &fakeSpot{}
	sessions := session.New(session.WithTokenFunc(func(userID string) string { return "session-" + userID }))
	svc := NewInsightService(agg, synth, sessions, spot, store, applogger.NewNop(), metrics.Nop{})
	return &insightFixture{svc: svc, gen: gen, spot: spot, sessions: sessions}
}

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  models.Intent
	}{
		{name: "analyze", reply: `{"type":"ANALYZE","coinName":" Solana "}`, want: models.Intent{Type: models.IntentAnalyze, CoinName: "Solana"}},
		{name: "lowercase type", reply: `{"type":"portfolio_analysis"}`, want: models.Intent{Type: models.IntentPortfolioAnalysis}},
		{name: "transaction ignores coin", reply: `{"type":"TRANSACTION","coinName":"ETH"}`, want: models.Intent{Type: models.IntentTransaction}},
		{name: "unknown type", reply: `{"type":"WEATHER"}`, want: models.Intent{Type: models.IntentChat}},
		{name: "analyze without coin", reply: `{"type":"ANALYZE"}`, want: models.Intent{Type: models.IntentChat}},
		{name: "unparseable", reply: "I think they want to chat", want: models.Intent{Type: models.IntentChat}},
		{name: "backend down", err: errors.New("down"), want: models.Intent{Type: models.IntentChat}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInsightFixture(t, func(service.GenerateRequest) (string, error) { return tt.reply, tt.err })
			assert.Equal(t, tt.want, f.svc.ClassifyIntent(t.Context(), "Analyze SOL"))
		})
	}
}

func TestChatUsesPerUserSession(t *testing.T) {
	f := newInsightFixture(t, replyWith("gm"))

	ctxData := &models.MarketRecord{CoinName: "Bitcoin", SentimentScore: 40}
	assert.Equal(t, "gm", f.svc.Chat(t.Context(), "hello", "alice", ctxData))
	assert.Equal(t, "gm", f.svc.Chat(t.Context(), "another", "", nil))

	calls := f.gen.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "session-alice", calls[0].SessionID)
	assert.Contains(t, calls[0].Instruction, "Bitcoin")
	assert.Equal(t, "session-default", calls[1].SessionID)
	assert.Equal(t, chatInstruction, calls[1].Instruction)

	stats := f.svc.SessionStats()
	assert.Equal(t, 2, stats.ActiveSessions)
	assert.Equal(t, []string{"alice", "default"}, stats.Users)

	assert.True(t, f.svc.ClearSession("alice"))
	assert.False(t, f.svc.ClearSession("alice"))
	assert.Equal(t, 1, f.svc.ClearAllSessions())
	assert.Zero(t, f.svc.SessionStats().ActiveSessions)
}

func TestChatReportsActiveSessions(t *testing.T) {
	gen := &fakeGenerator{respond: replyWith("hello")}
	synth, store := newTestSynthesizer(t, gen, nil)
	gauge := &sessionGauge{}
	sessions := session.New()
	svc := NewInsightService(nil, synth, sessions, &fakeSpot{}, store, applogger.NewNop(), gauge)

	svc.Chat(t.Context(), "hi", "alice", nil)
	svc.Chat(t.Context(), "hi again", "alice", nil)
	svc.Chat(t.Context(), "hi", "bob", nil)
	svc.ClearSession("bob")

	assert.Equal(t, []int{1, 1, 2, 1}, gauge.last)
}

func TestChatFallback(t *testing.T) {
	f := newInsightFixture(t, func(service.GenerateRequest) (string, error) { return "", errors.New("boom") })
	assert.Equal(t, FallbackChat, f.svc.Chat(t.Context(), "hi", "bob", nil))
}

func TestGenerateReport(t *testing.T) {
	f := newInsightFixture(t, replyWith("## Verdict\nNeutral"))
	rec := models.MarketRecord{CoinName: "Bitcoin"}
	rec.EnsureSlices()

	assert.Equal(t, "## Verdict\nNeutral", f.svc.GenerateReport(t.Context(), rec))
	calls := f.gen.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, AgentAnalyst, calls[0].Agent)
	assert.Contains(t, calls[0].Message, `"coinName": "Bitcoin"`)

	down := newInsightFixture(t, func(service.GenerateRequest) (string, error) { return "", errors.New("x") })
	assert.Equal(t, FallbackReport, down.svc.GenerateReport(t.Context(), rec))
}

func TestRefreshPortfolioPrices(t *testing.T) {
	f := newInsightFixture(t, nil)
	f.spot.prices = map[string]float64{"bitcoin": 65000}

	in := []models.PortfolioItem{
		{Symbol: "BTC", Amount: 1, AvgPrice: 30000, CurrentPrice: 1},
		{Symbol: "btc", Amount: 2, AvgPrice: 30000, CurrentPrice: 1},
		{Symbol: "XYZ", Name: "Mystery", Amount: 5, CurrentPrice: 3},
	}
	out := f.svc.RefreshPortfolioPrices(t.Context(), in)

	assert.Equal(t, []string{"bitcoin", "mystery"}, f.spot.asked)
	assert.Equal(t, 65000.0, out[0].CurrentPrice)
	assert.Equal(t, 65000.0, out[1].CurrentPrice)
	assert.Equal(t, 3.0, out[2].CurrentPrice, "unpriced holdings keep the client value")
	assert.Equal(t, 1.0, in[0].CurrentPrice, "input is not mutated")
}

func TestRefreshPortfolioPricesUpstreamFailure(t *testing.T) {
	f := newInsightFixture(t, nil)
	f.spot.err = errors.New("429")

	in := []models.PortfolioItem{{Symbol: "ETH", Amount: 1, CurrentPrice: 2500}}
	assert.Equal(t, in, f.svc.RefreshPortfolioPrices(t.Context(), in))
}

func TestAnalyzePortfolio(t *testing.T) {
	f := newInsightFixture(t, replyWith("Diversify."))

	got := f.svc.AnalyzePortfolio(t.Context(), []models.PortfolioItem{
		{Symbol: "ETH", Amount: 2, AvgPrice: 1000, CurrentPrice: 1500},
	})
	assert.Equal(t, "Diversify.", got.Analysis)
	assert.Equal(t, 3000.0, got.Summary.TotalValue)
	assert.Equal(t, 50.0, got.Summary.PnLPercent)

	calls := f.gen.Calls()
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0].Message, "Analyze this crypto portfolio: "))
	assert.Contains(t, calls[0].Message, `"totalValue":3000`)
}

func TestPreviewTransaction(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  models.TransactionPreview
	}{
		{
			name:  "swap defaults to router",
			reply: `{"type":"swap","token":"eth","amount":1,"estimatedGas":"0.002 ETH","summary":"Swap 1 ETH"}`,
			want: models.TransactionPreview{Type: models.TxSwap, Token: "ETH", Amount: 1, ToAddress: UniswapV2Router,
				Network: "Ethereum Mainnet", EstimatedGas: "0.002 ETH", Summary: "Swap 1 ETH"},
		},
		{
			name:  "send keeps explicit address",
			reply: `{"type":"SEND","token":"ETH","amount":"0.5","toAddress":"0xabc","network":"Sepolia Testnet"}`,
			want:  models.TransactionPreview{Type: models.TxSend, Token: "ETH", Amount: 0.5, ToAddress: "0xabc", Network: "Sepolia Testnet"},
		},
		{
			name:  "send without address gets placeholder",
			reply: `{"type":"SEND","amount":2}`,
			want:  models.TransactionPreview{Type: models.TxSend, Token: "ETH", Amount: 2, ToAddress: PlaceholderAddress, Network: "Ethereum Mainnet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newInsightFixture(t, replyWith(tt.reply))
			got, err := f.svc.PreviewTransaction(t.Context(), "do it")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPreviewTransactionRejectsUnknownType(t *testing.T) {
	f := newInsightFixture(t, replyWith(`{"type":"STAKE","amount":1}`))
	_, err := f.svc.PreviewTransaction(t.Context(), "stake 1 eth")
	assert.ErrorIs(t, err, models.ErrSynthesis)
}

func TestCacheStats(t *testing.T) {
	f := newInsightFixture(t, replyWith("report"))
	rec := models.MarketRecord{CoinName: "X"}

	f.svc.GenerateReport(t.Context(), rec)
	f.svc.GenerateReport(t.Context(), rec)

	st := f.svc.CacheStats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 0.5, st.HitRate)
	assert.Equal(t, 1, st.Size)
}

func TestAnalyzeAssetTrimsQuery(t *testing.T) {
	f := newInsightFixture(t, replyWith(`{"coinName":"Bitcoin"}`))
	rec, err := f.svc.AnalyzeAsset(t.Context(), "  btc ")
	require.NoError(t, err)
	assert.Equal(t, "BTC", rec.Symbol)
}
