package cli

import (
	"bytes"
	"strings"
	"testing"

	"CryptoInsight/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentimentLabel(t *testing.T) {
	cases := map[int]string{
		0:   "Extreme Fear",
		24:  "Extreme Fear",
		25:  "Fear",
		50:  "Neutral",
		60:  "Greed",
		76:  "Extreme Greed",
		100: "Extreme Greed",
	}
	for score, want := range cases {
		assert.Equal(t, want, sentimentLabel(score), "score %d", score)
	}
}

func TestRenderRecord(t *testing.T) {
	rec := models.MarketRecord{
		CoinName:       "Bitcoin",
		Symbol:         "BTC",
		CurrentPrice:   110,
		SentimentScore: 72,
		Summary:        "Momentum is building.",
		PriceHistory:   []models.PricePoint{{Time: "5/1", Price: 100}, {Time: "5/2", Price: 110}},
		LongShortRatio: []models.LongShortPoint{{Time: "5/2", Long: 60, Short: 40}},
		ProjectScores:  []models.ProjectScore{{Subject: "Security", A: 95, FullMark: 100}},
		Tokenomics:     []models.TokenShare{{Name: "Public", Value: 100}},
	}

	out := renderRecord(rec)
	for _, want := range []string{"Bitcoin (BTC)", "+10.00%", "72 Greed", "60.0% / 40.0%", "Security 95", "Public 100%", "Momentum is building."} {
		assert.Contains(t, out, want)
	}
}

func TestRenderIntent(t *testing.T) {
	assert.Contains(t, renderIntent(models.Intent{Type: models.IntentAnalyze, CoinName: "Solana"}), "Solana")
	assert.Contains(t, renderIntent(models.Intent{Type: models.IntentChat}), "CHAT")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, models.Intent{Type: models.IntentChat}))
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"type\": \"CHAT\""))
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"serve", "analyze", "report", "intent"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.Equal(t, "config/config.yaml", root.PersistentFlags().Lookup("config").DefValue)
}
