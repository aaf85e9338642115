package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"CryptoInsight/internal/domain/models"
	"CryptoInsight/internal/domain/service"
	"CryptoInsight/internal/services/features"
)

// Agent labels. They are part of the cache key, so renaming one invalidates its cache.
const (
	AgentAggregator  = "crypto_data_aggregator"
	AgentTransaction = "web3_transaction_agent"
	AgentAnalyst     = "market_analyst"
	AgentIntent      = "intent_classifier"
	AgentChat        = "cryptoinsight_chat"
	AgentPortfolio   = "portfolio_analyst"
)

// Fixed replies for narrative failures.
const (
	FallbackReport    = "Unable to generate market report."
	FallbackChat      = "I'm having trouble connecting to the chat service."
	FallbackPortfolio = "Error analyzing portfolio."
)

// UniswapV2Router is used as the counterparty for swap-like previews.
const UniswapV2Router = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"

func obj(required []string, props map[string]*service.Schema) *service.Schema {
	return &service.Schema{Type: service.TypeObject, Properties: props, Required: required}
}

func arr(items *service.Schema) *service.Schema {
	return &service.Schema{Type: service.TypeArray, Items: items}
}

var (
	strT = &service.Schema{Type: service.TypeString}
	numT = &service.Schema{Type: service.TypeNumber}
)

// MarketRecordSchema is the structured shape requested for asset analysis.
var MarketRecordSchema = obj(
	[]string{"coinName", "currentPrice", "summary", "priceHistory", "tokenomics", "sentimentScore", "longShortRatio", "projectScores"},
	map[string]*service.Schema{
		"coinName":     strT,
		"currentPrice": numT,
		"summary":      strT,
		"priceHistory": arr(obj([]string{"time", "price"}, map[string]*service.Schema{
			"time": strT, "price": numT,
		})),
		"tokenomics": arr(obj([]string{"name", "value"}, map[string]*service.Schema{
			"name": strT, "value": {Type: service.TypeNumber, Description: "Percentage of supply (0-100)"},
		})),
		"sentimentScore": {Type: service.TypeNumber, Description: "Fear & Greed value (0-100)"},
		"longShortRatio": arr(obj([]string{"time", "long", "short"}, map[string]*service.Schema{
			"time": strT, "long": numT, "short": numT,
		})),
		"projectScores": arr(obj([]string{"subject", "A", "fullMark"}, map[string]*service.Schema{
			"subject": strT, "A": numT, "fullMark": numT,
		})),
	},
)

// IntentSchema constrains the classifier output.
var IntentSchema = obj([]string{"type"}, map[string]*service.Schema{
	"type": {
		Type: service.TypeString,
		Enum: []string{string(models.IntentAnalyze), string(models.IntentChat), string(models.IntentPortfolioAnalysis), string(models.IntentTransaction)},
	},
	"coinName": strT,
})

// TransactionSchema constrains transaction previews.
var TransactionSchema = obj(
	[]string{"type", "token", "amount", "toAddress", "network", "estimatedGas", "summary"},
	map[string]*service.Schema{
		"type":         {Type: service.TypeString, Enum: []string{string(models.TxSend), string(models.TxSwap), string(models.TxBuy), string(models.TxSell)}},
		"token":        strT,
		"amount":       numT,
		"toAddress":    strT,
		"network":      strT,
		"estimatedGas": strT,
		"summary":      strT,
	},
)

// aggregatorInstruction embeds fetched values. Missing ones are flagged for the model to estimate.
func aggregatorInstruction(pc *models.PartialMarketContext) string {
	symbol := pc.Symbol
	if symbol == "" {
		symbol = "unknown ticker"
	}

	price := "Unavailable, please estimate"
	history := "Unavailable, please generate realistic data"
	trend := "Unavailable"
	if pc.Price != nil {
		price = fmt.Sprintf("$%v", pc.Price.CurrentPrice)
		history = mustJSON(pc.Price.History)
		if t, ok := features.Summarize(pc.Price.History); ok {
			trend = fmt.Sprintf("%+.2f%% over %d points, range $%v to $%v, annualized volatility %.1f%%",
				t.ChangePercent, t.Points, t.Low, t.High, t.Volatility)
		}
	}

	sentiment := fmt.Sprintf("%d", pc.Sentiment)
	if !pc.SentimentLive {
		sentiment += " (neutral default, live index unavailable)"
	}

	positioning := "Unavailable, please generate realistic 50/50ish data"
	if len(pc.Positioning) > 0 {
		positioning = mustJSON(pc.Positioning)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `You are a Crypto Data Aggregator.
I have fetched REAL-TIME data from external APIs.
Your job is to structure this data into the required JSON format and generate the missing pieces (Tokenomics, Project Scores) based on your knowledge of the project.

REAL DATA PROVIDED:
- Coin Name: %s (%s)
- Current Price: %s
- Price History (7D): %s
- Trend: %s
- Market Sentiment (Fear & Greed): %s
- Long/Short Ratio (Binance): %s

INSTRUCTIONS:
1. Use the REAL DATA provided above exactly. Do not change the price history numbers or sentiment score if provided.
2. Generate 'tokenomics': a realistic supply distribution for %s, as percentages.
3. Generate 'projectScores': rate %s on Security, Decentralization, Scalability, Ecosystem, Tokenomics (0-100).
4. Generate 'summary': a 2-sentence analysis referencing the specific price trend and sentiment provided.
`, pc.DisplayName, symbol, price, history, trend, sentiment, positioning, pc.DisplayName, pc.DisplayName)
	return b.String()
}

func aggregatorMessage(name string) string {
	return fmt.Sprintf("Generate the full JSON dashboard data for %s.", name)
}

const analystInstruction = `Act as a senior cryptocurrency market analyst.
Write a "Deep Dive Analysis" based on the provided dataset.

Structure:
- **Market Sentiment & Price Action**: specific comments on the chart and fear/greed index.
- **On-Chain & Derivatives**: comments on Long/Short ratio.
- **Fundamental Health**: comments on project scores and tokenomics.
- **Verdict**: Bullish, Bearish, or Neutral?`

func analystMessage(rec models.MarketRecord) string {
	b, _ := json.MarshalIndent(rec, "", "  ")
	return fmt.Sprintf("Write a Deep Dive Analysis for %s based on this dataset:\n%s", rec.CoinName, b)
}

const intentInstruction = `Classify user intent into one of these categories:
1. New coin analysis (e.g. "Analyze BTC", "How is Solana doing") -> {"type": "ANALYZE", "coinName": "CorrectedName"}
2. Portfolio analysis (e.g. "Check my wallet", "My portfolio") -> {"type": "PORTFOLIO_ANALYSIS"}
3. Transaction request (e.g. "Send 1 ETH", "Swap ETH for USDT", "Buy BTC") -> {"type": "TRANSACTION"}
4. General chat -> {"type": "CHAT"}`

func intentMessage(msg string) string {
	return fmt.Sprintf("Classify intent: %q", msg)
}

const chatInstruction = "You are CryptoInsight AI. You have access to real-time crypto tools."

func chatInstructionWith(ctxData *models.MarketRecord) string {
	if ctxData == nil {
		return chatInstruction
	}
	return fmt.Sprintf("%s\nCURRENT CONTEXT: User is viewing dashboard for %s.\nData: %s", chatInstruction, ctxData.CoinName, mustJSON(ctxData))
}

const portfolioInstruction = `You are a crypto portfolio analyst.
The positions below were already valued; treat the numbers as exact.
Provide:
1. Total Value Breakdown.
2. Performance Check (Comparing Avg Price vs Current Price).
3. Risk Assessment (Diversification).
4. Suggestion for rebalancing.`

func portfolioMessage(s models.PortfolioSummary) string {
	return "Analyze this crypto portfolio: " + mustJSON(s)
}

var transactionInstruction = `You are a Web3 Transaction Agent. Your job is to extract transaction details from the user's natural language request.

Rules:
1. Detect intent: SEND (transfer tokens), SWAP (trade tokens), BUY, SELL.
2. Extract 'token' (default to ETH if unclear but implied) and 'amount'.
3. For 'toAddress':
   - If the user provides a 0x address, use it.
   - If SWAP/BUY/SELL, use the Uniswap V2 Router address: '` + UniswapV2Router + `'.
   - If SEND and no address is provided, use the placeholder '` + PlaceholderAddress + `' and say in the summary that the user must verify it.
4. Network: 'Ethereum Mainnet' or 'Sepolia Testnet' based on context, default 'Ethereum Mainnet'.
5. Estimated Gas: estimate standard ETH gas (e.g. 0.002 ETH).

Example: "Swap 1 ETH for USDT" -> type SWAP, token ETH, amount 1, toAddress router.
Example: "Send 0.5 ETH to 0x123..." -> type SEND, token ETH, amount 0.5, toAddress 0x123...`

// PlaceholderAddress marks a send preview that still needs a recipient.
const PlaceholderAddress = "0x0000000000000000000000000000000000000000"

func transactionMessage(text string) string {
	return fmt.Sprintf("Parse this transaction request: %q", text)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
