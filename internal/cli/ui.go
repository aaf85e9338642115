package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"CryptoInsight/internal/domain/models"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(16)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	fearStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	greedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	calmStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
)

// sentimentLabel buckets a Fear & Greed score the way alternative.me does.
func sentimentLabel(score int) string {
	switch {
	case score <= 24:
		return "Extreme Fear"
	case score <= 44:
		return "Fear"
	case score <= 55:
		return "Neutral"
	case score <= 75:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}

func sentimentStyle(score int) lipgloss.Style {
	switch {
	case score <= 44:
		return fearStyle
	case score <= 55:
		return calmStyle
	default:
		return greedStyle
	}
}

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

func renderRecord(rec models.MarketRecord) string {
	title := rec.CoinName
	if rec.Symbol != "" {
		title = fmt.Sprintf("%s (%s)", rec.CoinName, rec.Symbol)
	}

	lines := []string{
		titleStyle.Render(title),
		row("Price", fmt.Sprintf("$%.4f", rec.CurrentPrice)),
		row("Sentiment", sentimentStyle(rec.SentimentScore).Render(fmt.Sprintf("%d %s", rec.SentimentScore, sentimentLabel(rec.SentimentScore)))),
	}
	if n := len(rec.PriceHistory); n > 1 {
		first, last := rec.PriceHistory[0].Price, rec.PriceHistory[n-1].Price
		if first > 0 {
			lines = append(lines, row(fmt.Sprintf("%d-point move", n), fmt.Sprintf("%+.2f%%", (last-first)/first*100)))
		}
	}
	if n := len(rec.LongShortRatio); n > 0 {
		p := rec.LongShortRatio[n-1]
		lines = append(lines, row("Long/Short", fmt.Sprintf("%.1f%% / %.1f%% (%s)", p.Long, p.Short, p.Time)))
	}
	if len(rec.ProjectScores) > 0 {
		parts := make([]string, 0, len(rec.ProjectScores))
		for _, s := range rec.ProjectScores {
			parts = append(parts, fmt.Sprintf("%s %.0f", s.Subject, s.A))
		}
		lines = append(lines, row("Scores", strings.Join(parts, ", ")))
	}
	if len(rec.Tokenomics) > 0 {
		parts := make([]string, 0, len(rec.Tokenomics))
		for _, t := range rec.Tokenomics {
			parts = append(parts, fmt.Sprintf("%s %.0f%%", t.Name, t.Value))
		}
		label := "Tokenomics"
		if rec.TokenomicsPlaceholder {
			label = "Tokenomics*"
		}
		lines = append(lines, row(label, strings.Join(parts, ", ")))
	}
	if rec.Summary != "" {
		lines = append(lines, "", rec.Summary)
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func renderIntent(in models.Intent) string {
	if in.CoinName != "" {
		return titleStyle.Render(string(in.Type)) + " " + in.CoinName
	}
	return titleStyle.Render(string(in.Type))
}

// renderMarkdown falls back to the raw text when the terminal renderer fails.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
