// Package portfolio values holdings with exact decimal arithmetic before any
// model sees them.
package portfolio

import (
	"strings"

	"CryptoInsight/internal/domain/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Summarize values each holding at its current price and computes PnL and
// allocation percentages, rounded to two places. Zero cost or zero total
// value yields 0 for the dependent percentage.
func Summarize(items []models.PortfolioItem) models.PortfolioSummary {
	type position struct {
		item  models.PortfolioItem
		value decimal.Decimal
		cost  decimal.Decimal
	}

	positions := make([]position, 0, len(items))
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for _, it := range items {
		amount := decimal.NewFromFloat(it.Amount)
		p := position{
			item:  it,
			value: amount.Mul(decimal.NewFromFloat(it.CurrentPrice)),
			cost:  amount.Mul(decimal.NewFromFloat(it.AvgPrice)),
		}
		totalValue = totalValue.Add(p.value)
		totalCost = totalCost.Add(p.cost)
		positions = append(positions, p)
	}

	out := models.PortfolioSummary{
		TotalValue: round2(totalValue),
		TotalCost:  round2(totalCost),
		PnLPercent: percentChange(totalCost, totalValue),
		Positions:  make([]models.PositionSummary, 0, len(positions)),
	}
	for _, p := range positions {
		out.Positions = append(out.Positions, models.PositionSummary{
			Asset:        strings.ToUpper(p.item.Symbol),
			Amount:       p.item.Amount,
			AvgPrice:     p.item.AvgPrice,
			CurrentPrice: p.item.CurrentPrice,
			CurrentValue: round2(p.value),
			PnLPercent:   percentChange(decimal.NewFromFloat(p.item.AvgPrice), decimal.NewFromFloat(p.item.CurrentPrice)),
			Allocation:   share(p.value, totalValue),
		})
	}
	return out
}

func percentChange(from, to decimal.Decimal) float64 {
	if !from.IsPositive() {
		return 0
	}
	return round2(to.Sub(from).Div(from).Mul(hundred))
}

func share(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return round2(part.Div(whole).Mul(hundred))
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
