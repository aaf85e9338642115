// Package features derives trend statistics from a daily price series.
package features

import (
	"math"

	"CryptoInsight/internal/domain/models"
)

// DailyBarsPerYear annualizes daily returns. Crypto trades every day.
const DailyBarsPerYear = 365

// Trend summarizes a price series.
type Trend struct {
	Points        int
	ChangePercent float64
	High          float64
	Low           float64
	// Volatility is annualized realized volatility in percent; 0 with fewer than three points.
	Volatility float64
}

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// It returns a slice of length len(points)-1, or nil if insufficient data.
func ComputeLogReturns(points []models.PricePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	out := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price
		cur := points[i].Price
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over the last
// window returns using the provided number of bars per year.
func RealizedVolatility(logReturns []float64, window int, barsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum := 0.0
	sum2 := 0.0
	for i := len(logReturns) - window; i < len(logReturns); i++ {
		r := logReturns[i]
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	// annualize
	return math.Sqrt(variance * barsPerYear)
}

// Summarize computes the trend of a daily series. ok is false for fewer
// than two points.
func Summarize(points []models.PricePoint) (t Trend, ok bool) {
	if len(points) < 2 {
		return Trend{}, false
	}
	t.Points = len(points)
	t.High, t.Low = points[0].Price, points[0].Price
	for _, p := range points[1:] {
		t.High = math.Max(t.High, p.Price)
		t.Low = math.Min(t.Low, p.Price)
	}
	if first := points[0].Price; first > 0 {
		t.ChangePercent = (points[len(points)-1].Price - first) / first * 100
	}
	returns := ComputeLogReturns(points)
	t.Volatility = RealizedVolatility(returns, len(returns), DailyBarsPerYear) * 100
	return t, true
}
