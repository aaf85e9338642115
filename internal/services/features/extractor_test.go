package features

import (
	"math"
	"testing"

	"CryptoInsight/internal/domain/models"
)

func series(prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Price: p}
	}
	return out
}

func TestComputeLogReturns(t *testing.T) {
	got := ComputeLogReturns(series(100, 110, 0, 121))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if math.Abs(got[0]-math.Log(1.1)) > 1e-12 {
		t.Fatalf("r0 = %v", got[0])
	}
	if got[1] != 0 || got[2] != 0 {
		t.Fatalf("non-positive prices should yield zero returns, got %v", got[1:])
	}
	if ComputeLogReturns(series(1)) != nil {
		t.Fatal("expected nil for a single point")
	}
}

func TestRealizedVolatilityFlatSeries(t *testing.T) {
	r := ComputeLogReturns(series(10, 10, 10, 10))
	if v := RealizedVolatility(r, len(r), DailyBarsPerYear); v != 0 {
		t.Fatalf("flat series volatility = %v, want 0", v)
	}
	if v := RealizedVolatility(r, 10, DailyBarsPerYear); v != 0 {
		t.Fatalf("window longer than data should yield 0, got %v", v)
	}
}

func TestSummarize(t *testing.T) {
	tr, ok := Summarize(series(100, 120, 90, 110))
	if !ok {
		t.Fatal("expected ok")
	}
	if tr.Points != 4 || tr.High != 120 || tr.Low != 90 {
		t.Fatalf("unexpected trend %+v", tr)
	}
	if math.Abs(tr.ChangePercent-10) > 1e-9 {
		t.Fatalf("ChangePercent = %v, want 10", tr.ChangePercent)
	}
	if tr.Volatility <= 0 {
		t.Fatalf("Volatility = %v, want > 0", tr.Volatility)
	}

	if _, ok := Summarize(series(5)); ok {
		t.Fatal("single point should not summarize")
	}
}
