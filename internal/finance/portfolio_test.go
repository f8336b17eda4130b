package finance

import (
	"context"
	"math"
	"testing"
)

type fixedPrices map[string]float64

func (f fixedPrices) Resolve(_ context.Context, ticker string) ResolvedPrice {
	if p, ok := f[ticker]; ok {
		return ResolvedPrice{Price: p, Source: SourceReference}
	}
	return ResolvedPrice{Price: DefaultUnitPrice, Source: SourceDefault}
}

func TestBuildPortfolio(t *testing.T) {
	plan := AllocationPlan{Tickers: []string{"SPY", "BND", "ZZZ"}, Weights: []float64{0.5, 0.3, 0.2}, RiskMultiplier: 1.5}
	prices := fixedPrices{"SPY": 500, "BND": 75}

	got := BuildPortfolio(context.Background(), plan, 10000, prices)
	if len(got) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(got))
	}

	want := []struct {
		ticker string
		target float64
		shares float64
	}{
		{"SPY", 7500, 15},
		{"BND", 4500, 60},
		{"ZZZ", 3000, 30},
	}
	for i, w := range want {
		a := got[i]
		if a.Ticker != w.ticker {
			t.Errorf("position %d: expected %s, got %s", i, w.ticker, a.Ticker)
		}
		if math.Abs(a.DollarTarget-w.target) > 1e-9 {
			t.Errorf("%s: expected target %v, got %v", w.ticker, w.target, a.DollarTarget)
		}
		if math.Abs(a.SharesNeeded-w.shares) > 1e-9 {
			t.Errorf("%s: expected %v shares, got %v", w.ticker, w.shares, a.SharesNeeded)
		}
	}
	if got[2].PriceSource != SourceDefault {
		t.Errorf("expected ZZZ on default price, got %s", got[2].PriceSource)
	}
}

func TestBuildPortfolioUsesWeightShare(t *testing.T) {
	// weights that were never normalized still split the target proportionally
	plan := AllocationPlan{Tickers: []string{"A", "B"}, Weights: []float64{3, 1}, RiskMultiplier: 1}
	got := BuildPortfolio(context.Background(), plan, 1000, fixedPrices{})
	if got[0].DollarTarget != 750 || got[1].DollarTarget != 250 {
		t.Errorf("expected 750/250, got %v/%v", got[0].DollarTarget, got[1].DollarTarget)
	}
}

func TestBuildPortfolioZeroCost(t *testing.T) {
	plan := DefaultReference().DefaultPlan
	for _, a := range BuildPortfolio(context.Background(), plan, 0, fixedPrices{}) {
		if a.DollarTarget != 0 || a.SharesNeeded != 0 {
			t.Errorf("%s: expected zero sizing, got %+v", a.Ticker, a)
		}
	}
}

func TestBuildPortfolioRejectsMisalignedPlan(t *testing.T) {
	plan := AllocationPlan{Tickers: []string{"SPY", "BND"}, Weights: []float64{1}}
	if got := BuildPortfolio(context.Background(), plan, 100, fixedPrices{}); got != nil {
		t.Errorf("expected nil for misaligned plan, got %+v", got)
	}
}
