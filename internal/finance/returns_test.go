package finance

import (
	"math"
	"testing"
)

func TestEstimateReturnsCoversEveryTicker(t *testing.T) {
	tickers := []string{"SPY", "BND", "ZZZZ", "QQQ"}
	texts := []string{
		"",
		"SPY: 9.5%\nQQQ: -2%",
		"garbage %%% :::",
		"SPY: 12%\nSPY: 3%",
	}
	for _, text := range texts {
		got := EstimateReturns(tickers, text, DefaultReference())
		if len(got) != len(tickers) {
			t.Errorf("expected %d entries, got %d for %q", len(tickers), len(got), text)
		}
		for _, tk := range tickers {
			if _, ok := got[tk]; !ok {
				t.Errorf("missing %s for %q", tk, text)
			}
		}
	}
}

func TestEstimateReturnsPrecedence(t *testing.T) {
	ref := DefaultReference()
	got := EstimateReturns([]string{"SPY", "BND", "ZZZZ"}, "**SPY**: 9.5%\nSPY: 1%", ref)

	if math.Abs(got["SPY"]-0.095) > 1e-12 {
		t.Errorf("expected first advisor value 0.095 for SPY, got %v", got["SPY"])
	}
	if got["BND"] != ref.Returns["BND"] {
		t.Errorf("expected reference return %v for BND, got %v", ref.Returns["BND"], got["BND"])
	}
	if got["ZZZZ"] != DefaultAnnualReturn {
		t.Errorf("expected generic default for ZZZZ, got %v", got["ZZZZ"])
	}
}

func TestBlendedRate(t *testing.T) {
	plan := AllocationPlan{Tickers: []string{"SPY", "BND"}, Weights: []float64{0.5, 0.5}}
	if got := BlendedRate(plan, ReturnTable{"SPY": 0.1, "BND": 0.04}); math.Abs(got-0.07) > 1e-12 {
		t.Errorf("expected 0.07, got %v", got)
	}
	if got := BlendedRate(plan, ReturnTable{"SPY": 0, "BND": 0}); got != DefaultAnnualReturn {
		t.Errorf("expected fallback for all-zero returns, got %v", got)
	}
	if got := BlendedRate(AllocationPlan{}, ReturnTable{}); got != DefaultAnnualReturn {
		t.Errorf("expected fallback for empty plan, got %v", got)
	}
}
