package finance

import (
	"math"
	"regexp"
	"strconv"
)

// "SPY: 9.50%" inside advisor prose
var reTickerReturn = regexp.MustCompile(`\b([A-Z]{1,5})\s*:\s*(-?\d+(?:\.\d+)?)\s*%`)

// EstimateReturns resolves one expected annual return per ticker: the advisor's
// own figure when present, else the reference table, else DefaultAnnualReturn.
func EstimateReturns(tickers []string, advisorText string, ref Reference) ReturnTable {
	parsed := parseTickerReturns(sanitize(advisorText))

	out := make(ReturnTable, len(tickers))
	for _, t := range tickers {
		if v, ok := parsed[t]; ok {
			out[t] = v
			continue
		}
		if v, ok := ref.Returns[t]; ok {
			out[t] = v
			continue
		}
		out[t] = DefaultAnnualReturn
	}
	return out
}

func parseTickerReturns(text string) map[string]float64 {
	out := map[string]float64{}
	if text == "" {
		return out
	}
	for _, m := range reTickerReturn.FindAllStringSubmatch(text, -1) {
		pct, err := strconv.ParseFloat(m[2], 64)
		if err != nil || math.IsNaN(pct) || math.IsInf(pct, 0) {
			continue
		}
		// first mention wins
		if _, ok := out[m[1]]; !ok {
			out[m[1]] = pct / 100
		}
	}
	return out
}

// BlendedRate returns the weight-averaged annual return of a plan, falling back
// to DefaultAnnualReturn when the weighted sum is zero.
func BlendedRate(plan AllocationPlan, returns ReturnTable) float64 {
	total := 0.0
	for i, t := range plan.Tickers {
		if i >= len(plan.Weights) {
			break
		}
		total += returns[t] * plan.Weights[i]
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return DefaultAnnualReturn
	}
	return total
}
