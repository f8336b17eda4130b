package finance

import (
	"context"
	"log"
	"math"
	"sync"
)

// PriceResolver is satisfied by *Resolver and by test doubles.
type PriceResolver interface {
	Resolve(ctx context.Context, ticker string) ResolvedPrice
}

// BuildPortfolio sizes each plan line against the cost target scaled by the
// plan's risk multiplier. Prices are resolved concurrently; output order
// follows plan order.
func BuildPortfolio(ctx context.Context, plan AllocationPlan, costTarget float64, prices PriceResolver) []PricedAsset {
	if len(plan.Tickers) == 0 || len(plan.Tickers) != len(plan.Weights) {
		log.Printf("portfolio: refusing misaligned plan (%d tickers, %d weights)", len(plan.Tickers), len(plan.Weights))
		return nil
	}

	multiplier := plan.RiskMultiplier
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		multiplier = 1.0
	}
	adjusted := costTarget * multiplier

	sum := plan.WeightSum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		log.Printf("portfolio: weight sum %v is unusable, splitting evenly", sum)
	}

	assets := make([]PricedAsset, len(plan.Tickers))
	var wg sync.WaitGroup
	for i, ticker := range plan.Tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()

			share := 1.0 / float64(len(plan.Tickers))
			if sum > 0 && !math.IsNaN(sum) && !math.IsInf(sum, 0) {
				share = plan.Weights[i] / sum
			}
			target := adjusted * share
			if target < 0 || math.IsNaN(target) {
				target = 0
			}

			rp := prices.Resolve(ctx, ticker)
			shares := 0.0
			if rp.Price > 0 {
				shares = target / rp.Price
			}

			assets[i] = PricedAsset{
				Ticker:       ticker,
				Weight:       plan.Weights[i],
				UnitPrice:    rp.Price,
				PriceSource:  rp.Source,
				DollarTarget: target,
				SharesNeeded: shares,
			}
		}(i, ticker)
	}
	wg.Wait()

	return assets
}
