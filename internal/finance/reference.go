package finance

// Reference holds the static tables every stage falls back to. It is built once
// at process start (see config.Load) and passed down by value.
type Reference struct {
	Prices      map[string]float64 `json:"prices"`
	Returns     map[string]float64 `json:"returns"`
	DefaultPlan AllocationPlan     `json:"default_plan"`
}

// DefaultReference returns the built-in snapshot tables.
func DefaultReference() Reference {
	return Reference{
		// Closing prices snapshot, USD.
		Prices: map[string]float64{
			"SPY":  575.00,
			"VOO":  528.00,
			"VTI":  285.00,
			"QQQ":  490.00,
			"BND":  73.50,
			"AGG":  99.80,
			"TIP":  110.20,
			"SCHP": 26.40,
			"SHY":  82.60,
			"IEF":  95.10,
			"TLT":  92.40,
			"VNQ":  90.70,
			"GLD":  245.00,
			"VXUS": 63.20,
			"SCHD": 28.10,
			"XLK":  228.00,
			"XLV":  148.00,
		},
		// Long-run expected annual returns.
		Returns: map[string]float64{
			"SPY":  0.10,
			"VOO":  0.10,
			"VTI":  0.10,
			"QQQ":  0.12,
			"BND":  0.04,
			"AGG":  0.04,
			"TIP":  0.035,
			"SCHP": 0.035,
			"SHY":  0.03,
			"IEF":  0.035,
			"TLT":  0.04,
			"VNQ":  0.08,
			"GLD":  0.05,
			"VXUS": 0.07,
			"SCHD": 0.09,
			"XLK":  0.12,
			"XLV":  0.08,
		},
		DefaultPlan: AllocationPlan{
			Tickers:        []string{"SPY", "BND", "TIP", "VNQ"},
			Weights:        []float64{0.40, 0.30, 0.20, 0.10},
			RiskMultiplier: 1.0,
		},
	}
}

// Merge overlays non-empty tables from o onto r and returns the result.
// Neither input is modified.
func (r Reference) Merge(o Reference) Reference {
	out := Reference{
		Prices:      make(map[string]float64, len(r.Prices)+len(o.Prices)),
		Returns:     make(map[string]float64, len(r.Returns)+len(o.Returns)),
		DefaultPlan: r.DefaultPlan.Clone(),
	}
	for k, v := range r.Prices {
		out.Prices[k] = v
	}
	for k, v := range o.Prices {
		if v > 0 {
			out.Prices[k] = v
		}
	}
	for k, v := range r.Returns {
		out.Returns[k] = v
	}
	for k, v := range o.Returns {
		out.Returns[k] = v
	}
	if len(o.DefaultPlan.Tickers) > 0 && len(o.DefaultPlan.Tickers) == len(o.DefaultPlan.Weights) && o.DefaultPlan.WeightSum() > 0 {
		out.DefaultPlan = normalize(o.DefaultPlan.Clone())
		if out.DefaultPlan.RiskMultiplier <= 0 {
			out.DefaultPlan.RiskMultiplier = 1.0
		}
	}
	return out
}

// defaultPlan returns a private copy of the reference default plan.
func (r Reference) defaultPlan() AllocationPlan {
	if len(r.DefaultPlan.Tickers) == 0 {
		return DefaultReference().DefaultPlan
	}
	return r.DefaultPlan.Clone()
}
