package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultAnnualReturn is used for tickers missing from every return source
// and as the blended rate when a plan's weighted return sums to zero.
const DefaultAnnualReturn = 0.07

// DefaultUnitPrice is the last resort of the price chain.
const DefaultUnitPrice = 100.0

// weightTolerance bounds how far a weight sum may drift from 1.0 before it is rescaled.
const weightTolerance = 1e-9

// ErrNoQuote is returned by a QuoteSource that has no data for a ticker.
var ErrNoQuote = errors.New("no quote available")

// InputRecord is one user submission. It is built once by a transport layer and
// only read afterwards.
type InputRecord struct {
	CurrentVisa         string    `json:"current_visa"`
	Expiration          time.Time `json:"expiration_date"`
	PendingApplications []string  `json:"pending_applications"`
	ExpectedCosts       float64   `json:"expected_costs"`
	InvestableCash      float64   `json:"investable_cash"`
	MonthlyContribution float64   `json:"monthly_contributions"`
}

// Validate checks the fields a transport layer collected.
func (r InputRecord) Validate() error {
	if strings.TrimSpace(r.CurrentVisa) == "" {
		return fmt.Errorf("current visa is required")
	}
	if r.Expiration.IsZero() {
		return fmt.Errorf("expiration date is required")
	}
	if r.ExpectedCosts < 0 {
		return fmt.Errorf("expected costs must be non-negative, got %.2f", r.ExpectedCosts)
	}
	if r.InvestableCash < 0 {
		return fmt.Errorf("investable cash must be non-negative, got %.2f", r.InvestableCash)
	}
	if r.MonthlyContribution < 0 {
		return fmt.Errorf("monthly contribution must be non-negative, got %.2f", r.MonthlyContribution)
	}
	return nil
}

// AllocationPlan is the structured form of an advisor recommendation.
// Tickers and Weights are aligned by index.
type AllocationPlan struct {
	Tickers        []string  `json:"tickers"`
	Weights        []float64 `json:"weights"`
	RiskMultiplier float64   `json:"risk_multiplier"`
}

// Clone returns a deep copy so callers never share backing arrays.
func (p AllocationPlan) Clone() AllocationPlan {
	return AllocationPlan{
		Tickers:        append([]string(nil), p.Tickers...),
		Weights:        append([]float64(nil), p.Weights...),
		RiskMultiplier: p.RiskMultiplier,
	}
}

// WeightSum returns the sum of the plan weights.
func (p AllocationPlan) WeightSum() float64 {
	total := 0.0
	for _, w := range p.Weights {
		total += w
	}
	return total
}

// Equal reports whether two plans carry the same tickers, weights and multiplier.
func (p AllocationPlan) Equal(o AllocationPlan) bool {
	if len(p.Tickers) != len(o.Tickers) || len(p.Weights) != len(o.Weights) {
		return false
	}
	for i := range p.Tickers {
		if p.Tickers[i] != o.Tickers[i] {
			return false
		}
	}
	for i := range p.Weights {
		if p.Weights[i] != o.Weights[i] {
			return false
		}
	}
	return p.RiskMultiplier == o.RiskMultiplier
}

// ReturnTable maps a ticker to its expected annual return as a fraction.
type ReturnTable map[string]float64

// PriceSource names the stage of the price chain that produced a unit price.
type PriceSource string

const (
	SourceLive      PriceSource = "live"
	SourceReference PriceSource = "reference"
	SourceAdvisor   PriceSource = "advisor"
	SourceDefault   PriceSource = "default"
)

// PricedAsset is one line of a built portfolio.
type PricedAsset struct {
	Ticker       string      `json:"ticker"`
	Weight       float64     `json:"weight"`
	UnitPrice    float64     `json:"unit_price"`
	PriceSource  PriceSource `json:"price_source"`
	DollarTarget float64     `json:"dollar_target"`
	SharesNeeded float64     `json:"shares_needed"`
}

// ValidationResult is the validator's verdict on a plan. Empty override
// fields mean "keep the original plan's value".
type ValidationResult struct {
	Accepted       bool      `json:"accepted"`
	Explanation    string    `json:"explanation"`
	Tickers        []string  `json:"tickers,omitempty"`
	Weights        []float64 `json:"weights,omitempty"`
	RiskMultiplier float64   `json:"risk_multiplier,omitempty"`
	// Raw is the validator's unparsed response, used as plan B's advisor text.
	Raw string `json:"-"`
}

// AcceptedByDefault is the verdict used whenever the validator is unreachable
// or its answer cannot be understood.
func AcceptedByDefault(reason string) ValidationResult {
	return ValidationResult{Accepted: true, Explanation: reason}
}

// Projection is the terminal output for one plan.
type Projection struct {
	Portfolio     []PricedAsset `json:"portfolio"`
	HorizonMonths float64       `json:"horizon_months"`
	AnnualRate    float64       `json:"annual_rate"`
	MonthlyRate   float64       `json:"monthly_rate"`
	FutureValue   float64       `json:"future_value"`
}

// TotalTarget sums the dollar targets of the projection's portfolio.
func (p Projection) TotalTarget() float64 {
	total := 0.0
	for _, a := range p.Portfolio {
		total += a.DollarTarget
	}
	return total
}
