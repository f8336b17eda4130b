package hedge

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"visaHedgeBot/internal/finance"
)

var testNow = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

type fakePrimary struct {
	text string
	err  error
}

func (f fakePrimary) Recommend(context.Context, finance.InputRecord) (string, error) {
	return f.text, f.err
}

type fakeValidator struct {
	result finance.ValidationResult
	seen   finance.AllocationPlan
}

func (f *fakeValidator) Validate(_ context.Context, plan finance.AllocationPlan, _ finance.InputRecord) finance.ValidationResult {
	f.seen = plan
	return f.result
}

type noQuotes struct{}

func (noQuotes) Quote(context.Context, string) (float64, error) { return 0, finance.ErrNoQuote }

type spyPersister struct {
	mu    sync.Mutex
	saved []finance.InputRecord
	done  chan struct{}
	err   error
}

func newSpyPersister(err error) *spyPersister {
	return &spyPersister{done: make(chan struct{}, 1), err: err}
}

func (p *spyPersister) SaveRequest(_ context.Context, in finance.InputRecord) error {
	p.mu.Lock()
	p.saved = append(p.saved, in)
	p.mu.Unlock()
	p.done <- struct{}{}
	return p.err
}

func h1bInput() finance.InputRecord {
	return finance.InputRecord{
		CurrentVisa:         "H-1B",
		Expiration:          testNow.AddDate(1, 0, 0),
		PendingApplications: []string{"EB-2"},
		ExpectedCosts:       5000.0,
		InvestableCash:      10000.0,
		MonthlyContribution: 500.0,
	}
}

func newTestService(primary Recommender, validator Validator, persist Persister) *Service {
	return NewService(Options{
		Primary:   primary,
		Validator: validator,
		Quotes:    noQuotes{},
		Persist:   persist,
		Reference: finance.DefaultReference(),
		Now:       func() time.Time { return testNow },
	})
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func TestRecommend_UnparsableProseFallsBackToDefaultPlan(t *testing.T) {
	validator := &fakeValidator{result: finance.AcceptedByDefault("validator unavailable")}
	svc := newTestService(fakePrimary{text: "Markets are uncertain; diversify and stay calm."}, validator, nil)

	res, err := svc.Recommend(context.Background(), h1bInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := finance.DefaultReference().DefaultPlan
	if !res.PlanA.Plan.Equal(def) {
		t.Errorf("expected default plan %+v, got %+v", def, res.PlanA.Plan)
	}
	if len(res.PlanA.Plan.Tickers) != 4 || res.PlanA.Plan.RiskMultiplier != 1.0 {
		t.Errorf("expected 4 tickers at multiplier 1.0, got %+v", res.PlanA.Plan)
	}
	if !res.PlanB.Plan.Equal(res.PlanA.Plan) {
		t.Errorf("expected plan B to equal plan A, got %+v vs %+v", res.PlanB.Plan, res.PlanA.Plan)
	}
	if res.PlanA.Projection.AnnualRate != res.PlanB.Projection.AnnualRate {
		t.Errorf("expected same blended rate, got %v and %v", res.PlanA.Projection.AnnualRate, res.PlanB.Projection.AnnualRate)
	}
	if h := res.PlanA.Projection.HorizonMonths; math.Abs(h-12) > 0.5 {
		t.Errorf("expected horizon near 12 months, got %v", h)
	}
	if res.PlanA.Projection.HorizonMonths != res.PlanB.Projection.HorizonMonths {
		t.Error("expected both plans to share the horizon")
	}
	for _, o := range []Outcome{res.PlanA, res.PlanB} {
		if !finitePositive(o.Projection.FutureValue) {
			t.Errorf("plan %s: expected finite positive future value, got %v", o.Label, o.Projection.FutureValue)
		}
	}
	if validator.seen.Tickers[0] != "SPY" {
		t.Errorf("expected validator to see plan A, got %+v", validator.seen)
	}
}

func TestRecommend_LabelledAdvisorText(t *testing.T) {
	text := "Asset Class: SPY | Allocation: 60.00%\nAsset Class: BND | Allocation: 40.00%\nRisk Multiplier: 1.2\nSPY: 9.00%\nBND: 4.00%"
	svc := newTestService(fakePrimary{text: text}, &fakeValidator{result: finance.AcceptedByDefault("")}, nil)

	res, err := svc.Recommend(context.Background(), h1bInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plan := res.PlanA.Plan
	if strings.Join(plan.Tickers, ",") != "SPY,BND" {
		t.Errorf("expected tickers [SPY BND], got %v", plan.Tickers)
	}
	if len(plan.Weights) != 2 || plan.Weights[0] != 0.6 || plan.Weights[1] != 0.4 {
		t.Errorf("expected weights [0.6 0.4], got %v", plan.Weights)
	}
	if plan.RiskMultiplier != 1.2 {
		t.Errorf("expected risk multiplier 1.2, got %v", plan.RiskMultiplier)
	}

	wantRate := 0.09*0.6 + 0.04*0.4
	if math.Abs(res.PlanA.Projection.AnnualRate-wantRate) > 1e-12 {
		t.Errorf("expected blended rate %v, got %v", wantRate, res.PlanA.Projection.AnnualRate)
	}

	portfolio := res.PlanA.Projection.Portfolio
	if len(portfolio) != 2 || portfolio[0].Ticker != "SPY" || portfolio[1].Ticker != "BND" {
		t.Fatalf("expected portfolio in plan order, got %+v", portfolio)
	}
	if math.Abs(portfolio[0].DollarTarget-3600) > 1e-9 || math.Abs(portfolio[1].DollarTarget-2400) > 1e-9 {
		t.Errorf("expected targets 3600/2400, got %v/%v", portfolio[0].DollarTarget, portfolio[1].DollarTarget)
	}
	if portfolio[0].PriceSource != finance.SourceReference {
		t.Errorf("expected reference price, got %s", portfolio[0].PriceSource)
	}
}

func TestRecommend_AcceptedPlanKeepsQuotedReturns(t *testing.T) {
	text := "Asset Class: SPY | Allocation: 60.00%\nAsset Class: BND | Allocation: 40.00%\nSPY: 9.00%\nBND: 4.00%"
	validator := &fakeValidator{result: finance.ValidationResult{
		Accepted:    true,
		Explanation: "fine, weights SPY: 60.00% BND: 40.00% look balanced",
		Raw:         `{"accepted": true, "explanation": "fine, weights SPY: 60.00% BND: 40.00% look balanced"}`,
	}}
	svc := newTestService(fakePrimary{text: text}, validator, nil)

	res, err := svc.Recommend(context.Background(), h1bInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.PlanA.Plan.Equal(res.PlanB.Plan) {
		t.Fatalf("expected identical plans, got %+v vs %+v", res.PlanA.Plan, res.PlanB.Plan)
	}
	if res.PlanA.Projection.AnnualRate != res.PlanB.Projection.AnnualRate {
		t.Errorf("expected same blended rate, got %v and %v", res.PlanA.Projection.AnnualRate, res.PlanB.Projection.AnnualRate)
	}
	if res.PlanA.Projection.FutureValue != res.PlanB.Projection.FutureValue {
		t.Errorf("expected same future value, got %v and %v", res.PlanA.Projection.FutureValue, res.PlanB.Projection.FutureValue)
	}
	if got := res.PlanB.Returns["SPY"]; got != 0.09 {
		t.Errorf("expected plan B to keep the quoted SPY return 0.09, got %v", got)
	}
	if res.PlanB.AdvisorText != validator.result.Raw {
		t.Errorf("expected plan B text from validator, got %q", res.PlanB.AdvisorText)
	}
}

func TestRecommend_ValidatorOverride(t *testing.T) {
	text := "Asset Class: SPY | Allocation: 100%\nRisk Multiplier: 1.0"
	validator := &fakeValidator{result: finance.ValidationResult{
		Accepted:       false,
		Explanation:    "too aggressive for a 12 month horizon",
		Tickers:        []string{"TIP", "BND"},
		Weights:        []float64{3, 1},
		RiskMultiplier: 1.5,
		Raw:            `{"accepted": false}`,
	}}
	svc := newTestService(fakePrimary{text: text}, validator, nil)

	res, err := svc.Recommend(context.Background(), h1bInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := res.PlanB.Plan
	if strings.Join(b.Tickers, ",") != "TIP,BND" {
		t.Errorf("expected override tickers, got %v", b.Tickers)
	}
	if b.Weights[0] != 0.75 || b.Weights[1] != 0.25 {
		t.Errorf("expected normalized weights [0.75 0.25], got %v", b.Weights)
	}
	if b.RiskMultiplier != 1.5 {
		t.Errorf("expected multiplier 1.5, got %v", b.RiskMultiplier)
	}
	if res.PlanB.AdvisorText != `{"accepted": false}` {
		t.Errorf("expected plan B text from validator, got %q", res.PlanB.AdvisorText)
	}
	if got := res.PlanB.Projection.TotalTarget(); math.Abs(got-7500) > 1e-9 {
		t.Errorf("expected plan B target 7500, got %v", got)
	}
	if strings.Join(res.PlanA.Plan.Tickers, ",") != "SPY" {
		t.Errorf("expected plan A untouched, got %v", res.PlanA.Plan.Tickers)
	}
}

func TestRecommend_PrimaryFailureIsFatal(t *testing.T) {
	persist := newSpyPersister(nil)
	svc := newTestService(fakePrimary{err: errors.New("401 unauthorized")}, &fakeValidator{}, persist)

	res, err := svc.Recommend(context.Background(), h1bInput())
	if !errors.Is(err, ErrPrimaryAdvisor) {
		t.Fatalf("expected ErrPrimaryAdvisor, got %v", err)
	}
	if len(res.PlanA.Plan.Tickers) != 0 {
		t.Errorf("expected no result, got %+v", res)
	}

	select {
	case <-persist.done:
	case <-time.After(time.Second):
		t.Fatal("expected the record to be persisted before the advisor call")
	}
}

func TestRecommend_PersistFailureIgnored(t *testing.T) {
	persist := newSpyPersister(errors.New("disk full"))
	svc := newTestService(fakePrimary{text: "nothing useful"}, &fakeValidator{result: finance.AcceptedByDefault("")}, persist)

	if _, err := svc.Recommend(context.Background(), h1bInput()); err != nil {
		t.Fatalf("expected persistence failure to be absorbed, got %v", err)
	}
	select {
	case <-persist.done:
	case <-time.After(time.Second):
		t.Fatal("expected SaveRequest to be called")
	}
	persist.mu.Lock()
	defer persist.mu.Unlock()
	if persist.saved[0].CurrentVisa != "H-1B" {
		t.Errorf("expected saved record, got %+v", persist.saved[0])
	}
}

func TestRecommend_InvalidInput(t *testing.T) {
	svc := newTestService(fakePrimary{text: "x"}, nil, nil)
	in := h1bInput()
	in.ExpectedCosts = -1

	if _, err := svc.Recommend(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRecommend_PastExpirationProjectsNegativeHorizon(t *testing.T) {
	svc := newTestService(fakePrimary{text: "hold cash"}, nil, nil)
	in := h1bInput()
	in.Expiration = testNow.AddDate(0, 0, -60)

	res, err := svc.Recommend(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PlanA.Projection.HorizonMonths != -2 {
		t.Errorf("expected horizon -2, got %v", res.PlanA.Projection.HorizonMonths)
	}
	fv := res.PlanA.Projection.FutureValue
	if math.IsNaN(fv) || math.IsInf(fv, 0) {
		t.Errorf("expected finite future value, got %v", fv)
	}
}

func TestReconcile(t *testing.T) {
	planA := finance.AllocationPlan{Tickers: []string{"SPY", "BND"}, Weights: []float64{0.6, 0.4}, RiskMultiplier: 1.2}

	if got := Reconcile(planA, finance.AcceptedByDefault("")); !got.Equal(planA) {
		t.Errorf("expected plan A for no override, got %+v", got)
	}

	onlyRisk := Reconcile(planA, finance.ValidationResult{RiskMultiplier: 2})
	if onlyRisk.RiskMultiplier != 2 || strings.Join(onlyRisk.Tickers, ",") != "SPY,BND" {
		t.Errorf("expected only the multiplier to change, got %+v", onlyRisk)
	}

	bad := Reconcile(planA, finance.ValidationResult{Tickers: []string{"TIP"}, Weights: []float64{0}})
	if !bad.Equal(planA) {
		t.Errorf("expected zero-weight override to be ignored, got %+v", bad)
	}

	planA.Tickers[0] = "QQQ"
	if onlyRisk.Tickers[0] != "SPY" {
		t.Error("expected reconcile to copy plan A")
	}
}
