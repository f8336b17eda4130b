package hedge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"visaHedgeBot/internal/finance"
)

// ErrPrimaryAdvisor marks the only failure that reaches the caller: the
// primary advisor could not produce a recommendation.
var ErrPrimaryAdvisor = errors.New("primary advisor failed")

// ErrInvalidInput wraps InputRecord validation failures.
var ErrInvalidInput = errors.New("invalid input")

// Recommender produces plan A's prose.
type Recommender interface {
	Recommend(ctx context.Context, in finance.InputRecord) (string, error)
}

// Validator reviews plan A. Implementations must not fail.
type Validator interface {
	Validate(ctx context.Context, plan finance.AllocationPlan, in finance.InputRecord) finance.ValidationResult
}

// Persister stores the submitted record. Best effort.
type Persister interface {
	SaveRequest(ctx context.Context, in finance.InputRecord) error
}

// Outcome is one plan carried through pricing and projection.
type Outcome struct {
	Label       string                 `json:"label"`
	Plan        finance.AllocationPlan `json:"plan"`
	AdvisorText string                 `json:"advisor_text"`
	Returns     finance.ReturnTable    `json:"returns"`
	Projection  finance.Projection     `json:"projection"`
}

// Result holds both plans side by side. Neither is preferred.
type Result struct {
	Input      finance.InputRecord      `json:"input"`
	PlanA      Outcome                  `json:"plan_a"`
	PlanB      Outcome                  `json:"plan_b"`
	Validation finance.ValidationResult `json:"validation"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Service wires the advisors, price chain and reference tables together.
type Service struct {
	primary   Recommender
	validator Validator
	quotes    finance.QuoteSource
	lookup    finance.TextPriceLookup
	persist   Persister
	ref       finance.Reference
	parser    *finance.Parser
	now       func() time.Time
}

// Options carries the collaborators of a Service. Only Primary is required.
type Options struct {
	Primary   Recommender
	Validator Validator
	Quotes    finance.QuoteSource
	Lookup    finance.TextPriceLookup
	Persist   Persister
	Reference finance.Reference
	Now       func() time.Time
}

func NewService(o Options) *Service {
	ref := o.Reference
	if len(ref.Prices) == 0 && len(ref.Returns) == 0 && len(ref.DefaultPlan.Tickers) == 0 {
		ref = finance.DefaultReference()
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		primary:   o.Primary,
		validator: o.Validator,
		quotes:    o.Quotes,
		lookup:    o.Lookup,
		persist:   o.Persist,
		ref:       ref,
		parser:    finance.NewParser(ref),
		now:       now,
	}
}

// Recommend runs the whole pipeline for one submission.
func (s *Service) Recommend(ctx context.Context, in finance.InputRecord) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	s.save(in)

	if s.primary == nil {
		return Result{}, fmt.Errorf("%w: no primary advisor configured", ErrPrimaryAdvisor)
	}
	textA, err := s.primary.Recommend(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrPrimaryAdvisor, err)
	}
	planA := s.parser.Parse(textA)
	log.Printf("hedge: plan A %v weights %v risk %.2f", planA.Tickers, planA.Weights, planA.RiskMultiplier)

	verdict := finance.AcceptedByDefault("no validator configured")
	if s.validator != nil {
		verdict = s.validator.Validate(ctx, planA.Clone(), in)
	}
	planB := Reconcile(planA, verdict)
	// Plan B shows the validator's answer, but returns are always read from
	// plan A's text: the validator reply quotes weights, not returns.
	textB := verdict.Raw
	if textB == "" {
		textB = textA
	}
	log.Printf("hedge: validator accepted=%v, plan B %v weights %v risk %.2f",
		verdict.Accepted, planB.Tickers, planB.Weights, planB.RiskMultiplier)

	now := s.now()
	horizon := finance.HorizonMonths(in.Expiration, now)
	// one resolver per run keeps both plans on the same prices
	prices := finance.NewResolver(s.ref, s.quotes, s.lookup)

	res := Result{Input: in, Validation: verdict, CreatedAt: now}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.PlanA = s.evaluate(ctx, "A", planA, textA, textA, in, horizon, prices)
	}()
	go func() {
		defer wg.Done()
		res.PlanB = s.evaluate(ctx, "B", planB, textB, textA, in, horizon, prices)
	}()
	wg.Wait()

	return res, nil
}

// evaluate is the shared per-plan pipeline. returnsText is the prose searched
// for quoted ticker returns.
func (s *Service) evaluate(ctx context.Context, label string, plan finance.AllocationPlan, advisorText, returnsText string,
	in finance.InputRecord, horizon float64, prices finance.PriceResolver) Outcome {

	returns := finance.EstimateReturns(plan.Tickers, returnsText, s.ref)
	rate := finance.BlendedRate(plan, returns)
	portfolio := finance.BuildPortfolio(ctx, plan, in.ExpectedCosts, prices)
	fv := finance.Project(in.InvestableCash, in.MonthlyContribution, rate, horizon)

	return Outcome{
		Label:       label,
		Plan:        plan,
		AdvisorText: advisorText,
		Returns:     returns,
		Projection: finance.Projection{
			Portfolio:     portfolio,
			HorizonMonths: horizon,
			AnnualRate:    rate,
			MonthlyRate:   rate / 12,
			FutureValue:   fv,
		},
	}
}

// Reconcile derives plan B from plan A and the validator's overrides. Tickers
// and weights only replace plan A together; the risk multiplier on its own.
func Reconcile(planA finance.AllocationPlan, v finance.ValidationResult) finance.AllocationPlan {
	planB := planA.Clone()
	if len(v.Tickers) > 0 && len(v.Tickers) == len(v.Weights) {
		override := finance.AllocationPlan{Tickers: v.Tickers, Weights: v.Weights, RiskMultiplier: planB.RiskMultiplier}
		if normalized, ok := finance.NormalizePlan(override); ok {
			planB.Tickers = normalized.Tickers
			planB.Weights = normalized.Weights
		} else {
			log.Printf("hedge: validator override %v / %v is unusable, keeping plan A allocation", v.Tickers, v.Weights)
		}
	}
	if v.RiskMultiplier > 0 {
		planB.RiskMultiplier = v.RiskMultiplier
	}
	return planB
}

func (s *Service) save(in finance.InputRecord) {
	if s.persist == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.persist.SaveRequest(ctx, in); err != nil {
			log.Printf("hedge: persist request failed: %v", err)
		}
	}()
}
