package hedge

import (
	"fmt"
	"strings"

	"visaHedgeBot/internal/finance"
)

// Series returns one projected balance curve per plan, ready for charting.
func (r Result) Series() []finance.ProjectionSeries {
	out := make([]finance.ProjectionSeries, 0, 2)
	for _, o := range []Outcome{r.PlanA, r.PlanB} {
		p := o.Projection
		out = append(out, finance.ProjectionSeries{
			Name:   "Plan " + o.Label,
			Points: finance.ProjectSchedule(r.Input.InvestableCash, r.Input.MonthlyContribution, p.AnnualRate, p.HorizonMonths),
		})
	}
	return out
}

// Summary renders the side-by-side comparison as plain text.
func (r Result) Summary() string {
	var b strings.Builder
	in := r.Input
	fmt.Fprintf(&b, "Visa %s expiring %s (%.1f months)\n", in.CurrentVisa, in.Expiration.Format("2006-01-02"), r.PlanA.Projection.HorizonMonths)
	fmt.Fprintf(&b, "Costs %s • cash %s • monthly %s\n",
		finance.FormatUSD(in.ExpectedCosts), finance.FormatUSD(in.InvestableCash), finance.FormatUSD(in.MonthlyContribution))

	for _, o := range []Outcome{r.PlanA, r.PlanB} {
		b.WriteString("\n")
		writeOutcome(&b, o)
	}

	b.WriteString("\n")
	if r.Validation.Accepted {
		b.WriteString("Validator accepted plan A")
	} else {
		b.WriteString("Validator adjusted plan A")
	}
	if e := strings.TrimSpace(r.Validation.Explanation); e != "" {
		b.WriteString(": " + e)
	}
	b.WriteString("\n")
	return b.String()
}

func writeOutcome(b *strings.Builder, o Outcome) {
	p := o.Projection
	fmt.Fprintf(b, "Plan %s (risk x%.2f, %s/yr)\n", o.Label, o.Plan.RiskMultiplier, finance.FormatPercent(p.AnnualRate))
	for _, a := range p.Portfolio {
		fmt.Fprintf(b, "  %-5s %6s  %s @ %s (%s)  %.2f sh\n",
			a.Ticker, finance.FormatPercent(a.Weight), finance.FormatUSD(a.DollarTarget),
			finance.FormatUSD(a.UnitPrice), a.PriceSource, a.SharesNeeded)
	}
	fmt.Fprintf(b, "  Hedge target %s, projected value %s\n", finance.FormatUSD(p.TotalTarget()), finance.FormatUSD(p.FutureValue))
}
