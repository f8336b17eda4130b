package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"visaHedgeBot/internal/finance"
)

const recommendSystemPrompt = `You are a financial planner for people living abroad on temporary visas. They must be able to pay for upcoming immigration costs (renewals, green card filings, relocation) while keeping their savings invested.

Recommend a small portfolio of liquid ETFs that hedges the expected costs against market growth before the visa expires.

Your response must contain, for every position, one line in exactly this form:
Asset Class: <TICKER> | Allocation: <NN.NN>%

Then list the expected annual return of each ticker, one per line:
<TICKER>: <X.XX>%

Then exactly one line:
Risk Multiplier: <N.N>

The risk multiplier scales the cost target up when the immigration outcome is uncertain (1.0 means no extra buffer, 1.5 means 50% extra).
Allocations must add up to 100%. After the structured lines, give a short rationale.`

// Recommender asks the primary advisor for a plan.
type Recommender struct {
	gen     Generator
	timeout time.Duration
	now     func() time.Time
}

func NewRecommender(gen Generator, timeout time.Duration) *Recommender {
	return &Recommender{gen: gen, timeout: timeout, now: time.Now}
}

// Recommend returns the advisor's raw prose. Errors are not softened here.
func (r *Recommender) Recommend(ctx context.Context, in finance.InputRecord) (string, error) {
	return Call(ctx, r.gen, r.timeout, recommendSystemPrompt, RecommendPrompt(in, r.now()))
}

// RecommendPrompt renders the user's situation.
func RecommendPrompt(in finance.InputRecord, now time.Time) string {
	pending := "none"
	if len(in.PendingApplications) > 0 {
		pending = strings.Join(in.PendingApplications, ", ")
	}
	var b strings.Builder
	b.WriteString("Analyze this visa situation for investment planning:\n")
	fmt.Fprintf(&b, "- Current Visa: %s\n", in.CurrentVisa)
	fmt.Fprintf(&b, "- Expiration Date: %s\n", in.Expiration.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Pending Applications: %s\n", pending)
	fmt.Fprintf(&b, "- Expected Costs: %s\n", finance.FormatUSD(in.ExpectedCosts))
	fmt.Fprintf(&b, "- Investable Cash: %s\n", finance.FormatUSD(in.InvestableCash))
	fmt.Fprintf(&b, "- Monthly Contribution: %s\n", finance.FormatUSD(in.MonthlyContribution))
	fmt.Fprintf(&b, "- Current Date: %s\n", now.Format("2006-01-02"))
	b.WriteString("Suggest an allocation (e.g. TIP for short-term liquidity, SPY for long-term growth) and a risk multiplier (e.g. 1.5 for high uncertainty).")
	return b.String()
}
