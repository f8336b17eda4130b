package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"visaHedgeBot/internal/finance"
	"visaHedgeBot/internal/hedge"
	"visaHedgeBot/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1).
		MarginBottom(1)

	planStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1).
		Width(64)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	valueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

// RenderResult lays both plans out side by side.
func RenderResult(res hedge.Result) string {
	in := res.Input
	header := titleStyle.Render(fmt.Sprintf("%s until %s", in.CurrentVisa, in.Expiration.Format("2006-01-02")))
	facts := fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("costs"), finance.FormatUSD(in.ExpectedCosts),
		labelStyle.Render("cash"), finance.FormatUSD(in.InvestableCash),
		labelStyle.Render("monthly"), finance.FormatUSD(in.MonthlyContribution))

	plans := lipgloss.JoinHorizontal(lipgloss.Top,
		planStyle.Render(renderOutcome("Plan A · primary", res.PlanA)),
		" ",
		planStyle.Render(renderOutcome("Plan B · validated", res.PlanB)),
	)

	verdict := valueStyle.Render("validator accepted plan A")
	if !res.Validation.Accepted {
		verdict = warnStyle.Render("validator adjusted plan A")
	}
	if e := strings.TrimSpace(res.Validation.Explanation); e != "" {
		verdict += labelStyle.Render(": " + e)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, facts, "", plans, verdict) + "\n"
}

func renderOutcome(title string, o hedge.Outcome) string {
	p := o.Projection
	var b strings.Builder
	b.WriteString(titleStyle.UnsetMarginBottom().Render(title) + "\n")
	fmt.Fprintf(&b, "%s x%.2f   %s %s\n", labelStyle.Render("risk"), o.Plan.RiskMultiplier,
		labelStyle.Render("return"), finance.FormatPercent(p.AnnualRate))
	for _, a := range p.Portfolio {
		fmt.Fprintf(&b, "%-5s %7s %12s  %.2f sh @ %s %s\n", a.Ticker, finance.FormatPercent(a.Weight),
			finance.FormatUSD(a.DollarTarget), a.SharesNeeded, finance.FormatUSD(a.UnitPrice),
			labelStyle.Render(string(a.PriceSource)))
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("hedge target"), finance.FormatUSD(p.TotalTarget()))
	fmt.Fprintf(&b, "%s %s (%.1f months)", labelStyle.Render("projected"), valueStyle.Render(finance.FormatUSD(p.FutureValue)), p.HorizonMonths)
	return b.String()
}

// RenderAdvisorText renders markdown advisor prose for the terminal, falling
// back to the raw text when rendering fails.
func RenderAdvisorText(title, text string, width int) string {
	md := "## " + title + "\n\n" + text
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md + "\n"
	}
	out, err := r.Render(md)
	if err != nil {
		return md + "\n"
	}
	return out
}

// RenderHistory formats saved requests, newest first.
func RenderHistory(reqs []storage.SavedRequest) string {
	if len(reqs) == 0 {
		return labelStyle.Render("no saved requests") + "\n"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Recent hedge requests") + "\n")
	for _, r := range reqs {
		apps := "none"
		if len(r.Input.PendingApplications) > 0 {
			apps = strings.Join(r.Input.PendingApplications, ",")
		}
		fmt.Fprintf(&b, "%s  %-6s exp %s  apps %-14s costs %s  cash %s  monthly %s\n",
			labelStyle.Render(r.CreatedAt.Local().Format("2006-01-02 15:04")),
			r.Input.CurrentVisa, r.Input.Expiration.Format("2006-01-02"), apps,
			finance.FormatUSD(r.Input.ExpectedCosts), finance.FormatUSD(r.Input.InvestableCash),
			finance.FormatUSD(r.Input.MonthlyContribution))
	}
	return b.String()
}

// RenderError styles a fatal message.
func RenderError(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}
