package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"

	"visaHedgeBot/internal/finance"
)

// Answers holds the raw recommend inputs, from flags or prompts.
type Answers struct {
	Visa         string
	Expiration   string
	Applications string
	Costs        string
	Cash         string
	Monthly      string
}

// Input parses the answers into an InputRecord.
func (a Answers) Input() (finance.InputRecord, error) {
	exp, err := time.Parse("2006-01-02", strings.TrimSpace(a.Expiration))
	if err != nil {
		return finance.InputRecord{}, fmt.Errorf("expiration must be YYYY-MM-DD, got %q", a.Expiration)
	}
	in := finance.InputRecord{
		CurrentVisa:         strings.TrimSpace(a.Visa),
		Expiration:          exp,
		PendingApplications: splitApplications(a.Applications),
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"expected costs", a.Costs, &in.ExpectedCosts},
		{"investable cash", a.Cash, &in.InvestableCash},
		{"monthly contribution", a.Monthly, &in.MonthlyContribution},
	} {
		v, err := parseAmount(f.raw)
		if err != nil {
			return finance.InputRecord{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	if err := in.Validate(); err != nil {
		return finance.InputRecord{}, err
	}
	return in, nil
}

// PromptMissing asks for every empty answer.
func PromptMissing(a *Answers) error {
	var qs []*survey.Question
	if strings.TrimSpace(a.Visa) == "" {
		qs = append(qs, &survey.Question{
			Name: "visa",
			Prompt: &survey.Select{
				Message: "Current visa:",
				Options: []string{"H-1B", "F-1", "L-1", "O-1", "E-2", "TN", "J-1", "Other"},
				Default: "H-1B",
			},
		})
	}
	if strings.TrimSpace(a.Expiration) == "" {
		qs = append(qs, &survey.Question{
			Name: "expiration",
			Prompt: &survey.Input{
				Message: "Expiration date (YYYY-MM-DD):",
				Default: time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
			},
			Validate: func(val interface{}) error {
				if _, err := time.Parse("2006-01-02", strings.TrimSpace(val.(string))); err != nil {
					return fmt.Errorf("invalid date format, use YYYY-MM-DD")
				}
				return nil
			},
		})
	}
	if a.Applications == "" {
		qs = append(qs, &survey.Question{
			Name: "applications",
			Prompt: &survey.Input{
				Message: "Pending applications (comma-separated, - for none):",
				Default: "-",
			},
		})
	}
	for _, f := range []struct{ name, msg, val string }{
		{"costs", "Expected immigration costs (USD):", a.Costs},
		{"cash", "Investable cash (USD):", a.Cash},
		{"monthly", "Monthly contribution (USD):", a.Monthly},
	} {
		if strings.TrimSpace(f.val) != "" {
			continue
		}
		qs = append(qs, &survey.Question{
			Name:     f.name,
			Prompt:   &survey.Input{Message: f.msg, Default: "0"},
			Validate: amountValidator,
		})
	}
	if len(qs) == 0 {
		return nil
	}

	ans := struct {
		Visa         string
		Expiration   string
		Applications string
		Costs        string
		Cash         string
		Monthly      string
	}{}
	if err := survey.Ask(qs, &ans); err != nil {
		return err
	}
	fill(&a.Visa, ans.Visa)
	fill(&a.Expiration, ans.Expiration)
	fill(&a.Applications, ans.Applications)
	fill(&a.Costs, ans.Costs)
	fill(&a.Cash, ans.Cash)
	fill(&a.Monthly, ans.Monthly)
	return nil
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func amountValidator(val interface{}) error {
	s, _ := val.(string)
	v, err := parseAmount(s)
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("amount must be non-negative")
	}
	return nil
}

func parseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(raw), "$"), ",", "")
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return d.InexactFloat64(), nil
}

func splitApplications(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" || strings.EqualFold(raw, "none") {
		return nil
	}
	var out []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
