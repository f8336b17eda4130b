package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"

	"visaHedgeBot/internal/finance"
)

const validateSystemPrompt = `You review investment plans written by another advisor for visa holders hedging immigration costs.
Answer with one JSON object and nothing else:
{"accepted": true|false, "explanation": "<one or two sentences>", "tickers": ["..."], "weights": [0.0], "risk_multiplier": 0.0}
When you accept the plan, leave tickers, weights and risk_multiplier empty or zero.
When you reject it, give your replacement tickers with weights as fractions that add up to 1, and a risk multiplier.`

// Validator asks a second advisor to review a plan. It never fails: an
// unreachable advisor or an unreadable answer yields an accepted verdict.
type Validator struct {
	gen     Generator
	timeout time.Duration
	now     func() time.Time
}

func NewValidator(gen Generator, timeout time.Duration) *Validator {
	return &Validator{gen: gen, timeout: timeout, now: time.Now}
}

func (v *Validator) Validate(ctx context.Context, plan finance.AllocationPlan, in finance.InputRecord) finance.ValidationResult {
	raw, err := Call(ctx, v.gen, v.timeout, validateSystemPrompt, validatePrompt(plan, in, v.now()))
	if err != nil {
		log.Printf("validator: %v, accepting plan as is", err)
		return finance.AcceptedByDefault("validator unavailable")
	}
	res, err := ParseValidation(raw)
	if err != nil {
		log.Printf("validator: %v, accepting plan as is", err)
		res = finance.AcceptedByDefault("validator response unreadable")
	}
	res.Raw = raw
	return res
}

func validatePrompt(plan finance.AllocationPlan, in finance.InputRecord, now time.Time) string {
	var b strings.Builder
	b.WriteString(RecommendPrompt(in, now))
	b.WriteString("\n\nProposed plan:\n")
	for i, t := range plan.Tickers {
		fmt.Fprintf(&b, "- %s: %.2f%%\n", t, plan.Weights[i]*100)
	}
	fmt.Fprintf(&b, "Risk Multiplier: %.2f\n", plan.RiskMultiplier)
	b.WriteString("Is this plan appropriate for the situation above?")
	return b.String()
}

// ParseValidation extracts a verdict from an answer that may wrap the JSON
// object in code fences or prose.
func ParseValidation(raw string) (finance.ValidationResult, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return finance.ValidationResult{}, err
	}
	var obj any
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return finance.ValidationResult{}, fmt.Errorf("decode verdict: %w", err)
	}

	acc, ok := scalar(obj, "accepted")
	if !ok {
		return finance.ValidationResult{}, fmt.Errorf("verdict has no accepted field")
	}
	accepted, ok := asBool(acc)
	if !ok {
		return finance.ValidationResult{}, fmt.Errorf("accepted is not a boolean: %v", acc)
	}

	res := finance.ValidationResult{Accepted: accepted}
	if e, ok := scalar(obj, "explanation"); ok {
		if s, ok := e.(string); ok {
			res.Explanation = strings.TrimSpace(s)
		}
	}
	if rm, ok := scalar(obj, "risk_multiplier"); ok {
		if f, ok := asFloat(rm); ok && f > 0 {
			res.RiskMultiplier = f
		}
	}

	tickers := stringList(list(obj, "tickers"))
	weights := floatList(list(obj, "weights"))
	if len(tickers) > 0 && len(tickers) == len(weights) {
		total := 0.0
		for _, w := range weights {
			total += w
		}
		// percentages slipped through
		if total > 1.5 {
			for i := range weights {
				weights[i] /= 100
			}
		}
		res.Tickers = tickers
		res.Weights = weights
	} else if len(tickers) > 0 || len(weights) > 0 {
		log.Printf("validator: ignoring misaligned override (%d tickers, %d weights)", len(tickers), len(weights))
	}
	return res, nil
}

func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in validator response")
	}
	return s[start : end+1], nil
}

// scalar looks a key up at the top level first, then anywhere in the tree.
func scalar(obj any, key string) (any, bool) {
	for _, path := range []string{"$." + key, "$.." + key} {
		v, err := jsonpath.Get(path, obj)
		if err != nil || v == nil {
			continue
		}
		if l, ok := v.([]any); ok {
			if len(l) == 0 {
				continue
			}
			v = l[0]
		}
		return v, true
	}
	return nil, false
}

func list(obj any, key string) []any {
	v, err := jsonpath.Get("$."+key, obj)
	if err != nil {
		v, err = jsonpath.Get("$.."+key, obj)
		if err != nil {
			return nil
		}
		// recursive descent wraps every match in a list
		if outer, ok := v.([]any); ok && len(outer) > 0 {
			v = outer[0]
		}
	}
	l, _ := v.([]any)
	return l
}

func stringList(in []any) []string {
	var out []string
	for _, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		if s = strings.ToUpper(strings.TrimSpace(s)); s == "" {
			return nil
		}
		out = append(out, s)
	}
	return out
}

func floatList(in []any) []float64 {
	var out []float64
	for _, v := range in {
		f, ok := asFloat(v)
		if !ok || f < 0 {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(x), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		if strings.HasSuffix(strings.TrimSpace(x), "%") {
			f /= 100
		}
		return f, true
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "accepted", "accept":
			return true, true
		case "false", "no", "rejected", "reject":
			return false, true
		}
	}
	return false, false
}
