package finance

import (
	"log"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reMarkdownEmphasis = regexp.MustCompile("\\*\\*|__|`")
	reURL              = regexp.MustCompile(`https?://\S+`)

	// "Asset Class: SPY | Allocation: 60.00%", "Investment Vehicles: VTI, BND"
	reLabelledTickers = regexp.MustCompile(`(?i:asset\s+class(?:es)?|investment\s+vehicles?|tickers?)\s*:\s*([^|\n]*)`)
	reTickerToken     = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	reFieldSeparator  = regexp.MustCompile(`\s*(?:,|;|/|\band\b)\s*`)
	reGenericTicker   = regexp.MustCompile(`\b[A-Z]{2,4}\b`)
	reAllocation      = regexp.MustCompile(`(?i:allocation)\s*:\s*(\d+(?:\.\d+)?)\s*%`)
	reRiskMultiplier  = regexp.MustCompile(`(?i:risk\s+multiplier)\s*:\s*(\d+(?:\.\d+)?)`)
)

// TickerExtractor is one attempt at finding tickers in advisor text.
// It returns nil when it finds nothing; it never fails.
type TickerExtractor struct {
	Name    string
	Extract func(text string) []string
}

// LabelledTickers reads tickers from "Asset Class:" style fields.
var LabelledTickers = TickerExtractor{
	Name: "labelled",
	Extract: func(text string) []string {
		var out []string
		for _, m := range reLabelledTickers.FindAllStringSubmatch(text, -1) {
			// one ticker per listed item: "SPY (S&P 500 ETF)" yields SPY only
			for _, item := range reFieldSeparator.Split(m[1], -1) {
				if tok := reTickerToken.FindString(item); tok != "" {
					out = append(out, tok)
				}
			}
		}
		return out
	},
}

// GenericTickers accepts any 2-4 letter uppercase token.
var GenericTickers = TickerExtractor{
	Name: "generic",
	Extract: func(text string) []string {
		return reGenericTicker.FindAllString(text, -1)
	},
}

// Parser turns advisor prose into an AllocationPlan. Extractors are tried in
// order and the first one returning tickers wins.
type Parser struct {
	ref        Reference
	extractors []TickerExtractor
}

// NewParser returns a parser with the labelled-then-generic extractor order.
func NewParser(ref Reference) *Parser {
	return &Parser{ref: ref, extractors: []TickerExtractor{LabelledTickers, GenericTickers}}
}

// WithExtractors replaces the ticker extractor list.
func (p *Parser) WithExtractors(ex ...TickerExtractor) *Parser {
	return &Parser{ref: p.ref, extractors: ex}
}

// ParsePlan is a shortcut for NewParser(ref).Parse(text).
func ParsePlan(text string, ref Reference) AllocationPlan {
	return NewParser(ref).Parse(text)
}

// Parse never fails: whenever tickers or weights are missing it returns the
// reference default plan.
func (p *Parser) Parse(text string) AllocationPlan {
	text = sanitize(text)

	tickers := p.tickers(text)
	weights := parseWeights(text)
	if len(weights) != len(tickers) {
		weights = nil
	}

	if len(tickers) == 0 || len(weights) == 0 {
		log.Printf("parser: %d tickers / %d aligned weights found, using default plan", len(tickers), len(weights))
		return p.ref.defaultPlan()
	}

	plan := AllocationPlan{Tickers: tickers, Weights: weights, RiskMultiplier: parseRiskMultiplier(text)}
	if plan.WeightSum() <= 0 {
		log.Printf("parser: weights sum to zero, using default plan")
		return p.ref.defaultPlan()
	}
	return normalize(plan)
}

func (p *Parser) tickers(text string) []string {
	for _, ex := range p.extractors {
		if found := dedupe(ex.Extract(text)); len(found) > 0 {
			return found
		}
	}
	return nil
}

// sanitize strips markdown emphasis and links that would split labels from values.
func sanitize(text string) string {
	text = reMarkdownEmphasis.ReplaceAllString(text, "")
	text = reURL.ReplaceAllString(text, "")
	return text
}

func parseWeights(text string) []float64 {
	var out []float64
	for _, m := range reAllocation.FindAllStringSubmatch(text, -1) {
		pct, err := strconv.ParseFloat(m[1], 64)
		if err != nil || math.IsNaN(pct) || math.IsInf(pct, 0) {
			continue
		}
		out = append(out, pct/100)
	}
	return out
}

func parseRiskMultiplier(text string) float64 {
	m := reRiskMultiplier.FindStringSubmatch(text)
	if len(m) < 2 {
		return 1.0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return 1.0
	}
	return v
}

// dedupe upper-cases and removes repeated symbols, keeping first-seen order.
func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		su := strings.ToUpper(strings.TrimSpace(s))
		if su == "" {
			continue
		}
		if _, ok := seen[su]; ok {
			continue
		}
		seen[su] = struct{}{}
		out = append(out, su)
	}
	return out
}

// normalize rescales weights so they sum to 1 when they are off by more than
// weightTolerance. Plans whose weights sum to zero are returned unchanged.
func normalize(plan AllocationPlan) AllocationPlan {
	total := plan.WeightSum()
	if total <= 0 || math.Abs(total-1) <= weightTolerance {
		return plan
	}
	for i := range plan.Weights {
		plan.Weights[i] /= total
	}
	return plan
}

// NormalizePlan validates an externally supplied plan (for example a validator
// override). It reports false when the plan cannot be used.
func NormalizePlan(plan AllocationPlan) (AllocationPlan, bool) {
	plan = plan.Clone()
	plan.Tickers = dedupe(plan.Tickers)
	if len(plan.Tickers) == 0 || len(plan.Tickers) != len(plan.Weights) {
		return AllocationPlan{}, false
	}
	for _, w := range plan.Weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return AllocationPlan{}, false
		}
	}
	if plan.WeightSum() <= 0 {
		return AllocationPlan{}, false
	}
	if plan.RiskMultiplier <= 0 {
		plan.RiskMultiplier = 1.0
	}
	return normalize(plan), true
}
