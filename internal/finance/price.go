package finance

import (
	"context"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// QuoteSource returns the most recent close for a ticker, or ErrNoQuote.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}

// TextPriceLookup asks an advisor for a price and returns its raw answer.
type TextPriceLookup interface {
	LookupPrice(ctx context.Context, ticker string) (string, error)
}

// ResolvedPrice is a positive unit price and the stage that produced it.
type ResolvedPrice struct {
	Price  float64
	Source PriceSource
}

// Resolver walks the price chain: live quote, reference table, advisor text,
// hard default. Results are memoized for the lifetime of the Resolver, so one
// Resolver per pipeline run gives stable prices across both plans.
type Resolver struct {
	quotes QuoteSource
	lookup TextPriceLookup
	ref    Reference

	mu   sync.Mutex
	memo map[string]ResolvedPrice
}

// NewResolver builds a resolver. quotes and lookup may be nil.
func NewResolver(ref Reference, quotes QuoteSource, lookup TextPriceLookup) *Resolver {
	return &Resolver{
		quotes: quotes,
		lookup: lookup,
		ref:    ref,
		memo:   map[string]ResolvedPrice{},
	}
}

// Resolve always returns a positive price.
func (r *Resolver) Resolve(ctx context.Context, ticker string) ResolvedPrice {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	r.mu.Lock()
	if rp, ok := r.memo[ticker]; ok {
		r.mu.Unlock()
		return rp
	}
	r.mu.Unlock()

	rp := r.resolve(ctx, ticker)

	r.mu.Lock()
	defer r.mu.Unlock()
	// a concurrent lookup may have landed first; keep the first answer
	if prev, ok := r.memo[ticker]; ok {
		return prev
	}
	r.memo[ticker] = rp
	return rp
}

func (r *Resolver) resolve(ctx context.Context, ticker string) ResolvedPrice {
	if r.quotes != nil {
		p, err := r.quotes.Quote(ctx, ticker)
		switch {
		case err != nil:
			log.Printf("price: live quote for %s failed: %v", ticker, err)
		case !usablePrice(p):
			log.Printf("price: live quote for %s unusable (%v)", ticker, p)
		default:
			return ResolvedPrice{Price: p, Source: SourceLive}
		}
	}

	if p, ok := r.ref.Prices[ticker]; ok && usablePrice(p) {
		return ResolvedPrice{Price: p, Source: SourceReference}
	}

	if r.lookup != nil {
		raw, err := r.lookup.LookupPrice(ctx, ticker)
		if err != nil {
			log.Printf("price: advisor lookup for %s failed: %v", ticker, err)
		} else if p, ok := ParseTextPrice(raw); ok {
			return ResolvedPrice{Price: p, Source: SourceAdvisor}
		} else {
			log.Printf("price: advisor answer for %s is not a number: %q", ticker, truncate(raw, 80))
		}
	}

	log.Printf("price: no source for %s, using default %.2f", ticker, DefaultUnitPrice)
	return ResolvedPrice{Price: DefaultUnitPrice, Source: SourceDefault}
}

// ParseTextPrice accepts answers like "512.34", "$1,024.50" or " 88 ".
// Anything else, including non-positive values, is rejected.
func ParseTextPrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	p := d.InexactFloat64()
	if !usablePrice(p) {
		return 0, false
	}
	return p, true
}

func usablePrice(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
