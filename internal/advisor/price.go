package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const priceSystemPrompt = "You answer market data questions with a single number and nothing else."

// PriceLookup asks an advisor for a last closing price.
type PriceLookup struct {
	gen     Generator
	timeout time.Duration
}

func NewPriceLookup(gen Generator, timeout time.Duration) *PriceLookup {
	return &PriceLookup{gen: gen, timeout: timeout}
}

func (p *PriceLookup) LookupPrice(ctx context.Context, ticker string) (string, error) {
	prompt := fmt.Sprintf("What is the latest closing price for the stock ticker %s? Provide just the price as a number, or 'Unable to retrieve' if not known.",
		strings.ToUpper(strings.TrimSpace(ticker)))
	return Call(ctx, p.gen, p.timeout, priceSystemPrompt, prompt)
}
