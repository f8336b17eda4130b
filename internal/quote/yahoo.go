package quote

import (
	"context"
	"fmt"
	"strings"

	pfinance "github.com/piquette/finance-go"
	pquote "github.com/piquette/finance-go/quote"

	"visaHedgeBot/internal/finance"
)

// Yahoo reads the regular market price from the Yahoo quote endpoint.
type Yahoo struct {
	get func(symbol string) (*pfinance.Quote, error)
}

func NewYahoo() *Yahoo {
	return &Yahoo{get: pquote.Get}
}

func (y *Yahoo) Name() string { return "yahoo" }

// Quote runs the blocking lookup in a goroutine so ctx bounds it.
func (y *Yahoo) Quote(ctx context.Context, ticker string) (float64, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	type result struct {
		q   *pfinance.Quote
		err error
	}
	ch := make(chan result, 1)
	go func() {
		q, err := y.get(symbol)
		ch <- result{q, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case r = <-ch:
	}

	if r.err != nil {
		return 0, fmt.Errorf("yahoo quote %s: %w", symbol, r.err)
	}
	if r.q == nil {
		return 0, finance.ErrNoQuote
	}
	if r.q.RegularMarketPrice > 0 {
		return r.q.RegularMarketPrice, nil
	}
	if r.q.RegularMarketPreviousClose > 0 {
		return r.q.RegularMarketPreviousClose, nil
	}
	return 0, finance.ErrNoQuote
}
