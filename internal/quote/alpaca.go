package quote

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"visaHedgeBot/internal/finance"
)

// Alpaca uses the latest trade price from the Alpaca market data API.
type Alpaca struct {
	client *marketdata.Client
}

func NewAlpaca(keyID, secret string) *Alpaca {
	return &Alpaca{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    keyID,
			APISecret: secret,
		}),
	}
}

func (a *Alpaca) Name() string { return "alpaca" }

func (a *Alpaca) Quote(ctx context.Context, ticker string) (float64, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	trade, err := a.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, fmt.Errorf("alpaca latest trade %s: %w", symbol, err)
	}
	if trade == nil || trade.Price <= 0 {
		return 0, finance.ErrNoQuote
	}
	return trade.Price, nil
}
