package quote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"visaHedgeBot/internal/cache"
	"visaHedgeBot/internal/config"
	"visaHedgeBot/internal/finance"
	"visaHedgeBot/internal/retry"
)

// Source is a named live price provider.
type Source interface {
	Name() string
	Quote(ctx context.Context, ticker string) (float64, error)
}

// Chain asks each source in order and keeps the first positive price.
type Chain struct {
	sources []Source
	timeout time.Duration
}

func NewChain(timeout time.Duration, sources ...Source) *Chain {
	return &Chain{sources: sources, timeout: timeout}
}

func (c *Chain) Quote(ctx context.Context, ticker string) (float64, error) {
	var errs []error
	allMissing := true
	for _, s := range c.sources {
		var price float64
		cfg := retry.Once(c.timeout)
		cfg.Permanent = func(err error) bool { return errors.Is(err, finance.ErrNoQuote) }
		err := retry.Do(ctx, cfg, func(ctx context.Context) error {
			p, err := s.Quote(ctx, ticker)
			if err != nil {
				return err
			}
			if p <= 0 {
				return finance.ErrNoQuote
			}
			price = p
			return nil
		})
		if err == nil {
			return price, nil
		}
		if !errors.Is(err, finance.ErrNoQuote) {
			allMissing = false
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 || allMissing {
		return 0, finance.ErrNoQuote
	}
	return 0, errors.Join(errs...)
}

// Cached keeps successful quotes in a Store as decimal strings.
type Cached struct {
	src   finance.QuoteSource
	store cache.Store
	ttl   time.Duration
}

func NewCached(src finance.QuoteSource, store cache.Store, ttl time.Duration) *Cached {
	return &Cached{src: src, store: store, ttl: ttl}
}

func (c *Cached) Quote(ctx context.Context, ticker string) (float64, error) {
	key := "quote:" + strings.ToUpper(strings.TrimSpace(ticker))
	if v, ok := c.store.Get(ctx, key); ok {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d.InexactFloat64(), nil
		}
		log.Printf("quote: dropping bad cached value %q for %s", v, key)
	}

	p, err := c.src.Quote(ctx, ticker)
	if err != nil {
		return 0, err
	}
	if err := c.store.Set(ctx, key, decimal.NewFromFloat(p).String(), c.ttl); err != nil {
		log.Printf("quote: cache set %s failed: %v", key, err)
	}
	return p, nil
}

// Build assembles the configured sources behind a cache. It returns nil when
// no source is enabled, which leaves the reference table first in line.
func Build(cfg config.Config, store cache.Store) finance.QuoteSource {
	var sources []Source
	for _, name := range cfg.QuoteSources {
		switch name {
		case "yahoo":
			sources = append(sources, NewYahoo())
		case "chart":
			sources = append(sources, NewChart(cfg.QuoteTimeout))
		case "alpaca":
			if cfg.AlpacaKeyID == "" || cfg.AlpacaSecret == "" {
				log.Println("quote: alpaca requested but APCA keys are missing, skipping")
				continue
			}
			sources = append(sources, NewAlpaca(cfg.AlpacaKeyID, cfg.AlpacaSecret))
		case "none", "off":
		default:
			log.Printf("quote: unknown source %q, skipping", name)
		}
	}
	if len(sources) == 0 {
		log.Println("quote: no live sources enabled")
		return nil
	}

	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name()
	}
	log.Printf("quote: live sources %s", strings.Join(names, " -> "))

	chain := NewChain(cfg.QuoteTimeout, sources...)
	if store == nil {
		return chain
	}
	return NewCached(chain, store, cfg.QuoteCacheTTL)
}
