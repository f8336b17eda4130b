package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	pfinance "github.com/piquette/finance-go"

	"visaHedgeBot/internal/cache"
	"visaHedgeBot/internal/config"
	"visaHedgeBot/internal/finance"
)

type stubSource struct {
	name  string
	price float64
	err   error
	calls int32
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Quote(context.Context, string) (float64, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.price, s.err
}

func TestChainFirstPositiveWins(t *testing.T) {
	missing := &stubSource{name: "a", err: finance.ErrNoQuote}
	good := &stubSource{name: "b", price: 42.5}
	never := &stubSource{name: "c", price: 1}

	p, err := NewChain(time.Second, missing, good, never).Quote(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 42.5 {
		t.Errorf("expected 42.5, got %v", p)
	}
	if missing.calls != 1 {
		t.Errorf("expected no retry on missing quote, got %d calls", missing.calls)
	}
	if never.calls != 0 {
		t.Errorf("expected later sources to be skipped, got %d calls", never.calls)
	}
}

func TestChainRetriesTransientOnce(t *testing.T) {
	flaky := &stubSource{name: "flaky", err: errors.New("connection reset")}

	_, err := NewChain(time.Second, flaky).Quote(context.Background(), "SPY")
	if err == nil {
		t.Fatal("expected error from failing source")
	}
	if errors.Is(err, finance.ErrNoQuote) {
		t.Errorf("expected transport error, got %v", err)
	}
	if flaky.calls != 2 {
		t.Errorf("expected 2 calls, got %d", flaky.calls)
	}
}

func TestChainAllMissing(t *testing.T) {
	a := &stubSource{name: "a", err: finance.ErrNoQuote}
	b := &stubSource{name: "b", price: 0}

	_, err := NewChain(time.Second, a, b).Quote(context.Background(), "ZZZZ")
	if !errors.Is(err, finance.ErrNoQuote) {
		t.Errorf("expected ErrNoQuote, got %v", err)
	}
}

func TestCachedStoresDecimalString(t *testing.T) {
	src := &stubSource{name: "s", price: 575.25}
	store := cache.NewMemory()
	c := NewCached(NewChain(time.Second, src), store, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := c.Quote(ctx, "spy")
		if err != nil || p != 575.25 {
			t.Fatalf("expected 575.25, got %v (%v)", p, err)
		}
	}
	if src.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", src.calls)
	}
	if v, ok := store.Get(ctx, "quote:SPY"); !ok || v != "575.25" {
		t.Errorf("expected cached '575.25', got %q", v)
	}
}

func TestCachedSkipsErrors(t *testing.T) {
	src := &stubSource{name: "s", err: finance.ErrNoQuote}
	store := cache.NewMemory()
	c := NewCached(src, store, time.Minute)

	if _, err := c.Quote(context.Background(), "XYZ"); !errors.Is(err, finance.ErrNoQuote) {
		t.Errorf("expected ErrNoQuote, got %v", err)
	}
	if _, ok := store.Get(context.Background(), "quote:XYZ"); ok {
		t.Error("expected nothing cached after a miss")
	}
}

func TestChartLastClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v8/finance/chart/BND") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":74.1},
			"timestamp":[1,2,3],"indicators":{"quote":[{"close":[73.1,73.9,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	p, err := NewChart(time.Second, srv.URL).Quote(context.Background(), "bnd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 73.9 {
		t.Errorf("expected last non-null close 73.9, got %v", p)
	}
}

func TestChartRotatesOnThrottle(t *testing.T) {
	throttled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Edge: Too Many Requests"))
	}))
	defer throttled.Close()
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":110.2},"indicators":{"quote":[{"close":[]}]}}]}}`))
	}))
	defer ok.Close()

	p, err := NewChart(time.Second, throttled.URL, ok.URL).Quote(context.Background(), "TIP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != 110.2 {
		t.Errorf("expected meta price 110.2, got %v", p)
	}
}

func TestChartNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := NewChart(time.Second, srv.URL).Quote(context.Background(), "NOPE"); !errors.Is(err, finance.ErrNoQuote) {
		t.Errorf("expected ErrNoQuote, got %v", err)
	}
}

func TestYahooFallsBackToPreviousClose(t *testing.T) {
	y := &Yahoo{get: func(string) (*pfinance.Quote, error) {
		return &pfinance.Quote{RegularMarketPreviousClose: 90.7}, nil
	}}
	p, err := y.Quote(context.Background(), "VNQ")
	if err != nil || p != 90.7 {
		t.Errorf("expected 90.7, got %v (%v)", p, err)
	}

	y.get = func(string) (*pfinance.Quote, error) { return nil, nil }
	if _, err := y.Quote(context.Background(), "VNQ"); !errors.Is(err, finance.ErrNoQuote) {
		t.Errorf("expected ErrNoQuote for nil quote, got %v", err)
	}
}

func TestBuildWithoutSources(t *testing.T) {
	if src := Build(config.Config{QuoteSources: []string{"none"}}, cache.NewMemory()); src != nil {
		t.Errorf("expected nil source, got %T", src)
	}
	src := Build(config.Config{QuoteSources: []string{"alpaca", "chart"}, QuoteTimeout: time.Second}, nil)
	if _, ok := src.(*Chain); !ok {
		t.Errorf("expected bare chain without a store, got %T", src)
	}
}
