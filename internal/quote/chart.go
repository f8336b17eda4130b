package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"visaHedgeBot/internal/finance"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

var defaultChartHosts = []string{
	"https://query1.finance.yahoo.com",
	"https://query2.finance.yahoo.com",
}

type chartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Chart takes the last daily close from the Yahoo v8 chart endpoint,
// rotating across hosts when one is throttled.
type Chart struct {
	client *resty.Client
	hosts  []string
}

func NewChart(timeout time.Duration, hosts ...string) *Chart {
	if len(hosts) == 0 {
		hosts = defaultChartHosts
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", browserUA)
	client.SetHeader("Accept", "application/json, text/javascript, */*; q=0.01")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	return &Chart{client: client, hosts: hosts}
}

func (c *Chart) Name() string { return "chart" }

func (c *Chart) Quote(ctx context.Context, ticker string) (float64, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	var lastErr error
	for _, host := range c.hosts {
		resp, err := c.client.R().
			SetContext(ctx).
			SetHeader("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", symbol)).
			SetQueryParams(map[string]string{"range": "5d", "interval": "1d"}).
			Get(host + "/v8/finance/chart/" + symbol)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return 0, lastErr
			}
			continue
		}
		body := resp.Body()
		if resp.StatusCode() == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
			lastErr = fmt.Errorf("yahoo %s returned 429", host)
			continue
		}
		if resp.StatusCode() == http.StatusNotFound {
			return 0, finance.ErrNoQuote
		}
		if resp.IsError() {
			lastErr = fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode(), preview(body))
			continue
		}
		if strings.HasPrefix(string(body), "<") {
			lastErr = fmt.Errorf("yahoo returned non-json body: %s", preview(body))
			continue
		}
		var yc chartResp
		if err := json.Unmarshal(body, &yc); err != nil {
			lastErr = fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
			continue
		}
		return lastClose(yc)
	}
	return 0, lastErr
}

func lastClose(yc chartResp) (float64, error) {
	if len(yc.Chart.Result) == 0 {
		return 0, finance.ErrNoQuote
	}
	r := yc.Chart.Result[0]
	if len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				return *closes[i], nil
			}
		}
	}
	if r.Meta.RegularMarketPrice > 0 {
		return r.Meta.RegularMarketPrice, nil
	}
	return 0, finance.ErrNoQuote
}

func preview(b []byte) string {
	if len(b) > 120 {
		return string(b[:120])
	}
	return string(b)
}
