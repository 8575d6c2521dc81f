package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/rotor/internal/contracts"
	"github.com/wonny/rotor/pkg/config"
	"github.com/wonny/rotor/pkg/httputil"
	"github.com/wonny/rotor/pkg/logger"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Client fetches daily OHLCV history from the Yahoo Finance v8 chart API.
// All requests go through the shared retrying HTTP client, which also
// enforces the provider rate limit.
type Client struct {
	baseURL string
	http    *httputil.Client
	logger  *logger.Logger
}

// NewClient creates a chart API client from the provider configuration
func NewClient(cfg config.YahooConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    httputil.New(log, cfg.RequestTimeout).WithRateLimit(cfg.RatePerSecond),
		logger:  log,
	}
}

// chartResponse mirrors the subset of the v8 chart payload the pipeline
// needs. Quote arrays use pointers because Yahoo emits null for halted or
// missing bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Timezone string `json:"timezone"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDaily returns the daily bars for one symbol over [start, end).
// The sector label is attached to every bar; it travels with the row through
// the bronze and silver layers.
func (c *Client) FetchDaily(ctx context.Context, symbol, sector string, start, end time.Time) ([]*contracts.PricePoint, error) {
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", start.Unix()))
	params.Set("period2", fmt.Sprintf("%d", end.Unix()))
	params.Set("interval", "1d")
	params.Set("includePrePost", "false")
	params.Set("events", "div,splits")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("chart request for %s returned status %d", symbol, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart response for %s: %w", symbol, err)
	}

	return c.parseChart(symbol, sector, body)
}

// parseChart converts one chart payload into daily price points. Bars with a
// null timestamp slot are kept as-is: the silver layer decides what counts as
// incomplete.
func (c *Client) parseChart(symbol, sector string, body []byte) ([]*contracts.PricePoint, error) {
	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode chart response for %s: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("chart API error for %s: %s (%s)",
			symbol, parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, fmt.Errorf("empty chart result for %s", symbol)
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	n := len(result.Timestamp)
	if len(quote.Close) != n || len(quote.Open) != n || len(quote.High) != n ||
		len(quote.Low) != n || len(quote.Volume) != n {
		return nil, fmt.Errorf("misaligned quote arrays for %s", symbol)
	}

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
		if len(adjClose) != n {
			return nil, fmt.Errorf("misaligned adjclose array for %s", symbol)
		}
	}

	prices := make([]*contracts.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		p := &contracts.PricePoint{
			Symbol: symbol,
			Sector: sector,
			Date:   time.Unix(result.Timestamp[i], 0).UTC().Truncate(24 * time.Hour),
			Open:   quote.Open[i],
			High:   quote.High[i],
			Low:    quote.Low[i],
			Close:  quote.Close[i],
			Volume: quote.Volume[i],
		}
		if adjClose != nil {
			p.AdjClose = adjClose[i]
		} else {
			// some instruments never split or pay dividends and Yahoo
			// omits the adjclose block for them
			p.AdjClose = quote.Close[i]
		}
		prices = append(prices, p)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"bars":   len(prices),
	}).Debug("Fetched daily history")

	return prices, nil
}
