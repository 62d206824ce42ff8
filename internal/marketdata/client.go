package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yanun0323/errors"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"
	defaultTimeout = 20 * time.Second
)

// Client fetches daily bars and live quotes from the chart API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a quote API client. An empty baseURL selects the default
// public endpoint; a nil http.Client gets a bounded-timeout default.
func NewClient(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, http: client}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// The chart API quotes prices as bare JSON numbers, so the payload decodes
// into float64 and converts to decimal at Bar/Quote construction.
type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		PreviousClose      float64 `json:"chartPreviousClose"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []float64 `json:"open"`
			High   []float64 `json:"high"`
			Low    []float64 `json:"low"`
			Close  []float64 `json:"close"`
			Volume []int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// DailyBars fetches up to the requested number of daily bars for a symbol,
// oldest first.
func (c *Client) DailyBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	if days <= 0 {
		days = 5
	}
	result, err := c.chart(ctx, symbol, fmt.Sprintf("%dd", days), "1d")
	if err != nil {
		return nil, err
	}

	quotes := result.Indicators.Quote
	if len(quotes) == 0 {
		return nil, errors.Errorf("no quote series for %s", symbol)
	}
	series := quotes[0]

	bars := make([]Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(series.Close) {
			break
		}
		bar := Bar{
			Symbol: symbol,
			Date:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Close:  floatDecimal(series.Close[i]),
		}
		if i < len(series.Open) {
			bar.Open = floatDecimal(series.Open[i])
		}
		if i < len(series.High) {
			bar.High = floatDecimal(series.High[i])
		}
		if i < len(series.Low) {
			bar.Low = floatDecimal(series.Low[i])
		}
		if i < len(series.Volume) {
			bar.Volume = series.Volume[i]
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, errors.Errorf("no bars for %s", symbol)
	}
	return bars, nil
}

// LatestBar fetches the most recent daily bar for a symbol.
func (c *Client) LatestBar(ctx context.Context, symbol string) (Bar, error) {
	bars, err := c.DailyBars(ctx, symbol, 5)
	if err != nil {
		return Bar{}, err
	}
	return bars[len(bars)-1], nil
}

// LiveQuote fetches the current quote snapshot for a symbol.
func (c *Client) LiveQuote(ctx context.Context, symbol string) (Quote, error) {
	result, err := c.chart(ctx, symbol, "1d", "1m")
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{
		Symbol:        symbol,
		Price:         floatDecimal(result.Meta.RegularMarketPrice),
		PreviousClose: floatDecimal(result.Meta.PreviousClose),
		TsNano:        result.Meta.RegularMarketTime * int64(time.Second),
	}
	if quotes := result.Indicators.Quote; len(quotes) > 0 {
		series := quotes[0]
		if len(series.Open) > 0 {
			quote.Open = floatDecimal(series.Open[0])
		}
		var high, low float64
		for _, h := range series.High {
			if h > high {
				high = h
			}
		}
		for _, l := range series.Low {
			if l > 0 && (low == 0 || l < low) {
				low = l
			}
		}
		quote.DayHigh = floatDecimal(high)
		quote.DayLow = floatDecimal(low)
		for _, v := range series.Volume {
			quote.Volume += v
		}
	}
	return quote, nil
}

func (c *Client) chart(ctx context.Context, symbol, window, interval string) (chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.baseURL, url.PathEscape(symbol), url.QueryEscape(window), url.QueryEscape(interval))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return chartResult{}, errors.Wrap(err, "build chart request")
	}
	req.Header.Set("User-Agent", "tradetrail/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return chartResult{}, errors.Wrap(err, "fetch chart")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return chartResult{}, errors.Errorf("chart request for %s, status: %d", symbol, resp.StatusCode)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return chartResult{}, errors.Wrap(err, "decode chart response")
	}
	if parsed.Chart.Error != nil {
		return chartResult{}, errors.Errorf("chart API error for %s: %s", symbol, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return chartResult{}, errors.Errorf("empty chart result for %s", symbol)
	}
	return parsed.Chart.Result[0], nil
}
