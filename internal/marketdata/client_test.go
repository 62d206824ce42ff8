package marketdata

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartBody(symbol string) string {
	day := time.Date(2024, 3, 4, 21, 0, 0, 0, time.UTC).Unix()
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {
					"symbol": %q,
					"regularMarketPrice": 187.5,
					"chartPreviousClose": 185.0,
					"regularMarketTime": %d
				},
				"timestamp": [%d, %d],
				"indicators": {
					"quote": [{
						"open":   [186.0, 187.0],
						"high":   [188.0, 189.5],
						"low":    [185.5, 186.5],
						"close":  [187.0, 187.5],
						"volume": [1000, 2000]
					}]
				}
			}],
			"error": null
		}
	}`, symbol, day, day-86400, day)
}

func TestClientDailyBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody("AAPL"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	bars, err := c.DailyBars(t.Context(), "AAPL", 5)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, "AAPL", bars[0].Symbol)
	assert.Equal(t, "2024-03-03", bars[0].Date)
	assert.Equal(t, "2024-03-04", bars[1].Date)
	assert.InDelta(t, 187.5, bars[1].CloseFloat(), 1e-9)
	assert.Equal(t, int64(2000), bars[1].Volume)

	open, high, low, closing := bars[0].Floats()
	assert.InDelta(t, 186.0, open, 1e-9)
	assert.InDelta(t, 188.0, high, 1e-9)
	assert.InDelta(t, 185.5, low, 1e-9)
	assert.InDelta(t, 187.0, closing, 1e-9)
}

func TestClientLatestBar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody("MSFT"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	bar, err := c.LatestBar(t.Context(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", bar.Date)
	assert.InDelta(t, 187.5, bar.CloseFloat(), 1e-9)
}

func TestClientLiveQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		assert.Equal(t, "1m", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody("AAPL"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	quote, err := c.LiveQuote(t.Context(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", quote.Symbol)
	assert.InDelta(t, 187.5, quote.PriceFloat(), 1e-9)
	assert.InDelta(t, 189.5, decimalFloat(quote.DayHigh), 1e-9)
	assert.InDelta(t, 185.5, decimalFloat(quote.DayLow), 1e-9)
	assert.Equal(t, int64(3000), quote.Volume)
}

func TestClientChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.DailyBars(t.Context(), "NOPE", 5)
	require.Error(t, err)
}

func TestClientBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	_, err := c.LiveQuote(t.Context(), "AAPL")
	require.Error(t, err)
}
