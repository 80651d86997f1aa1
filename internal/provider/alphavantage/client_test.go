package alphavantage_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guttosm/stockpulse/internal/provider/alphavantage"
)

const samplePayload = `{
	"Meta Data": {
		"1. Information": "Daily Time Series with Splits and Dividend Events",
		"2. Symbol": "IBM",
		"3. Last Refreshed": "2023-01-05",
		"4. Output Size": "Compact",
		"5. Time Zone": "US/Eastern"
	},
	"Time Series (Daily)": {
		"2023-01-05": {"1. open": "142.44", "4. close": "141.11", "6. volume": "2862708"},
		"2023-01-04": {"1. open": "142.06", "4. close": "144.31", "6. volume": "3934848"},
		"2023-01-03": {"1. open": "141.10", "4. close": "141.55", "6. volume": "3338829"}
	}
}`

func TestFetchDailySeries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/query", r.URL.Path)
		require.Equal(t, "TIME_SERIES_DAILY_ADJUSTED", r.URL.Query().Get("function"))
		require.Equal(t, "IBM", r.URL.Query().Get("symbol"))
		require.Equal(t, "compact", r.URL.Query().Get("outputsize"))
		require.Equal(t, "test-key", r.URL.Query().Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	client := alphavantage.NewClient("test-key", alphavantage.WithBaseURL(srv.URL))

	series, err := client.FetchDailySeries(context.Background(), "IBM")
	require.NoError(t, err)
	require.Len(t, series, 3)

	// Newest first.
	require.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), series[0].Date)
	require.Equal(t, time.Date(2023, 1, 3, 0, 0, 0, 0, time.UTC), series[2].Date)
	require.InEpsilon(t, 142.06, series[1].OpenPrice, 1e-9)
	require.InEpsilon(t, 144.31, series[1].ClosePrice, 1e-9)
	require.Equal(t, int64(3934848), series[1].Volume)
}

func TestFetchDailySeries_SkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	payload := `{
		"Time Series (Daily)": {
			"2023-01-05": {"1. open": "142.44", "4. close": "141.11", "6. volume": "2862708"},
			"2023-01-04": {"1. open": "", "4. close": "144.31", "6. volume": "3934848"},
			"not-a-date": {"1. open": "1", "4. close": "2", "6. volume": "3"}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	client := alphavantage.NewClient("test-key", alphavantage.WithBaseURL(srv.URL))

	series, err := client.FetchDailySeries(context.Background(), "IBM")
	require.NoError(t, err)
	require.Len(t, series, 1)
	require.Equal(t, time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC), series[0].Date)
}

func TestFetchDailySeries_BadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := alphavantage.NewClient("test-key", alphavantage.WithBaseURL(srv.URL))

	_, err := client.FetchDailySeries(context.Background(), "IBM")
	require.Error(t, err)

	var provErr *alphavantage.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, "IBM", provErr.Symbol)
	require.Equal(t, http.StatusServiceUnavailable, provErr.StatusCode)
}

func TestFetchDailySeries_EmptySeries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Alpha Vantage answers 200 with a note body when throttled.
		_, _ = w.Write([]byte(`{"Note": "Thank you for using Alpha Vantage!"}`))
	}))
	defer srv.Close()

	client := alphavantage.NewClient("test-key", alphavantage.WithBaseURL(srv.URL))

	_, err := client.FetchDailySeries(context.Background(), "IBM")
	var provErr *alphavantage.ProviderError
	require.ErrorAs(t, err, &provErr)
}

func TestFetchDailySeries_TransportError(t *testing.T) {
	t.Parallel()

	client := alphavantage.NewClient("test-key", alphavantage.WithHTTPClient(failingClient{}))

	_, err := client.FetchDailySeries(context.Background(), "IBM")
	var provErr *alphavantage.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.True(t, errors.Is(err, errConnRefused))
}

var errConnRefused = errors.New("connection refused")

type failingClient struct{}

func (failingClient) Do(_ *http.Request) (*http.Response, error) { return nil, errConnRefused }
