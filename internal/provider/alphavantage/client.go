package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/guttosm/stockpulse/internal/domain/models"
	"github.com/guttosm/stockpulse/internal/logger"
)

const defaultBaseURL = "https://www.alphavantage.co"

// HTTPClient describes an HTTP client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DailyObservation is one decoded trading day of the provider's series.
type DailyObservation struct {
	Date       time.Time
	OpenPrice  float64
	ClosePrice float64
	Volume     int64
}

// ProviderError reports a failed fetch against the provider.
type ProviderError struct {
	Symbol     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("alphavantage: fetch %s: %v", e.Symbol, e.Err)
	}
	return fmt.Sprintf("alphavantage: fetch %s: unexpected status %d", e.Symbol, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Client is a client for the Alpha Vantage daily time-series API.
// One call makes one request; retry and backoff are left to callers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPClient
}

// Option is a configuration option for the Alpha Vantage client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new Alpha Vantage client. The api key is sent as
// a query parameter on every request.
func NewClient(apiKey string, options ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// timeSeriesResponse mirrors the provider's TIME_SERIES_DAILY_ADJUSTED
// payload: a map from date string to a record of numbered field labels.
type timeSeriesResponse struct {
	TimeSeries map[string]dailyRecord `json:"Time Series (Daily)"`
}

type dailyRecord struct {
	Open   string `json:"1. open"`
	Close  string `json:"4. close"`
	Volume string `json:"6. volume"`
}

// FetchDailySeries retrieves the provider's recent daily series for one
// symbol (compact window, ~100 most recent trading days) and decodes it
// into observations sorted by date descending.
//
// A date whose record cannot be fully decoded is skipped; the fetch
// itself fails only on transport errors, a non-200 status, or a payload
// with no usable series.
func (c *Client) FetchDailySeries(ctx context.Context, symbol string) ([]DailyObservation, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY_ADJUSTED")
	q.Set("symbol", symbol)
	q.Set("outputsize", "compact")
	q.Set("apikey", c.apiKey)

	endpoint := c.baseURL + "/query?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ProviderError{Symbol: symbol, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ProviderError{Symbol: symbol, Err: err}
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Symbol: symbol, StatusCode: resp.StatusCode}
	}

	var payload timeSeriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ProviderError{Symbol: symbol, Err: fmt.Errorf("decode payload: %w", err)}
	}
	if len(payload.TimeSeries) == 0 {
		return nil, &ProviderError{Symbol: symbol, Err: fmt.Errorf("payload has no daily series")}
	}

	out := make([]DailyObservation, 0, len(payload.TimeSeries))
	for dateStr, rec := range payload.TimeSeries {
		obs, err := decodeRecord(dateStr, rec)
		if err != nil {
			logger.L().Warn().Str("symbol", symbol).Str("date", dateStr).Err(err).Msg("skipping malformed daily record")
			continue
		}
		out = append(out, obs)
	}

	// Providers return newest-first; the map loses that, so restore it.
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	return out, nil
}

func decodeRecord(dateStr string, rec dailyRecord) (DailyObservation, error) {
	date, err := time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return DailyObservation{}, fmt.Errorf("parse date: %w", err)
	}
	open, err := strconv.ParseFloat(rec.Open, 64)
	if err != nil {
		return DailyObservation{}, fmt.Errorf("parse open: %w", err)
	}
	closePrice, err := strconv.ParseFloat(rec.Close, 64)
	if err != nil {
		return DailyObservation{}, fmt.Errorf("parse close: %w", err)
	}
	volume, err := strconv.ParseInt(rec.Volume, 10, 64)
	if err != nil {
		return DailyObservation{}, fmt.Errorf("parse volume: %w", err)
	}
	return DailyObservation{Date: date, OpenPrice: open, ClosePrice: closePrice, Volume: volume}, nil
}
