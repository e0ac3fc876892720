// Package exchange fetches the latest foreign exchange rates from a
// Frankfurter-compatible HTTP API.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://api.frankfurter.app"
	DefaultCurrency = "EUR"
)

var (
	ErrNetwork = errors.New("exchange: network failure")
	ErrDecode  = errors.New("exchange: invalid response")
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Snapshot is one response of the latest rates endpoint.
type Snapshot struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// Rate returns the quote for code, if present.
func (s Snapshot) Rate(code string) (float64, bool) {
	r, ok := s.Rates[strings.ToUpper(code)]
	return r, ok
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client. An empty baseURL uses DefaultBaseURL and a nil
// httpClient uses one without a timeout; callers bound requests with ctx.
func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// NewWithTimeout is New with a client level timeout. Zero means none.
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	return New(baseURL, &http.Client{Timeout: timeout})
}

func (c *Client) BaseURL() string { return c.baseURL }

// FetchRates performs a single GET of {baseURL}/latest?from=<base>.
// There are no retries and nothing is cached.
func (c *Client) FetchRates(ctx context.Context, base string) (Snapshot, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultCurrency
	}
	endpoint := c.baseURL + "/latest?from=" + url.QueryEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Snapshot{}, &HTTPError{StatusCode: resp.StatusCode}
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if snap.Base == "" || snap.Rates == nil {
		return Snapshot{}, fmt.Errorf("%w: missing base or rates", ErrDecode)
	}
	return snap, nil
}
