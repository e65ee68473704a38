package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/raeisisep-star/titan/internal/common"
	"github.com/raeisisep-star/titan/internal/interfaces"
)

const (
	DefaultTimeout   = 5 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Compile-time interface check
var _ interfaces.PriceOracle = (*Client)(nil)

// Client polls an external price API over HTTP. Requests are rate-limited
// client-side so bursts of strategy ticks cannot hammer the upstream source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new price API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an upstream price API error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("price API error: %s (status: %d)", e.Message, e.StatusCode)
}

// tickerResponse is the upstream quote payload.
type tickerResponse struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds, optional
}

// Price fetches the current price for a symbol. The caller bounds the wait
// via ctx; the rate limiter wait also respects it.
func (c *Client) Price(ctx context.Context, symbol string) (float64, time.Time, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	reqURL := fmt.Sprintf("%s/v1/ticker?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, time.Time{}, ErrUnknownSymbol
	}
	if resp.StatusCode != http.StatusOK {
		return 0, time.Time{}, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var ticker tickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to decode price response: %w", err)
	}
	if ticker.Price <= 0 {
		return 0, time.Time{}, ErrUnknownSymbol
	}

	ts := time.Now()
	if ticker.Timestamp > 0 {
		ts = time.UnixMilli(ticker.Timestamp)
	}

	c.logger.Debug().Str("symbol", symbol).Float64("price", ticker.Price).Msg("Price fetched")
	return ticker.Price, ts, nil
}
