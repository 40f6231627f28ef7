package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cupcakedapp/cupcake/internal/chain"
	"github.com/cupcakedapp/cupcake/internal/metrics"
	cerr "github.com/cupcakedapp/cupcake/pkg/errors"
)

// DefaultTimeout bounds a single HTTP round trip to the provider.
const DefaultTimeout = 30 * time.Second

// maxResponseSize caps how much of a provider response is read.
const maxResponseSize = 10 << 20

// LogWriter is the logging interface used by the provider package.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}

// Client is a JSON-RPC 2.0 wallet provider reached over HTTP, such as a
// wallet bridge or a local signer exposing eth_sendTransaction.
// Use NewClient to create a properly initialized client.
type Client struct {
	url        string
	httpClient *http.Client
	userAgent  string
	limiter    *chain.RateLimiter
	metrics    *metrics.Metrics
	logger     LogWriter
	idCounter  atomic.Uint64
}

var _ Requester = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimiter throttles outgoing requests per provider URL.
func WithRateLimiter(limiter *chain.RateLimiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithMetrics records every request in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the request logger.
func WithLogger(logger LogWriter) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a provider client for the given endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, cerr.ErrProviderMissing
	}
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, cerr.WithDetails(cerr.ErrProviderMissing, map[string]string{"url": endpoint})
	}

	c := &Client{
		url: endpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: fmt.Sprintf("cupcake/dev (%s/%s)", runtime.GOOS, runtime.GOARCH),
		logger:    nopLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// URL returns the provider endpoint.
func (c *Client) URL() string {
	return c.url
}

// request represents a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

// response represents a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// Request performs a JSON-RPC call. Error objects returned by the provider
// come back as *Error; transport failures wrap ErrProviderUnreachable.
func (c *Client) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	start := time.Now()
	result, err := c.do(ctx, method, params)
	if c.metrics != nil {
		c.metrics.RecordProviderCall(time.Since(start), err)
	}
	if err != nil {
		c.logger.Debug("provider %s failed after %s: %v", method, time.Since(start), err)
		return nil, err
	}
	c.logger.Debug("provider %s ok in %s", method, time.Since(start))
	return result, nil
}

func (c *Client) do(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	if params == nil {
		params = []any{}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.url); err != nil {
			return nil, cerr.WithCause(cerr.ErrProviderUnreachable, err)
		}
	}

	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.idCounter.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, cerr.WithCause(cerr.ErrProviderUnreachable, err)
	}
	// Body.Close error is intentionally ignored as it only fails if the
	// connection is already broken, and there's no recovery action.
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode == http.StatusTooManyRequests {
		details := map[string]string{"status": httpResp.Status}
		if wait := chain.ParseRetryAfter(httpResp.Header.Get("Retry-After")); wait > 0 {
			details["retry_after"] = wait.String()
		}
		return nil, cerr.WithDetails(cerr.ErrRateLimited, details)
	}

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, cerr.WithCause(cerr.ErrProviderUnreachable, fmt.Errorf("reading response body: %w", err))
	}

	var resp response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, cerr.WithDetails(cerr.ErrProviderUnreachable, map[string]string{
				"status": httpResp.Status,
			})
		}
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return resp.Result, nil
}
