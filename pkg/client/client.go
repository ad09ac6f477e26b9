// Package client provides the authenticated HTTP transport for the CleverTap
// REST API, with per-call timeouts, error classification and request metrics.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Header names used by CleverTap for server-side authentication.
const (
	HeaderAccountID = "X-CleverTap-Account-Id"
	HeaderPasscode  = "X-CleverTap-Passcode"
)

// Prometheus metrics for CleverTap client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clevertap_requests_total",
		Help: "Total CleverTap requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clevertap_request_duration_seconds",
		Help:    "CleverTap request duration in seconds by method",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clevertap_errors_total",
		Help: "Total CleverTap errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

// Client is the CleverTap HTTP transport.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Account credentials, sent as static headers on every request.
	AccountID string
	Passcode  string

	// User-Agent header
	UserAgent string

	// Timeout bounds each request, including reading the body.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with safe defaults.
func DefaultConfig(accountID, passcode string) Config {
	return Config{
		AccountID: accountID,
		Passcode:  passcode,
		UserAgent: "clevertap-source/0.1.0",
		Timeout:   30 * time.Second,
	}
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// New creates a new CleverTap client.
func New(cfg Config) (*Client, error) {
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("account id is required")
	}

	if cfg.Passcode == "" {
		return nil, fmt.Errorf("passcode is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig("", "").UserAgent
	}

	logger := log.With().Str("component", "clevertap-client").Logger()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}, nil
}

// Do performs an HTTP request with credentials, a bounded timeout and
// error classification. A non-2xx status is returned as an *Error of kind
// KindQueryRejected that carries the status code and body; a network
// failure is returned as KindTransportFailure.
func (c *Client) Do(req *http.Request) (*Response, error) {
	method := req.Method

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	ctx, cancel := context.WithTimeout(req.Context(), c.config.Timeout)
	defer cancel()
	req = req.WithContext(ctx)

	req.Header.Set(HeaderAccountID, c.config.AccountID)
	req.Header.Set(HeaderPasscode, c.config.Passcode)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Msg("Executing CleverTap request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.networkError(method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.networkError(method, req.URL, fmt.Errorf("read body: %w", err))
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := c.classifyError(resp, nil)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("method", method).
			Str("path", req.URL.Path).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("CleverTap request error")

		return nil, &Error{
			Kind:       KindQueryRejected,
			ErrorClass: errClass,
			StatusCode: resp.StatusCode,
			Message:    resp.Status,
			Body:       body,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// PostJSON sends body encoded as JSON to rawURL.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetJSON performs a GET on rawURL with the given query parameters added.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// networkError records and wraps a request that never produced a response.
func (c *Client) networkError(method string, u *url.URL, err error) *Error {
	errClass := c.classifyError(nil, err)
	errorsTotal.WithLabelValues(string(errClass)).Inc()
	requestsTotal.WithLabelValues(method, "network_error").Inc()

	c.logger.Error().
		Err(err).
		Str("method", method).
		Str("path", u.Path).
		Msg("HTTP request failed")

	msg := method + " " + u.Scheme + "://" + u.Host + u.Path
	if errors.Is(err, context.DeadlineExceeded) {
		msg += " timed out"
	}

	// *url.Error repeats the full URL including the cursor; keep only the cause.
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}

	return &Error{
		Kind:       KindTransportFailure,
		ErrorClass: errClass,
		Message:    msg,
		Err:        err,
	}
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
// The per-request timeout from Config still applies through the context.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
