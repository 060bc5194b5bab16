package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hookscontent/hooks/internal/logging"
)

const (
	// RequestIDHeader correlates client and server logs.
	RequestIDHeader = logging.RequestIDHeader

	maxErrorBody = 64 << 10

	retryBaseBackoff = 200 * time.Millisecond
	retryMaxBackoff  = 3 * time.Second
)

// TokenSource supplies the bearer token attached to authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) string

// AccessToken implements TokenSource.
func (f TokenFunc) AccessToken(ctx context.Context) string {
	return f(ctx)
}

// Options tune a single call. The zero value is the plain one-shot request:
// no auth header, no client-side timeout, no retries.
type Options struct {
	RequireAuth bool
	Headers     map[string]string
	// Timeout bounds the call when positive.
	Timeout time.Duration
	// Retries is how many extra attempts are made after a transport error or
	// a 502/503/504 response.
	Retries int
}

// Client is the single choke point for every call to the HooksContent API.
type Client struct {
	baseURL  string
	http     *http.Client
	tokens   TokenSource
	limiter  *rate.Limiter
	defaults Options
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimiter throttles outgoing calls.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithDefaults sets the Timeout and Retries used when a call leaves them at
// zero.
func WithDefaults(opts Options) Option {
	return func(c *Client) {
		c.defaults = Options{Timeout: opts.Timeout, Retries: opts.Retries}
	}
}

// New returns a Client for baseURL. tokens may be nil, in which case
// authenticated calls are sent without a bearer token.
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		tokens:  tokens,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, endpoint string, out any, opts Options) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out, opts)
}

// Post issues a POST with body encoded as JSON.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any, opts Options) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out, opts)
}

// Put issues a PUT with body encoded as JSON.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any, opts Options) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out, opts)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts Options) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, out, opts)
}

// Do performs one API call. A nil body sends no body. out may be nil, and is
// left untouched when the response is not JSON. When out has a Validate
// method it is run after decoding and failures are reported as *DecodeError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any, opts Options) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = encoded
	}

	if opts.Timeout <= 0 {
		opts.Timeout = c.defaults.Timeout
	}
	if opts.Retries <= 0 {
		opts.Retries = c.defaults.Retries
	}

	ctx, span := logging.StartSpan(ctx, "api.call")
	logger := span.Logger().With(slog.String("method", method), slog.String("endpoint", path(endpoint)))

	var err error
	attempt := 0
	for ; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			if werr := c.sleep(ctx, backoff(attempt)); werr != nil {
				break
			}
			logger.Info("retrying api call", "attempt", attempt+1)
		}

		var status int
		status, err = c.once(ctx, method, endpoint, payload, out, opts)
		logger.Debug("api call finished", "status", status, "attempt", attempt+1)
		if !shouldRetry(ctx, err) {
			break
		}
	}

	span.End(err, slog.String("method", method), slog.String("endpoint", path(endpoint)))
	return err
}

func (c *Client) once(ctx context.Context, method, endpoint string, payload []byte, out any, opts Options) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), bodyReader)
	if err != nil {
		return 0, newNetworkError(err)
	}
	c.setHeaders(ctx, req, opts)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, newNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, newHTTPError(resp.StatusCode, statusText(resp), raw)
	}

	if out == nil || !isJSON(resp.Header.Get("Content-Type")) {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, &DecodeError{Endpoint: path(endpoint), Err: err}
	}

	if v, ok := out.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return resp.StatusCode, &DecodeError{Endpoint: path(endpoint), Err: err}
		}
	}

	return resp.StatusCode, nil
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request, opts Options) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	} else {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if opts.RequireAuth && c.tokens != nil {
		if token := c.tokens.AccessToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
}

func (c *Client) url(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// path strips the query string so user ids do not end up in logs.
func path(endpoint string) string {
	if p, _, ok := strings.Cut(endpoint, "?"); ok {
		return p
	}
	return endpoint
}

func shouldRetry(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case StatusNetwork, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func backoff(attempt int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempt-1))) * retryBaseBackoff
	if d > retryMaxBackoff {
		d = retryMaxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
