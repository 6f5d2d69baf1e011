// Package httpapi is the JSON-over-HTTP base shared by the persistence,
// allow-list and indexer clients.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/compose-network/premint/internal/logger"
	"github.com/compose-network/premint/internal/metrics"
	"github.com/compose-network/premint/internal/premint"
	"github.com/compose-network/premint/internal/retry"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 30 * time.Second
	maxBodyInError = 512
)

type (
	// BadResponseError is a non-2xx answer.
	BadResponseError struct {
		Method string
		Path   string
		Status int
		Body   string
	}

	Options struct {
		BaseURL string
		Timeout time.Duration
		Retry   retry.Policy
		// RequestsPerSecond limits the outgoing request rate. Zero disables the limit.
		RequestsPerSecond float64
		Metrics           *metrics.Metrics
		Transport         http.RoundTripper
	}

	Client struct {
		name    string
		http    *resty.Client
		policy  retry.Policy
		limiter *rate.Limiter
		metrics *metrics.Metrics
		logger  *slog.Logger
	}
)

func (e *BadResponseError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// IsNotFound reports whether err is a 404 answer.
func IsNotFound(err error) bool {
	var bad *BadResponseError
	return errors.As(err, &bad) && bad.Status == http.StatusNotFound
}

// IsRetryable accepts server errors and transport failures. Client errors,
// decode failures and cancellation by the caller are terminal.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var bad *BadResponseError
	if errors.As(err, &bad) {
		return bad.Status >= http.StatusInternalServerError
	}
	return !errors.Is(err, premint.ErrDecode)
}

func New(name string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.Transport != nil {
		httpClient.SetTransport(opts.Transport)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		name:    name,
		http:    httpClient,
		policy:  opts.Retry,
		limiter: limiter,
		metrics: opts.Metrics,
		logger:  logger.Named(name),
	}
}

// Get fetches path and decodes the JSON answer into out. Reads are always retried.
func (c *Client) Get(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, resty.MethodGet, path, nil, out, c.policy)
}

// Post sends body as JSON. It is retried only when retrySafe is set, since a
// repeated write may not be idempotent.
func (c *Client) Post(ctx context.Context, op, path string, body, out any, retrySafe bool) error {
	policy := retry.Once()
	if retrySafe {
		policy = c.policy
	}
	return c.do(ctx, op, resty.MethodPost, path, body, out, policy)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any, policy retry.Policy) error {
	attempt := 0
	_, err := retry.Do(ctx, policy, IsRetryable, func(ctx context.Context) (struct{}, error) {
		attempt++
		if attempt > 1 {
			c.metrics.RecordRetry(c.name, op)
			c.logger.
				With("op", op).
				With("attempt", attempt).
				Warn("retrying request")
		}
		return struct{}{}, c.send(ctx, op, method, path, body, out)
	})

	var exhausted *retry.Error
	if errors.As(err, &exhausted) {
		return &premint.TransientFetchError{Op: c.name + " " + op, Attempts: exhausted.Attempts, Err: exhausted.Err}
	}
	return err
}

func (c *Client) send(ctx context.Context, op, method, path string, body, out any) (err error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	defer func() {
		c.metrics.RecordRequest(c.name, op, time.Since(start), err)
	}()

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", method, path, err)
	}

	c.logger.
		With("op", op).
		With("status", resp.StatusCode()).
		With("took", resp.Time()).
		Debug("request completed")

	if !resp.IsSuccess() {
		return &BadResponseError{Method: method, Path: path, Status: resp.StatusCode(), Body: truncate(resp.String())}
	}
	if out == nil {
		return nil
	}
	// decoded here rather than through SetResult so a malformed body surfaces as a DecodeError
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &premint.DecodeError{Field: op, Value: truncate(resp.String()), Err: err}
	}
	return nil
}

func truncate(s string) string {
	if len(s) <= maxBodyInError {
		return s
	}
	return s[:maxBodyInError] + "..."
}
