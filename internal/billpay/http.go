package billpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Config configures the HTTP client.
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries uint
	// RetryInitial is the first backoff interval; zero uses the library default.
	RetryInitial time.Duration
}

// HTTPClient talks to Bill-Pay's JSON API, retrying transient failures with exponential backoff.
type HTTPClient struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	tries   uint
	initial time.Duration
	logger  *slog.Logger
}

// NewHTTPClient creates a Bill-Pay client for cfg.BaseURL.
func NewHTTPClient(cfg Config, logger *slog.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing bill-pay url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tries := cfg.MaxRetries + 1
	return &HTTPClient{
		baseURL: base,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		tries:   tries,
		initial: cfg.RetryInitial,
		logger:  logger,
	}, nil
}

// Submit posts a payment. The reference is sent as Idempotency-Key so a retried submission
// can't create a second payment.
func (c *HTTPClient) Submit(ctx context.Context, req PaymentRequest) (*Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding payment request: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/payments", body, req.Reference)
}

// Status fetches the current state of a payment.
func (c *HTTPClient) Status(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, fmt.Errorf("%w: empty payment id", ErrRejected)
	}
	return c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(paymentID), nil, "")
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, idempotencyKey string) (*Payment, error) {
	endpoint := c.baseURL.String() + path

	attempt := 0
	operation := func() (*Payment, error) {
		attempt++
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("building request: %w", err))
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			c.logRetry(method, path, attempt, err)
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
		}

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			err := fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
			c.logRetry(method, path, attempt, err)
			return nil, err
		case resp.StatusCode >= 400:
			return nil, backoff.Permanent(fmt.Errorf("%w: status %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(payload))))
		}

		var payment Payment
		if err := json.Unmarshal(payload, &payment); err != nil {
			return nil, backoff.Permanent(fmt.Errorf("decoding payment: %w", err))
		}
		return &payment, nil
	}

	policy := backoff.NewExponentialBackOff()
	if c.initial > 0 {
		policy.InitialInterval = c.initial
		policy.MaxInterval = 10 * c.initial
	}

	payment, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.tries),
	)
	if err != nil {
		if errors.Is(err, ErrRejected) || errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return payment, nil
}

func (c *HTTPClient) logRetry(method, path string, attempt int, err error) {
	if c.logger != nil {
		c.logger.Warn("bill-pay request failed", "method", method, "path", path, "attempt", attempt, "error", err)
	}
}
