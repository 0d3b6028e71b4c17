package llm

import (
	"context"
	"time"

	"newsdigest/app/retry"
)

// RetryingClient decorates a backend with bounded retry on every
// generation call. Exhaustion surfaces the wrapped error; fallback values
// are the caller's concern.
type RetryingClient struct {
	inner    Client
	attempts int
	delay    time.Duration
}

var _ Client = (*RetryingClient)(nil)

func WithRetry(inner Client) *RetryingClient {
	return &RetryingClient{
		inner:    inner,
		attempts: retry.DefaultAttempts,
		delay:    retry.DefaultDelay,
	}
}

// WithRetryConfig is used by tests to shorten delays.
func WithRetryConfig(inner Client, attempts int, delay time.Duration) *RetryingClient {
	return &RetryingClient{inner: inner, attempts: attempts, delay: delay}
}

func (r *RetryingClient) GenerateSummaryAndLabels(ctx context.Context, articleText string) (string, []string, error) {
	var summary string
	var labels []string
	err := retry.Do(ctx, r.attempts, r.delay, func() error {
		var opErr error
		summary, labels, opErr = r.inner.GenerateSummaryAndLabels(ctx, articleText)
		return opErr
	})
	if err != nil {
		return "", nil, err
	}
	return summary, labels, nil
}

func (r *RetryingClient) GenerateCategories(ctx context.Context, articleText string) ([]string, error) {
	var categories []string
	err := retry.Do(ctx, r.attempts, r.delay, func() error {
		var opErr error
		categories, opErr = r.inner.GenerateCategories(ctx, articleText)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *RetryingClient) GenerateMonthlyDigest(ctx context.Context, articles []string) (string, error) {
	var digest string
	err := retry.Do(ctx, r.attempts, r.delay, func() error {
		var opErr error
		digest, opErr = r.inner.GenerateMonthlyDigest(ctx, articles)
		return opErr
	})
	if err != nil {
		return "", err
	}
	return digest, nil
}
