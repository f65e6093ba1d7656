package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// RetryProvider re-sends a request after transient failures, backing off
// exponentially with jitter between attempts.
type RetryProvider struct {
	inner Provider
	cfg   RetryConfig
}

// WithRetry wraps p. A MaxAttempts below one behaves as one.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	return &RetryProvider{inner: p, cfg: cfg}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	// A malformed structured reply is worth one more sample, not more.
	malformedLeft := 1

	var err error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if werr := wait(ctx, r.delay(attempt-1, err)); werr != nil {
				return nil, werr
			}
		}

		var resp *Response
		resp, err = r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		switch retryable(err) {
		case never:
			return nil, err
		case once:
			if malformedLeft == 0 {
				return nil, err
			}
			malformedLeft--
		}
	}
	return nil, err
}

func (r *RetryProvider) ModelID() string { return r.inner.ModelID() }

func (r *RetryProvider) Unwrap() Provider { return r.inner }

type retryClass int

const (
	always retryClass = iota
	once
	never
)

// retryable sorts errors by whether a second attempt can succeed.
// Unclassified errors are assumed to be network faults and retried.
func retryable(err error) retryClass {
	var (
		rejected  *ErrRejected
		truncated *ErrMaxTokensExceeded
		invalid   *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return never
	case errors.Is(err, ErrModelMissing):
		return never
	case errors.As(err, &rejected), errors.As(err, &truncated):
		return never
	case errors.As(err, &invalid):
		return once
	default:
		return always
	}
}

// delay is the pause after the given failed attempt. A rate limit that
// names its own wait is honoured as-is.
func (r *RetryProvider) delay(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	d := float64(r.cfg.InitialWait)
	for range attempt {
		d *= r.cfg.Multiplier
	}
	if limit := float64(r.cfg.MaxWait); limit > 0 && d > limit {
		d = limit
	}
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
