package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net"
	"time"
)

// StatusError carries a non-success HTTP status from an external call.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// RetryConfig bounds retries of an external call. Zero values take defaults.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one. Default 2.
	MaxRetries int
	// InitialBackoff is the wait before the first retry. Default 500ms.
	InitialBackoff time.Duration
	// MaxBackoff caps a single wait. Default 10s.
	MaxBackoff time.Duration
	// BackoffFactor grows the wait between attempts. Default 2.
	BackoffFactor float64
	// JitterFraction adds up to this share of the wait as noise. Default 0.1.
	JitterFraction float64
	// Retryable decides whether err is worth another attempt. Default IsTransient.
	Retryable func(error) bool
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = 2
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = 0.1
	}
	if c.Retryable == nil {
		c.Retryable = IsTransient
	}
	return c
}

// IsTransient reports whether err is a network-class failure or a 429/5xx
// status. Validation, auth and other 4xx failures are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// retry budget runs out or ctx is done. The last error is returned.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries || !cfg.Retryable(err) {
			return err
		}

		wait := backoff(cfg, attempt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
	}
}

func backoff(cfg RetryConfig, attempt int) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.BackoffFactor, float64(attempt))
	if d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	d += d * cfg.JitterFraction * rand.Float64()
	return time.Duration(d)
}
