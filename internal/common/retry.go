package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/facebookgo/clock"

	"github.com/Veraticus/smsledger/internal/service"
)

// ErrMaxRetries indicates that all retry attempts have been exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return &RetryableError{Err: err, Retryable: false}
}

// Transient marks err as retryable.
func Transient(err error) error {
	return &RetryableError{Err: err, Retryable: true}
}

// RetryPolicy runs an operation up to MaxAttempts times. Backoff returns
// the wait after the given failed attempt (1-based) and Sleep performs it.
type RetryPolicy struct {
	Backoff     func(attempt int) time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
	MaxAttempts int
}

// ExponentialBackoff waits base*multiplier^attempt, capped at maxDelay.
// With base one second and multiplier two, attempt n waits 2^n seconds.
func ExponentialBackoff(base time.Duration, multiplier float64, maxDelay time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		d := time.Duration(float64(base) * math.Pow(multiplier, float64(attempt)))
		if maxDelay > 0 && d > maxDelay {
			return maxDelay
		}
		return d
	}
}

// ClockSleep waits on c, returning early if ctx is done.
func ClockSleep(c clock.Clock) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.After(d):
			return nil
		}
	}
}

// NewRetryPolicy builds a policy from options, sleeping on c.
func NewRetryPolicy(opts service.RetryOptions, c clock.Clock) RetryPolicy {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	return RetryPolicy{
		MaxAttempts: opts.MaxAttempts,
		Backoff:     ExponentialBackoff(opts.InitialDelay, opts.Multiplier, opts.MaxDelay),
		Sleep:       ClockSleep(c),
	}
}

// Do executes operation until it succeeds, returns a permanent error,
// or MaxAttempts is reached. The attempt number passed to operation is 1-based.
func (p RetryPolicy) Do(ctx context.Context, operation func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := operation(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		var retryableErr *RetryableError
		if errors.As(err, &retryableErr) && !retryableErr.Retryable {
			return err
		}
		if errors.Is(err, context.Canceled) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}

		slog.Warn("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err)

		if p.Sleep != nil {
			if sleepErr := p.Sleep(ctx, delay); sleepErr != nil {
				return sleepErr
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, maxAttempts, lastErr)
}
