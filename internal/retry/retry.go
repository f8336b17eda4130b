package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config bounds a retried call.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// Timeout applies to each attempt; zero means the parent context only.
	Timeout time.Duration
	// Permanent reports errors that must not be retried.
	Permanent func(error) bool
}

// Once retries a failed attempt a single time after a short pause.
func Once(timeout time.Duration) Config {
	return Config{
		MaxRetries: 1,
		BaseDelay:  300 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
		Timeout:    timeout,
	}
}

// Do runs fn until it succeeds, returns a permanent error, the retries are
// spent, or ctx is done.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(cfg, attempt)
			select {
			case <-ctx.Done():
				return fmt.Errorf("gave up after %d attempt(s): %w", attempt, lastErr)
			case <-time.After(delay):
			}
		}

		err := call(ctx, cfg.Timeout, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.Permanent != nil && cfg.Permanent(err) {
			return err
		}
		// the caller's deadline is spent; another attempt cannot finish
		if ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(cctx)
	if err != nil && errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func backoff(cfg Config, attempt int) time.Duration {
	delay := cfg.BaseDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
