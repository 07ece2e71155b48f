// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// NonRetryableError wraps errors that should stop a retry run immediately.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable marks err as final.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err was marked with NonRetryable.
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Policy is a bounded backoff schedule.
type Policy struct {
	MaxAttempts int           // total attempts in one run; <= 0 means one
	BaseDelay   time.Duration // wait after the first failed attempt
	MaxDelay    time.Duration // cap on any single wait; 0 means no cap
	Multiplier  float64       // growth per attempt; < 1 means fixed spacing
}

// DefaultPolicy is one attempt plus three retries two seconds apart.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 4,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
		Multiplier:  1,
	}
}

// Attempts returns the effective attempt count.
func (p Policy) Attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Delay returns the wait before retry n (1-based), that is, the pause
// after attempt n failed. It is pure and never negative.
func (p Policy) Delay(n int) time.Duration {
	if n < 1 || p.BaseDelay <= 0 {
		return 0
	}

	d := float64(p.BaseDelay)
	if p.Multiplier > 1 {
		for i := 1; i < n; i++ {
			d *= p.Multiplier
			if p.MaxDelay > 0 && d >= float64(p.MaxDelay) {
				return p.MaxDelay
			}
			// Overflow guard for large n without a cap.
			if d > float64(time.Duration(1<<63-1)) {
				return time.Duration(1<<63 - 1)
			}
		}
	}

	if p.MaxDelay > 0 && time.Duration(d) > p.MaxDelay {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Validate rejects schedules that cannot be run.
func (p Policy) Validate() error {
	if p.BaseDelay < 0 {
		return errors.New("retry: BaseDelay cannot be negative")
	}
	if p.MaxDelay < 0 {
		return errors.New("retry: MaxDelay cannot be negative")
	}
	if p.Multiplier < 0 {
		return errors.New("retry: Multiplier cannot be negative")
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.BaseDelay {
		return errors.New("retry: MaxDelay must be >= BaseDelay")
	}
	return nil
}

// Do runs fn until it succeeds, returns a NonRetryable error, the
// attempts are exhausted, or ctx is cancelled. fn receives the 1-based
// attempt number. Waits go through clock so tests control time.
func Do(ctx context.Context, p Policy, clock Clock, fn func(attempt int) error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if clock == nil {
		clock = RealClock()
	}

	attempts := p.Attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsNonRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt+1, ctx.Err())
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled during backoff for attempt %d: %w", attempt+1, ctx.Err())
		case <-clock.After(p.Delay(attempt)):
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", attempts, lastErr)
}
