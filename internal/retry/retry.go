// Package retry runs an operation under exponential backoff with full
// jitter. The loop's retry/abort decision is a data-level branch: every
// error retries unless the operation wraps it in Permanent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

type Policy struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// OnBackoff, when set, observes each scheduled wait before it starts.
	// attempt is the 1-based attempt that just failed; wait is the base
	// (pre-jitter) delay before the next attempt.
	OnBackoff func(attempt int, wait time.Duration)
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 8,
		InitialWait: 1 * time.Second,
		MaxWait:     60 * time.Second,
		Multiplier:  2.0,
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 8
	}
	if p.InitialWait == 0 {
		p.InitialWait = 1 * time.Second
	}
	if p.MaxWait == 0 {
		p.MaxWait = 60 * time.Second
	}
	if p.Multiplier == 0 {
		p.Multiplier = 2.0
	}
	return p
}

// ExhaustedError reports that every attempt failed. Last carries the final
// underlying error for diagnostics.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent marks an error as not worth retrying. Do returns it unwrapped
// immediately instead of burning the remaining attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn up to p.MaxAttempts times. The base delay before attempt k
// doubles from InitialWait up to MaxWait; the actual sleep is drawn uniformly
// from [0, base] to desynchronize concurrent callers. Context cancellation
// aborts the wait.
func Do(ctx context.Context, p Policy, fn func() error) error {
	p = p.withDefaults()

	var lastErr error
	delay := p.InitialWait

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if p.OnBackoff != nil {
				p.OnBackoff(attempt-1, delay)
			}
			if err := sleep(ctx, fullJitter(delay)); err != nil {
				return err
			}
			delay = min(time.Duration(float64(delay)*p.Multiplier), p.MaxWait)
		}

		err := fn()
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
	}

	return &ExhaustedError{Attempts: p.MaxAttempts, Last: lastErr}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func fullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d) + 1))
}
