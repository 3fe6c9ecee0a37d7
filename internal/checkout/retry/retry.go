// Package retry executes an operation with bounded retries and exponential
// backoff, consulting the payment error classifier to decide whether a
// failure is worth another attempt.
package retry

import (
	"context"
	"time"

	"github.com/mercato/storefront/internal/checkout/payment"
)

const (
	// DefaultMaxAttempts bounds the number of invocations of the operation.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the delay before the second attempt; subsequent
	// delays double.
	DefaultBaseDelay = 1 * time.Second
	// MaxDelay caps the backoff. With the default base the sequence is
	// 1s, 2s, 4s, 8s, 8s...
	MaxDelay = 8 * time.Second
)

// Options tunes a single retry run.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// OnRetry is invoked before each backoff sleep, with the attempt number
	// that just failed and its classified error. Intended for UI feedback.
	OnRetry func(attempt int, record payment.ErrorRecord)
	// Sleep overrides the backoff sleep. Tests inject a recorder here; nil
	// means a real ctx-aware sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Outcome is the terminal result of a retry run. Exactly one of Data and Err
// is populated.
type Outcome[T any] struct {
	Success   bool
	Data      T
	Err       *payment.ErrorRecord
	Attempts  int
	Elapsed   time.Duration
	// Exhausted distinguishes "retried until the budget ran out" from
	// "stopped immediately on a non-retryable error".
	Exhausted bool
}

// Do invokes op up to opts.MaxAttempts times. Attempts are strictly
// sequential: the next attempt never starts before the previous failure is
// classified and the backoff delay elapses. An in-flight operation is never
// interrupted; cancellation is only observed between attempts.
func Do[T any](ctx context.Context, op func(context.Context) (T, error), opts Options) Outcome[T] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	start := time.Now()

	var lastRecord payment.ErrorRecord
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		data, err := op(ctx)
		if err == nil {
			return Outcome[T]{
				Success:  true,
				Data:     data,
				Attempts: attempt,
				Elapsed:  time.Since(start),
			}
		}

		lastRecord = payment.Classify(err)

		if !lastRecord.Retryable() {
			return Outcome[T]{
				Err:      &lastRecord,
				Attempts: attempt,
				Elapsed:  time.Since(start),
			}
		}

		if attempt == opts.MaxAttempts {
			break
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, lastRecord)
		}

		if err := sleep(ctx, Backoff(attempt, opts.BaseDelay)); err != nil {
			// Context cancelled during backoff; surface the last failure.
			return Outcome[T]{
				Err:      &lastRecord,
				Attempts: attempt,
				Elapsed:  time.Since(start),
			}
		}
	}

	return Outcome[T]{
		Err:       &lastRecord,
		Attempts:  opts.MaxAttempts,
		Elapsed:   time.Since(start),
		Exhausted: true,
	}
}

// Backoff returns the delay after the given failed attempt: base doubled per
// attempt, capped at MaxDelay. No jitter is applied; a deployment fronting
// real traffic would add it to avoid synchronized retries.
func Backoff(attempt int, base time.Duration) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= MaxDelay {
			return MaxDelay
		}
	}
	if delay > MaxDelay {
		return MaxDelay
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
