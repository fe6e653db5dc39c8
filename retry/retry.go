// Package retry re-invokes fallible operations with a fixed delay.
//
// The delay is deliberately fixed rather than exponential: this is a
// prototyping primitive, and callers needing backoff growth wrap it
// themselves. The last error is always propagated; nothing is swallowed.
//
//	resp, err := retry.DoValue(ctx, retry.Options{}, func(ctx context.Context) (*llm.ChatResponse, error) {
//	    return provider.Chat(ctx, req)
//	})
package retry

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Defaults applied when Options fields are zero.
const (
	DefaultMaxRetries = 3
	DefaultDelay      = time.Second
)

// Classifier decides whether an error is worth another attempt.
type Classifier func(error) bool

// Options configures a retry loop.
type Options struct {
	// RetryAll retries every failure until MaxRetries. When false (the
	// default) only errors the classifier accepts are retried.
	RetryAll bool

	// MaxRetries is the total number of attempts, including the first.
	// Zero means DefaultMaxRetries.
	MaxRetries int

	// Delay is the fixed pause between attempts. Zero means DefaultDelay.
	Delay time.Duration

	// Classifier overrides Retryable for deciding retry eligibility.
	Classifier Classifier

	// OnRetry is invoked after a failed attempt has been accepted for
	// retry, before the delay. Attempt numbering starts at 1.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (o Options) maxRetries() int {
	if o.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return o.MaxRetries
}

func (o Options) delay() time.Duration {
	if o.Delay <= 0 {
		return DefaultDelay
	}
	return o.Delay
}

func (o Options) classifier() Classifier {
	if o.Classifier != nil {
		return o.Classifier
	}
	return Retryable
}

// Do invokes op up to MaxRetries times with a fixed delay between attempts.
// Unless RetryAll is set, only errors the classifier accepts are retried;
// the first non-retryable failure propagates immediately. After the final
// attempt the last error is returned unchanged.
func Do(ctx context.Context, opts Options, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	max := opts.maxRetries()
	classify := opts.classifier()

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if !opts.RetryAll && !classify(err) {
			return zero, err
		}
		if attempt == max {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, opts.delay(), err)
		}

		t := time.NewTimer(opts.delay())
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return zero, ctx.Err()
		}
		t.Stop()
	}
	return zero, lastErr
}

// Retryable is the default classifier. An error is retryable when it
// carries explicit retry semantics (a Retryable() bool method anywhere in
// its chain, as produced by the errors and schema packages), when it is a
// context deadline, or when its message reports a timeout condition.
func Retryable(err error) bool {
	if err == nil {
		return false
	}

	for e := err; e != nil; {
		if r, ok := e.(interface{ Retryable() bool }); ok {
			return r.Retryable()
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
