package ratelimit

import (
	"context"
	"errors"
	"time"
)

// Common errors.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// Operation is a unit of work routed through a Scheduler. The scheduler
// controls when an operation runs, never what it returns: the value and
// error pass through to the caller unchanged.
type Operation func(ctx context.Context) (interface{}, error)

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
