package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// WindowConfig configures a WindowLimiter.
type WindowConfig struct {
	// MinRequestInterval is the minimum gap between consecutive admissions.
	MinRequestInterval time.Duration

	// Window is the trailing interval over which admissions are counted.
	Window time.Duration

	// MaxRequestsPerWindow is the admission count allowed within Window.
	MaxRequestsPerWindow int

	// ResetBuffer is extra slack added when waiting out a full window.
	ResetBuffer time.Duration
}

// Validate checks the configuration.
func (c WindowConfig) Validate() error {
	if c.MaxRequestsPerWindow <= 0 {
		return fmt.Errorf("%w: max requests per window must be > 0, got %d",
			ErrInvalidConfig, c.MaxRequestsPerWindow)
	}
	if c.MinRequestInterval < 0 {
		return fmt.Errorf("%w: min request interval must not be negative", ErrInvalidConfig)
	}
	if c.Window < 0 {
		return fmt.Errorf("%w: window must not be negative", ErrInvalidConfig)
	}
	if c.ResetBuffer < 0 {
		return fmt.Errorf("%w: reset buffer must not be negative", ErrInvalidConfig)
	}
	return nil
}

// WindowLimiter serializes admissions so that at most MaxRequestsPerWindow
// occur in any trailing Window, with at least MinRequestInterval between
// consecutive admissions. It is a single-lane primitive: concurrent callers
// queue on the limiter and are admitted one at a time, with no fairness
// guarantee beyond the queueing order of the runtime.
type WindowLimiter struct {
	mu        sync.Mutex
	cfg       WindowConfig
	log       []time.Time // admission timestamps, pruned on every check
	lastAdmit time.Time

	nowFunc func() time.Time // for testing
}

// NewWindowLimiter creates a limiter from cfg.
func NewWindowLimiter(cfg WindowConfig) (*WindowLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &WindowLimiter{
		cfg:     cfg,
		nowFunc: time.Now,
	}, nil
}

// Await blocks until the next admission is legal, then records it.
// Wait times are bounded by Window + ResetBuffer. The only error path is
// context cancellation while waiting; with context.Background() the call
// always eventually returns nil.
func (l *WindowLimiter) Await(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	// Drop log entries that have fallen out of the trailing window.
	cutoff := now.Add(-l.cfg.Window)
	kept := l.log[:0]
	for _, t := range l.log {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.log = kept

	if len(l.log) >= l.cfg.MaxRequestsPerWindow {
		oldest := l.log[0]
		wait := l.cfg.Window - now.Sub(oldest) + l.cfg.ResetBuffer
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		// The window is treated as fully reset after the wait rather than
		// re-pruned; see the package documentation.
		l.log = l.log[:0]
		now = l.nowFunc()
	}

	if !l.lastAdmit.IsZero() {
		if gap := now.Sub(l.lastAdmit); gap < l.cfg.MinRequestInterval {
			if err := sleep(ctx, l.cfg.MinRequestInterval-gap); err != nil {
				return err
			}
			now = l.nowFunc()
		}
	}

	l.lastAdmit = now
	l.log = append(l.log, now)
	return nil
}

// Pending returns the number of admissions currently inside the trailing
// window. Useful for monitoring; the value is advisory and may be stale by
// the time the caller acts on it.
func (l *WindowLimiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.nowFunc().Add(-l.cfg.Window)
	n := 0
	for _, t := range l.log {
		if t.After(cutoff) {
			n++
		}
	}
	return n
}
