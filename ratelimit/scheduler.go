package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// MaxConcurrent bounds the number of operations in flight at once.
	MaxConcurrent int

	// IntervalCap is the reservoir size: the number of dispatches allowed
	// per Interval. Must be at least MaxConcurrent.
	IntervalCap int

	// Interval is the reservoir refill period.
	Interval time.Duration

	// MinTime is the minimum spacing between successive dispatches.
	// Zero derives Interval/IntervalCap rounded up.
	MinTime time.Duration
}

// Validate checks the configuration.
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("%w: max concurrent must be > 0, got %d",
			ErrInvalidConfig, c.MaxConcurrent)
	}
	if c.IntervalCap < c.MaxConcurrent {
		return fmt.Errorf("%w: interval cap %d is below max concurrent %d",
			ErrInvalidConfig, c.IntervalCap, c.MaxConcurrent)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be > 0", ErrInvalidConfig)
	}
	if c.MinTime < 0 {
		return fmt.Errorf("%w: min time must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Future is the pending outcome of a scheduled operation.
type Future struct {
	done chan struct{}
	val  interface{}
	err  error
}

// Wait blocks until the operation settles or ctx is done. The operation's
// own value and error are returned unchanged; a job abandoned by Stop
// settles with ErrSchedulerStopped.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed when the operation settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

func rejected(err error) *Future {
	f := &Future{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

type job struct {
	ctx context.Context
	op  Operation
	fut *Future
}

// Scheduler bounds concurrency to MaxConcurrent while capping throughput to
// IntervalCap dispatches per Interval and spacing dispatches by MinTime.
// Reservoir, in-flight count and queue are owned by a single coordinating
// goroutine plus a mutex; there is no other mutation path.
type Scheduler struct {
	cfg SchedulerConfig

	mu           sync.Mutex
	queue        []*job
	inFlight     int
	reservoir    int
	lastDispatch time.Time
	stopped      bool

	kick   chan struct{} // submissions and completions wake the coordinator
	stopCh chan struct{}
	doneCh chan struct{} // closed when the coordinator exits after drain

	nowFunc func() time.Time // for testing
}

// NewScheduler creates a scheduler from cfg and starts its coordinator.
// The reservoir starts full.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MinTime == 0 {
		cfg.MinTime = cfg.Interval / time.Duration(cfg.IntervalCap)
		if cfg.Interval%time.Duration(cfg.IntervalCap) != 0 {
			cfg.MinTime++
		}
	}

	s := &Scheduler{
		cfg:       cfg,
		reservoir: cfg.IntervalCap,
		kick:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
		nowFunc:   time.Now,
	}
	go s.run()
	return s, nil
}

// Schedule enqueues op and returns its Future. Operations are admitted in
// FIFO submission order, each consuming one reservoir token at dispatch
// time; the token is restored only by the periodic refill, not by the
// operation completing. ctx is passed to op when it runs.
func (s *Scheduler) Schedule(ctx context.Context, op Operation) *Future {
	fut := &Future{done: make(chan struct{})}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return rejected(ErrSchedulerStopped)
	}
	s.queue = append(s.queue, &job{ctx: ctx, op: op, fut: fut})
	s.mu.Unlock()

	s.signal()
	return fut
}

// Wrap returns an operation whose every invocation is routed through
// Schedule, blocking until the scheduled run settles.
func (s *Scheduler) Wrap(op Operation) Operation {
	return func(ctx context.Context) (interface{}, error) {
		return s.Schedule(ctx, op).Wait(ctx)
	}
}

// Stop drains the scheduler: queued-but-undispatched jobs settle with
// ErrSchedulerStopped (they are never started), in-flight operations run to
// completion, and Stop returns once draining finishes. Stop is idempotent;
// Schedule after Stop returns an already-rejected Future.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		<-s.doneCh
		return
	}
	s.stopped = true
	abandoned := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, j := range abandoned {
		j.fut.err = ErrSchedulerStopped
		close(j.fut.done)
	}

	close(s.stopCh)
	<-s.doneCh
}

// InFlight returns the number of operations currently executing.
func (s *Scheduler) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// QueueLen returns the number of operations awaiting dispatch.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Scheduler) signal() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// run is the coordinating goroutine. It alone decides dispatches; all
// other goroutines only enqueue work or report completion.
func (s *Scheduler) run() {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	spacing := time.NewTimer(s.cfg.MinTime)
	if !spacing.Stop() {
		<-spacing.C
	}
	defer spacing.Stop()

	for {
		if wait := s.dispatch(); wait > 0 {
			spacing.Reset(wait)
		}

		select {
		case <-s.kick:
		case <-spacing.C:
		case <-ticker.C:
			s.mu.Lock()
			s.reservoir = s.cfg.IntervalCap
			s.mu.Unlock()
		case <-s.stopCh:
			s.drain()
			return
		}
	}
}

// dispatch admits queued jobs while capacity, tokens and spacing allow.
// It returns a non-zero duration when the head of the queue is blocked
// only on MinTime spacing.
func (s *Scheduler) dispatch() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.queue) > 0 {
		if s.inFlight >= s.cfg.MaxConcurrent || s.reservoir <= 0 {
			return 0 // woken by a completion or refill
		}
		now := s.nowFunc()
		if !s.lastDispatch.IsZero() {
			if wait := s.cfg.MinTime - now.Sub(s.lastDispatch); wait > 0 {
				return wait
			}
		}

		j := s.queue[0]
		s.queue = s.queue[1:]
		s.reservoir--
		s.inFlight++
		s.lastDispatch = now
		go s.execute(j)
	}
	return 0
}

func (s *Scheduler) execute(j *job) {
	val, err := j.op(j.ctx)
	j.fut.val, j.fut.err = val, err
	close(j.fut.done)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	s.signal()
}

// drain waits for in-flight operations to finish, then releases Stop.
func (s *Scheduler) drain() {
	defer close(s.doneCh)
	for {
		s.mu.Lock()
		n := s.inFlight
		s.mu.Unlock()
		if n == 0 {
			return
		}
		<-s.kick
	}
}
