// Package batch drives collections of items through a rate-limited
// scheduler, collecting per-item success and failure without one item's
// failure aborting the rest.
//
//	sched, _ := ratelimit.NewScheduler(ratelimit.SchedulerConfig{
//	    MaxConcurrent: 4, IntervalCap: 20, Interval: time.Minute,
//	})
//	res := batch.ProcessAll(ctx, sched, prompts,
//	    func(ctx context.Context, p string) (string, error) {
//	        return client.Complete(ctx, p)
//	    })
//	if len(res.Failed) > 0 {
//	    // partial failure; res.Successful still holds the rest
//	}
package batch

import (
	"context"

	"github.com/hobbsb/llmkit/errors"
	"github.com/hobbsb/llmkit/ratelimit"
)

// Failure binds an input item to the error it produced. Failures are never
// discarded; the caller decides whether any of them fail the whole batch.
type Failure[T any] struct {
	Item T
	Err  error
}

// Result partitions a batch into successes and per-item failures. Within
// each list entries appear in completion order, not submission order, and
// len(Successful)+len(Failed) always equals the input length.
type Result[R, T any] struct {
	Successful []R
	Failed     []Failure[T]
}

// Processor transforms one item.
type Processor[T, R any] func(ctx context.Context, item T) (R, error)

type outcome[R, T any] struct {
	val  R
	item T
	err  error
}

// ProcessAll schedules processor(item) for every item on s and awaits them
// all, bounded by the scheduler's concurrency and throughput caps. A
// processor panic is captured as that item's failure. An empty input
// returns an empty Result without touching the scheduler.
func ProcessAll[T, R any](ctx context.Context, s *ratelimit.Scheduler, items []T, processor Processor[T, R]) Result[R, T] {
	res := Result[R, T]{}
	if len(items) == 0 {
		return res
	}

	outcomes := make(chan outcome[R, T], len(items))
	for _, item := range items {
		item := item
		fut := s.Schedule(ctx, func(ctx context.Context) (interface{}, error) {
			return runSafe(ctx, processor, item)
		})
		go func() {
			val, err := fut.Wait(ctx)
			o := outcome[R, T]{item: item, err: err}
			if err == nil {
				// Two-result form: a processor may legitimately return a
				// nil interface value, which must land as a zero-valued
				// success rather than a panic.
				o.val, _ = val.(R)
			}
			outcomes <- o
		}()
	}

	for range items {
		o := <-outcomes
		if o.err != nil {
			res.Failed = append(res.Failed, Failure[T]{Item: o.item, Err: o.err})
			continue
		}
		res.Successful = append(res.Successful, o.val)
	}
	return res
}

// runSafe invokes the processor and converts a panic into an error so one
// item cannot take down the batch.
func runSafe[T, R any](ctx context.Context, processor Processor[T, R], item T) (val interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			val, err = nil, errors.RecoverPanic(r)
		}
	}()
	v, perr := processor(ctx, item)
	return v, perr
}
