// Package ratelimit provides the admission primitives for pacing calls to
// LLM provider APIs: a serialized sliding-window limiter for single-lane
// call sites and a token-bucket scheduler for many concurrent call sites.
//
// # Sliding window
//
// WindowLimiter admits at most MaxRequestsPerWindow calls in any trailing
// Window, separated by at least MinRequestInterval:
//
//	limiter, err := ratelimit.NewWindowLimiter(ratelimit.WindowConfig{
//	    MinRequestInterval:   200 * time.Millisecond,
//	    Window:               time.Minute,
//	    MaxRequestsPerWindow: 60,
//	    ResetBuffer:          time.Second,
//	})
//
//	// Block until the next call is legal.
//	if err := limiter.Await(ctx); err != nil {
//	    return err // context cancelled
//	}
//	// Make request
//
// When the window fills, Await waits until the oldest entry plus Window plus
// ResetBuffer has passed and then treats the window as fully reset, clearing
// the whole log. That is deliberately simpler than a true sliding
// recomputation: over-admission never occurs, the limiter only waits
// slightly longer than strictly necessary.
//
// # Token-bucket scheduler
//
// Scheduler bounds simultaneous operations and total throughput:
//
//	sched, err := ratelimit.NewScheduler(ratelimit.SchedulerConfig{
//	    MaxConcurrent: 4,
//	    IntervalCap:   20,            // 20 dispatches...
//	    Interval:      time.Minute,   // ...per minute
//	})
//
//	fut := sched.Schedule(ctx, func(ctx context.Context) (interface{}, error) {
//	    return client.Chat(ctx, req)
//	})
//	resp, err := fut.Wait(ctx)
//
// Dispatch consumes a reservoir token; tokens are restored only by the
// periodic refill, so throughput is capped independently of how long each
// operation takes. Stop drains gracefully: in-flight work finishes, queued
// work settles with ErrSchedulerStopped.
//
// Both limiters keep all state local to one process; coordinating limits
// across processes is out of scope.
package ratelimit
