package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	llmerrors "github.com/hobbsb/llmkit/errors"
	"github.com/hobbsb/llmkit/ratelimit"
)

func newTestScheduler(t *testing.T) *ratelimit.Scheduler {
	t.Helper()
	s, err := ratelimit.NewScheduler(ratelimit.SchedulerConfig{
		MaxConcurrent: 4,
		IntervalCap:   100,
		Interval:      time.Second,
		MinTime:       time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func TestProcessAll_Empty(t *testing.T) {
	s := newTestScheduler(t)

	res := ProcessAll(context.Background(), s, nil,
		func(ctx context.Context, item int) (int, error) { return item, nil })

	if len(res.Successful) != 0 || len(res.Failed) != 0 {
		t.Errorf("expected empty result, got %d successes and %d failures",
			len(res.Successful), len(res.Failed))
	}
	if s.QueueLen() != 0 || s.InFlight() != 0 {
		t.Error("empty input must not touch the scheduler")
	}
}

func TestProcessAll_AllSucceed(t *testing.T) {
	s := newTestScheduler(t)

	items := []int{1, 2, 3, 4, 5}
	res := ProcessAll(context.Background(), s, items,
		func(ctx context.Context, item int) (int, error) { return item * 10, nil })

	if len(res.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failed)
	}
	if len(res.Successful) != len(items) {
		t.Fatalf("expected %d successes, got %d", len(items), len(res.Successful))
	}

	got := append([]int(nil), res.Successful...)
	sort.Ints(got)
	for i, v := range got {
		if v != (i+1)*10 {
			t.Errorf("missing result: got %v", res.Successful)
			break
		}
	}
}

func TestProcessAll_PartialFailure(t *testing.T) {
	s := newTestScheduler(t)

	boom := errors.New("item 2 is cursed")
	res := ProcessAll(context.Background(), s, []int{1, 2, 3},
		func(ctx context.Context, item int) (string, error) {
			if item == 2 {
				return "", boom
			}
			return fmt.Sprintf("f(%d)", item), nil
		})

	if len(res.Successful) != 2 {
		t.Errorf("expected 2 successes, got %v", res.Successful)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %v", res.Failed)
	}
	if res.Failed[0].Item != 2 {
		t.Errorf("expected item 2 in the failure, got %d", res.Failed[0].Item)
	}
	if !errors.Is(res.Failed[0].Err, boom) {
		t.Errorf("expected original error preserved, got %v", res.Failed[0].Err)
	}
}

func TestProcessAll_TotalsInvariant(t *testing.T) {
	s := newTestScheduler(t)

	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}

	res := ProcessAll(context.Background(), s, items,
		func(ctx context.Context, item int) (int, error) {
			if item%3 == 0 {
				return 0, fmt.Errorf("item %d failed", item)
			}
			return item, nil
		})

	if got := len(res.Successful) + len(res.Failed); got != len(items) {
		t.Errorf("totals invariant violated: %d outcomes for %d items", got, len(items))
	}
}

func TestProcessAll_NilInterfaceResult(t *testing.T) {
	s := newTestScheduler(t)

	// A processor with an interface result type may return (nil, nil);
	// that is a success with a zero value, not a crash.
	res := ProcessAll(context.Background(), s, []int{1, 2},
		func(ctx context.Context, item int) (interface{}, error) {
			if item == 1 {
				return nil, nil
			}
			return item, nil
		})

	if len(res.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failed)
	}
	if got := len(res.Successful) + len(res.Failed); got != 2 {
		t.Errorf("totals invariant violated: %d outcomes for 2 items", got)
	}
	sawNil := false
	for _, v := range res.Successful {
		if v == nil {
			sawNil = true
		}
	}
	if !sawNil {
		t.Errorf("expected a nil success recorded, got %v", res.Successful)
	}
}

func TestProcessAll_PanicCaptured(t *testing.T) {
	s := newTestScheduler(t)

	res := ProcessAll(context.Background(), s, []int{1, 2, 3},
		func(ctx context.Context, item int) (int, error) {
			if item == 2 {
				panic("processor exploded")
			}
			return item, nil
		})

	if len(res.Successful) != 2 {
		t.Errorf("expected the other items to survive, got %v", res.Successful)
	}
	if len(res.Failed) != 1 {
		t.Fatalf("expected the panic captured as a failure, got %v", res.Failed)
	}
	if !llmerrors.Is(res.Failed[0].Err, llmerrors.ErrCodePanic) {
		t.Errorf("expected PANIC error, got %v", res.Failed[0].Err)
	}
}

func TestProcessAll_StoppedScheduler(t *testing.T) {
	s, err := ratelimit.NewScheduler(ratelimit.SchedulerConfig{
		MaxConcurrent: 1,
		IntervalCap:   1,
		Interval:      time.Second,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()

	res := ProcessAll(context.Background(), s, []int{1, 2},
		func(ctx context.Context, item int) (int, error) { return item, nil })

	if len(res.Failed) != 2 {
		t.Fatalf("expected all items rejected, got %v", res.Failed)
	}
	for _, f := range res.Failed {
		if !errors.Is(f.Err, ratelimit.ErrSchedulerStopped) {
			t.Errorf("expected ErrSchedulerStopped, got %v", f.Err)
		}
	}
}

func TestProcessAll_BoundedConcurrency(t *testing.T) {
	s, err := ratelimit.NewScheduler(ratelimit.SchedulerConfig{
		MaxConcurrent: 2,
		IntervalCap:   100,
		Interval:      time.Second,
		MinTime:       time.Nanosecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(s.Stop)

	res := ProcessAll(context.Background(), s, []int{1, 2, 3, 4, 5, 6},
		func(ctx context.Context, item int) (int, error) {
			if n := s.InFlight(); n > 2 {
				return 0, fmt.Errorf("observed %d in flight", n)
			}
			time.Sleep(10 * time.Millisecond)
			return item, nil
		})

	if len(res.Failed) != 0 {
		t.Errorf("concurrency bound violated: %v", res.Failed)
	}
}
