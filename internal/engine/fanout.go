package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Failure records a per-item fan-out failure without aborting the batch.
type Failure struct {
	Index int
	Kind  ErrorKind
	Err   error
}

// Outcome is the terminal result for one fan-out item: a value or a failure.
type Outcome[R any] struct {
	Value   R
	Failure *Failure
}

// OK reports whether the item produced a value.
func (o Outcome[R]) OK() bool { return o.Failure == nil }

// MapBounded runs worker over items with at most concurrency invocations in
// flight, each under perItemTimeout. Outcomes are reported in input order; a
// worker error, panic, or deadline expiry becomes a Failure entry rather than
// aborting its siblings. MapBounded returns only after every item has a
// terminal outcome.
func MapBounded[T, R any](ctx context.Context, items []T, concurrency int, perItemTimeout time.Duration, worker func(context.Context, T) (R, error)) []Outcome[R] {
	if concurrency <= 0 {
		concurrency = 1
	}

	out := make([]Outcome[R], len(items))
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Outer context gone: everything not yet scheduled fails fast.
			out[i] = Outcome[R]{Failure: &Failure{Index: i, Kind: KindTimedOut, Err: err}}
			continue
		}

		wg.Add(1)
		go func(i int, item T) {
			defer wg.Done()
			defer sem.Release(1)

			itemCtx := ctx
			if perItemTimeout > 0 {
				var cancel context.CancelFunc
				itemCtx, cancel = context.WithTimeout(ctx, perItemTimeout)
				defer cancel()
			}

			defer func() {
				if r := recover(); r != nil {
					slog.Error("fanout: worker panic", slog.Int("index", i), slog.Any("panic", r))
					out[i] = Outcome[R]{Failure: &Failure{Index: i, Kind: KindInternal, Err: Errf(KindInternal, "fanout", "worker panic: %v", r)}}
				}
			}()

			value, err := worker(itemCtx, item)
			if err != nil {
				out[i] = Outcome[R]{Failure: &Failure{Index: i, Kind: Classify(err), Err: err}}
				return
			}
			out[i] = Outcome[R]{Value: value}
		}(i, item)
	}

	wg.Wait()
	return out
}
