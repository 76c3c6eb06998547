package engine

import (
	"context"
	"log/slog"
	"sync"
)

// Pool is a fixed-size worker pool for blocking third-party operations
// (video metadata library calls, audio downloads). It keeps blocking work off
// the cooperative goroutines that multiplex network I/O, and its capacity is
// process-wide so concurrent search invocations share the same budget.
type Pool struct {
	tasks chan func()

	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewPool starts a pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i + 1)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case fn := <-p.tasks:
			fn()
		case <-p.done:
			return
		}
	}
}

// Close stops the workers. Tasks already started run to completion.
func (p *Pool) Close() {
	p.closeOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

// OnPool submits fn to the pool and awaits its result. If ctx expires before
// a worker picks the task up, OnPool returns ctx.Err() and the task never
// runs. If ctx expires after the task started, the blocking call still runs
// to completion on the worker but its result is discarded.
func OnPool[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)

	task := func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("pool: task panic", slog.Any("panic", r))
				ch <- result{err: Errf(KindInternal, "pool", "task panic: %v", r)}
			}
		}()
		v, err := fn()
		ch <- result{value: v, err: err}
	}

	select {
	case p.tasks <- task:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-p.done:
		return zero, Errf(KindCapacityExceeded, "pool", "pool closed")
	}

	select {
	case res := <-ch:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
