// Package dispatcher runs expensive jobs on a bounded pool with a per-job deadline.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/importcache/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Size      int   `json:"size"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	TimedOut  int64 `json:"timedOut"`
}

// Dispatcher bounds the number of concurrently running jobs.
// A job's deadline starts once it holds a slot, so time spent queueing does
// not count against it.
type Dispatcher struct {
	size int
	sem  *semaphore.Weighted

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
}

// New creates a Dispatcher running at most size jobs at once.
func New(size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		size: size,
		sem:  semaphore.NewWeighted(int64(size)),
	}
}

// Job is a unit of work executed by the dispatcher.
type Job[T any] func(ctx context.Context) (T, error)

type result[T any] struct {
	value T
	err   error
}

// Run executes job on d and waits for its result.
//
// If the job does not return within timeout it is cancelled and Run returns an
// error matching domain.ErrComputeTimeout. A non-positive timeout disables the
// deadline. If ctx is cancelled first, ctx.Err() is returned. The slot is held
// until the job function actually returns.
func Run[T any](ctx context.Context, d *Dispatcher, timeout time.Duration, job Job[T]) (T, error) {
	var zero T

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}

	d.mu.RLock()
	if d.closed {
		d.mu.RUnlock()
		d.sem.Release(1)
		return zero, domain.ErrDispatcherClosed
	}
	d.wg.Add(1)
	d.mu.RUnlock()

	jobCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	results := make(chan result[T], 1)
	d.active.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		defer d.active.Add(-1)

		v, err := protect(jobCtx, job)
		if err != nil {
			d.failed.Add(1)
		} else {
			d.completed.Add(1)
		}
		results <- result[T]{value: v, err: err}
	}()

	var r result[T]
	select {
	case r = <-results:
		if r.err == nil || jobCtx.Err() == nil {
			return r.value, r.err
		}
	case <-jobCtx.Done():
		// The job may have finished at the same instant the deadline fired.
		select {
		case r = <-results:
			if r.err == nil {
				return r.value, nil
			}
		default:
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	d.timedOut.Add(1)
	detail := zerr.With(zerr.Wrap(jobCtx.Err(), "job did not return in time"), "timeout", timeout.String())
	return zero, errors.Join(domain.ErrComputeTimeout, detail)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// protect runs job and turns a panic into domain.ErrComputeFailed.
func protect[T any](ctx context.Context, job Job[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = errors.Join(domain.ErrComputeFailed, zerr.With(zerr.New("panic in job"), "panic", panicToString(r)))
		}
	}()
	return job(ctx)
}

func panicToString(r any) string {
	switch v := r.(type) {
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

// Close rejects new jobs and waits for running ones to return.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// Stats returns a snapshot of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Size:      d.size,
		Active:    d.active.Load(),
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
		TimedOut:  d.timedOut.Load(),
	}
}
