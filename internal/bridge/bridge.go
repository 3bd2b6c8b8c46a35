// Package bridge runs blocking calls on dedicated OS threads. The calling
// goroutine only parks on a channel until the worker reports back, so a slow
// syscall never occupies a thread the scheduler needs for other goroutines.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultMaxWorkers  = 512
	DefaultIdleTimeout = 10 * time.Second
)

// ErrClosed is returned by Do once the pool has been closed.
var ErrClosed = errors.New("bridge: pool closed")

// PanicError carries a panic recovered from a dispatched call.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("bridge: blocking call panicked: %v", e.Value)
}

// Option configures a Pool.
type Option func(*Pool)

// WithMaxWorkers caps the number of worker threads.
func WithMaxWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.maxWorkers = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker waits before exiting.
func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.idleTimeout = d
		}
	}
}

// Pool is an elastic set of worker goroutines, each locked to its own OS
// thread for its whole lifetime. Workers are started on demand up to the
// configured maximum and retire after sitting idle.
type Pool struct {
	jobs        chan func()
	quit        chan struct{}
	maxWorkers  int
	idleTimeout time.Duration

	mu      sync.Mutex
	workers int
	closed  bool
	vacancy chan struct{} // closed and replaced whenever a worker retires
	wg      sync.WaitGroup

	// beforeRetire runs between an idle worker's last look at the queue
	// and its retirement. Set only by tests.
	beforeRetire func()

	busy atomic.Int64
}

// New creates a Pool. No threads are started until the first call.
func New(opts ...Option) *Pool {
	p := &Pool{
		jobs:        make(chan func()),
		quit:        make(chan struct{}),
		vacancy:     make(chan struct{}),
		maxWorkers:  DefaultMaxWorkers,
		idleTimeout: DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPool = sync.OnceValue(func() *Pool { return New() })

// Default returns the process-wide pool. It is never closed.
func Default() *Pool {
	return defaultPool()
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	Workers    int
	Busy       int
	MaxWorkers int
}

// Stats returns the current worker counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()
	return Stats{
		Workers:    workers,
		Busy:       int(p.busy.Load()),
		MaxWorkers: p.maxWorkers,
	}
}

// Close stops accepting new calls and waits for running ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()

	p.wg.Wait()
}

type result[T any] struct {
	val T
	err error
}

// Do runs fn exactly once on a pool thread and waits for its result.
//
// If ctx is done before fn is handed to a worker, fn never runs. If ctx is
// done while fn is running, Do returns ctx.Err() immediately; fn still runs
// to completion in the background and its result is dropped.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// Buffered so an abandoned call never blocks its worker.
	done := make(chan result[T], 1)
	job := func() {
		var r result[T]
		defer func() {
			if v := recover(); v != nil {
				r = result[T]{err: &PanicError{Value: v, Stack: debug.Stack()}}
			}
			done <- r
		}()
		r.val, r.err = fn()
	}

	if err := p.submit(ctx, job); err != nil {
		return zero, err
	}

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		select {
		case r := <-done:
			return r.val, r.err
		default:
		}
		return zero, ctx.Err()
	}
}

func (p *Pool) submit(ctx context.Context, job func()) error {
	for {
		// An idle worker takes it immediately.
		select {
		case p.jobs <- job:
			return nil
		default:
		}

		spawned, vacancy, err := p.spawn(job)
		if err != nil || spawned {
			return err
		}

		// At the limit. Wait for a worker to pick the job up, or for one to
		// retire and free a slot, whichever comes first.
		select {
		case p.jobs <- job:
			return nil
		case <-vacancy:
		case <-ctx.Done():
			return ctx.Err()
		case <-p.quit:
			return ErrClosed
		}
	}
}

// spawn starts a worker for first unless the pool is full. When full it
// returns the channel that is closed by the next retirement.
func (p *Pool) spawn(first func()) (bool, <-chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, nil, ErrClosed
	}
	if p.workers >= p.maxWorkers {
		return false, p.vacancy, nil
	}
	p.workers++
	p.wg.Add(1)
	go p.worker(first)
	return true, nil, nil
}

func (p *Pool) worker(job func()) {
	defer p.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	timer := time.NewTimer(p.idleTimeout)
	defer timer.Stop()

	for {
		p.run(job)
		timer.Reset(p.idleTimeout)

		select {
		case job = <-p.jobs:
			continue
		case <-p.quit:
			p.retire()
			return
		case <-timer.C:
		}

		// Take anything that raced with the timer before leaving.
		select {
		case job = <-p.jobs:
			continue
		default:
		}
		if p.beforeRetire != nil {
			p.beforeRetire()
		}
		p.retire()
		return
	}
}

func (p *Pool) run(job func()) {
	p.busy.Add(1)
	defer p.busy.Add(-1)
	job()
}

func (p *Pool) retire() {
	p.mu.Lock()
	p.workers--
	close(p.vacancy)
	p.vacancy = make(chan struct{})
	p.mu.Unlock()
}
