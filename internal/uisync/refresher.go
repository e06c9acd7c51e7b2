// Package uisync delivers the results of background reads to a single
// consumer, such as a terminal UI loop, newest request first.
package uisync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Refresh after Close.
var ErrClosed = errors.New("refresher is closed")

// Result is the outcome of one load, tagged with the sequence number of
// the request that produced it.
type Result[T any] struct {
	Seq   uint64
	Value T
	Err   error
}

// LoadFunc reads the data to display.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Refresher runs loads off the consumer goroutine. Loads may finish out of
// order; consumers filter stale results with a Latest.
type Refresher[T any] struct {
	load LoadFunc[T]
	seq  atomic.Uint64
	out  chan Result[T]

	mu     sync.Mutex
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewRefresher returns a refresher whose results channel buffers up to
// buffer results.
func NewRefresher[T any](load LoadFunc[T], buffer int) *Refresher[T] {
	return &Refresher[T]{
		load: load,
		out:  make(chan Result[T], max(buffer, 0)),
		done: make(chan struct{}),
	}
}

// Results returns the channel results are delivered on. It is closed by
// Close once running loads have finished.
func (r *Refresher[T]) Results() <-chan Result[T] {
	return r.out
}

// Refresh starts a load and returns its sequence number. Sequence numbers
// increase with every call.
func (r *Refresher[T]) Refresh(ctx context.Context) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, ErrClosed
	}
	seq := r.seq.Add(1)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		v, err := r.load(ctx)
		select {
		case r.out <- Result[T]{Seq: seq, Value: v, Err: err}:
		case <-ctx.Done():
		case <-r.done:
		}
	}()
	return seq, nil
}

// Close stops delivery, waits for running loads and closes Results.
// Loads still in flight are not cancelled; their results are dropped.
func (r *Refresher[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
	close(r.out)
}

// Latest keeps the newest accepted result. The zero value accepts any
// first result.
type Latest[T any] struct {
	seq   uint64
	value T
	err   error
	set   bool
}

// Accept stores res when it is newer than the stored result and reports
// whether it did.
func (l *Latest[T]) Accept(res Result[T]) bool {
	if l.set && res.Seq <= l.seq {
		return false
	}
	l.seq, l.value, l.err, l.set = res.Seq, res.Value, res.Err, true
	return true
}

// Value returns the stored value and the error of its load.
func (l *Latest[T]) Value() (T, error) {
	return l.value, l.err
}

// Seq returns the sequence number of the stored result, zero when none.
func (l *Latest[T]) Seq() uint64 {
	return l.seq
}

// Set reports whether a result was accepted.
func (l *Latest[T]) Set() bool {
	return l.set
}
