package thread

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

type Option func(*Options)

type Options struct {
	Name       string
	Observer   Observer
	MaxWorkers int
}

func defaultOptions() Options { return Options{} }

func WithName(name string) Option { return func(o *Options) { o.Name = name } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// WithMaxWorkers bounds concurrent work inside a Pool. Spawn ignores it.
func WithMaxWorkers(n int) Option { return func(o *Options) { o.MaxWorkers = n } }

// PanicError is the error a Handle yields when the spawned work panicked.
// Value holds the panic value and Stack the stack at the panic site.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("thread panicked: %v", e.Value) }

// Handle is the join point for one spawned unit of work. Join may be called
// from any goroutine, any number of times, and always returns the same pair.
type Handle[T any] struct {
	name     string
	done     chan struct{}
	val      T
	err      error
	panicked bool
}

// Spawn runs fn on its own goroutine and returns a handle for joining it.
func Spawn[T any](fn func() (T, error), optFns ...Option) *Handle[T] {
	opts := defaultOptions()
	for _, o := range optFns {
		o(&opts)
	}
	h := &Handle[T]{name: opts.Name, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		var start time.Time
		if opts.Observer != nil {
			start = time.Now()
			opts.Observer.ThreadSpawned(h.name)
		}
		defer func() {
			if r := recover(); r != nil {
				h.err = &PanicError{Value: r, Stack: debug.Stack()}
				h.panicked = true
			}
			if opts.Observer != nil {
				opts.Observer.ThreadFinished(h.name, time.Since(start), h.err, h.panicked)
			}
		}()
		h.val, h.err = fn()
	}()
	return h
}

// Join blocks until the spawned work completes and returns its result. If the
// work panicked, the error is a *PanicError.
func (h *Handle[T]) Join() (T, error) {
	<-h.done
	return h.val, h.err
}

// JoinContext is Join with a deadline: it abandons the wait when ctx is done.
// The spawned work keeps running and the handle remains joinable.
func (h *Handle[T]) JoinContext(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.val, h.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the spawned work has completed.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

func (h *Handle[T]) Name() string { return h.name }

// Panicked reports whether the work ended in a panic. It returns false while
// the work is still running.
func (h *Handle[T]) Panicked() bool {
	select {
	case <-h.done:
		return h.panicked
	default:
		return false
	}
}
