// Package arc provides an atomically reference-counted shared-ownership
// handle. Cloning a handle adds an owner; the protected value's finalizer
// runs when the last owner drops.
package arc

import (
	"sync/atomic"
)

type shared[T any] struct {
	strong atomic.Int64
	weak   atomic.Int64
	value  T
	fin    func(T)
}

// Arc is one owner of a shared value. Every owner must eventually call Drop;
// using a handle after dropping it panics.
type Arc[T any] struct {
	s       *shared[T]
	dropped atomic.Bool
}

// New returns the first owner of v.
func New[T any](v T) *Arc[T] {
	return NewFinalized(v, nil)
}

// NewFinalized returns the first owner of v. fin, if non-nil, runs exactly
// once when the last owner drops.
func NewFinalized[T any](v T, fin func(T)) *Arc[T] {
	s := &shared[T]{value: v, fin: fin}
	s.strong.Store(1)
	return &Arc[T]{s: s}
}

// Clone adds an owner of the shared value.
func (a *Arc[T]) Clone() *Arc[T] {
	a.check()
	if a.s.strong.Add(1) <= 1 {
		panic("arc: clone of released value")
	}
	return &Arc[T]{s: a.s}
}

// Drop releases this owner. The last drop runs the finalizer and releases
// the shared value. Dropping a handle twice panics.
func (a *Arc[T]) Drop() {
	if a.dropped.Swap(true) {
		panic("arc: handle dropped twice")
	}
	if a.s.strong.Add(-1) == 0 {
		if a.s.fin != nil {
			a.s.fin(a.s.value)
		}
		var zero T
		a.s.value = zero
	}
}

// Value returns the shared value.
func (a *Arc[T]) Value() T {
	a.check()
	return a.s.value
}

// StrongCount reports the current number of owners.
func (a *Arc[T]) StrongCount() int64 { return a.s.strong.Load() }

// WeakCount reports the current number of live weak handles.
func (a *Arc[T]) WeakCount() int64 { return a.s.weak.Load() }

// Downgrade returns a non-owning handle to the shared value.
func (a *Arc[T]) Downgrade() *Weak[T] {
	a.check()
	a.s.weak.Add(1)
	return &Weak[T]{s: a.s}
}

func (a *Arc[T]) check() {
	if a.dropped.Load() {
		panic("arc: use of dropped handle")
	}
}
