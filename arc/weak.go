package arc

import "sync/atomic"

// Weak is a non-owning handle. It does not keep the shared value alive;
// Upgrade fails once the last owner has dropped.
type Weak[T any] struct {
	s       *shared[T]
	dropped atomic.Bool
}

// Upgrade attempts to become an owner. It reports false if the value has
// already been released.
func (w *Weak[T]) Upgrade() (*Arc[T], bool) {
	if w.dropped.Load() {
		panic("arc: use of dropped weak handle")
	}
	for {
		n := w.s.strong.Load()
		if n == 0 {
			return nil, false
		}
		if w.s.strong.CompareAndSwap(n, n+1) {
			return &Arc[T]{s: w.s}, true
		}
	}
}

// Drop releases the weak handle. Dropping twice panics.
func (w *Weak[T]) Drop() {
	if w.dropped.Swap(true) {
		panic("arc: weak handle dropped twice")
	}
	w.s.weak.Add(-1)
}
