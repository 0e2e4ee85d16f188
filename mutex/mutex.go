// Package mutex provides mutual-exclusion guarded cells. A Mutex owns the
// value it protects: mutable access goes through a Guard held by at most one
// goroutine at a time. A holder that terminates abnormally leaves the cell
// poisoned, which later acquisitions surface as ErrPoisoned.
package mutex

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrPoisoned reports that a prior holder terminated abnormally while the
// cell was locked. The state may be inconsistent; the guard is still handed
// back so callers can inspect or repair it deliberately.
var ErrPoisoned = errors.New("mutex: poisoned")

// Mutex protects a value of type T.
type Mutex[T any] struct {
	mu       sync.Mutex
	poisoned atomic.Bool
	value    T
}

// New returns a Mutex protecting v.
func New[T any](v T) *Mutex[T] {
	return &Mutex[T]{value: v}
}

// Lock blocks until exclusive access is acquired. The returned guard is
// always valid; err wraps ErrPoisoned when a prior holder panicked.
func (m *Mutex[T]) Lock() (*Guard[T], error) {
	m.mu.Lock()
	g := &Guard[T]{m: m}
	if m.poisoned.Load() {
		return g, fmt.Errorf("mutex: acquiring guard: %w", ErrPoisoned)
	}
	return g, nil
}

// TryLock attempts to acquire exclusive access without blocking. ok reports
// whether the guard was acquired.
func (m *Mutex[T]) TryLock() (*Guard[T], bool, error) {
	if !m.mu.TryLock() {
		return nil, false, nil
	}
	g := &Guard[T]{m: m}
	if m.poisoned.Load() {
		return g, true, fmt.Errorf("mutex: acquiring guard: %w", ErrPoisoned)
	}
	return g, true, nil
}

// With locks, runs fn with mutable access, and unlocks. If fn panics, the
// cell is poisoned and the panic re-raised. A poisoned cell fails fast
// without running fn.
func (m *Mutex[T]) With(fn func(v *T) error) error {
	g, err := m.Lock()
	if err != nil {
		g.Unlock()
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			g.Poison()
			g.Unlock()
			panic(r)
		}
		g.Unlock()
	}()
	return fn(&m.value)
}

// IsPoisoned reports whether the cell is poisoned.
func (m *Mutex[T]) IsPoisoned() bool { return m.poisoned.Load() }

// ClearPoison removes the poison mark, declaring the state consistent again.
func (m *Mutex[T]) ClearPoison() { m.poisoned.Store(false) }

// Guard is exclusive access to the protected value. It must be released with
// Unlock; use after release panics.
type Guard[T any] struct {
	m        *Mutex[T]
	released bool
}

// Get returns the protected value.
func (g *Guard[T]) Get() T {
	g.check()
	return g.m.value
}

// Set replaces the protected value.
func (g *Guard[T]) Set(v T) {
	g.check()
	g.m.value = v
}

// Do runs fn with a pointer to the protected value.
func (g *Guard[T]) Do(fn func(v *T)) {
	g.check()
	fn(&g.m.value)
}

// Poison marks the protected state inconsistent. Holders that mutate in
// multiple steps call this before bailing out partway.
func (g *Guard[T]) Poison() {
	g.check()
	g.m.poisoned.Store(true)
}

// Unlock releases the guard.
func (g *Guard[T]) Unlock() {
	g.check()
	g.released = true
	g.m.mu.Unlock()
}

func (g *Guard[T]) check() {
	if g.released {
		panic("mutex: guard used after unlock")
	}
}
