package mutex

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RWMutex protects a value of type T with shared readers and one writer.
// Poisoning follows the write path: only an abnormal writer poisons the cell.
type RWMutex[T any] struct {
	mu       sync.RWMutex
	poisoned atomic.Bool
	value    T
}

// NewRW returns an RWMutex protecting v.
func NewRW[T any](v T) *RWMutex[T] {
	return &RWMutex[T]{value: v}
}

// Lock blocks until exclusive write access is acquired.
func (m *RWMutex[T]) Lock() (*WGuard[T], error) {
	m.mu.Lock()
	g := &WGuard[T]{m: m}
	if m.poisoned.Load() {
		return g, fmt.Errorf("mutex: acquiring write guard: %w", ErrPoisoned)
	}
	return g, nil
}

// RLock blocks until shared read access is acquired. Any number of read
// guards may be held at once.
func (m *RWMutex[T]) RLock() (*RGuard[T], error) {
	m.mu.RLock()
	g := &RGuard[T]{m: m}
	if m.poisoned.Load() {
		return g, fmt.Errorf("mutex: acquiring read guard: %w", ErrPoisoned)
	}
	return g, nil
}

// With locks for writing, runs fn, and unlocks, poisoning on panic.
func (m *RWMutex[T]) With(fn func(v *T) error) error {
	g, err := m.Lock()
	if err != nil {
		g.Unlock()
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			m.poisoned.Store(true)
			g.Unlock()
			panic(r)
		}
		g.Unlock()
	}()
	return fn(&m.value)
}

func (m *RWMutex[T]) IsPoisoned() bool { return m.poisoned.Load() }

func (m *RWMutex[T]) ClearPoison() { m.poisoned.Store(false) }

// WGuard is exclusive write access to the protected value.
type WGuard[T any] struct {
	m        *RWMutex[T]
	released bool
}

func (g *WGuard[T]) Get() T {
	g.check()
	return g.m.value
}

func (g *WGuard[T]) Set(v T) {
	g.check()
	g.m.value = v
}

func (g *WGuard[T]) Do(fn func(v *T)) {
	g.check()
	fn(&g.m.value)
}

// Poison marks the protected state inconsistent.
func (g *WGuard[T]) Poison() {
	g.check()
	g.m.poisoned.Store(true)
}

func (g *WGuard[T]) Unlock() {
	g.check()
	g.released = true
	g.m.mu.Unlock()
}

func (g *WGuard[T]) check() {
	if g.released {
		panic("mutex: guard used after unlock")
	}
}

// RGuard is shared read access to the protected value.
type RGuard[T any] struct {
	m        *RWMutex[T]
	released bool
}

func (g *RGuard[T]) Get() T {
	if g.released {
		panic("mutex: guard used after unlock")
	}
	return g.m.value
}

func (g *RGuard[T]) Unlock() {
	if g.released {
		panic("mutex: guard used after unlock")
	}
	g.released = true
	g.m.mu.RUnlock()
}
