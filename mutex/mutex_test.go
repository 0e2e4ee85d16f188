package mutex

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCounterAcrossGoroutines(t *testing.T) {
	t.Parallel()
	counter := New(0)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := counter.With(func(v *int) error {
				*v++
				return nil
			}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	g, err := counter.Lock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer g.Unlock()
	if got := g.Get(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestTryLockWhileHeld(t *testing.T) {
	t.Parallel()
	m := New("x")
	g, err := m.Lock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := m.TryLock(); ok {
		t.Fatal("TryLock should fail while the guard is held")
	}
	g.Unlock()
	g2, ok, err := m.TryLock()
	if !ok || err != nil {
		t.Fatalf("TryLock should succeed after unlock, got (%v, %v)", ok, err)
	}
	g2.Unlock()
}

func TestPanicPoisons(t *testing.T) {
	t.Parallel()
	m := New([]string{"a"})
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate out of With")
			}
		}()
		_ = m.With(func(v *[]string) error {
			*v = (*v)[:0]
			panic("died mid-update")
		})
	}()

	if !m.IsPoisoned() {
		t.Fatal("expected mutex to be poisoned")
	}
	g, err := m.Lock()
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("expected ErrPoisoned, got %v", err)
	}
	// The guard still grants access for deliberate recovery.
	g.Set([]string{"a"})
	g.Unlock()

	m.ClearPoison()
	g2, err := m.Lock()
	if err != nil {
		t.Fatalf("expected clean lock after ClearPoison, got %v", err)
	}
	g2.Unlock()
}

func TestWithFailsFastWhenPoisoned(t *testing.T) {
	t.Parallel()
	m := New(1)
	g, _ := m.Lock()
	g.Poison()
	g.Unlock()
	ran := false
	err := m.With(func(*int) error {
		ran = true
		return nil
	})
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("expected ErrPoisoned, got %v", err)
	}
	if ran {
		t.Fatal("With must not run the closure on a poisoned mutex")
	}
}

func TestGuardUseAfterUnlockPanics(t *testing.T) {
	t.Parallel()
	m := New(1)
	g, _ := m.Lock()
	g.Unlock()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on use after unlock")
		}
	}()
	_ = g.Get()
}

func TestRWConcurrentReaders(t *testing.T) {
	t.Parallel()
	m := NewRW(42)
	g1, err := m.RLock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acquired := make(chan struct{})
	go func() {
		g2, err := m.RLock()
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		close(acquired)
		g2.Unlock()
	}()
	select {
	case <-acquired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("second reader should acquire while first is held")
	}
	if g1.Get() != 42 {
		t.Fatalf("unexpected value %d", g1.Get())
	}
	g1.Unlock()
}

func TestRWWriterExcludesReaders(t *testing.T) {
	t.Parallel()
	m := NewRW(0)
	release := make(chan struct{})
	held := make(chan struct{})
	go func() {
		g, _ := m.Lock()
		close(held)
		<-release
		g.Set(1)
		g.Unlock()
	}()
	<-held
	readerDone := make(chan int)
	go func() {
		g, _ := m.RLock()
		v := g.Get()
		g.Unlock()
		readerDone <- v
	}()
	select {
	case <-readerDone:
		t.Fatal("reader acquired while writer held the lock")
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	if v := <-readerDone; v != 1 {
		t.Fatalf("reader should observe the write, got %d", v)
	}
}

func TestRWPanicPoisons(t *testing.T) {
	t.Parallel()
	m := NewRW(0)
	func() {
		defer func() { _ = recover() }()
		_ = m.With(func(*int) error { panic("boom") })
	}()
	if !m.IsPoisoned() {
		t.Fatal("expected poisoned RWMutex")
	}
	g, err := m.RLock()
	if !errors.Is(err, ErrPoisoned) {
		t.Fatalf("expected ErrPoisoned on read after writer panic, got %v", err)
	}
	g.Unlock()
}
