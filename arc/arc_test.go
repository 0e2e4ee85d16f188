package arc

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestCloneTracksOwners(t *testing.T) {
	t.Parallel()
	a := New([]int{1, 2, 3})
	b := a.Clone()
	c := b.Clone()
	if got := a.StrongCount(); got != 3 {
		t.Fatalf("expected 3 owners, got %d", got)
	}
	c.Drop()
	b.Drop()
	if got := a.StrongCount(); got != 1 {
		t.Fatalf("expected 1 owner, got %d", got)
	}
	if got := a.Value(); len(got) != 3 || got[0] != 1 {
		t.Fatalf("unexpected value %v", got)
	}
	a.Drop()
}

func TestFinalizerRunsOnceAtLastDrop(t *testing.T) {
	t.Parallel()
	fins := atomic.Int32{}
	a := NewFinalized("resource", func(string) { fins.Add(1) })
	const owners = 16
	handles := make([]*Arc[string], owners)
	for i := range handles {
		handles[i] = a.Clone()
	}
	var wg sync.WaitGroup
	for _, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Drop()
		}()
	}
	wg.Wait()
	if got := fins.Load(); got != 0 {
		t.Fatalf("finalizer ran with a live owner, count %d", got)
	}
	a.Drop()
	if got := fins.Load(); got != 1 {
		t.Fatalf("expected finalizer to run once, got %d", got)
	}
}

func TestUseAfterDropPanics(t *testing.T) {
	t.Parallel()
	a := New(1)
	a.Drop()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on use after drop")
		}
	}()
	_ = a.Value()
}

func TestDoubleDropPanics(t *testing.T) {
	t.Parallel()
	a := New(1)
	a.Drop()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double drop")
		}
	}()
	a.Drop()
}

func TestWeakUpgrade(t *testing.T) {
	t.Parallel()
	a := New("shared")
	w := a.Downgrade()
	if got := a.WeakCount(); got != 1 {
		t.Fatalf("expected 1 weak handle, got %d", got)
	}

	b, ok := w.Upgrade()
	if !ok {
		t.Fatal("upgrade should succeed while an owner is live")
	}
	if b.Value() != "shared" {
		t.Fatalf("unexpected value %q", b.Value())
	}
	b.Drop()
	a.Drop()

	if _, ok := w.Upgrade(); ok {
		t.Fatal("upgrade should fail after the last owner dropped")
	}
	w.Drop()
}

func TestWeakDoesNotKeepValueAlive(t *testing.T) {
	t.Parallel()
	fins := atomic.Int32{}
	a := NewFinalized(0, func(int) { fins.Add(1) })
	w := a.Downgrade()
	a.Drop()
	if got := fins.Load(); got != 1 {
		t.Fatalf("weak handle must not delay the finalizer, count %d", got)
	}
	w.Drop()
}

func TestConcurrentCloneDrop(t *testing.T) {
	t.Parallel()
	fins := atomic.Int32{}
	a := NewFinalized(struct{}{}, func(struct{}) { fins.Add(1) })
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h := a.Clone()
				h.Drop()
			}
		}()
	}
	wg.Wait()
	if got := a.StrongCount(); got != 1 {
		t.Fatalf("expected 1 owner after churn, got %d", got)
	}
	a.Drop()
	if got := fins.Load(); got != 1 {
		t.Fatalf("expected finalizer to run once, got %d", got)
	}
}
