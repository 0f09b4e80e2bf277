package pool

import "testing"

type item struct {
	serial int
	label  string
}

func newTestArena() (*Arena[*item], *int) {
	created := 0
	a := New(func() *item {
		created++
		return &item{serial: created}
	})
	return a, &created
}

// TestAcquire_IssuesNonZeroHandles tests handle allocation
func TestAcquire_IssuesNonZeroHandles(t *testing.T) {
	a, created := newTestArena()

	h1, v1 := a.Acquire()
	h2, v2 := a.Acquire()

	if h1.IsZero() || h2.IsZero() {
		t.Fatal("Acquire() returned a zero handle")
	}
	if h1 == h2 || v1 == v2 {
		t.Error("two acquires returned the same slot")
	}
	if *created != 2 {
		t.Errorf("created = %d, want 2", *created)
	}
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}

	got, ok := a.Get(h2)
	if !ok || got != v2 {
		t.Error("Get(h2) did not resolve to the acquired value")
	}
}

// TestRelease_RecyclesSlot tests that released slots are reused and stale
// handles stop resolving
func TestRelease_RecyclesSlot(t *testing.T) {
	a, created := newTestArena()

	h1, v1 := a.Acquire()
	v1.label = "first"

	if !a.Release(h1) {
		t.Fatal("Release(h1) = false")
	}
	if a.Alive(h1) {
		t.Error("released handle still alive")
	}
	if a.Release(h1) {
		t.Error("double Release should report false")
	}

	h2, v2 := a.Acquire()
	if v2 != v1 {
		t.Error("Acquire() after Release did not reuse the pooled value")
	}
	if *created != 1 {
		t.Errorf("created = %d, want 1 (recycled)", *created)
	}
	if h2.Index() != h1.Index() || h2.Generation() == h1.Generation() {
		t.Errorf("recycled handle %x should share index with new generation (old %x)", uint64(h2), uint64(h1))
	}
	if _, ok := a.Get(h1); ok {
		t.Error("stale handle resolved after slot reuse")
	}
	if a.Len() != 1 || a.Cap() != 1 {
		t.Errorf("Len()=%d Cap()=%d, want 1 and 1", a.Len(), a.Cap())
	}
}

// TestGet_InvalidHandles tests zero and out-of-range handles
func TestGet_InvalidHandles(t *testing.T) {
	a, _ := newTestArena()
	if _, ok := a.Get(0); ok {
		t.Error("zero handle resolved")
	}
	if _, ok := a.Get(newHandle(99, 1)); ok {
		t.Error("out-of-range handle resolved")
	}
}

// TestEach visits live slots only
func TestEach(t *testing.T) {
	a, _ := newTestArena()
	h1, _ := a.Acquire()
	a.Acquire()
	a.Acquire()
	a.Release(h1)

	visited := 0
	a.Each(func(h Handle, v *item) {
		if h == h1 {
			t.Error("Each visited a released slot")
		}
		visited++
	})
	if visited != 2 {
		t.Errorf("Each visited %d slots, want 2", visited)
	}
}
