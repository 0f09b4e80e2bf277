// Package pool provides a slot arena addressed by generational handles.
//
// Slots are recycled: Release puts the slot on a free list and bumps its
// generation, so any handle still pointing at the old occupant stops
// resolving instead of silently aliasing the next one.
package pool

// Handle encodes a 32-bit slot index in the lower bits and a 32-bit
// generation in the upper bits. Generations start at 1, so the zero Handle
// is never issued and can be used as "none".
type Handle uint64

func newHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }

// Arena owns a growing set of T values and hands them out by Handle.
type Arena[T any] struct {
	items       []T
	generations []uint32
	alive       []bool
	freeList    []uint32
	live        int
	newItem     func() T
}

// New creates an arena. newItem builds a value the first time a slot is
// used; recycled slots hand back the value their previous occupant left.
func New[T any](newItem func() T) *Arena[T] {
	return &Arena[T]{
		items:       make([]T, 0, 16),
		generations: make([]uint32, 0, 16),
		alive:       make([]bool, 0, 16),
		freeList:    make([]uint32, 0, 16),
		newItem:     newItem,
	}
}

// Acquire claims a slot and returns its handle and value.
func (a *Arena[T]) Acquire() (Handle, T) {
	var idx uint32
	if n := len(a.freeList); n > 0 {
		idx = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
	} else {
		idx = uint32(len(a.items))
		a.items = append(a.items, a.newItem())
		a.generations = append(a.generations, 1)
		a.alive = append(a.alive, false)
	}
	a.alive[idx] = true
	a.live++
	return newHandle(idx, a.generations[idx]), a.items[idx]
}

// Get resolves h. The second result is false for zero, stale or released
// handles.
func (a *Arena[T]) Get(h Handle) (T, bool) {
	idx := h.Index()
	if h.IsZero() || int(idx) >= len(a.items) || !a.alive[idx] || a.generations[idx] != h.Generation() {
		var zero T
		return zero, false
	}
	return a.items[idx], true
}

// Alive reports whether h still refers to an acquired slot.
func (a *Arena[T]) Alive(h Handle) bool {
	_, ok := a.Get(h)
	return ok
}

// Release returns the slot behind h to the free list. Releasing a stale
// handle is a no-op and reports false.
func (a *Arena[T]) Release(h Handle) bool {
	if !a.Alive(h) {
		return false
	}
	idx := h.Index()
	a.alive[idx] = false
	a.generations[idx]++
	if a.generations[idx] == 0 {
		a.generations[idx] = 1
	}
	a.freeList = append(a.freeList, idx)
	a.live--
	return true
}

// Len returns the number of acquired slots.
func (a *Arena[T]) Len() int {
	return a.live
}

// Cap returns the number of slots ever created.
func (a *Arena[T]) Cap() int {
	return len(a.items)
}

// Each calls fn for every acquired slot in index order.
func (a *Arena[T]) Each(fn func(Handle, T)) {
	for i, ok := range a.alive {
		if ok {
			fn(newHandle(uint32(i), a.generations[i]), a.items[i])
		}
	}
}
