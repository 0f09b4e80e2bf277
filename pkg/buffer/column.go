package buffer

// Column is a handle to one typed column of a Buffer.
//
// The handle stays valid across growth; slices returned by Live and All do
// not, so re-fetch them after any Spawn.
type Column[T any] struct {
	buf  *Buffer
	name string
	data []T
}

// Name returns the name the column was registered under.
func (c *Column[T]) Name() string {
	return c.name
}

// At returns the value in row i.
func (c *Column[T]) At(i int) T {
	return c.data[i]
}

// Set writes v into row i.
func (c *Column[T]) Set(i int, v T) {
	c.data[i] = v
}

// Ref returns a pointer to row i, valid until the next growth.
func (c *Column[T]) Ref(i int) *T {
	return &c.data[i]
}

// Live returns the live prefix [0, Active).
func (c *Column[T]) Live() []T {
	return c.data[:c.buf.active]
}

// All returns every row up to capacity, including reusable rows.
func (c *Column[T]) All() []T {
	return c.data
}

func (c *Column[T]) columnName() string {
	return c.name
}

func (c *Column[T]) resize(n int) {
	grown := make([]T, n)
	copy(grown, c.data)
	c.data = grown
}

func (c *Column[T]) move(src, dst int) {
	c.data[dst] = c.data[src]
}
