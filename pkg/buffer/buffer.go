// Package buffer provides the columnar particle store.
//
// A Buffer holds any number of named, independently typed columns that all
// share one capacity and one live count. Rows [0, Active) are live; rows
// past Active are leftovers from earlier occupants and are reused by Spawn.
// Removal swaps the last live row into the hole, so row order is never
// stable across Remove and callers must not rely on it.
package buffer

import (
	"github.com/decker502/particlefx/pkg/fxerr"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 64

// Well-known column names shared by emitters and particle systems.
const (
	ColumnPosition  = "Position"
	ColumnVelocity  = "Velocity"
	ColumnLife      = "Life"
	ColumnAge       = "Age"
	ColumnSortIndex = "SortIndex"
)

// column is the type-erased view the Buffer keeps of every Column[T].
type column interface {
	columnName() string
	resize(n int)
	move(src, dst int)
}

// Buffer is a growable set of aligned columns.
type Buffer struct {
	columns  []column
	capacity int
	active   int
	sealed   bool // set by the first Spawn; the column layout is fixed from then on
}

// New creates an empty buffer with room for capacity rows.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Register declares a typed column on b.
//
// Every column must be registered before the first Spawn; registering after
// that, or reusing a name, returns a *fxerr.ConfigurationError.
func Register[T any](b *Buffer, name string) (*Column[T], error) {
	if b.sealed {
		return nil, fxerr.Configuration("register", name, "column registered after first spawn")
	}
	for _, c := range b.columns {
		if c.columnName() == name {
			return nil, fxerr.Configuration("register", name, "duplicate column name")
		}
	}

	c := &Column[T]{buf: b, name: name, data: make([]T, b.capacity)}
	b.columns = append(b.columns, c)
	return c, nil
}

// Lookup returns the column registered under name.
// An unknown name or a column of a different element type is a
// *fxerr.ConfigurationError.
func Lookup[T any](b *Buffer, name string) (*Column[T], error) {
	for _, c := range b.columns {
		if c.columnName() != name {
			continue
		}
		typed, ok := c.(*Column[T])
		if !ok {
			return nil, fxerr.Configuration("lookup", name, "column has a different element type")
		}
		return typed, nil
	}
	return nil, fxerr.Configuration("lookup", name, "no such column")
}

// Active returns the number of live rows.
func (b *Buffer) Active() int {
	return b.active
}

// Capacity returns the number of rows every column can hold.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Columns returns the number of registered columns.
func (b *Buffer) Columns() int {
	return len(b.columns)
}

// Reserve grows every column to hold at least n rows, preserving the
// contents of existing rows. It never shrinks.
func (b *Buffer) Reserve(n int) {
	if n <= b.capacity {
		return
	}
	for _, c := range b.columns {
		c.resize(n)
	}
	b.capacity = n
}

// Spawn claims the next free row and returns its index.
//
// The row keeps whatever the previous occupant left in it; the caller must
// write every column for the row before treating it as valid.
func (b *Buffer) Spawn() int {
	b.sealed = true
	if b.active+1 >= b.capacity {
		b.Reserve(b.capacity * 2)
	}
	index := b.active
	b.active++
	return index
}

// Remove deletes live row i by copying the last live row into it.
// Returns *fxerr.OutOfRangeError when i is outside [0, Active).
func (b *Buffer) Remove(i int) error {
	if i < 0 || i >= b.active {
		return &fxerr.OutOfRangeError{Op: "remove", Index: i, Active: b.active}
	}
	last := b.active - 1
	if i != last {
		for _, c := range b.columns {
			c.move(last, i)
		}
	}
	b.active--
	return nil
}

// Clear drops every live row. Capacity is kept.
func (b *Buffer) Clear() {
	b.active = 0
}
