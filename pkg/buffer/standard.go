package buffer

import (
	"github.com/decker502/particlefx/pkg/geom"
)

// Standard bundles the well-known particle columns.
type Standard struct {
	Position  *Column[geom.Vec2]
	Velocity  *Column[geom.Vec2]
	Life      *Column[float64]
	Age       *Column[float64]
	SortIndex *Column[int]
}

// RegisterStandard registers the well-known columns on b.
func RegisterStandard(b *Buffer) (*Standard, error) {
	var s Standard
	var err error
	if s.Position, err = Register[geom.Vec2](b, ColumnPosition); err != nil {
		return nil, err
	}
	if s.Velocity, err = Register[geom.Vec2](b, ColumnVelocity); err != nil {
		return nil, err
	}
	if s.Life, err = Register[float64](b, ColumnLife); err != nil {
		return nil, err
	}
	if s.Age, err = Register[float64](b, ColumnAge); err != nil {
		return nil, err
	}
	if s.SortIndex, err = Register[int](b, ColumnSortIndex); err != nil {
		return nil, err
	}
	return &s, nil
}

// LookupStandard resolves the well-known columns registered on b.
func LookupStandard(b *Buffer) (*Standard, error) {
	var s Standard
	var err error
	if s.Position, err = Lookup[geom.Vec2](b, ColumnPosition); err != nil {
		return nil, err
	}
	if s.Velocity, err = Lookup[geom.Vec2](b, ColumnVelocity); err != nil {
		return nil, err
	}
	if s.Life, err = Lookup[float64](b, ColumnLife); err != nil {
		return nil, err
	}
	if s.Age, err = Lookup[float64](b, ColumnAge); err != nil {
		return nil, err
	}
	if s.SortIndex, err = Lookup[int](b, ColumnSortIndex); err != nil {
		return nil, err
	}
	return &s, nil
}
