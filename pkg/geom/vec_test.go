package geom

import (
	"math"
	"testing"
)

func TestVec2(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, -4}

	if got := a.Add(b); got != (Vec2{4, -2}) {
		t.Errorf("Add: got %v", got)
	}
	if got := a.Sub(b); got != (Vec2{-2, 6}) {
		t.Errorf("Sub: got %v", got)
	}
	if got := b.Scale(0.5); got != (Vec2{1.5, -2}) {
		t.Errorf("Scale: got %v", got)
	}
	if got := b.Len(); got != 5 {
		t.Errorf("Len: got %v, want 5", got)
	}
	if got := (Vec2{1, 0}).Perp(); got != (Vec2{0, 1}) {
		t.Errorf("Perp: got %v", got)
	}

	d := FromAngle(math.Pi / 2)
	if math.Abs(d.X) > 1e-12 || math.Abs(d.Y-1) > 1e-12 {
		t.Errorf("FromAngle(pi/2): got %v, want (0,1)", d)
	}
}
