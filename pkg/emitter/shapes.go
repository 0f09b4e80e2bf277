package emitter

import (
	"math"

	"github.com/decker502/particlefx/pkg/definition"
	"github.com/decker502/particlefx/pkg/geom"
)

// Point spawns every particle at the origin and launches it in a uniformly
// random direction.
type Point struct {
	basic
}

func (p *Point) Shape() Shape {
	return ShapePoint
}

func (p *Point) Reload() error {
	return p.reload()
}

func (p *Point) Update(dt float64) {
	p.update(dt, p.Emit)
}

func (p *Point) Emit() int {
	dir := geom.FromAngle(p.rng.Float64() * 2 * math.Pi)
	return p.spawn(p.origin, dir.Scale(p.launchSpeed()))
}

// Line spawns particles uniformly along a segment centered on the origin
// and launches them along the segment normal, on either side.
//
// LineLength sets the segment length in pixels and LineAngle (degrees) its
// orientation relative to the owning system's angle. Without LineLength the
// segment collapses to the origin.
type Line struct {
	basic
	lineLength *definition.Float
	lineAngle  *definition.Float
}

func (l *Line) Shape() Shape {
	return ShapeLine
}

func (l *Line) Reload() error {
	if err := l.reload(); err != nil {
		return err
	}
	l.lineLength.Reload()
	l.lineAngle.Reload()
	return nil
}

func (l *Line) Update(dt float64) {
	l.update(dt, l.Emit)
}

func (l *Line) Emit() int {
	fraction := l.Fraction()
	length := l.lineLength.Get(l.rng, fraction, 0)
	rad := l.lineAngle.Get(l.rng, fraction, 0)*math.Pi/180 + l.angle

	axis := geom.FromAngle(rad)
	offset := (l.rng.Float64() - 0.5) * length
	pos := l.origin.Add(axis.Scale(offset))

	normal := axis.Perp()
	if l.rng.IntN(2) == 0 {
		normal = normal.Scale(-1)
	}
	return l.spawn(pos, normal.Scale(l.launchSpeed()))
}
