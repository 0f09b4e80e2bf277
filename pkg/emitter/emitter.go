// Package emitter spawns particles into a buffer.
//
// An Emitter turns the definition's SpawnRate into spawn calls with a
// fractional accumulator, so the number of particles emitted over a span of
// time does not depend on how that span is split into frames. Each shape
// decides where a particle starts and how it launches.
package emitter

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/decker502/particlefx/pkg/buffer"
	"github.com/decker502/particlefx/pkg/definition"
	"github.com/decker502/particlefx/pkg/geom"
)

// DefaultSpeed is the launch speed used when a definition has no Speed.
const DefaultSpeed = 40.0

// accTolerance is the relative slack when comparing the spawn accumulator
// against the spawn interval.
const accTolerance = 1e-9

// Shape selects the spawn strategy.
type Shape int

const (
	ShapePoint Shape = iota
	ShapeLine
)

func (s Shape) String() string {
	switch s {
	case ShapePoint:
		return "Point"
	case ShapeLine:
		return "Line"
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ShapeOf reads the Shape parameter of def. Missing or unknown values mean
// ShapePoint.
func ShapeOf(def *definition.Definition) Shape {
	p, ok := def.Parameter(definition.ParamShape)
	if !ok {
		return ShapePoint
	}
	if s := Shape(p.Int()); s == ShapeLine {
		return s
	}
	return ShapePoint
}

// Emitter spawns particles into the buffer it was built for.
type Emitter interface {
	// Update advances the emitter clock and spawns what the rate allows.
	Update(dt float64)
	// Emit spawns one particle and returns its row.
	Emit() int
	// Clear resets the accumulator and clock. Live particles stay.
	Clear()
	// Reload resolves the parameter handles again.
	Reload() error
	// SetOrigin places the emitter in the owning system's space.
	SetOrigin(pos geom.Vec2, angle float64)
	// Shape reports the spawn strategy.
	Shape() Shape
}

// New builds an emitter of the given shape. The buffer must carry the
// standard columns. A nil rng gets a fixed seed.
func New(shape Shape, buf *buffer.Buffer, def *definition.Definition, rng *rand.Rand) (Emitter, error) {
	cols, err := buffer.LookupStandard(buf)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(0, 0))
	}

	base := basic{
		buf:       buf,
		cols:      cols,
		def:       def,
		rng:       rng,
		life:      definition.NewFloat(def, definition.ParamLife),
		spawnRate: definition.NewFloat(def, definition.ParamSpawnRate),
		speed:     definition.NewFloat(def, definition.ParamSpeed),
		duration:  definition.NewFloat(def, definition.ParamDuration),
	}

	var e Emitter
	switch shape {
	case ShapeLine:
		e = &Line{
			basic:      base,
			lineLength: definition.NewFloat(def, definition.ParamLineLength),
			lineAngle:  definition.NewFloat(def, definition.ParamLineAngle),
		}
	default:
		e = &Point{basic: base}
	}

	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// basic holds what every shape shares: the spawn accumulator, the emitter
// clock and the common parameter handles.
type basic struct {
	buf  *buffer.Buffer
	cols *buffer.Standard
	def  *definition.Definition
	rng  *rand.Rand

	life      *definition.Float
	spawnRate *definition.Float
	speed     *definition.Float
	duration  *definition.Float

	origin geom.Vec2
	angle  float64

	acc     float64
	elapsed float64
}

func (b *basic) reload() error {
	if _, err := b.def.Require(definition.ParamLife); err != nil {
		return err
	}
	if _, err := b.def.Require(definition.ParamSpawnRate); err != nil {
		return err
	}
	b.life.Reload()
	b.spawnRate.Reload()
	b.speed.Reload()
	b.duration.Reload()
	return nil
}

// Clear resets the accumulator and the emitter clock.
func (b *basic) Clear() {
	b.acc = 0
	b.elapsed = 0
}

// SetOrigin places the emitter.
func (b *basic) SetOrigin(pos geom.Vec2, angle float64) {
	b.origin = pos
	b.angle = angle
}

// Elapsed returns the emitter clock in seconds.
func (b *basic) Elapsed() float64 {
	return b.elapsed
}

// Fraction is the position in the emitter lifetime, used by emitter
// curves. Without a positive Duration it stays at 0; with one it wraps.
func (b *basic) Fraction() float64 {
	d := b.duration.Get(nil, 0, 0)
	if d <= 0 {
		return 0
	}
	return math.Mod(b.elapsed, d) / d
}

// update runs the accumulator and calls emit once per due particle.
func (b *basic) update(dt float64, emit func() int) {
	if dt <= 0 {
		return
	}
	fraction := b.Fraction()
	b.elapsed += dt

	rate := b.spawnRate.Get(b.rng, fraction, 0)
	if rate <= 0 {
		return
	}
	interval := 1 / rate

	// Summed frame times drift below the exact total, so a particle due on
	// this frame may sit a rounding error short of the interval.
	b.acc += dt
	for b.acc >= interval*(1-accTolerance) {
		emit()
		b.acc = max(b.acc-interval, 0)
	}
}

// spawn claims a row and writes every standard column for it.
func (b *basic) spawn(pos, vel geom.Vec2) int {
	life := b.life.Get(b.rng, b.Fraction(), 0)

	i := b.buf.Spawn()
	b.cols.Position.Set(i, pos)
	b.cols.Velocity.Set(i, vel)
	b.cols.Age.Set(i, 0)
	b.cols.Life.Set(i, life)
	b.cols.SortIndex.Set(i, i)
	return i
}

func (b *basic) launchSpeed() float64 {
	return b.speed.GetOr(b.rng, DefaultSpeed, b.Fraction(), 0)
}
