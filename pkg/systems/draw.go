package systems

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/particlefx/pkg/geom"
)

// SortMode selects the paint order of a system's particles.
// "X on top" means X is painted last.
type SortMode int

const (
	Unsorted SortMode = iota
	NewestOnTop
	OldestOnTop
)

func (m SortMode) String() string {
	switch m {
	case Unsorted:
		return "Unsorted"
	case NewestOnTop:
		return "NewestOnTop"
	case OldestOnTop:
		return "OldestOnTop"
	}
	return fmt.Sprintf("SortMode(%d)", int(m))
}

// BlendMode selects how particles combine with what is already drawn.
type BlendMode int

const (
	BlendAlpha BlendMode = iota
	BlendAdditive
)

func (m BlendMode) String() string {
	switch m {
	case BlendAlpha:
		return "Alpha"
	case BlendAdditive:
		return "Additive"
	}
	return fmt.Sprintf("BlendMode(%d)", int(m))
}

// Texture is whatever the TextureLoader hands out. *ebiten.Image satisfies
// it; only the bounds are needed to compute the pivot.
type Texture interface {
	Bounds() image.Rectangle
}

// TextureLoader resolves texture paths from definitions.
type TextureLoader interface {
	LoadTexture(path string) (Texture, error)
}

// DrawCommand describes one textured quad.
//
// The quad is drawn with its pivot at the origin, then transformed by
// Transform. Color is a premultiplied scale applied to the texture.
type DrawCommand struct {
	Texture   Texture
	Transform ebiten.GeoM
	Pivot     geom.Vec2
	Color     ebiten.ColorScale
	Blend     BlendMode
}

// Origin returns where the pivot lands after the transform.
func (c *DrawCommand) Origin() geom.Vec2 {
	x, y := c.Transform.Apply(0, 0)
	return geom.Vec2{X: x, Y: y}
}

// Renderer consumes draw commands. Commands arrive in paint order; cmd is
// reused after the call returns.
type Renderer interface {
	DrawParticle(cmd *DrawCommand)
}

// CommandList is a Renderer that records every command it receives.
type CommandList struct {
	Commands []DrawCommand
}

// DrawParticle appends a copy of cmd.
func (l *CommandList) DrawParticle(cmd *DrawCommand) {
	l.Commands = append(l.Commands, *cmd)
}

// Reset drops recorded commands, keeping the backing array.
func (l *CommandList) Reset() {
	l.Commands = l.Commands[:0]
}

// Len returns the number of recorded commands.
func (l *CommandList) Len() int {
	return len(l.Commands)
}

// fade is opaque white at t=0 and transparent black at t=1.
func fade(age, life float64) ebiten.ColorScale {
	t := 1.0
	if life > 0 {
		t = age / life
	}
	t = min(max(t, 0), 1)

	v := float32(1 - t)
	var c ebiten.ColorScale
	c.Scale(v, v, v, v)
	return c
}

// ageSorter orders a permutation of rows by particle age. It lives in the
// system so sorting does not allocate.
type ageSorter struct {
	mode  SortMode
	order []int
	age   []float64
}

func (s *ageSorter) Len() int      { return len(s.order) }
func (s *ageSorter) Swap(i, j int) { s.order[i], s.order[j] = s.order[j], s.order[i] }
func (s *ageSorter) Less(i, j int) bool {
	return lessByAge(s.mode, s.age[s.order[i]], s.age[s.order[j]])
}

// lessByAge reports whether a particle of age a paints before one of age b.
func lessByAge(mode SortMode, a, b float64) bool {
	switch mode {
	case NewestOnTop:
		return a > b
	case OldestOnTop:
		return a < b
	}
	return false
}
