// Package render turns particle draw commands into pixels or terminal cells.
package render

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/decker502/particlefx/pkg/systems"
)

// Batch draws particle commands onto an ebiten image.
//
// Textures must be *ebiten.Image; commands carrying anything else (or no
// texture) are counted as skipped. Additive commands use BlendLighter.
type Batch struct {
	target  *ebiten.Image
	op      ebiten.DrawImageOptions
	drawn   int
	skipped int
}

// NewBatch creates a batch drawing onto target.
func NewBatch(target *ebiten.Image) *Batch {
	return &Batch{target: target}
}

// Begin retargets the batch for a new frame and resets its counters.
func (b *Batch) Begin(target *ebiten.Image) {
	b.target = target
	b.drawn = 0
	b.skipped = 0
}

// Drawn returns the number of quads drawn since Begin.
func (b *Batch) Drawn() int {
	return b.drawn
}

// Skipped returns the number of commands without a drawable texture.
func (b *Batch) Skipped() int {
	return b.skipped
}

// DrawParticle implements systems.Renderer.
func (b *Batch) DrawParticle(cmd *systems.DrawCommand) {
	img, ok := cmd.Texture.(*ebiten.Image)
	if !ok || img == nil || b.target == nil {
		b.skipped++
		return
	}
	b.target.DrawImage(img, b.drawOptions(cmd))
	b.drawn++
}

// drawOptions fills the reused options for cmd: pivot to the origin, then
// the command transform.
func (b *Batch) drawOptions(cmd *systems.DrawCommand) *ebiten.DrawImageOptions {
	op := &b.op
	op.GeoM.Reset()
	op.GeoM.Translate(-cmd.Pivot.X, -cmd.Pivot.Y)
	op.GeoM.Concat(cmd.Transform)
	op.ColorScale = cmd.Color
	op.Filter = ebiten.FilterLinear
	if cmd.Blend == systems.BlendAdditive {
		op.Blend = ebiten.BlendLighter
	} else {
		op.Blend = ebiten.BlendSourceOver
	}
	return op
}
