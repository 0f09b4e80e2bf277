package render

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/decker502/particlefx/pkg/systems"
)

// Glyphs from faint to bright.
var ramp = []rune{'.', ':', '+', '*', '#', '█'}

// Terminal rasterizes particle commands into terminal cells.
//
// Each command lights the cell under its origin with the command's alpha.
// Within a cell alpha-blended particles keep the brightest value and
// additive particles sum, clamped to 1. Cells are painted in grey on Flush.
type Terminal struct {
	screen     tcell.Screen
	cellWidth  float64
	cellHeight float64

	cols, rows int
	intensity  []float32
}

// NewTerminal creates a renderer over screen. One cell covers
// cellWidth x cellHeight world pixels.
func NewTerminal(screen tcell.Screen, cellWidth, cellHeight float64) *Terminal {
	if cellWidth <= 0 {
		cellWidth = 1
	}
	if cellHeight <= 0 {
		cellHeight = 1
	}
	return &Terminal{screen: screen, cellWidth: cellWidth, cellHeight: cellHeight}
}

// WorldSize returns the area the screen covers, in world pixels.
func (t *Terminal) WorldSize() (w, h float64) {
	cols, rows := t.screen.Size()
	return float64(cols) * t.cellWidth, float64(rows) * t.cellHeight
}

// Begin starts a frame, picking up the current screen size.
func (t *Terminal) Begin() {
	t.cols, t.rows = t.screen.Size()
	n := t.cols * t.rows
	if cap(t.intensity) < n {
		t.intensity = make([]float32, n)
	}
	t.intensity = t.intensity[:n]
	clear(t.intensity)
}

// DrawParticle implements systems.Renderer.
func (t *Terminal) DrawParticle(cmd *systems.DrawCommand) {
	o := cmd.Origin()
	x := int(math.Floor(o.X / t.cellWidth))
	y := int(math.Floor(o.Y / t.cellHeight))
	if x < 0 || y < 0 || x >= t.cols || y >= t.rows {
		return
	}

	a := cmd.Color.A()
	cell := &t.intensity[y*t.cols+x]
	if cmd.Blend == systems.BlendAdditive {
		*cell = min(*cell+a, 1)
	} else {
		*cell = max(*cell, a)
	}
}

// Flush paints the frame and shows it.
func (t *Terminal) Flush() {
	t.Paint()
	t.screen.Show()
}

// Paint writes the frame to the screen without showing it, so callers can
// draw an overlay on top.
func (t *Terminal) Paint() {
	t.screen.Clear()
	for i, a := range t.intensity {
		if a <= 0 {
			continue
		}
		glyph, style := cellStyle(a)
		t.screen.SetContent(i%t.cols, i/t.cols, glyph, nil, style)
	}
}

// Intensity returns the accumulated value of a cell, for inspection.
func (t *Terminal) Intensity(x, y int) float32 {
	if x < 0 || y < 0 || x >= t.cols || y >= t.rows {
		return 0
	}
	return t.intensity[y*t.cols+x]
}

func cellStyle(a float32) (rune, tcell.Style) {
	idx := min(int(a*float32(len(ramp))), len(ramp)-1)
	v := int32(math.Round(float64(a) * 255))
	return ramp[idx], tcell.StyleDefault.Foreground(tcell.NewRGBColor(v, v, v))
}
