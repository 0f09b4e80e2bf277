// Package main provides a particle effect viewer for designing and
// debugging particle definitions.
//
// Usage:
//
//	go run ./cmd/particles [flags]
//
// Flags:
//
//	-config <file>    TOML settings (default: built-in)
//	-defs <file>      YAML definition file (default: built-in samples)
//	-effect <name>    Start with a specific effect
//	-library=false    Do not read or write the definition library
//
// Controls:
//
//	Mouse Click       - Spawn the current effect at the cursor
//	Left/Right Arrow  - Switch to previous/next effect
//	Space             - Spawn the current effect at screen center
//	[ / ]             - Rotate spawned effects by -15/+15 degrees
//	\                 - Reset rotation
//	P                 - Toggle pause
//	R                 - Clear all effects
//	S                 - Save the current effect to the library
//	Q/Escape          - Quit
package main

import (
	"flag"
	"fmt"
	"image/color"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/decker502/particlefx/internal/catalog"
	"github.com/decker502/particlefx/pkg/assets"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/geom"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/systems"
)

// Oldest effects are destroyed beyond this many.
const maxLiveEffects = 16

var (
	configFlag  = flag.String("config", "", "TOML settings file")
	defsFlag    = flag.String("defs", "", "YAML definition file (overrides the config)")
	effectFlag  = flag.String("effect", "", "Start with specific effect name")
	libraryFlag = flag.Bool("library", true, "Use the persistent definition library")
)

// ViewerGame implements ebiten.Game for the particle viewer.
type ViewerGame struct {
	cfg     *config.Config
	logger  *zap.Logger
	manager *systems.Manager
	batch   *render.Batch
	effects *catalog.Catalog

	live         []*systems.ParticleSystem
	currentIndex int
	dt           float64

	paused        bool
	angleOffset   float64 // degrees
	statusMessage string
}

// NewViewerGame wires the particle stack for the viewer.
func NewViewerGame(cfg *config.Config, logger *zap.Logger) (*ViewerGame, error) {
	lib, err := catalog.OpenLibrary(cfg.Library, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition library: %w", err)
	}
	effects, err := catalog.Load(cfg.Simulation.Definitions, lib, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load particle effects: %w", err)
	}

	textures := assets.NewTextureCache(os.DirFS("."), assets.WithLogger(logger))
	opts := []systems.Option{
		systems.WithLogger(logger),
		systems.WithMaxSystems(cfg.Simulation.MaxSystems),
	}
	if cfg.Simulation.Seed != 0 {
		opts = append(opts, systems.WithSeed(cfg.Simulation.Seed, cfg.Simulation.Seed))
	}

	g := &ViewerGame{
		cfg:     cfg,
		logger:  logger,
		manager: systems.NewManager(textures, opts...),
		batch:   render.NewBatch(nil),
		effects: effects,
		dt:      1 / float64(cfg.Window.TPS),
	}

	if *effectFlag != "" {
		if i := effects.Index(*effectFlag); i >= 0 {
			g.currentIndex = i
		} else {
			logger.Warn("effect not found, starting with the first", zap.String("effect", *effectFlag))
		}
	}

	g.updateStatusMessage()
	g.spawnCurrentEffect(g.center())
	return g, nil
}

// Update advances input and simulation by one tick.
func (g *ViewerGame) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
		if g.paused {
			g.statusMessage = "PAUSED - press P to resume"
		} else {
			g.statusMessage = "Resumed"
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) {
		g.switchEffect(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) {
		g.switchEffect(1)
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.clearAll()
		g.statusMessage = "Cleared all effects"
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.saveCurrentEffect()
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		g.angleOffset -= 15
		g.statusMessage = fmt.Sprintf("Angle offset: %.0f°", g.angleOffset)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		g.angleOffset += 15
		g.statusMessage = fmt.Sprintf("Angle offset: %.0f°", g.angleOffset)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackslash) {
		g.angleOffset = 0
		g.statusMessage = "Angle offset reset to 0°"
	}

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.spawnCurrentEffect(g.center())
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.spawnCurrentEffect(geom.Vec2{X: float64(x), Y: float64(y)})
	}

	if !g.paused {
		for _, s := range g.live {
			s.Update(g.dt)
		}
	}
	return nil
}

// Draw renders every live effect and the overlay.
func (g *ViewerGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{25, 25, 38, 255})

	g.batch.Begin(screen)
	var identity ebiten.GeoM
	for _, s := range g.live {
		s.Draw(g.batch, identity)
	}

	g.drawUI(screen)
}

func (g *ViewerGame) drawUI(screen *ebiten.Image) {
	current := g.effects.At(g.currentIndex)

	lines := []string{
		fmt.Sprintf("Particle Viewer - Effect %d/%d: %s", g.currentIndex+1, g.effects.Len(), current.Name),
		fmt.Sprintf("Live effects: %d  Particles: %d  Drawn: %d", len(g.live), g.countParticles(), g.batch.Drawn()),
		fmt.Sprintf("Angle offset: %.0f°  TPS: %.0f", g.angleOffset, ebiten.ActualTPS()),
		g.statusMessage,
	}
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*20)
	}

	controls := []string{
		"Click/Space = Spawn  <-/-> = Prev/Next  [ ] \\ = Angle",
		"P = Pause  R = Clear  S = Save to library  Q = Quit",
	}
	y := g.cfg.Window.Height - len(controls)*20 - 10
	for i, line := range controls {
		ebitenutil.DebugPrintAt(screen, line, 10, y+i*20)
	}
}

// Layout returns the logical screen size.
func (g *ViewerGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}

func (g *ViewerGame) center() geom.Vec2 {
	return geom.Vec2{X: float64(g.cfg.Window.Width) / 2, Y: float64(g.cfg.Window.Height) / 2}
}

// spawnCurrentEffect creates a system for the current effect at pos.
func (g *ViewerGame) spawnCurrentEffect(pos geom.Vec2) {
	if len(g.live) >= maxLiveEffects {
		g.manager.Destroy(g.live[0])
		g.live = g.live[1:]
	}

	def := g.effects.At(g.currentIndex)
	s, err := g.manager.Create(def)
	if err != nil {
		g.statusMessage = fmt.Sprintf("Error: %v", err)
		return
	}
	s.Position = pos
	s.Angle = g.angleOffset * math.Pi / 180
	g.live = append(g.live, s)
	g.statusMessage = fmt.Sprintf("Spawned: %s at (%.0f, %.0f)", def.Name, pos.X, pos.Y)
}

func (g *ViewerGame) switchEffect(delta int) {
	g.currentIndex = g.effects.Wrap(g.currentIndex + delta)
	g.updateStatusMessage()
	g.spawnCurrentEffect(g.center())
}

func (g *ViewerGame) clearAll() {
	for _, s := range g.live {
		g.manager.Destroy(s)
	}
	g.logger.Debug("cleared effects", zap.Int("count", len(g.live)))
	g.live = g.live[:0]
}

func (g *ViewerGame) saveCurrentEffect() {
	name := g.effects.At(g.currentIndex).Name
	if err := g.effects.Save(g.currentIndex); err != nil {
		g.logger.Warn("failed to save effect", zap.String("effect", name), zap.Error(err))
		g.statusMessage = fmt.Sprintf("Save failed: %v", err)
		return
	}
	g.logger.Info("effect saved", zap.String("effect", name))
	g.statusMessage = fmt.Sprintf("Saved: %s", name)
}

func (g *ViewerGame) countParticles() int {
	n := 0
	for _, s := range g.live {
		n += s.TotalParticleCount()
	}
	return n
}

func (g *ViewerGame) updateStatusMessage() {
	g.statusMessage = fmt.Sprintf("Selected: %s", g.effects.At(g.currentIndex).Name)
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *defsFlag != "" {
		cfg.Simulation.Definitions = *defsFlag
	}
	if !*libraryFlag {
		cfg.Library.Enabled = false
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	game, err := NewViewerGame(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize viewer", zap.Error(err))
	}

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.Window.TPS)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("viewer stopped", zap.Error(err))
	}
	logger.Info("particle viewer closed")
}
