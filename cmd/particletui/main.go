// Package main previews particle effects in a terminal.
//
// Usage:
//
//	go run ./cmd/particletui [flags]
//
// Flags:
//
//	-config <file>    TOML settings (default: built-in)
//	-defs <file>      YAML definition file (default: built-in samples)
//	-effect <name>    Start with a specific effect
//
// Controls:
//
//	Left/Right  - Switch to previous/next effect
//	Space       - Restart the current effect
//	R           - Clear
//	P           - Toggle pause
//	Q/Escape    - Quit
package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/decker502/particlefx/internal/catalog"
	"github.com/decker502/particlefx/pkg/assets"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/geom"
	"github.com/decker502/particlefx/pkg/render"
	"github.com/decker502/particlefx/pkg/systems"
)

var (
	configFlag = flag.String("config", "", "TOML settings file")
	defsFlag   = flag.String("defs", "", "YAML definition file (overrides the config)")
	effectFlag = flag.String("effect", "", "Start with specific effect name")
)

// App drives one effect at the center of the terminal.
type App struct {
	screen  tcell.Screen
	term    *render.Terminal
	manager *systems.Manager
	effects *catalog.Catalog
	logger  *zap.Logger

	current *systems.ParticleSystem
	index   int
	dt      float64
	fps     int
	paused  bool
	status  string
}

// boundsTexture keeps decoded images only for their size; the terminal
// never samples texels.
func boundsTexture(img image.Image) systems.Texture {
	return img
}

// NewApp wires the particle stack over an initialized screen.
func NewApp(screen tcell.Screen, cfg *config.Config, effects *catalog.Catalog, logger *zap.Logger) *App {
	textures := assets.NewTextureCache(os.DirFS("."),
		assets.WithFactory(boundsTexture),
		assets.WithLogger(logger),
	)
	opts := []systems.Option{
		systems.WithLogger(logger),
		systems.WithMaxSystems(cfg.Simulation.MaxSystems),
	}
	if cfg.Simulation.Seed != 0 {
		opts = append(opts, systems.WithSeed(cfg.Simulation.Seed, cfg.Simulation.Seed))
	}

	return &App{
		screen:  screen,
		term:    render.NewTerminal(screen, cfg.Terminal.CellWidth, cfg.Terminal.CellHeight),
		manager: systems.NewManager(textures, opts...),
		effects: effects,
		logger:  logger,
		dt:      1 / float64(cfg.Terminal.FPS),
		fps:     cfg.Terminal.FPS,
	}
}

// Select makes the i-th effect current and starts it.
func (a *App) Select(i int) {
	a.index = a.effects.Wrap(i)
	a.restart()
}

func (a *App) restart() {
	a.manager.Destroy(a.current)
	a.current = nil

	def := a.effects.At(a.index)
	s, err := a.manager.Create(def)
	if err != nil {
		a.status = fmt.Sprintf("%s: %v", def.Name, err)
		return
	}
	s.Position = a.center()
	a.current = s
	a.status = fmt.Sprintf("%d/%d %s", a.index+1, a.effects.Len(), def.Name)
}

func (a *App) center() geom.Vec2 {
	w, h := a.term.WorldSize()
	return geom.Vec2{X: w / 2, Y: h / 2}
}

// HandleEvent applies one input event. It returns false when the user
// asked to quit.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			a.Select(a.index - 1)
		case tcell.KeyRight:
			a.Select(a.index + 1)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				a.restart()
			case 'r':
				if a.current != nil {
					a.current.Clear()
					a.current.Position = a.center() // Clear resets the origin
				}
			case 'p':
				a.paused = !a.paused
			}
		}

	case *tcell.EventResize:
		a.screen.Sync()
		if a.current != nil {
			a.current.Position = a.center()
		}
	}
	return true
}

// Frame advances the simulation by one tick and repaints.
func (a *App) Frame() {
	if a.current != nil && !a.paused {
		a.current.Update(a.dt)
	}

	a.term.Begin()
	if a.current != nil {
		a.current.Draw(a.term, ebiten.GeoM{})
	}
	a.term.Paint()
	a.drawStatus()
	a.screen.Show()
}

func (a *App) drawStatus() {
	line := a.status
	if a.current != nil {
		line += fmt.Sprintf("  particles: %d", a.current.TotalParticleCount())
	}
	if a.paused {
		line += "  [paused]"
	}
	_, rows := a.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	for i, r := range line {
		a.screen.SetContent(i, rows-1, r, nil, style)
	}
}

// Run loops at the configured frame rate until the user quits.
func (a *App) Run() {
	ticker := time.NewTicker(time.Second / time.Duration(a.fps))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !a.HandleEvent(ev) {
				return
			}
		case <-ticker.C:
			a.Frame()
		}
	}
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

	// The terminal owns stdout and stderr while running; log only to a file.
	logger := zap.NewNop()
	if cfg.Logging.File != "" {
		if logger, err = config.NewLogger(cfg.Logging); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	defer logger.Sync()

	lib, err := catalog.OpenLibrary(cfg.Library, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open definition library: %v\n", err)
		os.Exit(1)
	}
	effects, err := catalog.Load(cfg.Simulation.Definitions, lib, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load particle effects: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	app := NewApp(screen, cfg, effects, logger)
	start := 0
	if *effectFlag != "" {
		if i := effects.Index(*effectFlag); i >= 0 {
			start = i
		}
	}
	app.Select(start)
	app.Run()
}
