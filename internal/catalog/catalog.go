// Package catalog assembles the list of effects the particle tools can
// spawn: a definition file or the built-in samples, plus whatever the
// library has stored.
package catalog

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"

	"github.com/decker502/particlefx/internal/curve"
	"github.com/decker502/particlefx/pkg/config"
	"github.com/decker502/particlefx/pkg/definition"
)

// Catalog is an ordered list of top-level definitions.
type Catalog struct {
	defs   []*definition.Definition
	lib    *definition.Library
	logger *zap.Logger
}

// OpenLibrary opens the definition library described by cfg. Storage
// failures degrade to a memory-only library with a warning; the tools stay
// usable without a writable home directory.
func OpenLibrary(cfg config.LibraryConfig, logger *zap.Logger) (*definition.Library, error) {
	var store *gdata.Manager
	if cfg.Enabled {
		m, err := gdata.Open(gdata.Config{AppName: cfg.AppName})
		if err != nil {
			logger.Warn("library storage unavailable, using memory", zap.String("app", cfg.AppName), zap.Error(err))
		} else {
			store = m
		}
	}
	return definition.NewLibrary(store, logger)
}

// Load builds a catalog from the definition file at path, or from the
// built-in samples when path is empty. Stored library definitions replace
// loaded ones of the same name and are appended otherwise. lib may be nil.
func Load(path string, lib *definition.Library, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{lib: lib, logger: logger.Named("catalog")}

	if path == "" {
		c.defs = Samples()
	} else {
		defs, err := definition.LoadFile(path)
		if err != nil {
			return nil, err
		}
		c.defs = defs
	}

	if lib != nil {
		for _, name := range lib.Names() {
			def, err := lib.Load(name)
			if err != nil {
				c.logger.Warn("skipping stored definition", zap.String("name", name), zap.Error(err))
				continue
			}
			if i := c.Index(name); i >= 0 {
				c.defs[i] = def
			} else {
				c.defs = append(c.defs, def)
			}
		}
	}

	if len(c.defs) == 0 {
		return nil, fmt.Errorf("no particle effects found")
	}
	c.logger.Info("effects loaded", zap.Int("count", len(c.defs)), zap.String("source", sourceName(path)))
	return c, nil
}

func sourceName(path string) string {
	if path == "" {
		return "builtin"
	}
	return path
}

// Len returns the number of effects.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// At returns the i-th effect.
func (c *Catalog) At(i int) *definition.Definition {
	return c.defs[i]
}

// Names lists the effect names in order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.defs))
	for i, d := range c.defs {
		names[i] = d.Name
	}
	return names
}

// Index returns the position of the named effect, or -1.
func (c *Catalog) Index(name string) int {
	for i, d := range c.defs {
		if d.Name == name {
			return i
		}
	}
	return -1
}

// Wrap maps any integer onto a valid index, cycling in both directions.
func (c *Catalog) Wrap(i int) int {
	n := len(c.defs)
	return ((i % n) + n) % n
}

// Save stores the i-th effect in the library.
func (c *Catalog) Save(i int) error {
	if c.lib == nil {
		return fmt.Errorf("no definition library")
	}
	return c.lib.Save(c.defs[i])
}

// Samples builds a few effects from the default declarations, so the
// tools have something to show without a definition file.
func Samples() []*definition.Definition {
	decls := definition.DefaultDeclarations()

	sparks := mustCreate(decls, "Point")
	sparks.Name = "Sparks"
	set(sparks, definition.ParamSpawnRate, 60, 0)
	set(sparks, definition.ParamSpeed, 120, 40)
	set(sparks, definition.ParamLife, 0.8, 0.3)
	set(sparks, definition.ParamBlendMode, 1, 0)

	smoke := mustCreate(decls, "Point")
	smoke.Name = "Smoke"
	set(smoke, definition.ParamTexture, 0, 0).Text = "builtin:dot32"
	set(smoke, definition.ParamSpawnRate, 15, 0)
	set(smoke, definition.ParamSpeed, 25, 10)
	set(smoke, definition.ParamLife, 2.5, 0.5)
	set(smoke, definition.ParamSortMode, 2, 0)

	curtain := mustCreate(decls, "Line")
	curtain.Name = "Curtain"
	set(curtain, definition.ParamLineLength, 240, 0)
	set(curtain, definition.ParamSpawnRate, 80, 0)
	set(curtain, definition.ParamDuration, 2, 0)
	rate, _ := curtain.Parameter(definition.ParamSpawnRate)
	rate.EmitterCurve = curve.Curve{Keyframes: []curve.Keyframe{{Time: 0, Value: 0}, {Time: 0.5, Value: 1}, {Time: 1, Value: 0}}}

	fountain := mustCreate(decls, "Line")
	fountain.Name = "Fountain"
	set(fountain, definition.ParamLineLength, 16, 0)
	set(fountain, definition.ParamLineAngle, 0, 0)
	set(fountain, definition.ParamSpeed, 90, 20)
	set(fountain, definition.ParamSortMode, 1, 0)
	embers := mustCreate(decls, "Point")
	embers.Name = "Embers"
	set(embers, definition.ParamTexture, 0, 0).Text = "builtin:dot8"
	set(embers, definition.ParamSpawnRate, 30, 0)
	set(embers, definition.ParamBlendMode, 1, 0)
	fountain.AddChild(embers)

	return []*definition.Definition{sparks, smoke, curtain, fountain}
}

func mustCreate(decls *definition.DeclarationTable, name string) *definition.Definition {
	def, err := decls.Create(name)
	if err != nil {
		panic(err) // default declarations
	}
	return def
}

func set(def *definition.Definition, name string, value, random float64) *definition.Parameter {
	p, ok := def.Parameter(name)
	if !ok {
		p = &definition.Parameter{Name: name}
		def.Set(p)
	}
	p.Value = value
	p.Random = random
	return p
}
