// Package assets loads the textures particle definitions refer to.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io/fs"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/decker502/particlefx/pkg/systems"
)

// BuiltinPrefix marks texture paths generated in memory instead of read
// from the file system. "builtin:dot16" is a soft 16px disc.
const BuiltinPrefix = "builtin:"

// MaxDotSize bounds builtin dot textures.
const MaxDotSize = 256

// Factory turns a decoded image into a texture.
type Factory func(img image.Image) systems.Texture

// EbitenFactory uploads images as ebiten images.
func EbitenFactory(img image.Image) systems.Texture {
	return ebiten.NewImageFromImage(img)
}

// TextureCache loads textures once per path and hands out the cached
// texture afterwards. It implements systems.TextureLoader.
//
// Files are read from fsys and decoded as PNG, JPEG, BMP or WebP. Paths
// starting with BuiltinPrefix never touch fsys.
//
// This implementation is NOT thread-safe; load from the game loop.
type TextureCache struct {
	fsys    fs.FS
	factory Factory
	logger  *zap.Logger
	cache   map[string]systems.Texture
}

// Option configures a TextureCache.
type Option func(*TextureCache)

// WithFactory replaces EbitenFactory.
func WithFactory(f Factory) Option {
	return func(c *TextureCache) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *TextureCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewTextureCache creates a cache over fsys. fsys may be nil when only
// builtin textures are used.
func NewTextureCache(fsys fs.FS, opts ...Option) *TextureCache {
	c := &TextureCache{
		fsys:    fsys,
		factory: EbitenFactory,
		logger:  zap.NewNop(),
		cache:   make(map[string]systems.Texture),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("assets")
	return c
}

// LoadTexture implements systems.TextureLoader.
func (c *TextureCache) LoadTexture(name string) (systems.Texture, error) {
	if tex, ok := c.cache[name]; ok {
		return tex, nil
	}

	img, err := c.decode(name)
	if err != nil {
		return nil, err
	}

	tex := c.factory(img)
	c.cache[name] = tex
	b := img.Bounds()
	c.logger.Debug("texture loaded", zap.String("path", name), zap.Int("width", b.Dx()), zap.Int("height", b.Dy()))
	return tex, nil
}

func (c *TextureCache) decode(name string) (image.Image, error) {
	if builtin, ok := strings.CutPrefix(name, BuiltinPrefix); ok {
		return Builtin(builtin)
	}

	if c.fsys == nil {
		return nil, fmt.Errorf("cannot load texture %s: no asset file system", name)
	}
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("invalid texture path %s", name)
	}

	data, err := fs.ReadFile(c.fsys, clean)
	if err != nil {
		return nil, fmt.Errorf("failed to read texture %s: %w", name, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture %s: %w", name, err)
	}
	return img, nil
}

// Len returns the number of cached textures.
func (c *TextureCache) Len() int {
	return len(c.cache)
}

// Purge drops every cached texture.
func (c *TextureCache) Purge() {
	clear(c.cache)
}

// Builtin generates a builtin texture by name, without the prefix.
// Supported: "dotN", a soft white disc N pixels across.
func Builtin(name string) (image.Image, error) {
	sizeText, ok := strings.CutPrefix(name, "dot")
	if !ok {
		return nil, fmt.Errorf("unknown builtin texture %q", name)
	}
	size, err := strconv.Atoi(sizeText)
	if err != nil || size < 1 || size > MaxDotSize {
		return nil, fmt.Errorf("builtin texture %q: size must be 1..%d", name, MaxDotSize)
	}
	return Dot(size), nil
}

// Dot draws a white disc whose alpha falls off quadratically from the
// center. Pixels are premultiplied.
func Dot(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			d := math.Hypot(dx, dy) / r
			if d >= 1 {
				continue
			}
			a := uint8(math.Round((1 - d*d) * 255))
			img.SetRGBA(x, y, color.RGBA{R: a, G: a, B: a, A: a})
		}
	}
	return img
}
