package systems

import (
	"fmt"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/decker502/particlefx/pkg/buffer"
	"github.com/decker502/particlefx/pkg/definition"
	"github.com/decker502/particlefx/pkg/emitter"
	"github.com/decker502/particlefx/pkg/fxerr"
	"github.com/decker502/particlefx/pkg/geom"
	"github.com/decker502/particlefx/pkg/pool"
)

// State tracks where a system is in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateConfigured
	StateActive
	StateCleared
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateConfigured:
		return "Configured"
	case StateActive:
		return "Active"
	case StateCleared:
		return "Cleared"
	case StateReleased:
		return "Released"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParticleSystem simulates and draws the particles of one definition and,
// recursively, of its children.
//
// The system processes particles in two phases each frame:
//  1. Update: emit, integrate positions, age and reap dead particles
//  2. Draw: order live particles and hand one DrawCommand per particle to
//     the renderer
//
// Position and Angle place the emitter in the parent's space. Particles
// keep the coordinates they were spawned at, so moving a system leaves a
// trail. Children are drawn relative to Position.
//
// Systems are created and destroyed through a Manager.
type ParticleSystem struct {
	Position geom.Vec2
	Angle    float64 // radians

	manager *Manager
	handle  pool.Handle
	state   State

	def  *definition.Definition
	buf  *buffer.Buffer
	cols *buffer.Standard

	emitter    emitter.Emitter
	emitterDef *definition.Definition

	children []pool.Handle

	texture     Texture
	texturePath string
	sortMode    *definition.Float
	blendMode   *definition.Float

	sorter ageSorter
	cmd    DrawCommand // reused by Draw
}

func newParticleSystem(m *Manager) *ParticleSystem {
	buf := buffer.New(buffer.DefaultCapacity)
	cols, err := buffer.RegisterStandard(buf)
	if err != nil {
		panic(err) // fresh buffer
	}
	return &ParticleSystem{
		manager:   m,
		buf:       buf,
		cols:      cols,
		sortMode:  definition.NewFloat(nil, definition.ParamSortMode),
		blendMode: definition.NewFloat(nil, definition.ParamBlendMode),
	}
}

// Handle returns the arena handle of the system.
func (s *ParticleSystem) Handle() pool.Handle {
	return s.handle
}

// State returns the lifecycle state.
func (s *ParticleSystem) State() State {
	return s.state
}

// Definition returns the definition the system was configured from.
func (s *ParticleSystem) Definition() *definition.Definition {
	return s.def
}

// Texture returns the texture loaded at the last Reload.
func (s *ParticleSystem) Texture() Texture {
	return s.texture
}

// Children returns the handles of the child systems, in definition order.
func (s *ParticleSystem) Children() []pool.Handle {
	return s.children
}

// Child resolves the i-th child.
func (s *ParticleSystem) Child(i int) (*ParticleSystem, bool) {
	if i < 0 || i >= len(s.children) {
		return nil, false
	}
	return s.manager.Get(s.children[i])
}

// Buffer exposes the particle storage, for inspection.
func (s *ParticleSystem) Buffer() *buffer.Buffer {
	return s.buf
}

// ActiveParticleCount returns the number of live particles, excluding
// children.
func (s *ParticleSystem) ActiveParticleCount() int {
	return s.buf.Active()
}

// TotalParticleCount returns the number of live particles in the system
// and all its descendants.
func (s *ParticleSystem) TotalParticleCount() int {
	n := s.buf.Active()
	for _, h := range s.children {
		if child, ok := s.manager.Get(h); ok {
			n += child.TotalParticleCount()
		}
	}
	return n
}

// SortMode returns the current paint order. Additive blending always draws
// unsorted.
func (s *ParticleSystem) SortMode() SortMode {
	if s.BlendMode() == BlendAdditive {
		return Unsorted
	}
	switch mode := SortMode(s.intParam(s.sortMode)); mode {
	case NewestOnTop, OldestOnTop:
		return mode
	}
	return Unsorted
}

// BlendMode returns the current blend mode.
func (s *ParticleSystem) BlendMode() BlendMode {
	if BlendMode(s.intParam(s.blendMode)) == BlendAdditive {
		return BlendAdditive
	}
	return BlendAlpha
}

func (s *ParticleSystem) intParam(f *definition.Float) int {
	if p := f.Parameter(); p != nil {
		return p.Int()
	}
	return 0
}

// Reload resolves everything the system reads from its definition: the
// texture, sort and blend modes, the emitter and the children. It is safe
// to call any number of times; existing particles are kept.
func (s *ParticleSystem) Reload() error {
	if s.def == nil {
		return fxerr.Configuration("reload", "", "system has no definition")
	}

	tex, err := s.def.Require(definition.ParamTexture)
	if err != nil {
		return err
	}
	if _, err := s.def.Require(definition.ParamSortMode); err != nil {
		return err
	}
	if _, err := s.def.Require(definition.ParamBlendMode); err != nil {
		return err
	}
	s.sortMode.Bind(s.def)
	s.blendMode.Bind(s.def)

	if err := s.loadTexture(tex.Text); err != nil {
		return err
	}
	if err := s.reloadEmitter(); err != nil {
		return err
	}
	if err := s.reloadChildren(); err != nil {
		return err
	}

	if s.state == StateUninitialized || s.state == StateCleared {
		s.state = StateConfigured
	}
	return nil
}

func (s *ParticleSystem) loadTexture(path string) error {
	s.texturePath = path
	s.texture = nil
	if s.manager.loader == nil {
		return nil
	}
	tex, err := s.manager.loader.LoadTexture(path)
	if err != nil {
		return fmt.Errorf("definition %s: failed to load texture %s: %w", s.def.Name, path, err)
	}
	s.texture = tex
	return nil
}

func (s *ParticleSystem) reloadEmitter() error {
	shape := emitter.ShapeOf(s.def)
	if s.emitter != nil && s.emitterDef == s.def && s.emitter.Shape() == shape {
		return s.emitter.Reload()
	}

	e, err := emitter.New(shape, s.buf, s.def, s.manager.rng)
	if err != nil {
		return err
	}
	s.emitter = e
	s.emitterDef = s.def
	return nil
}

// reloadChildren keeps one child system per child definition. When the
// existing children still line up with the definitions they are reloaded
// in place; otherwise they are all released and rebuilt.
func (s *ParticleSystem) reloadChildren() error {
	if s.childrenMatch() {
		for _, h := range s.children {
			child, _ := s.manager.Get(h)
			if err := child.Reload(); err != nil {
				return err
			}
		}
		return nil
	}

	if len(s.children) > 0 || len(s.def.Children) > 0 {
		s.manager.logger.Debug("rebuilding child systems",
			zap.String("definition", s.def.Name),
			zap.Int("old", len(s.children)),
			zap.Int("new", len(s.def.Children)))
	}
	s.releaseChildren()

	for _, childDef := range s.def.Children {
		child, err := s.manager.create(childDef)
		if err != nil {
			return err
		}
		s.children = append(s.children, child.handle)
	}
	return nil
}

func (s *ParticleSystem) childrenMatch() bool {
	if len(s.children) != len(s.def.Children) {
		return false
	}
	for i, h := range s.children {
		child, ok := s.manager.Get(h)
		if !ok || child.def != s.def.Children[i] {
			return false
		}
	}
	return true
}

func (s *ParticleSystem) releaseChildren() {
	for _, h := range s.children {
		if child, ok := s.manager.Get(h); ok {
			s.manager.destroy(child)
		}
	}
	s.children = s.children[:0]
}

// Update advances the system by dt seconds. Non-positive dt does nothing.
func (s *ParticleSystem) Update(dt float64) {
	if dt <= 0 || s.emitter == nil {
		return
	}
	s.state = StateActive

	s.emitter.SetOrigin(s.Position, s.Angle)
	s.emitter.Update(dt)

	// Single forward scan; a removed row is refilled from the end and
	// examined again.
	for i := 0; i < s.buf.Active(); {
		pos := s.cols.Position.Ref(i)
		*pos = pos.Add(s.cols.Velocity.At(i).Scale(dt))

		age := s.cols.Age.Ref(i)
		*age += dt
		if *age >= s.cols.Life.At(i) {
			if err := s.buf.Remove(i); err != nil {
				panic(err)
			}
			continue
		}
		i++
	}

	for _, h := range s.children {
		if child, ok := s.manager.Get(h); ok {
			child.Update(dt)
		}
	}
}

// Draw hands one command per live particle to r, then draws the children.
// transform maps the system's parent space to the screen.
func (s *ParticleSystem) Draw(r Renderer, transform ebiten.GeoM) {
	blend := s.BlendMode()
	order := s.paintOrder()

	var pivot geom.Vec2
	if s.texture != nil {
		b := s.texture.Bounds()
		pivot = geom.Vec2{X: float64(b.Dx()) / 2, Y: float64(b.Dy()) / 2}
	}

	cmd := &s.cmd
	cmd.Texture, cmd.Pivot, cmd.Blend = s.texture, pivot, blend
	for _, i := range order {
		pos := s.cols.Position.At(i)
		cmd.Transform.Reset()
		cmd.Transform.Translate(pos.X, pos.Y)
		cmd.Transform.Concat(transform)
		cmd.Color = fade(s.cols.Age.At(i), s.cols.Life.At(i))
		r.DrawParticle(cmd)
	}

	var childTransform ebiten.GeoM
	childTransform.Translate(s.Position.X, s.Position.Y)
	childTransform.Concat(transform)
	for _, h := range s.children {
		if child, ok := s.manager.Get(h); ok {
			child.Draw(r, childTransform)
		}
	}
}

// paintOrder fills the SortIndex column with the rows in paint order.
func (s *ParticleSystem) paintOrder() []int {
	order := s.cols.SortIndex.Live()
	for i := range order {
		order[i] = i
	}

	mode := s.SortMode()
	if mode == Unsorted {
		return order
	}
	s.sorter.mode = mode
	s.sorter.order = order
	s.sorter.age = s.cols.Age.Live()
	sort.Sort(&s.sorter)
	s.sorter.order, s.sorter.age = nil, nil
	return order
}

// Clear drops every particle and child and resets the emitter and the
// placement. The definition stays, so Reload brings the system back.
func (s *ParticleSystem) Clear() {
	s.Position = geom.Vec2{}
	s.Angle = 0
	s.buf.Clear()
	if s.emitter != nil {
		s.emitter.Clear()
	}
	s.releaseChildren()
	if s.state != StateUninitialized && s.state != StateReleased {
		s.state = StateCleared
	}
}
