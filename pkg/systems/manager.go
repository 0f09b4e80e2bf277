package systems

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/decker502/particlefx/pkg/definition"
	"github.com/decker502/particlefx/pkg/fxerr"
	"github.com/decker502/particlefx/pkg/pool"
)

// Manager owns every particle system, top-level and child alike, and
// recycles them through a generational arena so that steady-state frames
// do not allocate.
type Manager struct {
	arena      *pool.Arena[*ParticleSystem]
	loader     TextureLoader
	logger     *zap.Logger
	rng        *rand.Rand
	maxSystems int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithSeed seeds the random source shared by all systems.
func WithSeed(seed1, seed2 uint64) Option {
	return func(m *Manager) {
		m.rng = rand.New(rand.NewPCG(seed1, seed2))
	}
}

// WithRand uses rng as the shared random source.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithMaxSystems caps the number of live systems, children included.
// Zero means no cap.
func WithMaxSystems(n int) Option {
	return func(m *Manager) {
		m.maxSystems = max(n, 0)
	}
}

// NewManager creates a manager. loader may be nil, in which case systems
// draw without a texture.
func NewManager(loader TextureLoader, opts ...Option) *Manager {
	m := &Manager{
		loader: loader,
		logger: zap.NewNop(),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.Named("particles")
	m.arena = pool.New(func() *ParticleSystem { return newParticleSystem(m) })
	return m
}

// Create builds a configured system, and its children, for def.
func (m *Manager) Create(def *definition.Definition) (*ParticleSystem, error) {
	s, err := m.create(def)
	if err != nil {
		name := ""
		if def != nil {
			name = def.Name
		}
		m.logger.Warn("failed to create particle system", zap.String("definition", name), zap.Error(err))
		return nil, err
	}
	m.logger.Debug("particle system created",
		zap.String("definition", def.Name),
		zap.Uint64("handle", uint64(s.handle)),
		zap.Int("live", m.arena.Len()))
	return s, nil
}

func (m *Manager) create(def *definition.Definition) (*ParticleSystem, error) {
	if def == nil {
		return nil, fxerr.Configuration("create", "", "nil definition")
	}
	if m.maxSystems > 0 && m.arena.Len() >= m.maxSystems {
		return nil, fxerr.Configuration("create", def.Name, "particle system limit reached")
	}

	h, s := m.arena.Acquire()
	s.handle = h
	s.def = def
	s.state = StateUninitialized

	if err := s.Reload(); err != nil {
		m.destroy(s)
		return nil, err
	}
	return s, nil
}

// Destroy clears s, releases its children and returns it to the pool.
// Destroying a system twice is a no-op. Pointers to a destroyed system must
// not be used; handles to it stop resolving.
func (m *Manager) Destroy(s *ParticleSystem) {
	if s == nil || !m.arena.Alive(s.handle) {
		return
	}
	name := s.def.Name
	h := s.handle
	m.destroy(s)
	m.logger.Debug("particle system destroyed",
		zap.String("definition", name),
		zap.Uint64("handle", uint64(h)),
		zap.Int("live", m.arena.Len()))
}

func (m *Manager) destroy(s *ParticleSystem) {
	s.Clear()
	m.arena.Release(s.handle)
	s.handle = 0
	s.def = nil
	s.state = StateReleased
}

// Get resolves a handle. Stale handles report false.
func (m *Manager) Get(h pool.Handle) (*ParticleSystem, bool) {
	return m.arena.Get(h)
}

// Live returns the number of live systems, children included.
func (m *Manager) Live() int {
	return m.arena.Len()
}

// Pooled returns the number of systems ever allocated.
func (m *Manager) Pooled() int {
	return m.arena.Cap()
}
