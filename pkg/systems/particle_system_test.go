package systems

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap/zaptest"

	"github.com/decker502/particlefx/pkg/definition"
	"github.com/decker502/particlefx/pkg/emitter"
	"github.com/decker502/particlefx/pkg/fxerr"
	"github.com/decker502/particlefx/pkg/geom"
)

type fakeTexture struct {
	w, h int
}

func (t *fakeTexture) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.w, t.h)
}

// fakeLoader hands out 8x4 textures and counts loads per path.
type fakeLoader struct {
	loads map[string]int
	err   error
}

func (l *fakeLoader) LoadTexture(path string) (Texture, error) {
	if l.err != nil {
		return nil, l.err
	}
	if l.loads == nil {
		l.loads = make(map[string]int)
	}
	l.loads[path]++
	return &fakeTexture{w: 8, h: 4}, nil
}

func testDef(name string, params ...*definition.Parameter) *definition.Definition {
	def := &definition.Definition{
		Name: name,
		Parameters: []*definition.Parameter{
			{Name: definition.ParamTexture, Text: "dot.png"},
			{Name: definition.ParamLife, Value: 1},
			{Name: definition.ParamSpawnRate, Value: 0},
			{Name: definition.ParamSortMode, Value: float64(Unsorted)},
			{Name: definition.ParamBlendMode, Value: float64(BlendAlpha)},
		},
	}
	for _, p := range params {
		def.Set(p)
	}
	return def
}

func newTestManager(t *testing.T, loader TextureLoader) *Manager {
	t.Helper()
	return NewManager(loader, WithLogger(zaptest.NewLogger(t)), WithSeed(1, 2))
}

func mustCreate(t *testing.T, m *Manager, def *definition.Definition) *ParticleSystem {
	t.Helper()
	s, err := m.Create(def)
	if err != nil {
		t.Fatalf("Create(%s) error: %v", def.Name, err)
	}
	return s
}

// emitAt spawns one particle at pos with the given age.
func emitAt(s *ParticleSystem, pos geom.Vec2, age float64) int {
	i := s.emitter.Emit()
	s.cols.Position.Set(i, pos)
	s.cols.Velocity.Set(i, geom.Vec2{})
	s.cols.Age.Set(i, age)
	return i
}

// TestParticleSystem_Reaping tests that particles die once age reaches life
func TestParticleSystem_Reaping(t *testing.T) {
	m := newTestManager(t, nil)
	s := mustCreate(t, m, testDef("Reap"))

	i := s.emitter.Emit()
	s.cols.Velocity.Set(i, geom.Vec2{X: 10})
	start := s.cols.Position.At(i)

	s.Update(0.5)
	if s.ActiveParticleCount() != 1 {
		t.Fatalf("particle died early, active = %d", s.ActiveParticleCount())
	}
	if got := s.cols.Age.At(0); got != 0.5 {
		t.Errorf("age = %v, want 0.5", got)
	}
	if got := s.cols.Position.At(0).X - start.X; math.Abs(got-5) > 1e-9 {
		t.Errorf("moved %v, want 5", got)
	}

	s.Update(0.5)
	if s.ActiveParticleCount() != 0 {
		t.Errorf("particle with age == life still alive")
	}
}

// TestParticleSystem_ReapingMany tests the single forward scan with
// several particles dying in the same frame
func TestParticleSystem_ReapingMany(t *testing.T) {
	m := newTestManager(t, nil)
	s := mustCreate(t, m, testDef("Many"))

	ages := []float64{0.95, 0.1, 0.99, 0.2, 0.97, 0.3}
	for i, age := range ages {
		emitAt(s, geom.Vec2{X: float64(i)}, age)
	}
	s.Update(0.1)

	if got := s.ActiveParticleCount(); got != 3 {
		t.Fatalf("active = %d, want 3", got)
	}
	for _, age := range s.cols.Age.Live() {
		if age >= 1 {
			t.Errorf("survivor with age %v", age)
		}
	}
}

func TestParticleSystem_UpdateNonPositiveDt(t *testing.T) {
	m := newTestManager(t, nil)
	s := mustCreate(t, m, testDef("Idle", &definition.Parameter{Name: definition.ParamSpawnRate, Value: 64}))

	s.Update(0)
	s.Update(-1)
	if s.ActiveParticleCount() != 0 {
		t.Errorf("active = %d after non-positive dt", s.ActiveParticleCount())
	}
	if s.State() != StateConfigured {
		t.Errorf("state = %v, want Configured", s.State())
	}

	s.Update(0.0625)
	if s.ActiveParticleCount() != 4 || s.State() != StateActive {
		t.Errorf("active = %d, state = %v; want 4, Active", s.ActiveParticleCount(), s.State())
	}
}

// TestParticleSystem_DrawOrder tests sort modes and the additive override
func TestParticleSystem_DrawOrder(t *testing.T) {
	tests := []struct {
		name  string
		sort  SortMode
		blend BlendMode
		want  []float64
	}{
		{name: "unsorted keeps storage order", sort: Unsorted, blend: BlendAlpha, want: []float64{0.1, 0.9, 0.5}},
		{name: "oldest on top", sort: OldestOnTop, blend: BlendAlpha, want: []float64{0.1, 0.5, 0.9}},
		{name: "newest on top", sort: NewestOnTop, blend: BlendAlpha, want: []float64{0.9, 0.5, 0.1}},
		{name: "additive ignores sort mode", sort: OldestOnTop, blend: BlendAdditive, want: []float64{0.1, 0.9, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, nil)
			s := mustCreate(t, m, testDef("Sorted",
				&definition.Parameter{Name: definition.ParamSortMode, Value: float64(tt.sort)},
				&definition.Parameter{Name: definition.ParamBlendMode, Value: float64(tt.blend)},
			))
			for _, age := range []float64{0.1, 0.9, 0.5} {
				emitAt(s, geom.Vec2{X: age * 10}, age)
			}

			var list CommandList
			s.Draw(&list, ebiten.GeoM{})

			if list.Len() != 3 {
				t.Fatalf("got %d commands, want 3", list.Len())
			}
			for i, want := range tt.want {
				cmd := list.Commands[i]
				if got := cmd.Origin().X; math.Abs(got-want*10) > 1e-9 {
					t.Errorf("command %d at x=%v, want particle of age %v", i, got, want)
				}
				if cmd.Blend != tt.blend {
					t.Errorf("command %d blend = %v, want %v", i, cmd.Blend, tt.blend)
				}
			}
		})
	}
}

// TestParticleSystem_DrawCommand tests pivot and fade color
func TestParticleSystem_DrawCommand(t *testing.T) {
	m := newTestManager(t, &fakeLoader{})
	s := mustCreate(t, m, testDef("Faded"))
	emitAt(s, geom.Vec2{X: 3, Y: 4}, 0.25)

	var transform ebiten.GeoM
	transform.Scale(2, 2)

	var list CommandList
	s.Draw(&list, transform)
	cmd := list.Commands[0]

	if cmd.Pivot != (geom.Vec2{X: 4, Y: 2}) {
		t.Errorf("Pivot = %v, want half the 8x4 texture", cmd.Pivot)
	}
	if got := cmd.Origin(); got != (geom.Vec2{X: 6, Y: 8}) {
		t.Errorf("Origin = %v, want translate then scale (6, 8)", got)
	}
	if got := cmd.Color.A(); math.Abs(float64(got)-0.75) > 1e-6 {
		t.Errorf("alpha = %v, want 0.75", got)
	}
	if got := cmd.Color.R(); math.Abs(float64(got)-0.75) > 1e-6 {
		t.Errorf("red = %v, want premultiplied 0.75", got)
	}
}

func TestFade(t *testing.T) {
	tests := []struct {
		age, life float64
		want      float32
	}{
		{0, 1, 1},
		{0.5, 1, 0.5},
		{1, 1, 0},
		{2, 1, 0},
		{0, 0, 0},
		{-1, 1, 1},
	}
	for _, tt := range tests {
		c := fade(tt.age, tt.life)
		if got := c.A(); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("fade(%v, %v) alpha = %v, want %v", tt.age, tt.life, got, tt.want)
		}
	}
}

// TestParticleSystem_Hierarchy tests that children draw after their parent
// and relative to its position
func TestParticleSystem_Hierarchy(t *testing.T) {
	m := newTestManager(t, nil)
	def := testDef("Parent")
	def.AddChild(testDef("Child"))

	parent := mustCreate(t, m, def)
	parent.Position = geom.Vec2{X: 5, Y: 5}
	child, ok := parent.Child(0)
	if !ok {
		t.Fatal("parent has no child system")
	}
	child.Position = geom.Vec2{X: 1, Y: 0}

	parent.emitter.SetOrigin(parent.Position, 0)
	emitAt(parent, parent.Position, 0)
	child.emitter.SetOrigin(child.Position, 0)
	emitAt(child, child.Position, 0)

	var list CommandList
	parent.Draw(&list, ebiten.GeoM{})

	if list.Len() != 2 {
		t.Fatalf("got %d commands, want 2", list.Len())
	}
	if got := list.Commands[0].Origin(); got != (geom.Vec2{X: 5, Y: 5}) {
		t.Errorf("parent particle at %v, want (5, 5)", got)
	}
	if got := list.Commands[1].Origin(); got != (geom.Vec2{X: 6, Y: 5}) {
		t.Errorf("child particle at %v, want (6, 5)", got)
	}
	if parent.TotalParticleCount() != 2 {
		t.Errorf("TotalParticleCount() = %d, want 2", parent.TotalParticleCount())
	}
}

// TestParticleSystem_ChildrenUpdated tests that Update reaches children
func TestParticleSystem_ChildrenUpdated(t *testing.T) {
	m := newTestManager(t, nil)
	def := testDef("Parent")
	def.AddChild(testDef("Child", &definition.Parameter{Name: definition.ParamSpawnRate, Value: 8}))

	parent := mustCreate(t, m, def)
	parent.Update(0.5)

	child, _ := parent.Child(0)
	if got := child.ActiveParticleCount(); got != 4 {
		t.Errorf("child active = %d, want 4", got)
	}
	if parent.ActiveParticleCount() != 0 {
		t.Errorf("parent active = %d, want 0", parent.ActiveParticleCount())
	}
}

// TestParticleSystem_ChildrenOrder tests that siblings update and draw in
// list order after their parent
func TestParticleSystem_ChildrenOrder(t *testing.T) {
	m := newTestManager(t, &fakeLoader{})
	def := testDef("Parent",
		&definition.Parameter{Name: definition.ParamTexture, Text: "parent.png"},
		&definition.Parameter{Name: definition.ParamSpawnRate, Value: 4},
	)
	def.AddChild(testDef("A",
		&definition.Parameter{Name: definition.ParamTexture, Text: "a.png"},
		&definition.Parameter{Name: definition.ParamSpawnRate, Value: 8},
	))
	def.AddChild(testDef("B",
		&definition.Parameter{Name: definition.ParamTexture, Text: "b.png"},
		&definition.Parameter{Name: definition.ParamSpawnRate, Value: 16},
	))

	parent := mustCreate(t, m, def)
	for range 4 {
		parent.Update(0.125)
	}

	a, okA := parent.Child(0)
	b, okB := parent.Child(1)
	if !okA || !okB {
		t.Fatal("parent is missing a child system")
	}
	order := []*ParticleSystem{parent, a, b}
	want := []int{2, 4, 8}
	for i, s := range order {
		if got := s.ActiveParticleCount(); got != want[i] {
			t.Errorf("%s active = %d, want %d", s.Definition().Name, got, want[i])
		}
	}
	if got := parent.TotalParticleCount(); got != 14 {
		t.Fatalf("TotalParticleCount() = %d, want 14", got)
	}

	var list CommandList
	parent.Draw(&list, ebiten.GeoM{})
	if list.Len() != 14 {
		t.Fatalf("got %d commands, want 14", list.Len())
	}
	k := 0
	for i, s := range order {
		for range want[i] {
			if list.Commands[k].Texture != s.texture {
				t.Fatalf("command %d is not from %s", k, s.Definition().Name)
			}
			k++
		}
	}
}

// countRenderer counts commands without keeping them.
type countRenderer struct {
	n int
}

func (r *countRenderer) DrawParticle(*DrawCommand) {
	r.n++
}

// TestParticleSystem_DrawNoAllocs tests that drawing a sorted hierarchy
// reuses its scratch state
func TestParticleSystem_DrawNoAllocs(t *testing.T) {
	m := newTestManager(t, &fakeLoader{})
	def := testDef("Parent",
		&definition.Parameter{Name: definition.ParamSpawnRate, Value: 32},
		&definition.Parameter{Name: definition.ParamSortMode, Value: float64(OldestOnTop)},
	)
	def.AddChild(testDef("Child", &definition.Parameter{Name: definition.ParamSpawnRate, Value: 32}))
	s := mustCreate(t, m, def)
	s.Update(0.5)

	r := &countRenderer{}
	s.Draw(r, ebiten.GeoM{})
	if r.n != 32 {
		t.Fatalf("drew %d particles, want 32", r.n)
	}

	allocs := testing.AllocsPerRun(100, func() {
		s.Draw(r, ebiten.GeoM{})
	})
	if allocs != 0 {
		t.Errorf("Draw allocated %v times per call, want 0", allocs)
	}
}

// TestParticleSystem_Clear tests that Clear is complete and idempotent
func TestParticleSystem_Clear(t *testing.T) {
	m := newTestManager(t, nil)
	def := testDef("Parent", &definition.Parameter{Name: definition.ParamSpawnRate, Value: 20})
	def.AddChild(testDef("Child"))
	s := mustCreate(t, m, def)

	s.Position = geom.Vec2{X: 3, Y: 3}
	s.Angle = 1
	s.Update(0.5)
	if m.Live() != 2 {
		t.Fatalf("Live() = %d, want 2", m.Live())
	}

	snapshot := func() [5]any {
		return [5]any{s.Position, s.Angle, s.ActiveParticleCount(), len(s.Children()), s.State()}
	}

	s.Clear()
	first := snapshot()
	s.Clear()
	if second := snapshot(); first != second {
		t.Errorf("second Clear changed state: %v -> %v", first, second)
	}

	want := [5]any{geom.Vec2{}, 0.0, 0, 0, StateCleared}
	if first != want {
		t.Errorf("after Clear: %v, want %v", first, want)
	}
	if m.Live() != 1 {
		t.Errorf("Live() = %d after Clear, want children released", m.Live())
	}

	// Nothing banked in the emitter survives Clear.
	s.Update(0.025)
	if s.ActiveParticleCount() != 0 {
		t.Errorf("emitter kept its accumulator across Clear")
	}

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() after Clear error: %v", err)
	}
	if len(s.Children()) != 1 {
		t.Errorf("Reload did not rebuild children")
	}
}

// TestParticleSystem_ReloadChildren tests child reconciliation
func TestParticleSystem_ReloadChildren(t *testing.T) {
	m := newTestManager(t, nil)
	def := testDef("Parent")
	def.AddChild(testDef("A"))
	s := mustCreate(t, m, def)

	first := s.Children()[0]

	// Same definitions: children are reloaded in place.
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if s.Children()[0] != first {
		t.Error("idempotent Reload replaced the child")
	}

	// Count mismatch: rebuilt.
	def.AddChild(testDef("B"))
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if len(s.Children()) != 2 {
		t.Fatalf("children = %d, want 2", len(s.Children()))
	}
	if _, ok := m.Get(first); ok {
		t.Error("old child handle still resolves after rebuild")
	}
	for i, childDef := range def.Children {
		child, ok := s.Child(i)
		if !ok || child.Definition() != childDef {
			t.Errorf("child %d does not follow definition %s", i, childDef.Name)
		}
	}

	// Same count, different definition: rebuilt.
	def.Children[1] = testDef("C")
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if child, _ := s.Child(1); child.Definition().Name != "C" {
		t.Errorf("child 1 = %s, want C", child.Definition().Name)
	}
	if m.Live() != 3 {
		t.Errorf("Live() = %d, want 3", m.Live())
	}

	// Invalid child definition surfaces from the parent's Reload.
	def.Children[0].Remove(definition.ParamLife)
	if err := s.Reload(); !errors.Is(err, fxerr.ErrConfiguration) {
		t.Errorf("Reload() = %v, want ErrConfiguration", err)
	}
}

// TestParticleSystem_ReloadShape tests that a shape change rebuilds the emitter
func TestParticleSystem_ReloadShape(t *testing.T) {
	m := newTestManager(t, nil)
	def := testDef("Shape")
	s := mustCreate(t, m, def)
	if s.emitter.Shape() != emitter.ShapePoint {
		t.Fatalf("shape = %v, want Point", s.emitter.Shape())
	}

	def.Set(&definition.Parameter{Name: definition.ParamShape, Value: float64(emitter.ShapeLine)})
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload() error: %v", err)
	}
	if s.emitter.Shape() != emitter.ShapeLine {
		t.Errorf("shape = %v, want Line", s.emitter.Shape())
	}
}

// TestParticleSystem_ReloadTexture tests texture loading through the loader
func TestParticleSystem_ReloadTexture(t *testing.T) {
	loader := &fakeLoader{}
	m := newTestManager(t, loader)
	s := mustCreate(t, m, testDef("Tex"))

	if s.Texture() == nil {
		t.Fatal("Texture() = nil")
	}
	_ = s.Reload()
	if loader.loads["dot.png"] != 2 {
		t.Errorf("loads = %d, want one per Reload", loader.loads["dot.png"])
	}

	loader.err = errors.New("disk on fire")
	if err := s.Reload(); err == nil {
		t.Error("Reload() ignored the loader error")
	}
}

// TestParticleSystem_MissingParameters tests required parameter errors
func TestParticleSystem_MissingParameters(t *testing.T) {
	for _, name := range []string{
		definition.ParamTexture,
		definition.ParamSortMode,
		definition.ParamBlendMode,
		definition.ParamLife,
		definition.ParamSpawnRate,
	} {
		t.Run(name, func(t *testing.T) {
			m := newTestManager(t, nil)
			def := testDef("Broken")
			def.Remove(name)

			if _, err := m.Create(def); !errors.Is(err, fxerr.ErrConfiguration) {
				t.Errorf("Create() error = %v, want ErrConfiguration", err)
			}
			if m.Live() != 0 {
				t.Errorf("Live() = %d after failed Create", m.Live())
			}
		})
	}
}

func TestParticleSystem_OptionalParameters(t *testing.T) {
	m := newTestManager(t, nil)
	s := mustCreate(t, m, testDef("Plain",
		&definition.Parameter{Name: definition.ParamSortMode, Value: 9},
		&definition.Parameter{Name: definition.ParamBlendMode, Value: 9},
	))
	if s.SortMode() != Unsorted || s.BlendMode() != BlendAlpha {
		t.Errorf("unknown modes = %v, %v; want Unsorted, Alpha", s.SortMode(), s.BlendMode())
	}
}
