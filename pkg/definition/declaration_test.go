package definition

import (
	"errors"
	"strings"
	"testing"

	"github.com/decker502/particlefx/pkg/fxerr"
)

// TestDeclarationTable_Create tests instantiating definitions from declarations
func TestDeclarationTable_Create(t *testing.T) {
	table := DefaultDeclarations()

	first, err := table.Create("Point")
	if err != nil {
		t.Fatalf("Create(Point) error: %v", err)
	}
	second, err := table.Create("Line")
	if err != nil {
		t.Fatalf("Create(Line) error: %v", err)
	}

	if first.Name != "Point1" || second.Name != "Line2" {
		t.Errorf("names = %s, %s; want Point1, Line2", first.Name, second.Name)
	}
	if first.Declaration != "Point" {
		t.Errorf("Declaration = %q, want Point", first.Declaration)
	}

	for _, name := range []string{ParamLife, ParamSpawnRate, ParamTexture, ParamSortMode, ParamBlendMode} {
		if _, ok := first.Parameter(name); !ok {
			t.Errorf("Point definition lacks %s", name)
		}
	}
	if p, _ := first.Parameter(ParamTexture); p.Text != "builtin:dot16" {
		t.Errorf("Texture = %q, want builtin:dot16", p.Text)
	}
	if p, _ := second.Parameter(ParamShape); p.Int() != 1 {
		t.Errorf("Line Shape = %d, want 1", p.Int())
	}
	if p, _ := second.Parameter(ParamLineLength); p.Value != 64 {
		t.Errorf("LineLength = %v, want 64", p.Value)
	}

	// Instances do not share parameters.
	third, _ := table.Create("Point")
	p1, _ := first.Parameter(ParamLife)
	p3, _ := third.Parameter(ParamLife)
	p3.Value = 9
	if p1.Value == 9 {
		t.Error("instances share parameter storage")
	}
}

func TestDeclarationTable_Errors(t *testing.T) {
	table := DefaultDeclarations()

	if _, err := table.Create("Ring"); !errors.Is(err, fxerr.ErrConfiguration) {
		t.Errorf("Create(Ring) = %v, want ErrConfiguration", err)
	}
	if err := table.Add(&Declaration{Name: "Point"}); !errors.Is(err, fxerr.ErrConfiguration) {
		t.Errorf("duplicate Add = %v, want ErrConfiguration", err)
	}
	if err := table.Add(&Declaration{}); !errors.Is(err, fxerr.ErrConfiguration) {
		t.Errorf("unnamed Add = %v, want ErrConfiguration", err)
	}
	if got := strings.Join(table.Names(), ","); got != "Point,Line" {
		t.Errorf("Names() = %s", got)
	}
}

func TestDecodeDeclarations(t *testing.T) {
	src := `
declarations:
  - name: Fountain
    parameters:
      - {name: Life, default: 2, defaultRandom: 0.5}
      - {name: SpawnRate, default: 40}
      - {name: Texture, defaultText: "drops.png"}
`
	table, err := DecodeDeclarations(strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeDeclarations() error: %v", err)
	}

	def, err := table.Create("Fountain")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	life, _ := def.Parameter(ParamLife)
	if life.Value != 2 || life.Random != 0.5 {
		t.Errorf("Life = %v ± %v, want 2 ± 0.5", life.Value, life.Random)
	}
	tex, _ := def.Parameter(ParamTexture)
	if tex.Text != "drops.png" {
		t.Errorf("Texture = %q", tex.Text)
	}
}
