// Package definition holds the parameter store particle systems are
// configured from.
//
// A Definition is an ordered list of named Parameters plus child
// definitions. Definitions are read-only while a frame runs; whoever edits
// one must Reload the systems built from it before the next frame.
package definition

import (
	"math"

	"github.com/decker502/particlefx/internal/curve"
	"github.com/decker502/particlefx/pkg/fxerr"
)

// Parameter names understood by the core.
const (
	ParamLife       = "Life"       // particle lifetime, seconds
	ParamSpawnRate  = "SpawnRate"  // particles per second
	ParamSpeed      = "Speed"      // launch speed, pixels per second
	ParamTexture    = "Texture"    // texture path (Text)
	ParamSortMode   = "SortMode"   // systems.SortMode
	ParamBlendMode  = "BlendMode"  // systems.BlendMode
	ParamShape      = "Shape"      // emitter.Shape
	ParamDuration   = "Duration"   // emitter lifetime used by emitter curves, seconds (0 = none)
	ParamLineLength = "LineLength" // line emitter length, pixels
	ParamLineAngle  = "LineAngle"  // line emitter orientation, degrees
)

// Parameter is a named value with optional symmetric jitter and up to two
// curve multipliers: one over the emitter lifetime and one over the
// particle lifetime.
type Parameter struct {
	Name          string      `yaml:"name"`
	Value         float64     `yaml:"value,omitempty"`
	Text          string      `yaml:"text,omitempty"`
	Random        float64     `yaml:"random,omitempty"`
	EmitterCurve  curve.Curve `yaml:"emitterCurve,omitempty"`
	ParticleCurve curve.Curve `yaml:"particleCurve,omitempty"`
}

// Int returns Value rounded to the nearest integer, for enum-valued
// parameters.
func (p *Parameter) Int() int {
	return int(math.Round(p.Value))
}

// Clone returns a deep copy.
func (p *Parameter) Clone() *Parameter {
	c := *p
	c.EmitterCurve.Keyframes = append([]curve.Keyframe(nil), p.EmitterCurve.Keyframes...)
	c.ParticleCurve.Keyframes = append([]curve.Keyframe(nil), p.ParticleCurve.Keyframes...)
	return &c
}

// Definition is a parameter bundle and its ordered children.
type Definition struct {
	Name        string        `yaml:"name"`
	Declaration string        `yaml:"declaration,omitempty"`
	Parameters  []*Parameter  `yaml:"parameters"`
	Children    []*Definition `yaml:"children,omitempty"`
}

// Parameter looks up a parameter by name.
func (d *Definition) Parameter(name string) (*Parameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Require looks up a parameter that must exist. A missing parameter is a
// *fxerr.ConfigurationError.
func (d *Definition) Require(name string) (*Parameter, error) {
	p, ok := d.Parameter(name)
	if !ok {
		return nil, fxerr.Configuration("definition "+d.Name, name, "missing required parameter")
	}
	return p, nil
}

// Set replaces the parameter with the same name, or appends p.
func (d *Definition) Set(p *Parameter) {
	for i, existing := range d.Parameters {
		if existing.Name == p.Name {
			d.Parameters[i] = p
			return
		}
	}
	d.Parameters = append(d.Parameters, p)
}

// Remove deletes a parameter by name, keeping the order of the rest.
func (d *Definition) Remove(name string) bool {
	for i, p := range d.Parameters {
		if p.Name == name {
			d.Parameters = append(d.Parameters[:i], d.Parameters[i+1:]...)
			return true
		}
	}
	return false
}

// AddChild appends a child definition.
func (d *Definition) AddChild(child *Definition) {
	d.Children = append(d.Children, child)
}

// Clone returns a deep copy of d and its children.
func (d *Definition) Clone() *Definition {
	c := &Definition{
		Name:        d.Name,
		Declaration: d.Declaration,
		Parameters:  make([]*Parameter, len(d.Parameters)),
	}
	for i, p := range d.Parameters {
		c.Parameters[i] = p.Clone()
	}
	for _, child := range d.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Walk calls fn for d and every descendant, parents first.
func (d *Definition) Walk(fn func(*Definition)) {
	fn(d)
	for _, child := range d.Children {
		child.Walk(fn)
	}
}

// Validate checks names are present and parameter names are unique within
// each definition of the tree.
func (d *Definition) Validate() error {
	var err error
	d.Walk(func(def *Definition) {
		if err != nil {
			return
		}
		if def.Name == "" {
			err = fxerr.Configuration("validate", def.Name, "definition without a name")
			return
		}
		seen := make(map[string]bool, len(def.Parameters))
		for _, p := range def.Parameters {
			if p == nil || p.Name == "" {
				err = fxerr.Configuration("validate", def.Name, "parameter without a name")
				return
			}
			if seen[p.Name] {
				err = fxerr.Configuration("validate "+def.Name, p.Name, "duplicate parameter name")
				return
			}
			seen[p.Name] = true
		}
	})
	return err
}
