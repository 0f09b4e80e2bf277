package definition

import (
	"math/rand/v2"
)

// Float is a resolved handle to a numeric parameter.
//
// The handle keeps a pointer to the Parameter it found at the last Reload,
// never a copy of its value, so edits to the parameter's fields are seen on
// the next Get. Replacing or removing the parameter in the definition needs
// a Reload. A parameter that is not found resolves to a disabled handle
// that evaluates to 0.
type Float struct {
	def   *Definition
	name  string
	param *Parameter
}

// NewFloat resolves name in def.
func NewFloat(def *Definition, name string) *Float {
	f := &Float{def: def, name: name}
	f.Reload()
	return f
}

// Bind points the handle at another definition and resolves again.
func (f *Float) Bind(def *Definition) {
	f.def = def
	f.Reload()
}

// Reload looks the parameter up again.
func (f *Float) Reload() {
	f.param = nil
	if f.def == nil {
		return
	}
	if p, ok := f.def.Parameter(f.name); ok {
		f.param = p
	}
}

// Name returns the parameter name the handle resolves.
func (f *Float) Name() string {
	return f.name
}

// Found reports whether the last Reload found the parameter.
func (f *Float) Found() bool {
	return f.param != nil
}

// Parameter returns the resolved parameter, or nil.
func (f *Float) Parameter() *Parameter {
	return f.param
}

// Get evaluates the parameter:
//
//	v = Value [+ uniform(-Random, Random)] [* EmitterCurve(emitterFraction)] [* ParticleCurve(particleFraction)]
//
// Jitter is skipped when Random is 0 or rng is nil; empty curves are skipped.
func (f *Float) Get(rng *rand.Rand, emitterFraction, particleFraction float64) float64 {
	p := f.param
	if p == nil {
		return 0
	}

	v := p.Value
	if p.Random != 0 && rng != nil {
		v += (rng.Float64()*2 - 1) * p.Random
	}
	if !p.EmitterCurve.Empty() {
		v *= p.EmitterCurve.Evaluate(emitterFraction)
	}
	if !p.ParticleCurve.Empty() {
		v *= p.ParticleCurve.Evaluate(particleFraction)
	}
	return v
}

// GetOr evaluates the parameter, or returns fallback when it was not found.
func (f *Float) GetOr(rng *rand.Rand, fallback, emitterFraction, particleFraction float64) float64 {
	if f.param == nil {
		return fallback
	}
	return f.Get(rng, emitterFraction, particleFraction)
}
