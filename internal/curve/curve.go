// Package curve provides keyframe curves used to modulate particle
// parameters over a normalized lifetime, plus the terse value-string
// format definitions may be written in.
package curve

import (
	"math"
)

// Interpolation selects how values are blended between two keyframes.
type Interpolation string

const (
	Linear        Interpolation = "Linear"
	EaseIn        Interpolation = "EaseIn"
	EaseOut       Interpolation = "EaseOut"
	FastInOutWeak Interpolation = "FastInOutWeak"
)

// interpolations lists the keywords recognized by Parse.
var interpolations = []Interpolation{Linear, EaseIn, EaseOut, FastInOutWeak}

// Keyframe represents a single keyframe in a curve.
type Keyframe struct {
	Time  float64 `yaml:"time"`  // Normalized time (0-1)
	Value float64 `yaml:"value"` // Value at this keyframe
}

// Curve maps a normalized fraction in [0,1] to a scalar.
//
// Keyframes must be sorted by Time. A curve with no keyframes is empty, and
// callers treat an empty curve as disabled rather than as a constant.
type Curve struct {
	Keyframes     []Keyframe    `yaml:"keyframes"`
	Interpolation Interpolation `yaml:"interpolation,omitempty"`
}

// Len returns the number of keyframes.
func (c Curve) Len() int {
	return len(c.Keyframes)
}

// Empty reports whether the curve has no keyframes.
func (c Curve) Empty() bool {
	return len(c.Keyframes) == 0
}

// Evaluate calculates the interpolated value at t.
//
// t is clamped to [0, 1]. Before the first keyframe the first value is
// returned, past the last keyframe the last value. An empty curve evaluates
// to 0.
func (c Curve) Evaluate(t float64) float64 {
	keys := c.Keyframes
	if len(keys) == 0 {
		return 0
	}
	if len(keys) == 1 {
		return keys[0].Value
	}

	t = math.Max(0, math.Min(1, t))

	if t < keys[0].Time {
		return keys[0].Value
	}

	for i := 0; i < len(keys)-1; i++ {
		k0 := keys[i]
		k1 := keys[i+1]
		if t < k0.Time || t > k1.Time {
			continue
		}

		span := k1.Time - k0.Time
		if span <= 0 {
			return k0.Value
		}
		ratio := ease(c.Interpolation, (t-k0.Time)/span)
		return k0.Value + ratio*(k1.Value-k0.Value)
	}

	return keys[len(keys)-1].Value
}

// ease reshapes a linear ratio in [0,1].
func ease(mode Interpolation, ratio float64) float64 {
	switch mode {
	case EaseIn:
		return ratio * ratio
	case EaseOut:
		return 1 - (1-ratio)*(1-ratio)
	case FastInOutWeak:
		return ratio * ratio * (3 - 2*ratio)
	default:
		// Linear and unknown modes
		return ratio
	}
}
