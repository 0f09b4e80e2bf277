package curve

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is the result of parsing a value string.
//
// A fixed value has Min == Max, a range has Min < Max, and a keyframe string
// leaves Min and Max at zero and fills Curve.
type Value struct {
	Min   float64
	Max   float64
	Curve Curve
}

// Base returns the midpoint of the range.
func (v Value) Base() float64 {
	return (v.Min + v.Max) / 2
}

// Spread returns the symmetric jitter around Base.
func (v Value) Spread() float64 {
	return (v.Max - v.Min) / 2
}

// ParseValue parses a value string from a definition file.
// Supports three formats:
//   - Fixed value: "1500" → Min=1500, Max=1500
//   - Range: "[0.7 0.9]" → Min=0.7, Max=0.9 ("[5]" is a fixed value)
//   - Keyframes: "0,2 1,0 EaseOut" → Curve with two keyframes
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, nil
	}

	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return Value{}, fmt.Errorf("unterminated range %q", s)
		}
		parts := strings.Fields(strings.TrimSuffix(strings.TrimPrefix(s, "["), "]"))
		switch len(parts) {
		case 1:
			val, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid range value %q: %w", s, err)
			}
			return Value{Min: val, Max: val}, nil
		case 2:
			lo, err := strconv.ParseFloat(parts[0], 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid range minimum %q: %w", s, err)
			}
			hi, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return Value{}, fmt.Errorf("invalid range maximum %q: %w", s, err)
			}
			if hi < lo {
				lo, hi = hi, lo
			}
			return Value{Min: lo, Max: hi}, nil
		default:
			return Value{}, fmt.Errorf("range %q must hold one or two numbers", s)
		}
	}

	if strings.Contains(s, ",") || hasInterpolation(s) {
		c, err := Parse(s)
		if err != nil {
			return Value{}, err
		}
		return Value{Curve: c}, nil
	}

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return Value{Min: val, Max: val}, nil
}

// Parse parses a keyframe string such as "0,1 0.5,2 1,0 EaseIn".
// Each token is a "time,value" pair; an interpolation keyword may appear
// once anywhere in the string. Keyframes are sorted by time.
func Parse(s string) (Curve, error) {
	var c Curve
	for _, part := range strings.Fields(s) {
		if mode, ok := lookupInterpolation(part); ok {
			if c.Interpolation != "" {
				return Curve{}, fmt.Errorf("curve %q names more than one interpolation", s)
			}
			c.Interpolation = mode
			continue
		}

		timeStr, valueStr, found := strings.Cut(part, ",")
		if !found {
			return Curve{}, fmt.Errorf("keyframe %q in %q is not time,value", part, s)
		}
		t, err := strconv.ParseFloat(timeStr, 64)
		if err != nil {
			return Curve{}, fmt.Errorf("invalid keyframe time %q: %w", part, err)
		}
		v, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			return Curve{}, fmt.Errorf("invalid keyframe value %q: %w", part, err)
		}
		c.Keyframes = append(c.Keyframes, Keyframe{Time: t, Value: v})
	}

	sortKeyframes(c.Keyframes)
	return c, nil
}

// sortKeyframes orders keys by time, keeping the written order of keys
// that share a time. Evaluate relies on it.
func sortKeyframes(keys []Keyframe) {
	slices.SortStableFunc(keys, func(a, b Keyframe) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
}

// String formats the curve in the form accepted by Parse.
func (c Curve) String() string {
	var sb strings.Builder
	for i, k := range c.Keyframes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(k.Time, 'g', -1, 64))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(k.Value, 'g', -1, 64))
	}
	if c.Interpolation != "" {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(c.Interpolation))
	}
	return sb.String()
}

// IsZero lets yaml omitempty drop empty curves.
func (c Curve) IsZero() bool {
	return len(c.Keyframes) == 0
}

// MarshalYAML writes the curve in its string form.
func (c Curve) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML accepts either the string form or a mapping with
// keyframes and interpolation.
func (c *Curve) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := Parse(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = parsed
		return nil
	}

	type plain Curve
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Interpolation != "" {
		if _, ok := lookupInterpolation(string(p.Interpolation)); !ok {
			return fmt.Errorf("line %d: unknown interpolation %q", node.Line, p.Interpolation)
		}
	}
	sortKeyframes(p.Keyframes)
	*c = Curve(p)
	return nil
}

func lookupInterpolation(token string) (Interpolation, bool) {
	for _, mode := range interpolations {
		if string(mode) == token {
			return mode, true
		}
	}
	return "", false
}

func hasInterpolation(s string) bool {
	for _, part := range strings.Fields(s) {
		if _, ok := lookupInterpolation(part); ok {
			return true
		}
	}
	return false
}
