package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/decker502/particlefx/internal/curve"
)

// File is the on-disk layout of a definition file.
//
//	definitions:
//	  - name: Sparks
//	    parameters:
//	      - {name: Texture, text: "builtin:dot16"}
//	      - {name: Life, value: "[0.5 1.5]"}
//	      - {name: SpawnRate, value: 30, emitterCurve: "0,1 1,0"}
//	    children:
//	      - name: Embers
//	        parameters: [...]
type File struct {
	Definitions []*Definition `yaml:"definitions"`
}

// UnmarshalYAML decodes a parameter. Besides a plain number, value accepts
// the range shorthand "[min max]", which sets Value to the midpoint and
// Random to the half-width. An explicit random field wins over the range.
func (p *Parameter) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name          string      `yaml:"name"`
		Value         yaml.Node   `yaml:"value"`
		Text          string      `yaml:"text"`
		Random        *float64    `yaml:"random"`
		EmitterCurve  curve.Curve `yaml:"emitterCurve"`
		ParticleCurve curve.Curve `yaml:"particleCurve"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("line %d: parameter without a name", node.Line)
	}

	*p = Parameter{
		Name:          raw.Name,
		Text:          raw.Text,
		EmitterCurve:  raw.EmitterCurve,
		ParticleCurve: raw.ParticleCurve,
	}

	if raw.Value.Kind != 0 {
		text, err := valueText(&raw.Value)
		if err != nil {
			return fmt.Errorf("line %d: parameter %q: %w", raw.Value.Line, raw.Name, err)
		}
		v, err := curve.ParseValue(text)
		if err != nil {
			return fmt.Errorf("line %d: parameter %q: %w", raw.Value.Line, raw.Name, err)
		}
		if !v.Curve.Empty() {
			return fmt.Errorf("line %d: parameter %q: keyframes belong in emitterCurve or particleCurve", raw.Value.Line, raw.Name)
		}
		p.Value = v.Base()
		p.Random = v.Spread()
	}
	if raw.Random != nil {
		p.Random = *raw.Random
	}
	return nil
}

// valueText turns a scalar or an unquoted YAML sequence ([0.5, 1.5]) into
// the value-string form.
func valueText(node *yaml.Node) (string, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Value, nil
	case yaml.SequenceNode:
		text := "["
		for i, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return "", errors.New("range entries must be numbers")
			}
			if i > 0 {
				text += " "
			}
			text += item.Value
		}
		return text + "]", nil
	}
	return "", errors.New("value must be a number or a range")
}

// Decode reads a definition file and validates every definition in it.
func Decode(r io.Reader) ([]*Definition, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("definition file is empty")
		}
		return nil, fmt.Errorf("failed to decode definitions: %w", err)
	}
	for _, def := range f.Definitions {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Definitions, nil
}

// Encode writes definitions in the layout Decode reads.
func Encode(w io.Writer, defs []*Definition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(File{Definitions: defs}); err != nil {
		return fmt.Errorf("failed to encode definitions: %w", err)
	}
	return enc.Close()
}

// Marshal encodes a single definition.
func Marshal(def *Definition) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, []*Definition{def}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data written by Marshal and returns its only definition.
func Unmarshal(data []byte) (*Definition, error) {
	defs, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(defs) != 1 {
		return nil, fmt.Errorf("expected one definition, found %d", len(defs))
	}
	return defs[0], nil
}

// LoadFile reads a definition file from disk.
func LoadFile(path string) ([]*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open definition file %s: %w", path, err)
	}
	defer f.Close()

	defs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// SaveFile writes definitions to disk, replacing the file.
func SaveFile(path string, defs []*Definition) error {
	var buf bytes.Buffer
	if err := Encode(&buf, defs); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write definition file %s: %w", path, err)
	}
	return nil
}

// Find returns the definition named name from defs, or nil.
func Find(defs []*Definition, name string) *Definition {
	for _, d := range defs {
		if d.Name == name {
			return d
		}
	}
	return nil
}
