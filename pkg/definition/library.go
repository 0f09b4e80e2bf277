package definition

import (
	"fmt"
	"slices"
	"strings"

	"github.com/quasilyte/gdata/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Storage keys
const (
	libraryObject = "definitions"
	indexObject   = "library"
	indexProperty = "index"
)

// Library is a persistent, named collection of definitions.
//
// Definitions are stored as YAML through a gdata manager, one property per
// definition plus an index property listing the names. With a nil manager
// the library degrades to memory only: everything works for the lifetime
// of the process and nothing is written.
type Library struct {
	store  *gdata.Manager
	logger *zap.Logger
	cache  map[string][]byte
	names  []string
}

// NewLibrary opens a library over store (which may be nil) and reads its
// index.
func NewLibrary(store *gdata.Manager, logger *zap.Logger) (*Library, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Library{
		store:  store,
		logger: logger.Named("library"),
		cache:  make(map[string][]byte),
	}
	if err := l.loadIndex(); err != nil {
		return nil, err
	}
	return l, nil
}

// Persistent reports whether the library writes to storage.
func (l *Library) Persistent() bool {
	return l.store != nil
}

// Names lists stored definitions in save order.
func (l *Library) Names() []string {
	return slices.Clone(l.names)
}

// Has reports whether a definition with that name is stored.
func (l *Library) Has(name string) bool {
	return slices.Contains(l.names, name)
}

// Save stores def under its name, replacing an earlier version.
func (l *Library) Save(def *Definition) error {
	if err := validateKey(def.Name); err != nil {
		return err
	}
	if err := def.Validate(); err != nil {
		return err
	}

	data, err := Marshal(def)
	if err != nil {
		return err
	}

	if l.store != nil {
		if err := l.store.SaveObjectProp(libraryObject, def.Name, data); err != nil {
			return fmt.Errorf("failed to save definition %s: %w", def.Name, err)
		}
	}
	l.cache[def.Name] = data

	if !l.Has(def.Name) {
		l.names = append(l.names, def.Name)
		if err := l.saveIndex(); err != nil {
			return err
		}
	}

	l.logger.Debug("definition saved", zap.String("name", def.Name), zap.Int("bytes", len(data)))
	return nil
}

// Load returns a fresh copy of the named definition.
func (l *Library) Load(name string) (*Definition, error) {
	if !l.Has(name) {
		return nil, fmt.Errorf("definition %s not found in library", name)
	}

	data, ok := l.cache[name]
	if !ok {
		if l.store == nil || !l.store.ObjectPropExists(libraryObject, name) {
			return nil, fmt.Errorf("definition %s is indexed but missing from storage", name)
		}
		var err error
		data, err = l.store.LoadObjectProp(libraryObject, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load definition %s: %w", name, err)
		}
		l.cache[name] = data
	}

	def, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", name, err)
	}
	return def, nil
}

// Forget drops a name from the index. The stored bytes stay behind and are
// overwritten if the name is saved again.
func (l *Library) Forget(name string) error {
	i := slices.Index(l.names, name)
	if i < 0 {
		return nil
	}
	l.names = slices.Delete(l.names, i, i+1)
	delete(l.cache, name)
	return l.saveIndex()
}

func (l *Library) loadIndex() error {
	if l.store == nil || !l.store.ObjectPropExists(indexObject, indexProperty) {
		return nil
	}
	data, err := l.store.LoadObjectProp(indexObject, indexProperty)
	if err != nil {
		return fmt.Errorf("failed to load library index: %w", err)
	}
	if err := yaml.Unmarshal(data, &l.names); err != nil {
		return fmt.Errorf("failed to unmarshal library index: %w", err)
	}
	l.logger.Debug("library index loaded", zap.Int("definitions", len(l.names)))
	return nil
}

func (l *Library) saveIndex() error {
	if l.store == nil {
		return nil
	}
	data, err := yaml.Marshal(l.names)
	if err != nil {
		return fmt.Errorf("failed to marshal library index: %w", err)
	}
	if err := l.store.SaveObjectProp(indexObject, indexProperty, data); err != nil {
		return fmt.Errorf("failed to save library index: %w", err)
	}
	return nil
}

// validateKey keeps names usable as storage keys.
func validateKey(name string) error {
	if name == "" {
		return fmt.Errorf("definition without a name cannot be saved")
	}
	if strings.ContainsAny(name, `/\:*?"<>|`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("definition name %q is not a valid storage key", name)
	}
	return nil
}
