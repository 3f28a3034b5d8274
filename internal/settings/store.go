package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"voxshell/internal/logging"

	"github.com/moby/sys/atomicwriter"
)

// FileName is the settings document inside the config dir
const FileName = "settings.json"

// Store is the durable key/value settings store. Every Set is written to
// disk before it returns; writes are serialized so they land in call order.
type Store struct {
	path     string
	defaults map[Key]any
	values   map[Key]any
	mu       sync.RWMutex
}

// NewStore opens (or creates) dir/settings.json. defaults overrides the
// built-in defaults for individual keys, e.g. the configured hotkey.
func NewStore(dir string, defaults map[Key]any) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	s := &Store{
		path:     filepath.Join(dir, FileName),
		defaults: make(map[Key]any, len(schema)),
		values:   make(map[Key]any),
	}

	for k, f := range schema {
		s.defaults[k] = f.def
	}
	for k, v := range defaults {
		cv, err := coerce(k, v)
		if err != nil {
			return nil, fmt.Errorf("default for %s: %w", k, err)
		}
		s.defaults[k] = cv
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		// A corrupt file must not keep the app from starting
		logging.Warn("Settings file unreadable, using defaults", "path", logging.MaskPath(s.path), "error", err)
		return nil
	}

	for name, v := range raw {
		key := Key(name)
		if !Known(key) {
			continue
		}
		cv, err := coerce(key, v)
		if err != nil {
			logging.Warn("Dropping invalid stored setting", "key", name, "error", err)
			continue
		}
		s.values[key] = cv
	}
	return nil
}

// Path returns the settings file location
func (s *Store) Path() string {
	return s.path
}

// Get returns the stored value for key or its default
func (s *Store) Get(key Key) (any, error) {
	if !Known(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return s.defaults[key], nil
}

// Default returns the default value for key
func (s *Store) Default(key Key) any {
	return s.defaults[key]
}

// GetString returns a string setting, or "" for non-string keys
func (s *Store) GetString(key Key) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt returns an int setting, or 0 for non-int keys
func (s *Store) GetInt(key Key) int {
	v, _ := s.Get(key)
	n, _ := v.(int)
	return n
}

// GetBool returns a bool setting, or false for non-bool keys
func (s *Store) GetBool(key Key) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// GetAll returns every known key with its current value
func (s *Store) GetAll() map[Key]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make(map[Key]any, len(s.defaults))
	for k, def := range s.defaults {
		if v, ok := s.values[k]; ok {
			all[k] = v
		} else {
			all[k] = def
		}
	}
	return all
}

// Set validates value and persists it. Nothing changes if the write fails.
func (s *Store) Set(key Key, value any) error {
	cv, err := coerce(key, value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	next[key] = cv
	if err := s.persist(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// SetMany applies several values as one write. Used for window bounds.
func (s *Store) SetMany(values map[Key]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.values)
	for k, v := range values {
		cv, err := coerce(k, v)
		if err != nil {
			return err
		}
		next[k] = cv
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// ClearAll resets every key to its default. Developer use only.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(map[Key]any{}); err != nil {
		return err
	}
	s.values = make(map[Key]any)
	logging.Info("Settings cleared")
	return nil
}

// persist must be called with mu held. Only explicitly written keys are
// stored so that changed defaults still apply to untouched keys.
func (s *Store) persist(values map[Key]any) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := atomicwriter.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
