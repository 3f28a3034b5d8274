package settings

import (
	"errors"
	"fmt"
	"math"
)

// Key names a persisted setting
type Key string

const (
	KeyWindowWidth        Key = "windowWidth"
	KeyWindowHeight       Key = "windowHeight"
	KeyDisplayName        Key = "displayName"
	KeyLastRoom           Key = "lastRoom"
	KeyMicMuted           Key = "micMuted"
	KeyVolume             Key = "volume"
	KeyNoiseGateEnabled   Key = "noiseGateEnabled"
	KeyNoiseGateThreshold Key = "noiseGateThreshold"
	KeyHotkey             Key = "hotkey"
	KeySelectedMicrophone Key = "selectedMicrophone"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
)

type field struct {
	kind     kind
	def      any
	min, max int
}

// Defaults used when the store is created. KeyHotkey is filled in from
// the app configuration by NewStore.
var schema = map[Key]field{
	KeyWindowWidth:        {kind: kindInt, def: 1200, min: 1, max: math.MaxInt32},
	KeyWindowHeight:       {kind: kindInt, def: 800, min: 1, max: math.MaxInt32},
	KeyDisplayName:        {kind: kindString, def: ""},
	KeyLastRoom:           {kind: kindString, def: ""},
	KeyMicMuted:           {kind: kindBool, def: false},
	KeyVolume:             {kind: kindInt, def: 100, min: 0, max: 100},
	KeyNoiseGateEnabled:   {kind: kindBool, def: false},
	KeyNoiseGateThreshold: {kind: kindInt, def: -50, min: -100, max: 0},
	KeyHotkey:             {kind: kindString, def: ""},
	KeySelectedMicrophone: {kind: kindString, def: ""},
}

// Known reports whether key is part of the schema
func Known(key Key) bool {
	_, ok := schema[key]
	return ok
}

// coerce converts a decoded value into the key's type. JSON numbers arrive
// as float64 and are accepted when they are whole.
func coerce(key Key, value any) (any, error) {
	f, ok := schema[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	switch f.kind {
	case kindString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrInvalidValue, key, value)
		}
		return s, nil

	case kindBool:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a boolean, got %T", ErrInvalidValue, key, value)
		}
		return b, nil

	case kindInt:
		var n int
		switch v := value.(type) {
		case int:
			n = v
		case int64:
			n = int(v)
		case float64:
			if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: %s expects an integer, got %v", ErrInvalidValue, key, v)
			}
			n = int(v)
		default:
			return nil, fmt.Errorf("%w: %s expects an integer, got %T", ErrInvalidValue, key, value)
		}
		if n < f.min || n > f.max {
			return nil, fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidValue, key, f.min, f.max, n)
		}
		return n, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}
