package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAccelerator is returned for strings that do not parse
var ErrInvalidAccelerator = errors.New("invalid accelerator")

// Modifier is a modifier token. The declaration order is the canonical order.
type Modifier int

const (
	ModCommandOrControl Modifier = iota
	ModControl
	ModAlt
	ModShift
	ModSuper
)

var modifierNames = map[Modifier]string{
	ModCommandOrControl: "CommandOrControl",
	ModControl:          "Control",
	ModAlt:              "Alt",
	ModShift:            "Shift",
	ModSuper:            "Super",
}

var modifierAliases = map[string]Modifier{
	"commandorcontrol": ModCommandOrControl,
	"cmdorctrl":        ModCommandOrControl,
	"control":          ModControl,
	"ctrl":             ModControl,
	"alt":              ModAlt,
	"option":           ModAlt,
	"shift":            ModShift,
	"super":            ModSuper,
	"meta":             ModSuper,
	"command":          ModSuper,
	"cmd":              ModSuper,
}

var keyAliases = map[string]string{
	"space":  "Space",
	"enter":  "Enter",
	"return": "Enter",
	"escape": "Escape",
	"esc":    "Escape",
	"tab":    "Tab",
	"delete": "Delete",
	"up":     "Up",
	"down":   "Down",
	"left":   "Left",
	"right":  "Right",
}

func init() {
	for c := 'A'; c <= 'Z'; c++ {
		keyAliases[strings.ToLower(string(c))] = string(c)
	}
	for c := '0'; c <= '9'; c++ {
		keyAliases[string(c)] = string(c)
	}
	for i := 1; i <= 12; i++ {
		name := fmt.Sprintf("F%d", i)
		keyAliases[strings.ToLower(name)] = name
	}
}

// Accelerator is a parsed global shortcut: one or more modifiers plus one key
type Accelerator struct {
	Modifiers []Modifier // canonical order, no duplicates
	Key       string     // canonical key name, e.g. "M", "F5", "Space"
}

// Parse validates s and returns its canonical form.
func Parse(s string) (Accelerator, error) {
	var acc Accelerator

	s = strings.TrimSpace(s)
	if s == "" {
		return acc, fmt.Errorf("%w: empty", ErrInvalidAccelerator)
	}

	seen := make(map[Modifier]bool)
	for _, raw := range strings.Split(s, "+") {
		tok := strings.ToLower(strings.TrimSpace(raw))
		if tok == "" {
			return acc, fmt.Errorf("%w: empty token in %q", ErrInvalidAccelerator, s)
		}

		if mod, ok := modifierAliases[tok]; ok {
			if seen[mod] {
				return acc, fmt.Errorf("%w: duplicate modifier %q", ErrInvalidAccelerator, raw)
			}
			seen[mod] = true
			continue
		}

		key, ok := keyAliases[tok]
		if !ok {
			return acc, fmt.Errorf("%w: unknown key %q", ErrInvalidAccelerator, raw)
		}
		if acc.Key != "" {
			return acc, fmt.Errorf("%w: more than one key in %q", ErrInvalidAccelerator, s)
		}
		acc.Key = key
	}

	if acc.Key == "" {
		return acc, fmt.Errorf("%w: no key in %q", ErrInvalidAccelerator, s)
	}
	if len(seen) == 0 {
		return acc, fmt.Errorf("%w: %q needs at least one modifier", ErrInvalidAccelerator, s)
	}

	for m := ModCommandOrControl; m <= ModSuper; m++ {
		if seen[m] {
			acc.Modifiers = append(acc.Modifiers, m)
		}
	}
	return acc, nil
}

// String returns the canonical accelerator string
func (a Accelerator) String() string {
	parts := make([]string, 0, len(a.Modifiers)+1)
	for _, m := range a.Modifiers {
		parts = append(parts, modifierNames[m])
	}
	parts = append(parts, a.Key)
	return strings.Join(parts, "+")
}

// Equal reports whether two accelerators describe the same shortcut
func (a Accelerator) Equal(b Accelerator) bool {
	return a.String() == b.String()
}
