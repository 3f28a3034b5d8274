//go:build !windows && !(cgo && (darwin || (linux && !nox11)))

package osreg

import (
	"errors"

	"voxshell/internal/hotkey"
)

var errUnsupported = errors.New("global hotkeys are not available in this build")

// New returns a registrar that refuses every binding
func New() hotkey.Registrar {
	return unsupported{}
}

type unsupported struct{}

func (unsupported) Register(hotkey.Accelerator, func()) error { return errUnsupported }
func (unsupported) Unregister(hotkey.Accelerator) error       { return nil }
