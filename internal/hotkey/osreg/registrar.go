//go:build windows || (cgo && (darwin || (linux && !nox11)))

package osreg

import (
	"fmt"

	"voxshell/internal/hotkey"

	xhotkey "golang.design/x/hotkey"
)

var keys = map[string]xhotkey.Key{
	"A": xhotkey.KeyA, "B": xhotkey.KeyB, "C": xhotkey.KeyC, "D": xhotkey.KeyD,
	"E": xhotkey.KeyE, "F": xhotkey.KeyF, "G": xhotkey.KeyG, "H": xhotkey.KeyH,
	"I": xhotkey.KeyI, "J": xhotkey.KeyJ, "K": xhotkey.KeyK, "L": xhotkey.KeyL,
	"M": xhotkey.KeyM, "N": xhotkey.KeyN, "O": xhotkey.KeyO, "P": xhotkey.KeyP,
	"Q": xhotkey.KeyQ, "R": xhotkey.KeyR, "S": xhotkey.KeyS, "T": xhotkey.KeyT,
	"U": xhotkey.KeyU, "V": xhotkey.KeyV, "W": xhotkey.KeyW, "X": xhotkey.KeyX,
	"Y": xhotkey.KeyY, "Z": xhotkey.KeyZ,
	"0": xhotkey.Key0, "1": xhotkey.Key1, "2": xhotkey.Key2, "3": xhotkey.Key3,
	"4": xhotkey.Key4, "5": xhotkey.Key5, "6": xhotkey.Key6, "7": xhotkey.Key7,
	"8": xhotkey.Key8, "9": xhotkey.Key9,
	"F1": xhotkey.KeyF1, "F2": xhotkey.KeyF2, "F3": xhotkey.KeyF3, "F4": xhotkey.KeyF4,
	"F5": xhotkey.KeyF5, "F6": xhotkey.KeyF6, "F7": xhotkey.KeyF7, "F8": xhotkey.KeyF8,
	"F9": xhotkey.KeyF9, "F10": xhotkey.KeyF10, "F11": xhotkey.KeyF11, "F12": xhotkey.KeyF12,
	"Space":  xhotkey.KeySpace,
	"Enter":  xhotkey.KeyReturn,
	"Escape": xhotkey.KeyEscape,
	"Tab":    xhotkey.KeyTab,
	"Delete": xhotkey.KeyDelete,
	"Up":     xhotkey.KeyUp,
	"Down":   xhotkey.KeyDown,
	"Left":   xhotkey.KeyLeft,
	"Right":  xhotkey.KeyRight,
}

// New returns a registrar backed by the platform hotkey API
func New() hotkey.Registrar {
	return hotkey.NewGrabRegistrar(newGrab)
}

func newGrab(acc hotkey.Accelerator) (hotkey.Grab, error) {
	key, ok := keys[acc.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on this platform", acc.Key)
	}
	return &grab{hk: xhotkey.New(modifiers(acc.Modifiers), key)}, nil
}

type grab struct {
	hk      *xhotkey.Hotkey
	keydown <-chan xhotkey.Event
}

func (g *grab) Register() error {
	if err := g.hk.Register(); err != nil {
		return err
	}
	// Unregister replaces the hotkey's channel; the listener keeps this one,
	// which is closed on release
	g.keydown = g.hk.Keydown()
	return nil
}

func (g *grab) Unregister() error {
	return g.hk.Unregister()
}

func (g *grab) Wait(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	case _, ok := <-g.keydown:
		return ok
	}
}
