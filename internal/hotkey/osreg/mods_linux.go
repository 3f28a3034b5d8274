//go:build cgo && !nox11

package osreg

import (
	"voxshell/internal/hotkey"

	xhotkey "golang.design/x/hotkey"
)

// On X11 Mod1 is Alt and Mod4 is Super
func modifiers(mods []hotkey.Modifier) []xhotkey.Modifier {
	var out []xhotkey.Modifier
	seen := make(map[xhotkey.Modifier]bool)
	for _, m := range mods {
		var om xhotkey.Modifier
		switch m {
		case hotkey.ModCommandOrControl, hotkey.ModControl:
			om = xhotkey.ModCtrl
		case hotkey.ModAlt:
			om = xhotkey.Mod1
		case hotkey.ModShift:
			om = xhotkey.ModShift
		case hotkey.ModSuper:
			om = xhotkey.Mod4
		}
		if !seen[om] {
			seen[om] = true
			out = append(out, om)
		}
	}
	return out
}
