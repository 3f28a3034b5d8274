//go:build cgo

package osreg

import (
	"voxshell/internal/hotkey"

	xhotkey "golang.design/x/hotkey"
)

func modifiers(mods []hotkey.Modifier) []xhotkey.Modifier {
	var out []xhotkey.Modifier
	seen := make(map[xhotkey.Modifier]bool)
	for _, m := range mods {
		var om xhotkey.Modifier
		switch m {
		case hotkey.ModCommandOrControl, hotkey.ModSuper:
			om = xhotkey.ModCmd
		case hotkey.ModControl:
			om = xhotkey.ModCtrl
		case hotkey.ModAlt:
			om = xhotkey.ModOption
		case hotkey.ModShift:
			om = xhotkey.ModShift
		}
		if !seen[om] {
			seen[om] = true
			out = append(out, om)
		}
	}
	return out
}
