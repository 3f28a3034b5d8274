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
		case hotkey.ModCommandOrControl, hotkey.ModControl:
			om = xhotkey.ModCtrl
		case hotkey.ModAlt:
			om = xhotkey.ModAlt
		case hotkey.ModShift:
			om = xhotkey.ModShift
		case hotkey.ModSuper:
			om = xhotkey.ModWin
		}
		if !seen[om] {
			seen[om] = true
			out = append(out, om)
		}
	}
	return out
}
