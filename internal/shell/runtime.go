package shell

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Runtime is the part of the Wails runtime the shell drives
type Runtime interface {
	WindowShow()
	WindowHide()
	WindowUnminimise()
	WindowMinimise()
	WindowToggleMaximise()
	WindowIsMaximised() bool
	WindowGetSize() (int, int)
	WindowSetSize(width, height int)
	WindowSetMinSize(width, height int)
	WindowSetTitle(title string)
	WindowExecJS(js string)
	EventsEmit(event string, data ...any)
	BrowserOpenURL(url string)
	Hide()
	Quit()
}

type wailsRuntime struct {
	ctx context.Context
}

// NewRuntime binds the Wails runtime to the context passed to OnStartup
func NewRuntime(ctx context.Context) Runtime {
	return &wailsRuntime{ctx: ctx}
}

func (w *wailsRuntime) WindowShow()                 { runtime.WindowShow(w.ctx) }
func (w *wailsRuntime) WindowHide()                 { runtime.WindowHide(w.ctx) }
func (w *wailsRuntime) WindowUnminimise()           { runtime.WindowUnminimise(w.ctx) }
func (w *wailsRuntime) WindowMinimise()             { runtime.WindowMinimise(w.ctx) }
func (w *wailsRuntime) WindowToggleMaximise()       { runtime.WindowToggleMaximise(w.ctx) }
func (w *wailsRuntime) WindowIsMaximised() bool     { return runtime.WindowIsMaximised(w.ctx) }
func (w *wailsRuntime) WindowGetSize() (int, int)   { return runtime.WindowGetSize(w.ctx) }
func (w *wailsRuntime) WindowSetSize(wd, ht int)    { runtime.WindowSetSize(w.ctx, wd, ht) }
func (w *wailsRuntime) WindowSetMinSize(wd, ht int) { runtime.WindowSetMinSize(w.ctx, wd, ht) }
func (w *wailsRuntime) WindowSetTitle(title string) { runtime.WindowSetTitle(w.ctx, title) }
func (w *wailsRuntime) WindowExecJS(js string)      { runtime.WindowExecJS(w.ctx, js) }
func (w *wailsRuntime) BrowserOpenURL(url string)   { runtime.BrowserOpenURL(w.ctx, url) }
func (w *wailsRuntime) Hide()                       { runtime.Hide(w.ctx) }
func (w *wailsRuntime) Quit()                       { runtime.Quit(w.ctx) }

func (w *wailsRuntime) EventsEmit(event string, data ...any) {
	runtime.EventsEmit(w.ctx, event, data...)
}
