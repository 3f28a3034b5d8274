package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"voxshell/internal/window"
)

// Events the settings modal listens for inside the main surface
const (
	EventSettingsOpen  = "settings:open"
	EventSettingsFocus = "settings:focus"
	EventSettingsClose = "settings:close"
)

var (
	errNotAttached   = errors.New("host is not attached to a runtime")
	errNoMainSurface = errors.New("settings surface needs the main window")
)

// Host implements window.Host on top of the single Wails window. The main
// role is the native window; the settings role is a modal rendered by the
// main surface.
type Host struct {
	rt Runtime

	mu   sync.Mutex
	main *mainWindow
}

// NewHost creates a host over rt. rt may be nil until Attach is called
// from OnStartup.
func NewHost(rt Runtime) *Host {
	return &Host{rt: rt}
}

// Attach sets the runtime once Wails has started
func (h *Host) Attach(rt Runtime) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rt = rt
}

// Create implements window.Host
func (h *Host) Create(opts window.Options) (window.Native, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rt == nil {
		return nil, errNotAttached
	}

	switch opts.Role {
	case window.RoleMain:
		h.rt.WindowSetTitle(opts.Title)
		if opts.MinWidth > 0 && opts.MinHeight > 0 {
			h.rt.WindowSetMinSize(opts.MinWidth, opts.MinHeight)
		}
		if opts.Width > 0 && opts.Height > 0 {
			h.rt.WindowSetSize(opts.Width, opts.Height)
		}
		h.main = &mainWindow{rt: h.rt}
		return h.main, nil
	case window.RoleSettings:
		if h.main == nil {
			return nil, errNoMainSurface
		}
		return &settingsModal{rt: h.rt}, nil
	default:
		return nil, fmt.Errorf("unsupported window role %q", opts.Role)
	}
}

// OpenExternal implements window.Host
func (h *Host) OpenExternal(url string) error {
	h.mu.Lock()
	rt := h.rt
	h.mu.Unlock()

	if rt == nil {
		return errNotAttached
	}
	rt.BrowserOpenURL(url)
	return nil
}

type mainWindow struct {
	rt Runtime
}

func (w *mainWindow) Show() { w.rt.WindowShow() }

func (w *mainWindow) Focus() {
	w.rt.WindowUnminimise()
	w.rt.WindowShow()
}

// Hide hides the whole app, as the macOS close button does
func (w *mainWindow) Hide() { w.rt.Hide() }

func (w *mainWindow) Minimize()         { w.rt.WindowMinimise() }
func (w *mainWindow) ToggleMaximize()   { w.rt.WindowToggleMaximise() }
func (w *mainWindow) IsMaximized() bool { return w.rt.WindowIsMaximised() }

// Close hides the window. Wails cannot destroy its window short of
// quitting, which the window manager's quit policy decides.
func (w *mainWindow) Close() { w.rt.WindowHide() }

// LoadURL navigates to target through the origin proxy
func (w *mainWindow) LoadURL(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("parse load target: %w", err)
	}
	return w.navigate(u.RequestURI())
}

func (w *mainWindow) LoadFallback() error {
	return w.navigate(FallbackPath)
}

func (w *mainWindow) navigate(path string) error {
	quoted, err := json.Marshal(path)
	if err != nil {
		return err
	}
	w.rt.WindowExecJS(fmt.Sprintf("window.location.replace(%s)", quoted))
	return nil
}

func (w *mainWindow) Emit(event string, payload any) {
	if payload == nil {
		w.rt.EventsEmit(event)
		return
	}
	w.rt.EventsEmit(event, payload)
}

type settingsModal struct {
	rt Runtime
}

func (s *settingsModal) Show()             { s.rt.EventsEmit(EventSettingsOpen) }
func (s *settingsModal) Focus()            { s.rt.EventsEmit(EventSettingsFocus) }
func (s *settingsModal) Close()            { s.rt.EventsEmit(EventSettingsClose) }
func (s *settingsModal) Hide()             {}
func (s *settingsModal) Minimize()         {}
func (s *settingsModal) ToggleMaximize()   {}
func (s *settingsModal) IsMaximized() bool { return false }

func (s *settingsModal) LoadURL(string) error { return errors.New("settings modal has no page of its own") }
func (s *settingsModal) LoadFallback() error  { return errors.New("settings modal has no page of its own") }

// Emit is a no-op: the modal lives in the main surface, which already
// receives every event sent to the main window.
func (s *settingsModal) Emit(string, any) {}
