package window

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"voxshell/internal/logging"
	"voxshell/internal/settings"

	"github.com/google/uuid"
)

// ErrNoMainWindow is returned when an operation needs a main window that
// was never created or has been closed
var ErrNoMainWindow = errors.New("main window not available")

const (
	minWidth  = 400
	minHeight = 300
)

// PermissionMedia is the only permission the surface may be granted
const PermissionMedia = "media"

// BoundsStore persists main window size
type BoundsStore interface {
	GetInt(key settings.Key) int
	SetMany(values map[settings.Key]any) error
}

// Window is an owned platform window
type Window struct {
	Handle  string
	Role    Role
	native  Native
	ready   bool
	content ContentMode
	width   int
	height  int
}

// Manager owns every window of the application
type Manager struct {
	host   Host
	store  BoundsStore
	origin *url.URL
	title  string

	lifecycle Lifecycle
	quit      func()

	mu            sync.Mutex
	windows       map[Role]*Window
	closeHandlers []func()
}

// NewManager creates a window manager. origin is the only URL origin the
// main window may navigate within.
func NewManager(host Host, store BoundsStore, originURL, title string) (*Manager, error) {
	origin, err := url.Parse(originURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	return &Manager{
		host:      host,
		store:     store,
		origin:    origin,
		title:     title,
		lifecycle: Lifecycle{QuitOnLastClose: true},
		windows:   make(map[Role]*Window),
	}, nil
}

// SetLifecycle sets the close convention and the function that ends the
// process when the convention says so
func (m *Manager) SetLifecycle(lc Lifecycle, quit func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lifecycle = lc
	m.quit = quit
}

// OnMainClosed registers fn to run when the main window closes
func (m *Manager) OnMainClosed(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeHandlers = append(m.closeHandlers, fn)
}

// CreateMain creates the main window sized from persisted bounds. It is
// shown once HandleReady is called for it.
func (m *Manager) CreateMain() (*Window, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.windows[RoleMain]; ok {
		return w, nil
	}

	width, height := m.store.GetInt(settings.KeyWindowWidth), m.store.GetInt(settings.KeyWindowHeight)
	native, err := m.host.Create(Options{
		Role:      RoleMain,
		Title:     m.title,
		Width:     width,
		Height:    height,
		MinWidth:  minWidth,
		MinHeight: minHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("create main window: %w", err)
	}

	w := &Window{Handle: uuid.NewString(), Role: RoleMain, native: native, width: width, height: height}
	m.windows[RoleMain] = w
	logging.Info("Main window created", "handle", w.Handle, "width", width, "height", height)
	return w, nil
}

// OpenSettings opens the settings window, or focuses it if already open.
// created reports whether a new window was made.
func (m *Manager) OpenSettings() (w *Window, created bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.windows[RoleSettings]; ok {
		existing.native.Focus()
		return existing, false, nil
	}

	native, err := m.host.Create(Options{
		Role:   RoleSettings,
		Title:  m.title + " Settings",
		Width:  520,
		Height: 640,
		Modal:  m.windows[RoleMain] != nil,
	})
	if err != nil {
		return nil, false, fmt.Errorf("create settings window: %w", err)
	}

	w = &Window{Handle: uuid.NewString(), Role: RoleSettings, native: native}
	m.windows[RoleSettings] = w
	logging.Info("Settings window created", "handle", w.Handle)
	return w, true, nil
}

// CloseSettings closes the settings window if it is open
func (m *Manager) CloseSettings() {
	m.mu.Lock()
	w, ok := m.windows[RoleSettings]
	m.mu.Unlock()

	if ok {
		w.native.Close()
		m.HandleClosed(w.Handle)
	}
}

// Get returns the live window for role, or nil
func (m *Manager) Get(role Role) *Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.windows[role]
}

func (m *Manager) byHandle(handle string) *Window {
	for _, w := range m.windows {
		if w.Handle == handle {
			return w
		}
	}
	return nil
}

// HandleReady shows a window once its content has rendered
func (m *Manager) HandleReady(handle string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.byHandle(handle)
	if w == nil || w.ready {
		return
	}
	w.ready = true
	w.native.Show()
	logging.Debug("Window shown", "role", w.Role)
}

// HandleBoundsChanged persists the main window size. Sizes reported while
// maximized are ignored.
func (m *Manager) HandleBoundsChanged(handle string, width, height int) {
	m.mu.Lock()
	w := m.byHandle(handle)
	if w == nil || w.Role != RoleMain || width <= 0 || height <= 0 {
		m.mu.Unlock()
		return
	}
	if w.native.IsMaximized() || (w.width == width && w.height == height) {
		m.mu.Unlock()
		return
	}
	w.width, w.height = width, height
	m.mu.Unlock()

	err := m.store.SetMany(map[settings.Key]any{
		settings.KeyWindowWidth:  width,
		settings.KeyWindowHeight: height,
	})
	if err != nil {
		logging.Warn("Failed to persist window bounds", "error", err)
	}
}

// HandleClosed forgets a window the user or platform has closed. Closing
// the main window runs the OnMainClosed handlers.
func (m *Manager) HandleClosed(handle string) {
	m.mu.Lock()
	w := m.byHandle(handle)
	if w == nil {
		m.mu.Unlock()
		return
	}
	delete(m.windows, w.Role)

	var handlers []func()
	if w.Role == RoleMain {
		handlers = append(handlers, m.closeHandlers...)
	}
	quit := m.quit
	shouldQuit := len(m.windows) == 0 && m.lifecycle.QuitOnLastClose && quit != nil
	m.mu.Unlock()

	logging.Info("Window closed", "role", w.Role, "handle", w.Handle)

	for _, fn := range handlers {
		func() {
			defer logging.Recover("main window close handler")
			fn()
		}()
	}

	if shouldQuit {
		quit()
	}
}

// Minimize minimizes the main window. Missing windows are ignored.
func (m *Manager) Minimize() {
	if w := m.Get(RoleMain); w != nil {
		w.native.Minimize()
	}
}

// ToggleMaximize maximizes or restores the main window
func (m *Manager) ToggleMaximize() {
	if w := m.Get(RoleMain); w != nil {
		w.native.ToggleMaximize()
	}
}

// CloseMain closes the main window the way the platform's close button
// does: hidden and kept when the lifecycle hides on close, closed otherwise
func (m *Manager) CloseMain() {
	m.mu.Lock()
	w := m.windows[RoleMain]
	hide := m.lifecycle.HideOnClose
	m.mu.Unlock()
	if w == nil {
		return
	}
	if hide {
		w.native.Hide()
		return
	}
	w.native.Close()
	m.HandleClosed(w.Handle)
}

// LoadMain starts loading target in the main window
func (m *Manager) LoadMain(target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[RoleMain]
	if w == nil {
		return ErrNoMainWindow
	}
	if err := w.native.LoadURL(target); err != nil {
		return err
	}
	w.content = ContentRemote
	return nil
}

// ShowMainFallback switches the main window to the local error page
func (m *Manager) ShowMainFallback() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[RoleMain]
	if w == nil {
		return ErrNoMainWindow
	}
	if err := w.native.LoadFallback(); err != nil {
		return err
	}
	w.content = ContentFallback
	return nil
}

// MainContent returns what the main window is displaying
func (m *Manager) MainContent() ContentMode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w := m.windows[RoleMain]; w != nil {
		return w.content
	}
	return ContentNone
}

// SendToMain delivers a notification to the main window only. It is
// dropped when there is no main window.
func (m *Manager) SendToMain(event string, payload any) bool {
	w := m.Get(RoleMain)
	if w == nil {
		logging.Debug("Dropping notification, no main window", "event", event)
		return false
	}
	w.native.Emit(event, payload)
	return true
}

// Broadcast delivers a notification to every open window
func (m *Manager) Broadcast(event string, payload any) {
	m.mu.Lock()
	targets := make([]*Window, 0, len(m.windows))
	for _, w := range m.windows {
		targets = append(targets, w)
	}
	m.mu.Unlock()

	for _, w := range targets {
		w.native.Emit(event, payload)
	}
}

// AllowNavigation reports whether a window may navigate to target. Only
// the configured origin is allowed.
func (m *Manager) AllowNavigation(target string) bool {
	u, err := url.Parse(target)
	if err == nil && sameOrigin(u, m.origin) {
		return true
	}
	logging.Warn("Blocked navigation away from origin", "target", target)
	return false
}

// HandleWindowOpen routes a new-window request to the system browser.
// In-app windows are never created for it.
func (m *Manager) HandleWindowOpen(target string) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		logging.Warn("Ignoring window open request", "target", target)
		return
	}
	if err := m.host.OpenExternal(u.String()); err != nil {
		logging.Warn("Failed to open external URL", "target", target, "error", err)
	}
}

// AllowPermission grants media access and denies everything else
func AllowPermission(permission string) bool {
	return permission == PermissionMedia
}

func sameOrigin(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
