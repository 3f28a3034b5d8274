package window

import (
	"errors"
	"sync"
	"testing"

	"voxshell/internal/settings"
)

type fakeNative struct {
	mu        sync.Mutex
	opts      Options
	shown     int
	focused   int
	hidden    int
	minimized int
	maximized bool
	closed    bool
	loaded    []string
	fallbacks int
	emitted   []string
}

func (f *fakeNative) Show()           { f.mu.Lock(); f.shown++; f.mu.Unlock() }
func (f *fakeNative) Focus()          { f.mu.Lock(); f.focused++; f.mu.Unlock() }
func (f *fakeNative) Hide()           { f.mu.Lock(); f.hidden++; f.mu.Unlock() }
func (f *fakeNative) Minimize()       { f.mu.Lock(); f.minimized++; f.mu.Unlock() }
func (f *fakeNative) ToggleMaximize() { f.mu.Lock(); f.maximized = !f.maximized; f.mu.Unlock() }
func (f *fakeNative) IsMaximized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maximized
}
func (f *fakeNative) Close() { f.mu.Lock(); f.closed = true; f.mu.Unlock() }
func (f *fakeNative) LoadURL(url string) error {
	f.mu.Lock()
	f.loaded = append(f.loaded, url)
	f.mu.Unlock()
	return nil
}
func (f *fakeNative) LoadFallback() error { f.mu.Lock(); f.fallbacks++; f.mu.Unlock(); return nil }
func (f *fakeNative) Emit(event string, payload any) {
	f.mu.Lock()
	f.emitted = append(f.emitted, event)
	f.mu.Unlock()
}

type fakeHost struct {
	mu       sync.Mutex
	created  []*fakeNative
	external []string
	fail     bool
}

func (h *fakeHost) Create(opts Options) (Native, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail {
		return nil, errors.New("no display")
	}
	n := &fakeNative{opts: opts}
	h.created = append(h.created, n)
	return n, nil
}

func (h *fakeHost) OpenExternal(url string) error {
	h.mu.Lock()
	h.external = append(h.external, url)
	h.mu.Unlock()
	return nil
}

func newTestManager(t *testing.T) (*Manager, *fakeHost, *settings.Store) {
	t.Helper()
	store, err := settings.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	host := &fakeHost{}
	m, err := NewManager(host, store, "https://app.example.com", "Vox")
	if err != nil {
		t.Fatal(err)
	}
	return m, host, store
}

func TestCreateMainUsesPersistedBounds(t *testing.T) {
	m, host, store := newTestManager(t)
	if err := store.SetMany(map[settings.Key]any{settings.KeyWindowWidth: 1000, settings.KeyWindowHeight: 700}); err != nil {
		t.Fatal(err)
	}

	w, err := m.CreateMain()
	if err != nil {
		t.Fatal(err)
	}
	if w.Role != RoleMain || w.Handle == "" {
		t.Fatalf("unexpected window %+v", w)
	}
	opts := host.created[0].opts
	if opts.Width != 1000 || opts.Height != 700 {
		t.Errorf("created with %dx%d", opts.Width, opts.Height)
	}

	again, _ := m.CreateMain()
	if again != w || len(host.created) != 1 {
		t.Error("second CreateMain should return the existing window")
	}
}

func TestWindowShownOnlyWhenReady(t *testing.T) {
	m, host, _ := newTestManager(t)
	w, _ := m.CreateMain()
	native := host.created[0]

	if native.shown != 0 {
		t.Fatal("window shown before ready")
	}
	m.HandleReady(w.Handle)
	m.HandleReady(w.Handle)
	if native.shown != 1 {
		t.Errorf("shown %d times, want 1", native.shown)
	}
}

func TestSettingsWindowIsSingleton(t *testing.T) {
	m, host, _ := newTestManager(t)
	if _, err := m.CreateMain(); err != nil {
		t.Fatal(err)
	}

	first, created, err := m.OpenSettings()
	if err != nil || !created {
		t.Fatalf("first open: created=%v err=%v", created, err)
	}
	second, created, err := m.OpenSettings()
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("second open created a new window")
	}
	if second.Handle != first.Handle {
		t.Errorf("handles differ: %s vs %s", first.Handle, second.Handle)
	}
	if len(host.created) != 2 {
		t.Errorf("host created %d windows, want 2 (main + settings)", len(host.created))
	}
	if host.created[1].focused != 1 {
		t.Errorf("settings focused %d times, want 1", host.created[1].focused)
	}
	if !host.created[1].opts.Modal {
		t.Error("settings should be modal over main")
	}

	m.CloseSettings()
	if m.Get(RoleSettings) != nil {
		t.Fatal("settings still tracked after close")
	}
	third, created, _ := m.OpenSettings()
	if !created || third.Handle == first.Handle {
		t.Error("reopening after close should create a fresh window")
	}
}

func TestBoundsPersistedOnlyWhenNotMaximized(t *testing.T) {
	m, host, store := newTestManager(t)
	w, _ := m.CreateMain()

	m.HandleBoundsChanged(w.Handle, 1300, 850)
	if store.GetInt(settings.KeyWindowWidth) != 1300 || store.GetInt(settings.KeyWindowHeight) != 850 {
		t.Fatalf("bounds not persisted")
	}

	host.created[0].maximized = true
	m.HandleBoundsChanged(w.Handle, 2560, 1440)
	if store.GetInt(settings.KeyWindowWidth) != 1300 {
		t.Errorf("maximized bounds persisted: %d", store.GetInt(settings.KeyWindowWidth))
	}

	host.created[0].maximized = false
	m.HandleBoundsChanged(w.Handle, 0, 900)
	if store.GetInt(settings.KeyWindowHeight) != 850 {
		t.Error("non-positive bounds persisted")
	}
}

func TestMainCloseRunsHandlersAndQuitPolicy(t *testing.T) {
	tests := []struct {
		name     string
		goos     string
		wantQuit bool
	}{
		{"quits on windows", "windows", true},
		{"quits on linux", "linux", true},
		{"stays alive on darwin", "darwin", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestManager(t)
			quit := false
			m.SetLifecycle(LifecycleFor(tt.goos), func() { quit = true })
			teardown := 0
			m.OnMainClosed(func() { teardown++ })

			w, _ := m.CreateMain()
			m.HandleClosed(w.Handle)
			m.HandleClosed(w.Handle)

			if teardown != 1 {
				t.Errorf("teardown ran %d times, want 1", teardown)
			}
			if quit != tt.wantQuit {
				t.Errorf("quit = %v, want %v", quit, tt.wantQuit)
			}
			if m.Get(RoleMain) != nil {
				t.Error("main window still tracked")
			}
		})
	}
}

func TestLifecycleFor(t *testing.T) {
	tests := []struct {
		goos string
		want Lifecycle
	}{
		{"darwin", Lifecycle{HideOnClose: true}},
		{"windows", Lifecycle{QuitOnLastClose: true}},
		{"linux", Lifecycle{QuitOnLastClose: true}},
		{"freebsd", Lifecycle{QuitOnLastClose: true}},
	}
	for _, tt := range tests {
		if got := LifecycleFor(tt.goos); got != tt.want {
			t.Errorf("LifecycleFor(%s) = %+v, want %+v", tt.goos, got, tt.want)
		}
	}
}

func TestCloseMainFollowsLifecycle(t *testing.T) {
	tests := []struct {
		name         string
		goos         string
		wantHidden   int
		wantClosed   bool
		wantTeardown int
		wantQuit     bool
	}{
		{"close button hides on darwin", "darwin", 1, false, 0, false},
		{"close button quits on windows", "windows", 0, true, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, host, _ := newTestManager(t)
			quit := false
			m.SetLifecycle(LifecycleFor(tt.goos), func() { quit = true })
			teardown := 0
			m.OnMainClosed(func() { teardown++ })

			if _, err := m.CreateMain(); err != nil {
				t.Fatal(err)
			}
			m.CloseMain()

			native := host.created[0]
			if native.hidden != tt.wantHidden || native.closed != tt.wantClosed {
				t.Errorf("hidden = %d closed = %v", native.hidden, native.closed)
			}
			if teardown != tt.wantTeardown || quit != tt.wantQuit {
				t.Errorf("teardown = %d quit = %v", teardown, quit)
			}
			if tracked := m.Get(RoleMain) != nil; tracked != !tt.wantClosed {
				t.Errorf("main tracked = %v", tracked)
			}
		})
	}
}

func TestCloseHandlerPanicDoesNotEscape(t *testing.T) {
	m, _, _ := newTestManager(t)
	ran := false
	m.OnMainClosed(func() { panic("teardown failed") })
	m.OnMainClosed(func() { ran = true })

	w, _ := m.CreateMain()
	m.HandleClosed(w.Handle)
	if !ran {
		t.Error("later handlers should still run")
	}
}

func TestWindowOpsIgnoredWithoutMain(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.Minimize()
	m.ToggleMaximize()
	m.CloseMain()

	if m.SendToMain("hotkey:triggered", nil) {
		t.Error("SendToMain should report a drop")
	}
	if err := m.LoadMain("https://app.example.com"); !errors.Is(err, ErrNoMainWindow) {
		t.Errorf("LoadMain error = %v", err)
	}
	if err := m.ShowMainFallback(); !errors.Is(err, ErrNoMainWindow) {
		t.Errorf("ShowMainFallback error = %v", err)
	}
}

func TestSendToMainTargetsMainOnly(t *testing.T) {
	m, host, _ := newTestManager(t)
	if _, err := m.CreateMain(); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.OpenSettings(); err != nil {
		t.Fatal(err)
	}

	if !m.SendToMain("hotkey:triggered", nil) {
		t.Fatal("delivery failed")
	}
	if len(host.created[0].emitted) != 1 || len(host.created[1].emitted) != 0 {
		t.Errorf("main=%v settings=%v", host.created[0].emitted, host.created[1].emitted)
	}

	m.Broadcast("microphone:changed", "USB")
	if len(host.created[0].emitted) != 2 || len(host.created[1].emitted) != 1 {
		t.Errorf("broadcast did not reach every window")
	}
}

func TestContentModeSwitchesInPlace(t *testing.T) {
	m, host, _ := newTestManager(t)
	if _, err := m.CreateMain(); err != nil {
		t.Fatal(err)
	}

	if err := m.LoadMain("https://app.example.com"); err != nil {
		t.Fatal(err)
	}
	if m.MainContent() != ContentRemote {
		t.Errorf("content = %s", m.MainContent())
	}
	if err := m.ShowMainFallback(); err != nil {
		t.Fatal(err)
	}
	if m.MainContent() != ContentFallback {
		t.Errorf("content = %s", m.MainContent())
	}
	if len(host.created) != 1 {
		t.Error("fallback must not create a window")
	}
}

func TestAllowNavigation(t *testing.T) {
	m, _, _ := newTestManager(t)

	tests := []struct {
		target string
		want   bool
	}{
		{"https://app.example.com/rooms/42", true},
		{"https://APP.example.com:443/", true},
		{"http://app.example.com/", false},
		{"https://app.example.com:8443/", false},
		{"https://evil.example.net/", false},
		{"javascript:alert(1)", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		if got := m.AllowNavigation(tt.target); got != tt.want {
			t.Errorf("AllowNavigation(%q) = %v, want %v", tt.target, got, tt.want)
		}
	}
}

func TestHandleWindowOpenGoesExternal(t *testing.T) {
	m, host, _ := newTestManager(t)

	m.HandleWindowOpen("https://docs.example.org/help")
	m.HandleWindowOpen("file:///etc/passwd")
	m.HandleWindowOpen("mailto:someone@example.org")

	if len(host.external) != 1 || host.external[0] != "https://docs.example.org/help" {
		t.Errorf("external = %v", host.external)
	}
	if len(host.created) != 0 {
		t.Error("window open request created an in-app window")
	}
}

func TestAllowPermission(t *testing.T) {
	for _, p := range []string{"geolocation", "notifications", "clipboard-read", "midi", ""} {
		if AllowPermission(p) {
			t.Errorf("permission %q should be denied", p)
		}
	}
	if !AllowPermission(PermissionMedia) {
		t.Error("media should be allowed")
	}
}

func TestCreateMainHostFailure(t *testing.T) {
	m, host, _ := newTestManager(t)
	host.fail = true
	if _, err := m.CreateMain(); err == nil {
		t.Fatal("expected error")
	}
	if m.Get(RoleMain) != nil {
		t.Error("failed window tracked")
	}
}
