package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sync/atomic"
	"time"

	"voxshell/internal/bridge"
	"voxshell/internal/config"
	"voxshell/internal/connection"
	"voxshell/internal/hotkey"
	"voxshell/internal/hotkey/osreg"
	"voxshell/internal/logging"
	"voxshell/internal/settings"
	"voxshell/internal/shell"
	"voxshell/internal/update"
	"voxshell/internal/window"

	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

const boundsPollInterval = time.Second

// App owns every subsystem for the lifetime of the process
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.Config

	settings   *settings.Store
	host       *shell.Host
	windows    *window.Manager
	supervisor *connection.Supervisor
	proxy      *shell.Proxy
	hotkeys    *hotkey.Manager
	updates    *update.Coordinator
	notifier   *bridge.Notifier
	bridge     *bridge.Bridge
	lifecycle  window.Lifecycle

	// closing is set while OnBeforeClose runs so the quit policy does not
	// re-enter Wails' close path
	closing atomic.Bool
}

// NewApp builds the subsystems. Nothing touches the OS until startup.
func NewApp(cfg config.Config, configDir string) (*App, error) {
	store, err := settings.NewStore(configDir, map[settings.Key]any{
		settings.KeyHotkey: cfg.DefaultHotkey,
	})
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	logging.Info("Settings loaded", "path", logging.MaskPath(store.Path()))

	a := &App{
		cfg:       cfg,
		settings:  store,
		host:      shell.NewHost(nil),
		lifecycle: window.LifecycleFor(goruntime.GOOS),
	}

	a.windows, err = window.NewManager(a.host, store, cfg.OriginURL, cfg.AppName)
	if err != nil {
		return nil, err
	}
	a.supervisor = connection.NewSupervisor(a.windows, cfg.OriginURL)
	a.supervisor.OnChange(func(st connection.State) {
		logging.Debug("Connection state", "status", st.Status, "attempt", st.Attempt, "content", a.windows.MainContent().String())
	})

	a.proxy, err = shell.NewProxy(cfg.OriginURL, a.supervisor, a.windows)
	if err != nil {
		return nil, err
	}

	a.notifier = bridge.NewNotifier(a.windows)
	a.hotkeys = hotkey.NewManager(osreg.New(), store, a.notifier.HotkeyTriggered)

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	checker := update.NewFeedChecker(cfg.UpdateFeedURL, cfg.Version,
		update.NewHTTPDownloader(filepath.Join(cacheDir, cfg.AppName, "updates")))
	a.updates = update.NewCoordinator(checker, update.Options{
		Enabled:  cfg.AutoUpdateEnabled(),
		DevMode:  cfg.DevMode,
		Interval: cfg.UpdateInterval,
	})
	a.updates.Init()

	a.bridge = bridge.New(bridge.Deps{
		Version:    cfg.Version,
		Settings:   store,
		Windows:    settingsWindows{a.windows},
		Hotkeys:    a.hotkeys,
		Updates:    a.updates,
		Connection: a.supervisor,
	})
	return a, nil
}

// settingsWindows marks the settings modal ready as soon as it exists; it
// renders inside the main surface, which is already loaded.
type settingsWindows struct {
	*window.Manager
}

func (s settingsWindows) OpenSettings() (*window.Window, bool, error) {
	w, created, err := s.Manager.OpenSettings()
	if err == nil && created {
		s.HandleReady(w.Handle)
	}
	return w, created, err
}

// initialSize returns the persisted main window size
func (a *App) initialSize() (int, int) {
	return a.settings.GetInt(settings.KeyWindowWidth), a.settings.GetInt(settings.KeyWindowHeight)
}

// startup is called when the app starts
func (a *App) startup(ctx context.Context) {
	defer logging.Recover("startup")

	a.ctx, a.cancel = context.WithCancel(ctx)
	rt := shell.NewRuntime(ctx)
	a.host.Attach(rt)

	a.windows.SetLifecycle(a.lifecycle, a.quit)
	a.windows.OnMainClosed(a.hotkeys.Unregister)

	a.openMain()

	if err := a.hotkeys.Start(); err != nil {
		logging.Warn("Global hotkey unavailable", "error", err)
	}

	a.updates.Start(a.ctx)

	go shell.WatchBounds(a.ctx, rt, boundsPollInterval, func(width, height int) {
		if w := a.windows.Get(window.RoleMain); w != nil {
			a.windows.HandleBoundsChanged(w.Handle, width, height)
		}
	})

	logging.Info("Application started", "version", a.cfg.Version, "origin", a.cfg.OriginURL, "dev", a.cfg.DevMode, "hotkey", a.hotkeys.Binding())
}

func (a *App) openMain() {
	if _, err := a.windows.CreateMain(); err != nil {
		logging.Error("Failed to create main window", "error", err)
		return
	}
	if err := a.supervisor.Start(); err != nil {
		logging.Error("Failed to load origin", "error", err)
	}
}

// domReady is called once the surface has rendered
func (a *App) domReady(ctx context.Context) {
	if w := a.windows.Get(window.RoleMain); w != nil {
		a.windows.HandleReady(w.Handle)
	}
}

// beforeClose runs when the main window is going away for good: the close
// button on Windows and Linux, an explicit quit on macOS, where the close
// button only hides the app. Teardown always runs and the close is never
// prevented.
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	defer logging.Recover("before close")

	if w := a.windows.Get(window.RoleMain); w != nil {
		a.closing.Store(true)
		defer a.closing.Store(false)
		a.windows.HandleClosed(w.Handle)
	}
	return false
}

func (a *App) quit() {
	if a.closing.Load() {
		return
	}
	runtime.Quit(a.ctx)
}

// onSecondInstance brings the existing window back instead of starting a
// second copy of the app
func (a *App) onSecondInstance(data options.SecondInstanceData) {
	defer logging.Recover("second instance")

	logging.Info("Second instance launched", "args", len(data.Args))
	if a.windows.Get(window.RoleMain) == nil {
		a.openMain()
		if err := a.hotkeys.Start(); err != nil {
			logging.Warn("Global hotkey unavailable", "error", err)
		}
		if w := a.windows.Get(window.RoleMain); w != nil {
			a.windows.HandleReady(w.Handle)
		}
		return
	}
	// Show undoes an app-level hide from the macOS close button
	runtime.Show(a.ctx)
	runtime.WindowUnminimise(a.ctx)
	runtime.WindowShow(a.ctx)
}

// ResetSettings clears every setting back to its default. Only reachable
// from the developer menu.
func (a *App) ResetSettings() error {
	if !a.cfg.DevMode {
		return errors.New("reset settings is only available in development")
	}
	if err := a.settings.ClearAll(); err != nil {
		return err
	}
	// keep the live binding in line with the reset value
	return a.hotkeys.Rebind(a.settings.GetString(settings.KeyHotkey))
}

// shutdown is called when the app is closing
func (a *App) shutdown(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.updates.Stop()
	a.hotkeys.Unregister()
	logging.Info("Application stopped")
	logging.Close()
}
