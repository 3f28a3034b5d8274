package bridge

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"voxshell/internal/logging"
	"voxshell/internal/settings"
	"voxshell/internal/update"
	"voxshell/internal/window"
)

var errHotkeyViaSet = errors.New("hotkey must be changed with UpdateHotkey")

// Result is the acknowledgment shape for calls that can fail
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func resultOf(err error) Result {
	if err != nil {
		return Result{Error: err.Error()}
	}
	return Result{Success: true}
}

// Settings is the subset of the settings store the bridge may touch
type Settings interface {
	Get(key settings.Key) (any, error)
	Set(key settings.Key, value any) error
	GetAll() map[settings.Key]any
}

// Windows is the subset of the window manager the bridge may drive
type Windows interface {
	Minimize()
	ToggleMaximize()
	CloseMain()
	OpenSettings() (*window.Window, bool, error)
	CloseSettings()
	SendToMain(event string, payload any) bool
	Broadcast(event string, payload any)
}

// Hotkeys rebinds the global accelerator
type Hotkeys interface {
	Rebind(accelerator string) error
}

// Updates runs manual update checks
type Updates interface {
	CheckNow(ctx context.Context) update.CheckResult
}

// Connection exposes retry and the captured failure reason
type Connection interface {
	Retry() error
	ErrorDetails() string
}

// Deps wires the bridge to its subsystems
type Deps struct {
	Version    string
	Settings   Settings
	Windows    Windows
	Hotkeys    Hotkeys
	Updates    Updates
	Connection Connection
}

// Bridge is bound to the webview. Every exported method is an entry in
// the operation table and nothing else is reachable from the surface.
type Bridge struct {
	deps     Deps
	notifier *Notifier
}

// New creates a bridge over deps
func New(deps Deps) *Bridge {
	return &Bridge{deps: deps, notifier: NewNotifier(deps.Windows)}
}

// guard runs fn and turns a panic into fallback
func guard[T any](op Op, fallback T, fn func() T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			entry, _ := Lookup(op)
			logging.Error("Bridge operation panicked", "op", op, "kind", entry.Kind.String(), "panic", r, "stack", string(debug.Stack()))
			out = fallback
		}
	}()
	return fn()
}

func fire(op Op, fn func()) {
	guard(op, struct{}{}, func() struct{} {
		fn()
		return struct{}{}
	})
}

func failed(op Op) Result {
	return Result{Error: fmt.Sprintf("%s failed unexpectedly", op)}
}

// GetAppVersion returns the running version
func (b *Bridge) GetAppVersion() string {
	return b.deps.Version
}

// MinimizeWindow minimizes the main window
func (b *Bridge) MinimizeWindow() {
	fire(OpMinimizeWindow, b.deps.Windows.Minimize)
}

// ToggleMaximizeWindow maximizes or restores the main window
func (b *Bridge) ToggleMaximizeWindow() {
	fire(OpToggleMaximizeWindow, b.deps.Windows.ToggleMaximize)
}

// CloseWindow closes the main window
func (b *Bridge) CloseWindow() {
	fire(OpCloseWindow, b.deps.Windows.CloseMain)
}

// GetSetting returns the value of key or its default. Unknown keys yield nil.
func (b *Bridge) GetSetting(key string) any {
	return guard[any](OpGetSetting, nil, func() any {
		v, err := b.deps.Settings.Get(settings.Key(key))
		if err != nil {
			logging.Warn("Surface read unknown setting", "key", key)
			return nil
		}
		return v
	})
}

// SetSetting validates and persists a setting
func (b *Bridge) SetSetting(key string, value any) Result {
	return guard(OpSetSetting, failed(OpSetSetting), func() Result {
		k := settings.Key(key)
		if k == settings.KeyHotkey {
			return resultOf(errHotkeyViaSet)
		}
		if err := b.deps.Settings.Set(k, value); err != nil {
			logging.Warn("Setting rejected", "key", key, "error", err)
			return resultOf(err)
		}
		return resultOf(nil)
	})
}

// GetAllSettings returns every known setting
func (b *Bridge) GetAllSettings() map[string]any {
	return guard(OpGetAllSettings, map[string]any{}, func() map[string]any {
		all := b.deps.Settings.GetAll()
		out := make(map[string]any, len(all))
		for k, v := range all {
			out[string(k)] = v
		}
		return out
	})
}

// OpenSettings opens the settings window or focuses the open one
func (b *Bridge) OpenSettings() {
	fire(OpOpenSettings, func() {
		if _, _, err := b.deps.Windows.OpenSettings(); err != nil {
			logging.Error("Failed to open settings", "error", err)
		}
	})
}

// CloseSettings closes the settings window if open
func (b *Bridge) CloseSettings() {
	fire(OpCloseSettings, b.deps.Windows.CloseSettings)
}

// UpdateHotkey rebinds the global hotkey. On failure the previous
// binding stays active.
func (b *Bridge) UpdateHotkey(accelerator string) Result {
	return guard(OpUpdateHotkey, failed(OpUpdateHotkey), func() Result {
		if err := b.deps.Hotkeys.Rebind(accelerator); err != nil {
			logging.Warn("Hotkey rebind failed", "accelerator", accelerator, "error", err)
			return resultOf(err)
		}
		return resultOf(nil)
	})
}

// UpdateMicrophone stores the selected input device ("" means system
// default) and tells every open surface.
func (b *Bridge) UpdateMicrophone(label string) Result {
	return guard(OpUpdateMicrophone, failed(OpUpdateMicrophone), func() Result {
		if err := b.deps.Settings.Set(settings.KeySelectedMicrophone, label); err != nil {
			return resultOf(err)
		}
		b.notifier.MicrophoneChanged(label)
		return resultOf(nil)
	})
}

// CheckForUpdates runs a manual update check
func (b *Bridge) CheckForUpdates() update.CheckResult {
	fallback := update.CheckResult{Reason: update.ReasonError, Error: "update check failed unexpectedly"}
	return guard(OpCheckForUpdates, fallback, func() update.CheckResult {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		return b.deps.Updates.CheckNow(ctx)
	})
}

// RetryConnection reloads the remote origin
func (b *Bridge) RetryConnection() Result {
	return guard(OpRetryConnection, failed(OpRetryConnection), func() Result {
		return resultOf(b.deps.Connection.Retry())
	})
}

// GetErrorDetails returns the last captured load failure
func (b *Bridge) GetErrorDetails() string {
	return guard(OpGetErrorDetails, "", b.deps.Connection.ErrorDetails)
}

// Log forwards a surface log line
func (b *Bridge) Log(level, text string) {
	fire(OpLog, func() { logging.LogFromSurface(level, text) })
}
