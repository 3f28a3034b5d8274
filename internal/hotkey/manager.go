package hotkey

import (
	"errors"
	"fmt"
	"sync"

	"voxshell/internal/logging"
	"voxshell/internal/settings"
)

// ErrRegistrationFailed wraps OS refusals (already taken, unsupported key)
var ErrRegistrationFailed = errors.New("hotkey registration failed")

// Registrar is the OS-level global shortcut facility
type Registrar interface {
	Register(acc Accelerator, onTrigger func()) error
	Unregister(acc Accelerator) error
}

// BindingStore persists the active binding
type BindingStore interface {
	GetString(key settings.Key) string
	Default(key settings.Key) any
	Set(key settings.Key, value any) error
}

// State is the manager's registration state
type State int

const (
	Unregistered State = iota
	Registered
)

func (s State) String() string {
	if s == Registered {
		return "registered"
	}
	return "unregistered"
}

// Manager owns the single application hotkey. All registration changes
// run under mu, so at most one binding is live with the OS at any time.
type Manager struct {
	registrar Registrar
	store     BindingStore
	onTrigger func()

	mu      sync.Mutex
	current *Accelerator
}

// NewManager creates a manager. onTrigger runs for every hotkey press.
func NewManager(registrar Registrar, store BindingStore, onTrigger func()) *Manager {
	return &Manager{
		registrar: registrar,
		store:     store,
		onTrigger: onTrigger,
	}
}

// Start registers the persisted binding, or the default if the persisted
// one does not parse. Failure leaves the manager unregistered.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return nil
	}

	raw := m.store.GetString(settings.KeyHotkey)
	acc, err := Parse(raw)
	if err != nil {
		def, _ := m.store.Default(settings.KeyHotkey).(string)
		logging.Warn("Persisted hotkey invalid, using default", "binding", raw, "default", def, "error", err)
		if acc, err = Parse(def); err != nil {
			logging.Error("Default hotkey invalid", "binding", def, "error", err)
			return err
		}
	}

	if err := m.registrar.Register(acc, m.trigger); err != nil {
		logging.Error("Failed to register hotkey", "binding", acc.String(), "error", err)
		return fmt.Errorf("%w: %s: %v", ErrRegistrationFailed, acc, err)
	}

	m.current = &acc
	logging.Info("Hotkey registered", "binding", acc.String())
	return nil
}

// Rebind swaps the live binding for raw. On failure the previous binding
// is re-registered when possible and the error is returned.
func (m *Manager) Rebind(raw string) error {
	acc, err := Parse(raw)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.current
	if old != nil && old.Equal(acc) {
		return m.persist(acc)
	}

	if old != nil {
		if err := m.registrar.Unregister(*old); err != nil {
			// Old binding is still live; registering now would make two
			logging.Error("Failed to unregister hotkey", "binding", old.String(), "error", err)
			return fmt.Errorf("unregister %s: %w", old, err)
		}
		m.current = nil
	}

	if err := m.registrar.Register(acc, m.trigger); err != nil {
		logging.Warn("Hotkey rebind refused", "binding", acc.String(), "error", err)
		m.rollback(old)
		return fmt.Errorf("%w: %s: %v", ErrRegistrationFailed, acc, err)
	}
	m.current = &acc

	if err := m.persist(acc); err != nil {
		// Keep the OS and the store in agreement
		if uerr := m.registrar.Unregister(acc); uerr != nil {
			logging.Error("Failed to unregister hotkey after persist error", "binding", acc.String(), "error", uerr)
			return err
		}
		m.current = nil
		m.rollback(old)
		return err
	}

	logging.Info("Hotkey rebound", "from", describe(old), "to", acc.String())
	return nil
}

// rollback must be called with mu held
func (m *Manager) rollback(old *Accelerator) {
	if old == nil {
		return
	}
	if err := m.registrar.Register(*old, m.trigger); err != nil {
		logging.Error("Hotkey rollback failed, no hotkey active", "binding", old.String(), "error", err)
		return
	}
	m.current = old
	logging.Info("Hotkey rolled back", "binding", old.String())
}

func (m *Manager) persist(acc Accelerator) error {
	if err := m.store.Set(settings.KeyHotkey, acc.String()); err != nil {
		return fmt.Errorf("persist hotkey: %w", err)
	}
	return nil
}

// Unregister releases the binding. Safe to call in any state.
func (m *Manager) Unregister() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return
	}
	if err := m.registrar.Unregister(*m.current); err != nil {
		logging.Warn("Failed to unregister hotkey", "binding", m.current.String(), "error", err)
	}
	logging.Info("Hotkey unregistered", "binding", m.current.String())
	m.current = nil
}

// State returns the current registration state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Unregistered
	}
	return Registered
}

// Binding returns the registered accelerator, or "" when unregistered
func (m *Manager) Binding() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return describe(m.current)
}

func (m *Manager) trigger() {
	defer logging.Recover("hotkey trigger")
	if m.onTrigger != nil {
		m.onTrigger()
	}
}

func describe(acc *Accelerator) string {
	if acc == nil {
		return ""
	}
	return acc.String()
}
