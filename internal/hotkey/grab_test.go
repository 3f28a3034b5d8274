package hotkey

import (
	"errors"
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"voxshell/internal/settings"
)

type fakeGrab struct {
	mu             sync.Mutex
	registered     bool
	failRegister   error
	failUnregister error
	presses        chan struct{}
	released       chan struct{}
}

func newFakeGrab() *fakeGrab {
	return &fakeGrab{presses: make(chan struct{}), released: make(chan struct{})}
}

func (g *fakeGrab) Register() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failRegister != nil {
		return g.failRegister
	}
	g.registered = true
	return nil
}

func (g *fakeGrab) Unregister() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failUnregister != nil {
		return g.failUnregister
	}
	g.registered = false
	close(g.released)
	return nil
}

func (g *fakeGrab) Wait(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	case <-g.released:
		return false
	case <-g.presses:
		return true
	}
}

func (g *fakeGrab) setUnregisterError(err error) {
	g.mu.Lock()
	g.failUnregister = err
	g.mu.Unlock()
}

// press reports whether a listener took the key press
func (g *fakeGrab) press() bool {
	select {
	case g.presses <- struct{}{}:
		return true
	case <-time.After(time.Second):
		return false
	}
}

// grabTable hands out one fakeGrab per accelerator
type grabTable struct {
	mu    sync.Mutex
	grabs map[string]*fakeGrab
}

func (t *grabTable) newGrab(acc Accelerator) (Grab, error) {
	if acc.Key == "Delete" {
		return nil, errors.New("key not supported")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.grabs == nil {
		t.grabs = make(map[string]*fakeGrab)
	}
	g := newFakeGrab()
	t.grabs[acc.String()] = g
	return g, nil
}

func (t *grabTable) get(name string) *fakeGrab {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.grabs[name]
}

func mustParse(t *testing.T, raw string) Accelerator {
	t.Helper()
	acc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return acc
}

func waitForCount(t *testing.T, c *triggerCounter, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for c.count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("triggers = %d, want %d", c.count(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGrabRegistrarDeliversPresses(t *testing.T) {
	table := &grabTable{}
	r := NewGrabRegistrar(table.newGrab)
	acc := mustParse(t, "Ctrl+Shift+M")
	counter := &triggerCounter{}

	if err := r.Register(acc, counter.inc); err != nil {
		t.Fatal(err)
	}
	g := table.get(acc.String())
	if !g.press() || !g.press() {
		t.Fatal("listener did not take the press")
	}
	waitForCount(t, counter, 2)

	if err := r.Unregister(acc); err != nil {
		t.Fatal(err)
	}
	if g.press() {
		t.Error("listener still running after unregister")
	}
	if r.size() != 0 {
		t.Errorf("held = %d", r.size())
	}
}

func TestGrabRegistrarRefusals(t *testing.T) {
	tests := []struct {
		name   string
		accel  string
		refuse error
	}{
		{"unsupported key", "Ctrl+Delete", nil},
		{"platform refuses", "Ctrl+K", errors.New("taken")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newGrab := func(acc Accelerator) (Grab, error) {
				if acc.Key == "Delete" {
					return nil, errors.New("key not supported")
				}
				g := newFakeGrab()
				g.failRegister = tt.refuse
				return g, nil
			}
			r := NewGrabRegistrar(newGrab)
			if err := r.Register(mustParse(t, tt.accel), func() {}); err == nil {
				t.Fatal("Register should fail")
			}
			if r.size() != 0 {
				t.Errorf("held = %d after refusal", r.size())
			}
		})
	}
}

func TestGrabRegistrarRejectsDuplicate(t *testing.T) {
	r := NewGrabRegistrar((&grabTable{}).newGrab)
	acc := mustParse(t, "Ctrl+K")
	if err := r.Register(acc, func() {}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(acc, func() {}); err == nil {
		t.Error("second Register of the same binding should fail")
	}
}

func TestGrabRegistrarKeepsGrabWhenReleaseFails(t *testing.T) {
	table := &grabTable{}
	r := NewGrabRegistrar(table.newGrab)
	acc := mustParse(t, "Ctrl+Shift+M")
	counter := &triggerCounter{}
	if err := r.Register(acc, counter.inc); err != nil {
		t.Fatal(err)
	}
	g := table.get(acc.String())
	g.setUnregisterError(errors.New("busy"))

	if err := r.Unregister(acc); err == nil {
		t.Fatal("Unregister should report the platform error")
	}
	if r.size() != 1 {
		t.Fatalf("held = %d, want the grab kept", r.size())
	}
	if !g.press() {
		t.Fatal("listener stopped although the grab is still held")
	}
	waitForCount(t, counter, 1)

	g.setUnregisterError(nil)
	if err := r.Unregister(acc); err != nil {
		t.Fatalf("second Unregister: %v", err)
	}
	if r.size() != 0 {
		t.Errorf("held = %d", r.size())
	}
}

func TestRebindOverGrabsNeverHoldsTwo(t *testing.T) {
	store, err := settings.NewStore(t.TempDir(), map[settings.Key]any{settings.KeyHotkey: "Ctrl+Shift+M"})
	if err != nil {
		t.Fatal(err)
	}
	table := &grabTable{}
	r := NewGrabRegistrar(table.newGrab)
	counter := &triggerCounter{}
	m := NewManager(r, store, counter.inc)
	if err := m.Start(); err != nil {
		t.Fatal(err)
	}

	old := table.get("Control+Shift+M")
	old.setUnregisterError(errors.New("busy"))
	if err := m.Rebind("Ctrl+Alt+J"); err == nil {
		t.Fatal("Rebind should fail while the old binding cannot be released")
	}
	if r.size() != 1 || table.get("Control+Alt+J") != nil {
		t.Fatalf("held = %d, new grab created = %v", r.size(), table.get("Control+Alt+J") != nil)
	}
	if m.Binding() != "Control+Shift+M" {
		t.Errorf("binding = %q", m.Binding())
	}
	if !old.press() {
		t.Fatal("old binding no longer fires")
	}
	waitForCount(t, counter, 1)

	old.setUnregisterError(nil)
	if err := m.Rebind("Ctrl+Alt+J"); err != nil {
		t.Fatalf("Rebind: %v", err)
	}
	if r.size() != 1 || m.Binding() != "Control+Alt+J" {
		t.Errorf("held = %d binding = %q", r.size(), m.Binding())
	}
}

// The state machine must build and test without a display, so only the
// osreg subpackage may link the platform hotkey library.
func TestPackageDoesNotLinkPlatformHotkeys(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatal(err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatal(err)
		}
		for _, imp := range f.Imports {
			path, _ := strconv.Unquote(imp.Path.Value)
			if strings.HasPrefix(path, "golang.design/x/hotkey") {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}
