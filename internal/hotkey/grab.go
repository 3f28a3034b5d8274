package hotkey

import (
	"fmt"
	"sync"

	"voxshell/internal/logging"
)

// Grab is one key combination held with the operating system
type Grab interface {
	Register() error
	Unregister() error
	// Wait blocks until the combination is pressed (true) or stop is
	// closed or the grab is released (false)
	Wait(stop <-chan struct{}) bool
}

// GrabFunc creates a grab for acc, failing for keys the platform lacks
type GrabFunc func(acc Accelerator) (Grab, error)

type heldGrab struct {
	grab Grab
	stop chan struct{}
}

// GrabRegistrar implements Registrar on top of platform grabs, with one
// listener goroutine per held grab
type GrabRegistrar struct {
	newGrab GrabFunc

	mu    sync.Mutex
	grabs map[string]*heldGrab
}

// NewGrabRegistrar creates a registrar using newGrab
func NewGrabRegistrar(newGrab GrabFunc) *GrabRegistrar {
	return &GrabRegistrar{newGrab: newGrab, grabs: make(map[string]*heldGrab)}
}

// Register implements Registrar
func (r *GrabRegistrar) Register(acc Accelerator, onTrigger func()) error {
	name := acc.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.grabs[name]; exists {
		return fmt.Errorf("%s already registered", name)
	}

	g, err := r.newGrab(acc)
	if err != nil {
		return err
	}
	if err := g.Register(); err != nil {
		return err
	}

	held := &heldGrab{grab: g, stop: make(chan struct{})}
	r.grabs[name] = held

	go func() {
		defer logging.Recover("hotkey listener")
		for g.Wait(held.stop) {
			onTrigger()
		}
	}()
	return nil
}

// Unregister implements Registrar. The grab stays held, listener included,
// when the platform refuses to release it.
func (r *GrabRegistrar) Unregister(acc Accelerator) error {
	name := acc.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	held, ok := r.grabs[name]
	if !ok {
		return nil
	}
	if err := held.grab.Unregister(); err != nil {
		return err
	}
	close(held.stop)
	delete(r.grabs, name)
	return nil
}

// size reports how many grabs are held
func (r *GrabRegistrar) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.grabs)
}
