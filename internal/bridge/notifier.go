package bridge

import "voxshell/internal/logging"

// Emitter delivers events to surfaces
type Emitter interface {
	SendToMain(event string, payload any) bool
	Broadcast(event string, payload any)
}

// Notifier sends core -> surface notifications. It is kept off the bound
// Bridge so the surface cannot trigger them itself.
type Notifier struct {
	emitter Emitter
}

// NewNotifier creates a notifier over emitter
func NewNotifier(emitter Emitter) *Notifier {
	return &Notifier{emitter: emitter}
}

// HotkeyTriggered tells the main window the hotkey fired. Dropped when no
// main window exists.
func (n *Notifier) HotkeyTriggered() {
	defer logging.Recover("hotkey notification")
	if !n.emitter.SendToMain(string(OpHotkeyTriggered), nil) {
		logging.Debug("Hotkey trigger dropped, no main window")
	}
}

// MicrophoneChanged tells every surface the selected microphone changed
func (n *Notifier) MicrophoneChanged(label string) {
	defer logging.Recover("microphone notification")
	n.emitter.Broadcast(string(OpMicrophoneChanged), label)
}
