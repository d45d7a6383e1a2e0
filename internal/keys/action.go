// ABOUTME: Action variants bound to key codes and the keymap that resolves them
// ABOUTME: Closed tagged set; resolution is a table lookup, not callback dispatch
package keys

import "sync"

// Action is the closed set of things a key press can trigger.
// Marker interface pattern: each variant is a small struct.
type Action interface {
	actionMarker()
}

// PlaySound triggers playback of a registered sound
type PlaySound struct {
	SoundID string
}

// ToggleDeviceMute toggles mute on one output device
type ToggleDeviceMute struct {
	DeviceName string
}

// PauseAll pauses everything playing, or resumes the last paused set
type PauseAll struct{}

// StopAll stops every playing or paused sound
type StopAll struct{}

// ArmModifier arms the modifier for the next sound key
type ArmModifier struct{}

func (PlaySound) actionMarker()        {}
func (ToggleDeviceMute) actionMarker() {}
func (PauseAll) actionMarker()         {}
func (StopAll) actionMarker()          {}
func (ArmModifier) actionMarker()      {}

// Keymap maps key codes to actions. At most one binding is active per code;
// the last assignment wins. Safe for concurrent use: the dispatcher resolves
// while the GUI collaborator rebinds.
type Keymap struct {
	mu       sync.RWMutex
	bindings map[Code]Action
}

// NewKeymap creates an empty keymap
func NewKeymap() *Keymap {
	return &Keymap{bindings: make(map[Code]Action)}
}

// Bind assigns an action to a code, replacing any previous binding.
// Binding Reserved is a no-op so "no key" configs never collide.
func (k *Keymap) Bind(code Code, action Action) {
	if code == Reserved {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings[code] = action
}

// Unbind removes the binding for a code
func (k *Keymap) Unbind(code Code) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.bindings, code)
}

// Resolve looks up the action for a code
func (k *Keymap) Resolve(code Code) (Action, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	action, ok := k.bindings[code]
	return action, ok
}

// UnbindAction removes every binding whose action matches the predicate.
// Used when a sound or device is removed so its key frees up.
func (k *Keymap) UnbindAction(match func(Action) bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for code, action := range k.bindings {
		if match(action) {
			delete(k.bindings, code)
		}
	}
}
