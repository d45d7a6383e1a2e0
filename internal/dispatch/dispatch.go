// ABOUTME: Dispatch controller turning remote key events into playback commands
// ABOUTME: Owns the modifier state machine and the pause-all toggle
package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Soundlink-Project/soundlink-go/internal/board"
	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

// ModifierState is the process-wide modifier flag
type ModifierState int

const (
	Idle ModifierState = iota
	Armed
)

func (m ModifierState) String() string {
	if m == Armed {
		return "armed"
	}
	return "idle"
}

// PlaybackEngine is the engine surface the controller drives
type PlaybackEngine interface {
	Play(id string) error
	TogglePause(id string) error
	PauseAll() []string
	ResumeSounds(ids []string)
	StopAll()
	AnyPlaying() bool
}

// DeviceMuter is the device surface the controller drives
type DeviceMuter interface {
	ToggleMute(name string) error
}

// Controller consumes key events and issues commands. All events funnel
// through HandleEvent, so the modifier and pause-all toggles are serialized
// without further locking on the callees.
type Controller struct {
	keymap  *keys.Keymap
	engine  PlaybackEngine
	devices DeviceMuter

	mu         sync.Mutex
	modifier   ModifierState
	lastPaused []string

	onModifier func(ModifierState)
}

// NewController creates a controller over the given keymap and command surfaces
func NewController(keymap *keys.Keymap, engine PlaybackEngine, devices DeviceMuter) *Controller {
	return &Controller{
		keymap:  keymap,
		engine:  engine,
		devices: devices,
	}
}

// SetOnModifier registers a callback for modifier state changes, invoked
// outside the controller lock
func (c *Controller) SetOnModifier(fn func(ModifierState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onModifier = fn
}

// Modifier returns the current modifier state
func (c *Controller) Modifier() ModifierState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modifier
}

// Run consumes events until the channel closes or the context is cancelled
func (c *Controller) Run(ctx context.Context, events <-chan keys.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent processes one key event. Actions fire on key release; press
// and auto-repeat edges are ignored so holding a key triggers once.
func (c *Controller) HandleEvent(ev keys.Event) {
	if ev.Edge != keys.EdgeRelease {
		return
	}

	action, ok := c.keymap.Resolve(ev.Code)
	if !ok {
		return
	}

	switch a := action.(type) {
	case keys.ArmModifier:
		c.toggleModifier()
	case keys.PlaySound:
		c.playSound(a.SoundID)
	case keys.ToggleDeviceMute:
		if err := c.devices.ToggleMute(a.DeviceName); err != nil {
			c.logStale("mute toggle", a.DeviceName, err)
		}
	case keys.PauseAll:
		c.pauseAllToggle()
	case keys.StopAll:
		c.stopAll()
	}
}

// toggleModifier arms the modifier, or disarms it on a double press
func (c *Controller) toggleModifier() {
	c.mu.Lock()
	if c.modifier == Idle {
		c.modifier = Armed
	} else {
		c.modifier = Idle
	}
	state := c.modifier
	fn := c.onModifier
	c.mu.Unlock()

	log.Printf("Modifier %s", state)
	if fn != nil {
		fn(state)
	}
}

// playSound performs a restart, or a pause/resume toggle when the modifier
// is armed. Either branch consumes the modifier.
func (c *Controller) playSound(id string) {
	c.mu.Lock()
	armed := c.modifier == Armed
	var fn func(ModifierState)
	if armed {
		c.modifier = Idle
		fn = c.onModifier
	}
	c.mu.Unlock()

	var err error
	if armed {
		err = c.engine.TogglePause(id)
	} else {
		err = c.engine.Play(id)
	}
	if err != nil {
		c.logStale("sound key", id, err)
	}

	if fn != nil {
		fn(Idle)
	}
}

// pauseAllToggle pauses everything playing, or resumes the set paused by
// the previous press. Does not touch the modifier.
func (c *Controller) pauseAllToggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.engine.AnyPlaying() {
		c.lastPaused = c.engine.PauseAll()
		return
	}
	if len(c.lastPaused) == 0 {
		return
	}
	c.engine.ResumeSounds(c.lastPaused)
	c.lastPaused = nil
}

// stopAll stops everything and forgets the pause-all set
func (c *Controller) stopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine.StopAll()
	c.lastPaused = nil
}

// logStale drops errors from bindings that outlived their target
func (c *Controller) logStale(what, target string, err error) {
	if errors.Is(err, board.ErrStaleReference) {
		log.Printf("Ignoring %s for removed target %s", what, target)
		return
	}
	log.Printf("Dispatch %s on %s failed: %v", what, target, err)
}
