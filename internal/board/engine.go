// ABOUTME: Playback engine mixing every playing sound into per-frame output
// ABOUTME: 10ms frame ticker; per-sound cursors; fan-out through the device manager
package board

import (
	"context"
	"time"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
)

// Engine drives the mix loop and owns the per-sound playback transitions.
// It shares the registry's lock with the GUI-facing mutation surface, so a
// volume change is picked up at worst one frame late.
type Engine struct {
	registry *Registry
	devices  *DeviceManager

	frame []int32
	acc   []int64
}

// NewEngine creates an engine over the shared registry and device manager
func NewEngine(registry *Registry, devices *DeviceManager) *Engine {
	return &Engine{
		registry: registry,
		devices:  devices,
		frame:    make([]int32, audio.FrameSamples),
		acc:      make([]int64, audio.FrameSamples),
	}
}

// Run mixes frames until the context is cancelled
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / audio.FramesPerSecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Step()
		}
	}
}

// Step mixes one frame and routes it to the enabled devices. Exposed so
// tests can drive the mixer without wall-clock timing.
func (e *Engine) Step() {
	for i := range e.acc {
		e.acc[i] = 0
	}

	var completed []SoundState

	r := e.registry
	r.mu.Lock()
	for _, entry := range r.sounds {
		if entry.state != Playing {
			continue
		}

		remaining := entry.samples[entry.cursor:]
		n := len(remaining)
		if n > audio.FrameSamples {
			n = audio.FrameSamples
		}

		vol := entry.volume
		for i := 0; i < n; i++ {
			e.acc[i] += int64(float64(remaining[i]) * vol)
		}
		entry.cursor += n

		if entry.cursor >= len(entry.samples) {
			entry.state = Stopped
			entry.cursor = 0
			completed = append(completed, entry.snapshot())
		}
	}
	r.mu.Unlock()

	for _, state := range completed {
		r.notify(state)
	}

	for i, sum := range e.acc {
		e.frame[i] = audio.Clamp24(sum)
	}

	e.devices.RouteFrame(e.frame)
}

// Play starts the sound from offset zero, restarting if already playing.
// Invalid entries are excluded from playback attempts.
func (e *Engine) Play(id string) error {
	return e.transition(id, func(entry *sound) {
		if entry.invalid {
			return
		}
		entry.state = Playing
		entry.cursor = 0
	})
}

// TogglePause flips a specific sound between Playing and Paused, recording
// the offset. A Stopped sound is left alone: there is nothing to resume.
func (e *Engine) TogglePause(id string) error {
	return e.transition(id, func(entry *sound) {
		switch entry.state {
		case Playing:
			entry.state = Paused
		case Paused:
			entry.state = Playing
		}
	})
}

// Stop forces the sound to Stopped with its offset reset
func (e *Engine) Stop(id string) error {
	return e.transition(id, func(entry *sound) {
		entry.state = Stopped
		entry.cursor = 0
	})
}

// PauseAll pauses every playing sound and returns their ids so the caller
// can resume exactly that set later.
func (e *Engine) PauseAll() []string {
	var paused []string
	var states []SoundState

	r := e.registry
	r.mu.Lock()
	for _, id := range r.order {
		entry := r.sounds[id]
		if entry.state == Playing {
			entry.state = Paused
			paused = append(paused, id)
			states = append(states, entry.snapshot())
		}
	}
	r.mu.Unlock()

	for _, state := range states {
		r.notify(state)
	}
	return paused
}

// ResumeSounds resumes the given sounds if they are still Paused. Removed
// or restarted entries are skipped.
func (e *Engine) ResumeSounds(ids []string) {
	var states []SoundState

	r := e.registry
	r.mu.Lock()
	for _, id := range ids {
		entry, ok := r.sounds[id]
		if !ok || entry.state != Paused {
			continue
		}
		entry.state = Playing
		states = append(states, entry.snapshot())
	}
	r.mu.Unlock()

	for _, state := range states {
		r.notify(state)
	}
}

// StopAll forces every sound to Stopped with offsets reset
func (e *Engine) StopAll() {
	var states []SoundState

	r := e.registry
	r.mu.Lock()
	for _, entry := range r.sounds {
		if entry.state == Stopped {
			continue
		}
		entry.state = Stopped
		entry.cursor = 0
		states = append(states, entry.snapshot())
	}
	r.mu.Unlock()

	for _, state := range states {
		r.notify(state)
	}
}

// AnyPlaying reports whether at least one sound is currently Playing
func (e *Engine) AnyPlaying() bool {
	r := e.registry
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.sounds {
		if entry.state == Playing {
			return true
		}
	}
	return false
}

// transition applies a state mutation to one sound under the registry lock
func (e *Engine) transition(id string, fn func(*sound)) error {
	r := e.registry
	r.mu.Lock()
	entry, ok := r.sounds[id]
	if !ok {
		r.mu.Unlock()
		return ErrStaleReference
	}

	before := entry.state
	beforeCursor := entry.cursor
	fn(entry)
	changed := entry.state != before || entry.cursor != beforeCursor
	state := entry.snapshot()
	invalid := entry.invalid
	r.mu.Unlock()

	if changed {
		r.notify(state)
	}
	if invalid {
		return ErrInvalidSoundSource
	}
	return nil
}
