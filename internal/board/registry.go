// ABOUTME: Sound registry owning the configured sound entries
// ABOUTME: CRUD surface shared by the GUI collaborator and the dispatch controller
package board

import (
	"fmt"
	"sync"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/Soundlink-Project/soundlink-go/internal/audio/decode"
	"github.com/Soundlink-Project/soundlink-go/internal/keys"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Loader decodes a sound file to engine-format samples. Injected so tests
// run without fixture files.
type Loader func(path string) ([]int32, error)

// UpdateFields selects which sound fields an Update call mutates
type UpdateFields struct {
	Name   *string
	Key    *keys.Code
	Volume *float64
	Path   *string
}

// Registry owns the set of configured sounds. Mutation is serialized by the
// registry lock; the mix loop reads under the same lock with bounded
// staleness (one frame).
type Registry struct {
	mu     sync.RWMutex
	sounds map[string]*sound
	order  []string
	loader Loader

	onChange func(SoundState)
}

// NewRegistry creates an empty registry. A nil loader uses the file decoder.
func NewRegistry(loader Loader) *Registry {
	if loader == nil {
		loader = decode.Load
	}
	return &Registry{
		sounds: make(map[string]*sound),
		loader: loader,
	}
}

// SetOnChange registers the snapshot callback invoked after every mutation.
// Used by the app wiring for status broadcasts and save triggering.
func (r *Registry) SetOnChange(fn func(SoundState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Add registers a new sound. The file is decoded immediately; on decode
// failure the entry is still created, flagged invalid, and the error is
// returned so the GUI can show it and allow correction.
func (r *Registry) Add(name string, key keys.Code, volume float64, path string) (SoundState, error) {
	entry := &sound{
		id:     uuid.New().String(),
		name:   name,
		key:    key,
		volume: audio.ClampVolume(volume),
		path:   path,
		state:  Stopped,
	}

	var loadErr error
	entry.samples, loadErr = r.loader(path)
	if loadErr != nil {
		entry.invalid = true
		loadErr = fmt.Errorf("%w: %v", ErrInvalidSoundSource, loadErr)
	}

	r.mu.Lock()
	r.sounds[entry.id] = entry
	r.order = append(r.order, entry.id)
	state := entry.snapshot()
	r.mu.Unlock()

	r.notify(state)
	return state, loadErr
}

// Update mutates an entry in place. Volume changes apply on the next mixed
// frame; a path change stops any active playback and re-decodes.
func (r *Registry) Update(id string, fields UpdateFields) error {
	var newSamples []int32
	var loadErr error
	if fields.Path != nil {
		// Decode outside the lock; the swap below is what needs serializing
		newSamples, loadErr = r.loader(*fields.Path)
	}

	r.mu.Lock()
	entry, ok := r.sounds[id]
	if !ok {
		r.mu.Unlock()
		return ErrStaleReference
	}

	if fields.Name != nil {
		entry.name = *fields.Name
	}
	if fields.Key != nil {
		entry.key = *fields.Key
	}
	if fields.Volume != nil {
		entry.volume = audio.ClampVolume(*fields.Volume)
	}
	if fields.Path != nil {
		entry.path = *fields.Path
		entry.state = Stopped
		entry.cursor = 0
		entry.samples = newSamples
		entry.invalid = loadErr != nil
	}
	state := entry.snapshot()
	r.mu.Unlock()

	r.notify(state)
	if loadErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSoundSource, loadErr)
	}
	return nil
}

// Remove stops any active playback, then deletes the entry
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	entry, ok := r.sounds[id]
	if !ok {
		r.mu.Unlock()
		return ErrStaleReference
	}

	entry.state = Stopped
	entry.cursor = 0
	state := entry.snapshot()

	delete(r.sounds, id)
	r.order = lo.Without(r.order, id)
	r.mu.Unlock()

	r.notify(state)
	return nil
}

// Reorder moves an entry up (negative) or down (positive) in display order.
// Display only: playback and dispatch are unaffected.
func (r *Registry) Reorder(id string, direction int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := lo.IndexOf(r.order, id)
	if idx < 0 {
		return ErrStaleReference
	}

	target := idx + direction
	if target < 0 || target >= len(r.order) {
		return nil
	}

	r.order[idx], r.order[target] = r.order[target], r.order[idx]
	return nil
}

// Snapshot returns every entry in display order
func (r *Registry) Snapshot() []SoundState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(r.order, func(id string, _ int) (SoundState, bool) {
		entry, ok := r.sounds[id]
		if !ok {
			return SoundState{}, false
		}
		return entry.snapshot(), true
	})
}

// Get returns one entry's snapshot
func (r *Registry) Get(id string) (SoundState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sounds[id]
	if !ok {
		return SoundState{}, ErrStaleReference
	}
	return entry.snapshot(), nil
}

// notify invokes the change callback outside the registry lock
func (r *Registry) notify(state SoundState) {
	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()

	if fn != nil {
		fn(state)
	}
}
