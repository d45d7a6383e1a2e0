// ABOUTME: Sound entry model and per-sound playback state machine states
// ABOUTME: Playback fields are guarded by the owning registry's lock
package board

import (
	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

// PlayState is the per-sound playback state
type PlayState int

const (
	Stopped PlayState = iota
	Playing
	Paused
)

func (s PlayState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// sound is the registry-owned record for one configured sound.
// samples is the whole clip, pre-decoded to the engine format; cursor is the
// interleaved play offset into it.
type sound struct {
	id      string
	name    string
	key     keys.Code
	volume  float64
	path    string
	invalid bool

	state   PlayState
	cursor  int
	samples []int32
}

// SoundState is the read-only snapshot handed to the GUI and the status hub
type SoundState struct {
	ID      string
	Name    string
	Key     keys.Code
	Volume  float64
	Path    string
	Invalid bool
	State   PlayState

	// OffsetSeconds is the current play position; display-only, may lag
	// the mixer by up to one frame
	OffsetSeconds float64
}

// snapshot must be called with the registry lock held
func (s *sound) snapshot() SoundState {
	return SoundState{
		ID:            s.id,
		Name:          s.name,
		Key:           s.key,
		Volume:        s.volume,
		Path:          s.path,
		Invalid:       s.invalid,
		State:         s.state,
		OffsetSeconds: audio.OffsetSeconds(s.cursor),
	}
}
