// ABOUTME: Error taxonomy for the soundboard core
// ABOUTME: All of these are recovered at component boundaries, never fatal
package board

import "errors"

var (
	// ErrDeviceUnavailable marks an output device that could not be opened
	// or written; the device is disabled/faulted and mixing continues.
	ErrDeviceUnavailable = errors.New("output device unavailable")

	// ErrInvalidSoundSource marks a sound file that is missing or
	// undecodable; the entry stays registered but is excluded from playback.
	ErrInvalidSoundSource = errors.New("invalid sound source")

	// ErrStaleReference marks an operation against a removed sound or
	// device. The dispatcher ignores it; the GUI may surface it.
	ErrStaleReference = errors.New("stale reference")
)
