// ABOUTME: Audio sink and backend interfaces for device output
// ABOUTME: Production backends are malgo (multi-device) and oto (default device)
package board

// DeviceInfo describes one enumerated playback device
type DeviceInfo struct {
	Name      string
	IsDefault bool
}

// Sink is one open audio stream on a device. Writes take interleaved stereo
// int32 samples in the 24-bit range and must not block on device I/O; slow
// consumers drop rather than stall the mixer.
type Sink interface {
	Write(samples []int32) error
	Close() error
}

// Backend enumerates playback devices and opens sinks on them
type Backend interface {
	Devices() ([]DeviceInfo, error)
	OpenSink(name string) (Sink, error)
	Close() error
}
