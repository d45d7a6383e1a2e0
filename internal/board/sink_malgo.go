// ABOUTME: Malgo-backed device backend with per-device playback streams
// ABOUTME: Uses miniaudio via malgo for enumeration and multi-device output
package board

import (
	"fmt"
	"log"
	"sync"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/gen2brain/malgo"
)

// MalgoBackend enumerates system playback devices and opens one stream per
// enabled device. Each stream runs its own miniaudio device in callback mode.
type MalgoBackend struct {
	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

// NewMalgoBackend initializes the miniaudio context
func NewMalgoBackend() (*MalgoBackend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Printf("malgo: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	return &MalgoBackend{ctx: ctx}, nil
}

// Devices lists the system's playback devices
func (b *MalgoBackend) Devices() ([]DeviceInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil, fmt.Errorf("backend closed")
	}

	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}

	devices := make([]DeviceInfo, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, DeviceInfo{
			Name:      info.Name(),
			IsDefault: info.IsDefault != 0,
		})
	}
	return devices, nil
}

// OpenSink starts a playback stream on the named device
func (b *MalgoBackend) OpenSink(name string) (Sink, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil, fmt.Errorf("backend closed")
	}

	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("device enumeration failed: %w", err)
	}

	var target *malgo.DeviceInfo
	for i := range infos {
		if infos[i].Name() == name {
			target = &infos[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("device %q not found", name)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(audio.Channels)
	deviceConfig.Playback.DeviceID = target.ID.Pointer()
	deviceConfig.SampleRate = uint32(audio.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	// 500ms of buffered samples per device
	sink := &malgoSink{
		name: name,
		ring: newRingBuffer(audio.SampleRate * audio.Channels / 2),
	}

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			sink.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(b.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize device %q: %w", name, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start device %q: %w", name, err)
	}

	sink.device = device
	log.Printf("Opened stream on %q: %dHz, %d channels (malgo/S16)",
		name, audio.SampleRate, audio.Channels)
	return sink, nil
}

// Close releases the miniaudio context. Open sinks must be closed first.
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}

	if err := b.ctx.Uninit(); err != nil {
		log.Printf("Warning: malgo context uninit error: %v", err)
	}
	b.ctx.Free()
	b.ctx = nil
	return nil
}

// malgoSink is one open playback stream. Write feeds the ring buffer; the
// device callback drains it, zero-filling on underrun.
type malgoSink struct {
	name   string
	device *malgo.Device
	ring   *ringBuffer

	mu     sync.Mutex
	closed bool
}

// Write queues samples without blocking; a full buffer drops the overflow
func (s *malgoSink) Write(samples []int32) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("stream on %q is closed", s.name)
	}

	s.ring.Write(samples)
	return nil
}

func (s *malgoSink) dataCallback(pOutput []byte, frameCount uint32) {
	samples := make([]int32, int(frameCount)*audio.Channels)
	s.ring.Read(samples)

	for i, sample := range samples {
		sample16 := audio.SampleToInt16(sample)
		pOutput[i*2] = byte(sample16)
		pOutput[i*2+1] = byte(sample16 >> 8)
	}
}

func (s *malgoSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.device.Stop(); err != nil {
		log.Printf("Warning: device stop error on %q: %v", s.name, err)
	}
	s.device.Uninit()
	return nil
}

// ringBuffer is a thread-safe circular buffer of interleaved samples
type ringBuffer struct {
	mu       sync.Mutex
	buffer   []int32
	readPos  int
	writePos int
	size     int
	count    int
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buffer: make([]int32, capacity),
		size:   capacity,
	}
}

// Write adds samples, returning how many fit
func (rb *ringBuffer) Write(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	written := 0
	for i := 0; i < len(samples) && rb.count < rb.size; i++ {
		rb.buffer[rb.writePos] = samples[i]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	return written
}

// Read fills samples, zero-filling past what is buffered
func (rb *ringBuffer) Read(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(samples) && rb.count > 0; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}
	for i := read; i < len(samples); i++ {
		samples[i] = 0
	}
	return read
}

// Available returns the number of buffered samples
func (rb *ringBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}
