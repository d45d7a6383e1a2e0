// ABOUTME: Oto-backed fallback backend exposing the system default device
// ABOUTME: Single stream via a pipe-fed persistent player, 16-bit output
package board

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/ebitengine/oto/v3"
)

// DefaultDeviceName is the single device exposed by the oto fallback backend
const DefaultDeviceName = "Default Output"

// OtoBackend is the fallback when miniaudio cannot initialize. oto allows
// one context per process and no device selection, so the backend exposes a
// single default device.
type OtoBackend struct {
	mu  sync.Mutex
	ctx *oto.Context
}

// NewOtoBackend creates the oto context for the default output device
func NewOtoBackend() (*OtoBackend, error) {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: audio.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	log.Printf("Fallback audio output initialized: %dHz, %d channels (oto)",
		audio.SampleRate, audio.Channels)
	return &OtoBackend{ctx: ctx}, nil
}

// Devices returns the single default device
func (b *OtoBackend) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{Name: DefaultDeviceName, IsDefault: true}}, nil
}

// OpenSink opens a stream on the default device
func (b *OtoBackend) OpenSink(name string) (Sink, error) {
	if name != DefaultDeviceName {
		return nil, fmt.Errorf("device %q not found", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil, fmt.Errorf("backend closed")
	}

	pr, pw := io.Pipe()
	player := b.ctx.NewPlayer(pr)
	player.Play()

	return &otoSink{
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
	}, nil
}

// Close suspends the oto context; oto has no teardown
func (b *OtoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	if err := b.ctx.Suspend(); err != nil {
		log.Printf("Warning: oto suspend error: %v", err)
	}
	b.ctx = nil
	return nil
}

// otoSink feeds the persistent player through a pipe
type otoSink struct {
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter

	mu     sync.Mutex
	closed bool
}

func (s *otoSink) Write(samples []int32) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("stream is closed")
	}

	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		sample16 := audio.SampleToInt16(sample)
		binary.LittleEndian.PutUint16(output[i*2:], uint16(sample16))
	}

	if _, err := s.pipeWriter.Write(output); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}
	return nil
}

func (s *otoSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.pipeWriter.Close()
	s.player.Close()
	s.pipeReader.Close()
	return nil
}
