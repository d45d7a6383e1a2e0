// ABOUTME: Device output manager owning enabled devices and their streams
// ABOUTME: Per-device volume/mute with fan-out routing of mixed frames
package board

import (
	"fmt"
	"log"
	"sync"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/Soundlink-Project/soundlink-go/internal/keys"
	"github.com/samber/lo"
)

// outputDevice is the manager-owned record for one playback device
type outputDevice struct {
	name    string
	enabled bool
	muted   bool
	fault   bool
	volume  float64
	muteKey keys.Code
	sink    Sink
}

// DeviceState is the read-only snapshot for the GUI and status hub
type DeviceState struct {
	Name    string
	Enabled bool
	Muted   bool
	Fault   bool
	Volume  float64
	MuteKey keys.Code
}

// DeviceManager owns the set of known output devices. Enabled devices own an
// open sink; disabled and faulted devices own none.
type DeviceManager struct {
	mu      sync.RWMutex
	backend Backend
	devices map[string]*outputDevice
	order   []string

	onChange func(DeviceState)
}

// NewDeviceManager creates a manager over the given backend
func NewDeviceManager(backend Backend) *DeviceManager {
	return &DeviceManager{
		backend: backend,
		devices: make(map[string]*outputDevice),
	}
}

// SetOnChange registers the snapshot callback invoked after device mutations
func (m *DeviceManager) SetOnChange(fn func(DeviceState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// Seed registers a configured device that is absent from enumeration so its
// settings survive saves. The record starts faulted and recovers when the
// device shows up in a later Enumerate. Reports whether a record was created.
func (m *DeviceManager) Seed(name string, enabled bool) bool {
	m.mu.Lock()
	if _, ok := m.devices[name]; ok {
		m.mu.Unlock()
		return false
	}
	dev := &outputDevice{name: name, enabled: enabled, fault: true, volume: 1.0}
	m.devices[name] = dev
	m.order = append(m.order, name)
	state := dev.snapshot()
	m.mu.Unlock()

	m.notify(state)
	return true
}

// Enumerate refreshes the device list from the backend. Existing streams are
// left alone; an enabled device that vanished from the system transitions to
// a fault state with its stream closed, and a faulted device that reappeared
// recovers (its stream is reopened if it should be enabled).
func (m *DeviceManager) Enumerate() ([]DeviceInfo, error) {
	infos, err := m.backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	var changed []DeviceState
	var reopenNames []string

	m.mu.Lock()
	present := make(map[string]bool, len(infos))
	for _, info := range infos {
		present[info.Name] = true
		if _, known := m.devices[info.Name]; !known {
			m.devices[info.Name] = &outputDevice{name: info.Name, volume: 1.0}
			m.order = append(m.order, info.Name)
		}
	}

	for name, dev := range m.devices {
		if present[name] {
			if dev.fault {
				if dev.enabled {
					reopenNames = append(reopenNames, name)
				} else {
					dev.fault = false
					changed = append(changed, dev.snapshot())
				}
			}
			continue
		}
		if !dev.enabled || dev.fault {
			continue
		}
		log.Printf("Device %q disappeared, closing its stream", name)
		if dev.sink != nil {
			dev.sink.Close()
			dev.sink = nil
		}
		dev.fault = true
		changed = append(changed, dev.snapshot())
	}
	m.mu.Unlock()

	for _, state := range changed {
		m.notify(state)
	}
	for _, name := range reopenNames {
		m.reopen(name)
	}
	return infos, nil
}

// reopen restores the stream of an enabled device that came back. Unlike
// SetEnabled, an open failure keeps the device enabled and faulted so its
// settings are not lost while it flaps.
func (m *DeviceManager) reopen(name string) {
	sink, err := m.backend.OpenSink(name)

	m.mu.Lock()
	dev, ok := m.devices[name]
	if !ok {
		m.mu.Unlock()
		if sink != nil {
			sink.Close()
		}
		return
	}
	if err != nil {
		m.mu.Unlock()
		log.Printf("Device %q reappeared but could not be opened: %v", name, err)
		return
	}
	if dev.sink != nil {
		dev.sink.Close()
	}
	dev.sink = sink
	dev.fault = false
	state := dev.snapshot()
	m.mu.Unlock()

	log.Printf("Device %q recovered", name)
	m.notify(state)
}

// SetEnabled opens or closes the device's stream. An open failure leaves the
// device disabled and returns ErrDeviceUnavailable.
func (m *DeviceManager) SetEnabled(name string, enabled bool) error {
	m.mu.Lock()
	dev, ok := m.devices[name]
	if !ok {
		m.mu.Unlock()
		return ErrStaleReference
	}

	if enabled == dev.enabled && !dev.fault {
		m.mu.Unlock()
		return nil
	}

	if !enabled {
		if dev.sink != nil {
			dev.sink.Close()
			dev.sink = nil
		}
		dev.enabled = false
		dev.fault = false
		state := dev.snapshot()
		m.mu.Unlock()
		m.notify(state)
		return nil
	}
	m.mu.Unlock()

	// Open outside the lock; device init can be slow
	sink, err := m.backend.OpenSink(name)

	m.mu.Lock()
	dev, ok = m.devices[name]
	if !ok {
		m.mu.Unlock()
		if sink != nil {
			sink.Close()
		}
		return ErrStaleReference
	}

	if err != nil {
		dev.enabled = false
		dev.fault = false
		state := dev.snapshot()
		m.mu.Unlock()
		m.notify(state)
		return fmt.Errorf("%w: %s: %v", ErrDeviceUnavailable, name, err)
	}

	if dev.sink != nil {
		dev.sink.Close()
	}
	dev.sink = sink
	dev.enabled = true
	dev.fault = false
	state := dev.snapshot()
	m.mu.Unlock()

	m.notify(state)
	return nil
}

// SetVolume sets a device's volume, clamped to [0, 1]
func (m *DeviceManager) SetVolume(name string, volume float64) error {
	return m.mutate(name, func(dev *outputDevice) {
		dev.volume = audio.ClampVolume(volume)
	})
}

// SetMuted silences a device without stopping its stream; mixed frames keep
// flowing so unmuting resumes in sync.
func (m *DeviceManager) SetMuted(name string, muted bool) error {
	return m.mutate(name, func(dev *outputDevice) {
		dev.muted = muted
	})
}

// ToggleMute flips a device's mute flag
func (m *DeviceManager) ToggleMute(name string) error {
	return m.mutate(name, func(dev *outputDevice) {
		dev.muted = !dev.muted
	})
}

// SetMuteKey assigns the device's mute-toggle key binding
func (m *DeviceManager) SetMuteKey(name string, code keys.Code) error {
	return m.mutate(name, func(dev *outputDevice) {
		dev.muteKey = code
	})
}

// notify invokes the change callback outside the manager lock
func (m *DeviceManager) notify(state DeviceState) {
	m.mu.RLock()
	fn := m.onChange
	m.mu.RUnlock()

	if fn != nil {
		fn(state)
	}
}

func (m *DeviceManager) mutate(name string, fn func(*outputDevice)) error {
	m.mu.Lock()
	dev, ok := m.devices[name]
	if !ok {
		m.mu.Unlock()
		return ErrStaleReference
	}
	fn(dev)
	state := dev.snapshot()
	m.mu.Unlock()

	m.notify(state)
	return nil
}

// RouteFrame delivers one mixed frame to every enabled device. Disabled and
// faulted devices are silently skipped. Sink state is snapshotted first so
// no lock is held during device I/O.
func (m *DeviceManager) RouteFrame(frame []int32) {
	type target struct {
		name   string
		sink   Sink
		volume float64
		muted  bool
	}

	m.mu.RLock()
	targets := make([]target, 0, len(m.order))
	for _, name := range m.order {
		dev := m.devices[name]
		if !dev.enabled || dev.fault || dev.sink == nil {
			continue
		}
		targets = append(targets, target{name, dev.sink, dev.volume, dev.muted})
	}
	m.mu.RUnlock()

	for _, tgt := range targets {
		out := scaleFrame(frame, tgt.volume, tgt.muted)
		if err := tgt.sink.Write(out); err != nil {
			log.Printf("Device %q write failed, marking unavailable: %v", tgt.name, err)
			m.faultDevice(tgt.name)
		}
	}
}

// faultDevice closes a device's stream after a write failure
func (m *DeviceManager) faultDevice(name string) {
	m.mu.Lock()
	dev, ok := m.devices[name]
	if !ok {
		m.mu.Unlock()
		return
	}
	if dev.sink != nil {
		dev.sink.Close()
		dev.sink = nil
	}
	dev.fault = true
	state := dev.snapshot()
	m.mu.Unlock()

	m.notify(state)
}

// Snapshot returns every known device in enumeration order
func (m *DeviceManager) Snapshot() []DeviceState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return lo.Map(m.order, func(name string, _ int) DeviceState {
		return m.devices[name].snapshot()
	})
}

// CloseAll closes every open stream; used on shutdown
func (m *DeviceManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, dev := range m.devices {
		if dev.sink != nil {
			dev.sink.Close()
			dev.sink = nil
		}
		dev.enabled = false
	}
}

func (d *outputDevice) snapshot() DeviceState {
	return DeviceState{
		Name:    d.name,
		Enabled: d.enabled,
		Muted:   d.muted,
		Fault:   d.fault,
		Volume:  d.volume,
		MuteKey: d.muteKey,
	}
}

// scaleFrame applies device volume and mute to a mixed frame
func scaleFrame(frame []int32, volume float64, muted bool) []int32 {
	out := make([]int32, len(frame))
	if muted {
		return out
	}
	for i, sample := range frame {
		out[i] = audio.Clamp24(int64(float64(sample) * volume))
	}
	return out
}
