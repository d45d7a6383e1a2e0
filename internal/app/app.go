// ABOUTME: Application wiring: config to components, save hooks, shutdown order
// ABOUTME: Owns the goroutines for the engine, link client, dispatcher, and hub
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Soundlink-Project/soundlink-go/internal/board"
	"github.com/Soundlink-Project/soundlink-go/internal/config"
	"github.com/Soundlink-Project/soundlink-go/internal/dispatch"
	"github.com/Soundlink-Project/soundlink-go/internal/keys"
	"github.com/Soundlink-Project/soundlink-go/internal/remote"
	"github.com/Soundlink-Project/soundlink-go/internal/statehub"
)

// Options configures the application beyond the persisted document
type Options struct {
	ConfigPath string
	StateAddr  string // listen address for the GUI status websocket
	SaveDelay  time.Duration

	// Backend overrides audio backend selection; nil picks malgo with an
	// oto fallback
	Backend board.Backend
}

// App owns every long-lived component and their shutdown order
type App struct {
	opts Options

	backend    board.Backend
	devices    *board.DeviceManager
	registry   *board.Registry
	engine     *board.Engine
	keymap     *keys.Keymap
	controller *dispatch.Controller
	client     *remote.Client
	hub        *statehub.Hub
	store      *config.Store

	mu        sync.Mutex
	shortcuts config.Shortcuts
	link      remote.Status
}

// New wires the application from the loaded config
func New(cfg config.Config, opts Options) (*App, error) {
	a := &App{
		opts:      opts,
		shortcuts: cfg.Shortcuts,
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = openBackend()
		if err != nil {
			return nil, err
		}
	}
	a.backend = backend

	a.devices = board.NewDeviceManager(backend)
	a.registry = board.NewRegistry(nil)
	a.engine = board.NewEngine(a.registry, a.devices)
	a.keymap = keys.NewKeymap()
	a.hub = statehub.NewHub(a.snapshot)
	a.store = config.NewStore(opts.ConfigPath, opts.SaveDelay, a.configSnapshot)

	if err := a.applyDevices(cfg.Devices); err != nil {
		log.Printf("Device restore incomplete: %v", err)
	}
	a.applySounds(cfg.Sounds)
	a.applyShortcuts(cfg.Shortcuts)

	// Mutations broadcast to the GUI and mark the config dirty
	a.registry.SetOnChange(func(s board.SoundState) {
		a.hub.Broadcast("sound_changed", soundPayload(s))
		a.store.Request()
	})
	a.devices.SetOnChange(func(d board.DeviceState) {
		a.hub.Broadcast("device_changed", devicePayload(d))
		a.store.Request()
	})

	a.controller = dispatch.NewController(a.keymap, a.engine, a.devices)
	a.controller.SetOnModifier(func(m dispatch.ModifierState) {
		a.hub.Broadcast("modifier_changed", map[string]string{"state": m.String()})
	})

	a.client = remote.NewClient(remote.Config{
		Addr:   cfg.ServerAddress,
		APIKey: cfg.APIKey,
		OnStatus: func(st remote.Status) {
			a.mu.Lock()
			a.link = st
			a.mu.Unlock()
			a.hub.Broadcast("link_status", linkPayload(st))
		},
	})

	return a, nil
}

// openBackend prefers miniaudio for multi-device output and falls back to
// the single default device when it cannot initialize
func openBackend() (board.Backend, error) {
	backend, err := board.NewMalgoBackend()
	if err == nil {
		return backend, nil
	}
	log.Printf("Multi-device audio unavailable (%v), falling back to default output", err)

	fallback, fbErr := board.NewOtoBackend()
	if fbErr != nil {
		return nil, fmt.Errorf("no audio backend available: %v; fallback: %w", err, fbErr)
	}
	return fallback, nil
}

// applyDevices enumerates and restores per-device settings by name. A
// configured device that is absent right now is seeded in fault state so its
// settings survive the next save and it recovers on a later enumeration.
func (a *App) applyDevices(configured []config.DeviceConfig) error {
	if _, err := a.devices.Enumerate(); err != nil {
		return err
	}

	for _, dc := range configured {
		absent := a.devices.Seed(dc.Name, dc.Enabled)
		if absent {
			log.Printf("Configured device %q not present, keeping its settings", dc.Name)
		}
		a.devices.SetVolume(dc.Name, dc.Volume)
		if dc.MuteKey != 0 {
			a.devices.SetMuteKey(dc.Name, keys.Code(dc.MuteKey))
			a.keymap.Bind(keys.Code(dc.MuteKey), keys.ToggleDeviceMute{DeviceName: dc.Name})
		}
		if dc.Enabled && !absent {
			if err := a.devices.SetEnabled(dc.Name, true); err != nil {
				log.Printf("Could not enable device %q: %v", dc.Name, err)
			}
		}
	}
	return nil
}

// applySounds registers configured sounds; decode failures keep the entry
// around flagged invalid so the GUI can fix the path
func (a *App) applySounds(configured []config.SoundConfig) {
	for _, sc := range configured {
		state, err := a.registry.Add(sc.Name, keys.Code(sc.Key), sc.Volume, sc.Path)
		if err != nil {
			log.Printf("Sound %q failed to load: %v", sc.Name, err)
		}
		if sc.Key != 0 {
			a.keymap.Bind(keys.Code(sc.Key), keys.PlaySound{SoundID: state.ID})
		}
	}
}

func (a *App) applyShortcuts(sc config.Shortcuts) {
	a.keymap.Bind(keys.Code(sc.Pause), keys.PauseAll{})
	a.keymap.Bind(keys.Code(sc.Stop), keys.StopAll{})
	a.keymap.Bind(keys.Code(sc.Modifier), keys.ArmModifier{})
}

// Run starts every component and blocks until the context is cancelled
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.engine.Run(runCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.hub.Run(runCtx)
	}()

	a.client.Connect()

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.controller.Run(runCtx, a.client.Events())
	}()

	var httpServer *http.Server
	if a.opts.StateAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/state", a.hub.Handler())
		httpServer = &http.Server{Addr: a.opts.StateAddr, Handler: mux}
		go func() {
			log.Printf("State hub listening on %s", a.opts.StateAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("State hub server failed: %v", err)
			}
		}()
	}

	<-runCtx.Done()

	// Shutdown order: stop event intake, drain dispatch, silence devices,
	// then persist
	a.client.Disconnect()
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		httpServer.Shutdown(shutdownCtx)
		shutdownCancel()
	}
	wg.Wait()

	a.devices.CloseAll()
	a.backend.Close()

	if err := a.store.Flush(); err != nil {
		log.Printf("Final config save failed: %v", err)
	}
	return nil
}

// RemoveSound deletes a sound and frees any key bound to it
func (a *App) RemoveSound(id string) error {
	if err := a.registry.Remove(id); err != nil {
		return err
	}
	a.keymap.UnbindAction(func(action keys.Action) bool {
		play, ok := action.(keys.PlaySound)
		return ok && play.SoundID == id
	})
	return nil
}

// Registry exposes the sound surface for the GUI collaborator
func (a *App) Registry() *board.Registry { return a.registry }

// Devices exposes the device surface for the GUI collaborator
func (a *App) Devices() *board.DeviceManager { return a.devices }

// Engine exposes playback commands for the GUI collaborator
func (a *App) Engine() *board.Engine { return a.engine }

// configSnapshot rebuilds the persisted document from live state
func (a *App) configSnapshot() config.Config {
	a.mu.Lock()
	shortcuts := a.shortcuts
	a.mu.Unlock()

	cfg := config.Config{
		ServerAddress: a.client.Addr(),
		APIKey:        a.client.APIKey(),
		Shortcuts:     shortcuts,
	}
	for _, d := range a.devices.Snapshot() {
		cfg.Devices = append(cfg.Devices, config.DeviceConfig{
			Name:    d.Name,
			Enabled: d.Enabled,
			Volume:  d.Volume,
			MuteKey: uint16(d.MuteKey),
		})
	}
	for _, s := range a.registry.Snapshot() {
		cfg.Sounds = append(cfg.Sounds, config.SoundConfig{
			Name:   s.Name,
			Path:   s.Path,
			Key:    uint16(s.Key),
			Volume: s.Volume,
		})
	}
	return cfg
}

// snapshot is the state_init payload for new hub clients
func (a *App) snapshot() interface{} {
	a.mu.Lock()
	link := a.link
	a.mu.Unlock()

	sounds := make([]map[string]interface{}, 0)
	for _, s := range a.registry.Snapshot() {
		sounds = append(sounds, soundPayload(s))
	}
	devices := make([]map[string]interface{}, 0)
	for _, d := range a.devices.Snapshot() {
		devices = append(devices, devicePayload(d))
	}

	return map[string]interface{}{
		"sounds":   sounds,
		"devices":  devices,
		"link":     linkPayload(link),
		"modifier": a.controller.Modifier().String(),
	}
}

func soundPayload(s board.SoundState) map[string]interface{} {
	return map[string]interface{}{
		"id":             s.ID,
		"name":           s.Name,
		"key":            uint16(s.Key),
		"volume":         s.Volume,
		"path":           s.Path,
		"invalid":        s.Invalid,
		"state":          s.State.String(),
		"offset_seconds": s.OffsetSeconds,
	}
}

func devicePayload(d board.DeviceState) map[string]interface{} {
	return map[string]interface{}{
		"name":     d.Name,
		"enabled":  d.Enabled,
		"muted":    d.Muted,
		"fault":    d.Fault,
		"volume":   d.Volume,
		"mute_key": uint16(d.MuteKey),
	}
}

func linkPayload(st remote.Status) map[string]interface{} {
	payload := map[string]interface{}{
		"phase":       st.Phase.String(),
		"auth_failed": st.AuthFailed,
	}
	if st.Err != nil {
		payload["error"] = st.Err.Error()
	}
	return payload
}
