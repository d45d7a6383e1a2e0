// ABOUTME: Debounced config persistence; frequent mutations coalesce to one write
package config

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSaveDelay batches rapid mutations into a single disk write
const DefaultSaveDelay = 30 * time.Second

// Snapshot produces the current document from the live board state
type Snapshot func() Config

// Store persists the config with a save debounce. Request marks the config
// dirty; the actual write happens at most once per delay window. Flush
// writes immediately and is called on shutdown.
type Store struct {
	path     string
	delay    time.Duration
	snapshot Snapshot

	mu        sync.Mutex
	dirty     bool
	lastSaved []byte
	timer     *time.Timer
}

// NewStore creates a store writing to path. A zero delay uses the default.
func NewStore(path string, delay time.Duration, snapshot Snapshot) *Store {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Store{
		path:     path,
		delay:    delay,
		snapshot: snapshot,
	}
}

// Request schedules a save. Repeated requests within the delay window
// coalesce into one write.
func (s *Store) Request() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = true
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.Flush(); err != nil {
			log.Printf("Config autosave failed: %v", err)
		}
	})
}

// Flush writes the current snapshot now if it is dirty. A document identical
// to the last write is skipped.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.dirty = false
	snapshot := s.snapshot
	s.mu.Unlock()

	data, err := yaml.Marshal(snapshot())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	s.mu.Lock()
	unchanged := bytes.Equal(data, s.lastSaved)
	if !unchanged {
		s.lastSaved = data
	}
	s.mu.Unlock()

	if unchanged {
		return nil
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", s.path, err)
	}
	log.Printf("Config saved to %s", s.path)
	return nil
}
