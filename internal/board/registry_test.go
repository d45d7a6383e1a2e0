// ABOUTME: Tests for sound registry CRUD, decode failures, and snapshots
package board

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

// stubLoader returns a fixed clip for any path except ones containing "bad"
func stubLoader(samples []int32) Loader {
	return func(path string) ([]int32, error) {
		if len(path) >= 3 && path[:3] == "bad" {
			return nil, fmt.Errorf("decode failed for %s", path)
		}
		out := make([]int32, len(samples))
		copy(out, samples)
		return out, nil
	}
}

func TestRegistryAddAndSnapshot(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1, 2, 3, 4}))

	state, err := r.Add("Airhorn", keys.A, 0.8, "airhorn.mp3")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if state.ID == "" {
		t.Error("Expected generated ID")
	}
	if state.Name != "Airhorn" || state.Key != keys.A || state.Volume != 0.8 {
		t.Errorf("Unexpected state: %+v", state)
	}
	if state.State != Stopped {
		t.Errorf("New sound should be Stopped, got %v", state.State)
	}

	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].ID != state.ID {
		t.Errorf("Snapshot mismatch: %+v", snap)
	}
}

func TestRegistryAddClampsVolume(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1}))

	state, err := r.Add("Loud", keys.B, 3.5, "loud.wav")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if state.Volume != 1.0 {
		t.Errorf("Expected volume clamped to 1.0, got %f", state.Volume)
	}

	state, err = r.Add("Negative", keys.C, -0.2, "neg.wav")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if state.Volume != 0.0 {
		t.Errorf("Expected volume clamped to 0.0, got %f", state.Volume)
	}
}

func TestRegistryAddInvalidSourceStillCreates(t *testing.T) {
	r := NewRegistry(stubLoader(nil))

	state, err := r.Add("Broken", keys.D, 1.0, "bad.mp3")
	if !errors.Is(err, ErrInvalidSoundSource) {
		t.Fatalf("Expected ErrInvalidSoundSource, got %v", err)
	}
	if !state.Invalid {
		t.Error("Entry should be flagged invalid")
	}

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Invalid entry should still exist, got %d entries", len(snap))
	}
}

func TestRegistryUpdateFields(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1, 2}))
	state, _ := r.Add("Old", keys.A, 0.5, "old.wav")

	name := "New"
	key := keys.B
	vol := 0.9
	if err := r.Update(state.ID, UpdateFields{Name: &name, Key: &key, Volume: &vol}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := r.Get(state.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "New" || got.Key != keys.B || got.Volume != 0.9 {
		t.Errorf("Update not applied: %+v", got)
	}
}

func TestRegistryUpdatePathStopsPlayback(t *testing.T) {
	r := NewRegistry(stubLoader(make([]int32, 4000)))
	e := NewEngine(r, NewDeviceManager(newFakeBackend()))

	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")
	if err := e.Play(state.ID); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	path := "other.wav"
	if err := r.Update(state.ID, UpdateFields{Path: &path}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := r.Get(state.ID)
	if got.State != Stopped {
		t.Errorf("Path change should stop playback, got %v", got.State)
	}
	if got.OffsetSeconds != 0 {
		t.Errorf("Path change should reset offset, got %f", got.OffsetSeconds)
	}
}

func TestRegistryUpdateBadPathFlagsInvalid(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1}))
	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")

	path := "bad.wav"
	err := r.Update(state.ID, UpdateFields{Path: &path})
	if !errors.Is(err, ErrInvalidSoundSource) {
		t.Fatalf("Expected ErrInvalidSoundSource, got %v", err)
	}

	got, _ := r.Get(state.ID)
	if !got.Invalid {
		t.Error("Entry should be flagged invalid after bad path update")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1}))
	state, _ := r.Add("Gone", keys.A, 1.0, "gone.wav")

	if err := r.Remove(state.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := r.Get(state.ID); !errors.Is(err, ErrStaleReference) {
		t.Errorf("Expected ErrStaleReference after remove, got %v", err)
	}
	if err := r.Remove(state.ID); !errors.Is(err, ErrStaleReference) {
		t.Errorf("Double remove should return ErrStaleReference, got %v", err)
	}
}

func TestRegistryReorder(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1}))
	a, _ := r.Add("A", keys.Num1, 1.0, "a.wav")
	b, _ := r.Add("B", keys.Num2, 1.0, "b.wav")
	c, _ := r.Add("C", keys.Num3, 1.0, "c.wav")

	if err := r.Reorder(c.ID, -1); err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}
	snap := r.Snapshot()
	wantOrder := []string{a.ID, c.ID, b.ID}
	for i, want := range wantOrder {
		if snap[i].ID != want {
			t.Errorf("Position %d: got %s, want %s", i, snap[i].ID, want)
		}
	}

	// Out of bounds moves are no-ops
	if err := r.Reorder(a.ID, -1); err != nil {
		t.Fatalf("Reorder at boundary failed: %v", err)
	}
	if got := r.Snapshot()[0].ID; got != a.ID {
		t.Errorf("Boundary reorder should be a no-op, first is %s", got)
	}
}

func TestRegistryOnChangeFires(t *testing.T) {
	r := NewRegistry(stubLoader([]int32{1}))

	var calls []string
	r.SetOnChange(func(s SoundState) {
		calls = append(calls, s.Name)
	})

	state, _ := r.Add("First", keys.A, 1.0, "f.wav")
	name := "Renamed"
	r.Update(state.ID, UpdateFields{Name: &name})
	r.Remove(state.ID)

	if len(calls) != 3 {
		t.Fatalf("Expected 3 change callbacks, got %d", len(calls))
	}
	if calls[0] != "First" || calls[1] != "Renamed" {
		t.Errorf("Unexpected callback order: %v", calls)
	}
}
