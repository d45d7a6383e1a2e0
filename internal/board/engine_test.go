// ABOUTME: Tests for the mix engine: state transitions, mixing, and clipping
package board

import (
	"errors"
	"testing"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

// constantClip builds an interleaved clip of the given frame count filled
// with one sample value
func constantClip(frames int, value int32) []int32 {
	samples := make([]int32, frames*audio.Channels)
	for i := range samples {
		samples[i] = value
	}
	return samples
}

func newTestEngine(t *testing.T, clip []int32) (*Engine, *Registry, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	r := NewRegistry(stubLoader(clip))
	m := newTestManager(t, backend)
	if err := m.SetEnabled("Speakers", true); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	return NewEngine(r, m), r, backend
}

func TestEnginePlayMixesToDevice(t *testing.T) {
	e, r, backend := newTestEngine(t, constantClip(audio.FrameSamples/audio.Channels*3, 100))
	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")

	if err := e.Play(state.ID); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	e.Step()

	frame := backend.sink("Speakers").lastFrame()
	if frame[0] != 100 {
		t.Errorf("Expected mixed sample 100, got %d", frame[0])
	}
}

func TestEngineSoundVolumeApplied(t *testing.T) {
	e, r, backend := newTestEngine(t, constantClip(audio.FrameSamples, 1000))
	state, _ := r.Add("Quiet", keys.A, 0.25, "quiet.wav")

	e.Play(state.ID)
	e.Step()

	if got := backend.sink("Speakers").lastFrame()[0]; got != 250 {
		t.Errorf("Expected quarter-volume sample 250, got %d", got)
	}
}

func TestEngineConcurrentSoundsSum(t *testing.T) {
	e, r, backend := newTestEngine(t, constantClip(audio.FrameSamples, 300))
	a, _ := r.Add("A", keys.Num1, 1.0, "a.wav")
	b, _ := r.Add("B", keys.Num2, 1.0, "b.wav")

	e.Play(a.ID)
	e.Play(b.ID)
	e.Step()

	if got := backend.sink("Speakers").lastFrame()[0]; got != 600 {
		t.Errorf("Expected summed sample 600, got %d", got)
	}
}

func TestEngineMixClipsTo24Bit(t *testing.T) {
	e, r, backend := newTestEngine(t, constantClip(audio.FrameSamples, audio.Max24Bit))
	a, _ := r.Add("A", keys.Num1, 1.0, "a.wav")
	b, _ := r.Add("B", keys.Num2, 1.0, "b.wav")

	e.Play(a.ID)
	e.Play(b.ID)
	e.Step()

	if got := backend.sink("Speakers").lastFrame()[0]; got != audio.Max24Bit {
		t.Errorf("Expected clipped sample %d, got %d", audio.Max24Bit, got)
	}
}

func TestEngineNaturalCompletion(t *testing.T) {
	// Clip shorter than one frame finishes on the first step
	e, r, _ := newTestEngine(t, constantClip(10, 50))
	state, _ := r.Add("Short", keys.A, 1.0, "short.wav")

	e.Play(state.ID)
	e.Step()

	got, _ := r.Get(state.ID)
	if got.State != Stopped {
		t.Errorf("Finished sound should be Stopped, got %v", got.State)
	}
	if got.OffsetSeconds != 0 {
		t.Errorf("Finished sound should reset its offset, got %f", got.OffsetSeconds)
	}
}

func TestEnginePlayRestartsFromZero(t *testing.T) {
	e, r, _ := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	state, _ := r.Add("Long", keys.A, 1.0, "long.wav")

	e.Play(state.ID)
	e.Step()
	e.Step()

	before, _ := r.Get(state.ID)
	if before.OffsetSeconds == 0 {
		t.Fatal("Expected nonzero offset after two frames")
	}

	e.Play(state.ID)
	after, _ := r.Get(state.ID)
	if after.OffsetSeconds != 0 {
		t.Errorf("Play should restart from offset zero, got %f", after.OffsetSeconds)
	}
	if after.State != Playing {
		t.Errorf("Restarted sound should be Playing, got %v", after.State)
	}
}

func TestEngineTogglePause(t *testing.T) {
	e, r, backend := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")

	e.Play(state.ID)
	e.Step()

	if err := e.TogglePause(state.ID); err != nil {
		t.Fatalf("TogglePause failed: %v", err)
	}
	got, _ := r.Get(state.ID)
	if got.State != Paused {
		t.Fatalf("Expected Paused, got %v", got.State)
	}
	offset := got.OffsetSeconds

	// Paused sounds contribute silence
	e.Step()
	if sample := backend.sink("Speakers").lastFrame()[0]; sample != 0 {
		t.Errorf("Paused sound should mix silence, got %d", sample)
	}
	got, _ = r.Get(state.ID)
	if got.OffsetSeconds != offset {
		t.Errorf("Pause should hold the offset, got %f want %f", got.OffsetSeconds, offset)
	}

	// Toggle again resumes from the held offset
	e.TogglePause(state.ID)
	got, _ = r.Get(state.ID)
	if got.State != Playing {
		t.Errorf("Expected Playing after resume, got %v", got.State)
	}
	if got.OffsetSeconds != offset {
		t.Errorf("Resume should keep the offset, got %f want %f", got.OffsetSeconds, offset)
	}
}

func TestEngineTogglePauseOnStoppedIsNoop(t *testing.T) {
	e, r, _ := newTestEngine(t, constantClip(audio.FrameSamples, 10))
	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")

	if err := e.TogglePause(state.ID); err != nil {
		t.Fatalf("TogglePause on stopped sound failed: %v", err)
	}
	got, _ := r.Get(state.ID)
	if got.State != Stopped {
		t.Errorf("Stopped sound should stay Stopped, got %v", got.State)
	}
}

func TestEngineStop(t *testing.T) {
	e, r, _ := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")

	e.Play(state.ID)
	e.Step()
	if err := e.Stop(state.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	got, _ := r.Get(state.ID)
	if got.State != Stopped || got.OffsetSeconds != 0 {
		t.Errorf("Stop should reset to Stopped at offset zero, got %+v", got)
	}
}

func TestEnginePauseAllReturnsPausedSet(t *testing.T) {
	e, r, _ := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	a, _ := r.Add("A", keys.Num1, 1.0, "a.wav")
	b, _ := r.Add("B", keys.Num2, 1.0, "b.wav")
	c, _ := r.Add("C", keys.Num3, 1.0, "c.wav")

	e.Play(a.ID)
	e.Play(b.ID)
	e.Play(c.ID)
	e.TogglePause(c.ID) // already paused, must not be in the returned set

	paused := e.PauseAll()
	if len(paused) != 2 {
		t.Fatalf("Expected 2 paused ids, got %v", paused)
	}

	e.ResumeSounds(paused)
	for _, id := range []string{a.ID, b.ID} {
		got, _ := r.Get(id)
		if got.State != Playing {
			t.Errorf("Sound %s should be Playing after resume, got %v", id, got.State)
		}
	}
	// c was paused individually and must stay paused
	got, _ := r.Get(c.ID)
	if got.State != Paused {
		t.Errorf("Individually paused sound should stay Paused, got %v", got.State)
	}
}

func TestEngineResumeSkipsStaleAndRestarted(t *testing.T) {
	e, r, _ := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	a, _ := r.Add("A", keys.Num1, 1.0, "a.wav")
	b, _ := r.Add("B", keys.Num2, 1.0, "b.wav")

	e.Play(a.ID)
	e.Play(b.ID)
	paused := e.PauseAll()

	r.Remove(a.ID)
	e.Play(b.ID) // user restarted it while paused

	e.ResumeSounds(paused) // must not panic or double-start
	got, _ := r.Get(b.ID)
	if got.State != Playing {
		t.Errorf("Restarted sound should remain Playing, got %v", got.State)
	}
}

func TestEngineStopAllResetsEverything(t *testing.T) {
	e, r, _ := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	a, _ := r.Add("A", keys.Num1, 1.0, "a.wav")
	b, _ := r.Add("B", keys.Num2, 1.0, "b.wav")

	e.Play(a.ID)
	e.Play(b.ID)
	e.Step()
	e.TogglePause(b.ID)

	e.StopAll()
	for _, id := range []string{a.ID, b.ID} {
		got, _ := r.Get(id)
		if got.State != Stopped || got.OffsetSeconds != 0 {
			t.Errorf("StopAll should reset %s, got %+v", id, got)
		}
	}
	if e.AnyPlaying() {
		t.Error("AnyPlaying should be false after StopAll")
	}
}

func TestEnginePlayInvalidSound(t *testing.T) {
	e, r, _ := newTestEngine(t, nil)
	state, _ := r.Add("Broken", keys.A, 1.0, "bad.wav")

	err := e.Play(state.ID)
	if !errors.Is(err, ErrInvalidSoundSource) {
		t.Fatalf("Expected ErrInvalidSoundSource, got %v", err)
	}
	got, _ := r.Get(state.ID)
	if got.State != Stopped {
		t.Errorf("Invalid sound must not start playing, got %v", got.State)
	}
}

func TestEnginePlayStaleID(t *testing.T) {
	e, _, _ := newTestEngine(t, constantClip(10, 1))

	if err := e.Play("no-such-id"); !errors.Is(err, ErrStaleReference) {
		t.Errorf("Expected ErrStaleReference, got %v", err)
	}
}

func TestEngineDisableMidPlaybackKeepsAdvancing(t *testing.T) {
	e, r, backend := newTestEngine(t, constantClip(audio.FrameSamples*4, 10))
	state, _ := r.Add("Clip", keys.A, 1.0, "clip.wav")

	e.Play(state.ID)
	e.Step()

	m := e.devices
	m.SetEnabled("Speakers", false)
	e.Step()

	// Playback advanced even with no device attached
	got, _ := r.Get(state.ID)
	if got.OffsetSeconds <= 0.01 {
		t.Errorf("Playback should advance without devices, offset %f", got.OffsetSeconds)
	}

	m.SetEnabled("Speakers", true)
	before := backend.sink("Speakers").frameCount()
	e.Step()
	if backend.sink("Speakers").frameCount() != before+1 {
		t.Error("Re-enabled device should receive frames again")
	}
}
