// ABOUTME: Tests for the linear resampler
// ABOUTME: Tests rate conversion ratios and passthrough behavior
package resample

import "testing"

func TestConvertPassthroughSameRate(t *testing.T) {
	input := []int32{1, 2, 3, 4}
	output := Convert(input, 48000, 48000, 2)
	if len(output) != len(input) {
		t.Fatalf("expected passthrough length %d, got %d", len(input), len(output))
	}
	for i := range input {
		if output[i] != input[i] {
			t.Errorf("sample %d changed: %d -> %d", i, input[i], output[i])
		}
	}
}

func TestConvertUpsampleDoublesFrames(t *testing.T) {
	// 4 stereo frames at 24kHz -> ~8 frames at 48kHz
	input := []int32{0, 0, 100, 100, 200, 200, 300, 300}
	output := Convert(input, 24000, 48000, 2)

	outputFrames := len(output) / 2
	if outputFrames != 8 {
		t.Fatalf("expected 8 output frames, got %d", outputFrames)
	}

	// First frame must match exactly, interpolated frames lie between neighbors
	if output[0] != 0 || output[1] != 0 {
		t.Errorf("expected first frame unchanged, got %d,%d", output[0], output[1])
	}
	if output[2] != 50 {
		t.Errorf("expected interpolated sample 50, got %d", output[2])
	}
}

func TestConvertDownsampleHalvesFrames(t *testing.T) {
	input := make([]int32, 200) // 100 stereo frames
	for i := range input {
		input[i] = int32(i)
	}
	output := Convert(input, 48000, 24000, 2)

	if len(output)/2 != 50 {
		t.Fatalf("expected 50 output frames, got %d", len(output)/2)
	}
}

func TestConvertTinyInput(t *testing.T) {
	// A single frame cannot be interpolated; must not panic
	input := []int32{5, 5}
	output := Convert(input, 44100, 48000, 2)
	if len(output) != 2 {
		t.Errorf("expected tiny input passthrough, got %d samples", len(output))
	}
}
