// ABOUTME: Audio sample type definitions and conversions
// ABOUTME: All mixing happens on interleaved stereo int32 samples in 24-bit range
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Engine format. Every decoded clip is normalized to this before mixing so
// the mix loop never has to care about source formats.
const (
	SampleRate = 48000
	Channels   = 2
)

// FramesPerSecond is the mix cadence; one frame is 10ms of audio.
const FramesPerSecond = 100

// FrameSamples is the number of interleaved samples in one mixed frame.
const FrameSamples = SampleRate / FramesPerSecond * Channels

// Format describes decoded audio data
type Format struct {
	SampleRate int
	Channels   int
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit device output)
func SampleToInt16(sample int32) int16 {
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromFloat converts a float64 sample in [-1, 1] to the 24-bit range
func SampleFromFloat(sample float64) int32 {
	if sample > 1.0 {
		sample = 1.0
	} else if sample < -1.0 {
		sample = -1.0
	}
	return int32(sample * Max24Bit)
}

// Clamp24 clamps an accumulated sample to the 24-bit range
func Clamp24(sample int64) int32 {
	if sample > Max24Bit {
		return Max24Bit
	}
	if sample < Min24Bit {
		return Min24Bit
	}
	return int32(sample)
}

// ClampVolume clamps a volume to [0.0, 1.0]
func ClampVolume(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}

// OffsetSeconds converts an interleaved sample offset to seconds
func OffsetSeconds(offset int) float64 {
	return float64(offset) / float64(SampleRate*Channels)
}
