// ABOUTME: Decodes sound files to interleaved stereo int32 samples at the engine rate
// ABOUTME: Dispatches on file extension; mp3 via go-mp3, wav/flac/ogg via beep
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/Soundlink-Project/soundlink-go/internal/audio/resample"
)

// Load decodes the sound file at path into interleaved stereo int32 samples
// at the engine sample rate. The whole clip is decoded up front so the mix
// loop only ever touches pre-decoded buffers.
func Load(path string) ([]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var samples []int32
	var format audio.Format

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		samples, format, err = decodeMP3(f)
	case ".wav", ".flac", ".ogg", ".oga":
		samples, format, err = decodeBeep(f, filepath.Ext(path))
	default:
		err = fmt.Errorf("unsupported sound format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if format.Channels == 1 {
		samples = monoToStereo(samples)
		format.Channels = audio.Channels
	}

	if format.SampleRate != audio.SampleRate {
		samples = resample.Convert(samples, format.SampleRate, audio.SampleRate, audio.Channels)
	}

	return samples, nil
}

// monoToStereo duplicates each sample into both channels
func monoToStereo(samples []int32) []int32 {
	out := make([]int32, len(samples)*2)
	for i, s := range samples {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}
