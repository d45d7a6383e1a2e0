// ABOUTME: WAV/FLAC/Vorbis file decoders backed by beep
// ABOUTME: Drains a beep streamer into int32 samples in the 24-bit range
package decode

import (
	"fmt"
	"os"
	"strings"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// decodeBeep decodes wav/flac/ogg files. Beep streamers always yield stereo
// float64 frames, so the output here is interleaved stereo.
func decodeBeep(f *os.File, ext string) ([]int32, audio.Format, error) {
	var streamer beep.StreamSeekCloser
	var format beep.Format
	var err error

	switch strings.ToLower(ext) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	default:
		return nil, audio.Format{}, fmt.Errorf("unsupported extension %q", ext)
	}
	if err != nil {
		return nil, audio.Format{}, err
	}
	defer streamer.Close()

	samples, err := drainStreamer(streamer)
	if err != nil {
		return nil, audio.Format{}, err
	}

	return samples, audio.Format{
		SampleRate: int(format.SampleRate),
		Channels:   audio.Channels,
	}, nil
}

// drainStreamer pulls every frame out of a beep streamer
func drainStreamer(streamer beep.Streamer) ([]int32, error) {
	var samples []int32
	buf := make([][2]float64, 1024)

	for {
		n, ok := streamer.Stream(buf)
		for _, frame := range buf[:n] {
			samples = append(samples,
				audio.SampleFromFloat(frame[0]),
				audio.SampleFromFloat(frame[1]))
		}
		if !ok {
			break
		}
	}

	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("stream decode: %w", err)
	}

	return samples, nil
}
