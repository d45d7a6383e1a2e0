// ABOUTME: MP3 file decoder
// ABOUTME: Decodes MP3 data to int32 samples using go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Soundlink-Project/soundlink-go/internal/audio"
	mp3 "github.com/hajimehoshi/go-mp3"
)

// decodeMP3 decodes a whole MP3 stream. go-mp3 always emits 16-bit
// little-endian stereo regardless of the source channel layout.
func decodeMP3(r io.Reader) ([]int32, audio.Format, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("create mp3 decoder: %w", err)
	}

	var pcm []byte
	buf := make([]byte, 8192)
	for {
		n, err := decoder.Read(buf)
		pcm = append(pcm, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, audio.Format{}, fmt.Errorf("mp3 decode: %w", err)
		}
	}

	samples := make([]int32, len(pcm)/2)
	for i := range samples {
		sample16 := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	format := audio.Format{
		SampleRate: decoder.SampleRate(),
		Channels:   2,
	}

	return samples, format, nil
}
