// ABOUTME: Tests for COBS framing and event record decoding
// ABOUTME: Covers round trips, zero-heavy payloads, and malformed frames
package remote

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

func TestFrameRoundTrip(t *testing.T) {
	in := InputEvent{
		TimestampMicros: 1724778000123456,
		Type:            EventTypeKey,
		Code:            57,
		Value:           0,
	}

	frame := EncodeFrame(in)

	if frame[len(frame)-1] != 0x00 {
		t.Fatal("frame must end with the zero delimiter")
	}
	if bytes.Contains(frame[:len(frame)-1], []byte{0x00}) {
		t.Fatal("COBS body must not contain zero bytes")
	}

	out, err := DecodeFrame(frame[:len(frame)-1])
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestFrameRoundTripZeroHeavy(t *testing.T) {
	// All-zero record stresses the COBS block logic
	in := InputEvent{}
	out, err := DecodeFrame(bytes.TrimSuffix(EncodeFrame(in), []byte{0x00}))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: %+v != %+v", out, in)
	}
}

func TestDecodeFrameMalformed(t *testing.T) {
	cases := [][]byte{
		{},                         // empty
		{0x00, 0x01},               // zero code byte
		{0x09, 0x01, 0x02},         // truncated block
		{0x02, 0x41},               // valid COBS, wrong payload size
	}
	for i, frame := range cases {
		if _, err := DecodeFrame(frame); !errors.Is(err, ErrMalformedFrame) {
			t.Errorf("case %d: expected ErrMalformedFrame, got %v", i, err)
		}
	}
}

func TestKeyEventConversion(t *testing.T) {
	ev := InputEvent{Type: EventTypeKey, Code: 30, Value: 1, TimestampMicros: 99}.KeyEvent()
	if ev.Code != keys.A || ev.Edge != keys.EdgePress || ev.TimestampMicros != 99 {
		t.Errorf("unexpected conversion: %+v", ev)
	}
}
