// ABOUTME: Wire protocol for the remote key-capture server
// ABOUTME: Zero-delimited COBS frames carrying fixed little-endian input records
package remote

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Soundlink-Project/soundlink-go/internal/keys"
)

// Event types in the capture server's records (Linux input-event numbering).
const (
	EventTypeSync uint16 = 0
	EventTypeKey  uint16 = 1
)

// recordSize is the fixed size of a decoded event record:
// timestamp_us int64, type uint16, code uint16, value int32.
const recordSize = 16

// ErrMalformedFrame is returned for frames that fail COBS decoding or carry
// an unexpected payload size. Any malformed frame is a protocol error and
// tears down the connection.
var ErrMalformedFrame = errors.New("malformed event frame")

// InputEvent is one decoded record from the wire
type InputEvent struct {
	TimestampMicros int64
	Type            uint16
	Code            uint16
	Value           int32
}

// KeyEvent converts a key-type record to the dispatcher's event shape
func (e InputEvent) KeyEvent() keys.Event {
	return keys.Event{
		Code:            keys.Code(e.Code),
		Edge:            keys.Edge(e.Value),
		TimestampMicros: e.TimestampMicros,
	}
}

// DecodeFrame decodes one COBS frame (without its zero delimiter)
func DecodeFrame(frame []byte) (InputEvent, error) {
	payload, err := cobsDecode(frame)
	if err != nil {
		return InputEvent{}, err
	}
	if len(payload) != recordSize {
		return InputEvent{}, fmt.Errorf("%w: payload size %d", ErrMalformedFrame, len(payload))
	}

	return InputEvent{
		TimestampMicros: int64(binary.LittleEndian.Uint64(payload[0:8])),
		Type:            binary.LittleEndian.Uint16(payload[8:10]),
		Code:            binary.LittleEndian.Uint16(payload[10:12]),
		Value:           int32(binary.LittleEndian.Uint32(payload[12:16])),
	}, nil
}

// EncodeFrame encodes an event record as a COBS frame with its zero
// delimiter appended. Used by tests and by the companion capture server.
func EncodeFrame(e InputEvent) []byte {
	payload := make([]byte, recordSize)
	binary.LittleEndian.PutUint64(payload[0:8], uint64(e.TimestampMicros))
	binary.LittleEndian.PutUint16(payload[8:10], e.Type)
	binary.LittleEndian.PutUint16(payload[10:12], e.Code)
	binary.LittleEndian.PutUint32(payload[12:16], uint32(e.Value))

	frame := cobsEncode(payload)
	return append(frame, 0x00)
}

// cobsEncode performs consistent overhead byte stuffing so the payload can
// travel on a zero-delimited stream.
func cobsEncode(data []byte) []byte {
	out := make([]byte, 1, len(data)+2)
	codeIdx := 0
	code := byte(1)

	finishBlock := func() {
		out[codeIdx] = code
		out = append(out, 0)
		codeIdx = len(out) - 1
		code = 1
	}

	for _, b := range data {
		if b == 0 {
			finishBlock()
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			finishBlock()
		}
	}

	out[codeIdx] = code
	return out
}

// cobsDecode reverses cobsEncode. The input must not contain the delimiter.
func cobsDecode(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}

	out := make([]byte, 0, len(frame))
	i := 0
	for i < len(frame) {
		code := frame[i]
		if code == 0 {
			return nil, fmt.Errorf("%w: zero code byte", ErrMalformedFrame)
		}
		i++

		n := int(code) - 1
		if i+n > len(frame) {
			return nil, fmt.Errorf("%w: truncated block", ErrMalformedFrame)
		}
		out = append(out, frame[i:i+n]...)
		i += n

		if code != 0xFF && i < len(frame) {
			out = append(out, 0)
		}
	}

	return out, nil
}
