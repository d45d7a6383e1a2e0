// ABOUTME: Key event type produced by the remote link client
// ABOUTME: Press/release/repeat edges matching the capture server's value field
package keys

// Edge is the transition reported for a key
type Edge uint8

const (
	EdgeRelease Edge = 0
	EdgePress   Edge = 1
	EdgeRepeat  Edge = 2
)

// Event is one key transition received from the remote capture server
type Event struct {
	Code Code
	Edge Edge

	// TimestampMicros is the capture-side timestamp, informational only
	TimestampMicros int64
}

func (e Edge) String() string {
	switch e {
	case EdgeRelease:
		return "release"
	case EdgePress:
		return "press"
	case EdgeRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}
