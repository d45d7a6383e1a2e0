// ABOUTME: Key code type and names for remote key events
// ABOUTME: Codes follow the Linux input-event key numbering used by the capture server
package keys

import "fmt"

// Code identifies a physical key as reported by the remote capture server.
// The numbering is the Linux input-event key space.
type Code uint16

// Reserved means "no binding".
const Reserved Code = 0

// Common codes, used by defaults and tests. Any uint16 value from the server
// is valid; this table only exists so displays and logs can name keys.
const (
	Esc        Code = 1
	Num1       Code = 2
	Num2       Code = 3
	Num3       Code = 4
	Num4       Code = 5
	Num5       Code = 6
	Q          Code = 16
	W          Code = 17
	E          Code = 18
	R          Code = 19
	T          Code = 20
	P          Code = 25
	A          Code = 30
	S          Code = 31
	D          Code = 32
	F          Code = 33
	G          Code = 34
	LeftShift  Code = 42
	Z          Code = 44
	X          Code = 45
	C          Code = 46
	V          Code = 47
	B          Code = 48
	M          Code = 50
	Space      Code = 57
	F1         Code = 59
	F2         Code = 60
	RightShift Code = 54
	LeftCtrl   Code = 29
	LeftAlt    Code = 56
)

var names = map[Code]string{
	Reserved:   "NONE",
	Esc:        "ESC",
	Num1:       "1",
	Num2:       "2",
	Num3:       "3",
	Num4:       "4",
	Num5:       "5",
	Q:          "Q",
	W:          "W",
	E:          "E",
	R:          "R",
	T:          "T",
	P:          "P",
	A:          "A",
	S:          "S",
	D:          "D",
	F:          "F",
	G:          "G",
	LeftShift:  "LSHIFT",
	Z:          "Z",
	X:          "X",
	C:          "C",
	V:          "V",
	B:          "B",
	M:          "M",
	Space:      "SPACE",
	F1:         "F1",
	F2:         "F2",
	RightShift: "RSHIFT",
	LeftCtrl:   "LCTRL",
	LeftAlt:    "LALT",
}

// Name returns a display name for the code
func (c Code) Name() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("KEY_%d", uint16(c))
}
