package scanner

import "strconv"

// Prev records what the scanner saw last before the current position.
type Prev uint8

const (
	Normal Prev = iota
	PrecededByWhitespace
	PrecededByOpenBrace
)

func (p Prev) String() string {
	switch p {
	case Normal:
		return "Normal"
	case PrecededByWhitespace:
		return "PrecededByWhitespace"
	case PrecededByOpenBrace:
		return "PrecededByOpenBrace"
	}
	return "Prev(" + strconv.Itoa(int(p)) + ")"
}

// SerializedSize is the number of bytes State.Serialize writes.
const SerializedSize = 1

// State is the scanner memory persisted between token boundaries.
type State struct {
	Prev Prev
}

// Serialize writes the state into buf and returns the number of bytes
// written. buf must hold at least SerializedSize bytes.
func (s State) Serialize(buf []byte) int {
	buf[0] = byte(s.Prev)
	return SerializedSize
}

func (s State) Bytes() []byte {
	buf := make([]byte, SerializedSize)
	s.Serialize(buf)
	return buf
}

// Deserialize restores a state. An empty buffer means no history and yields
// Normal; only the first byte of a longer buffer is read. Unknown tags are
// kept as-is so that a save/restore cycle never changes the value.
func Deserialize(buf []byte) State {
	if len(buf) == 0 {
		return State{Prev: Normal}
	}
	return State{Prev: Prev(buf[0])}
}
