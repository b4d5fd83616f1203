package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello     = "HELLO"
	TypeWelcome   = "WELCOME"
	TypeState     = "STATE"
	TypeGesture   = "GESTURE"
	TypeOrbit     = "ORBIT"
	TypeNewPuzzle = "NEW_PUZZLE"
	TypeCheck     = "CHECK"
	TypeResult    = "RESULT"
	TypeOutcome   = "OUTCOME"
	TypeError     = "ERROR"
)

// Gesture kinds.
const (
	GesturePrimary   = "PRIMARY"
	GestureSecondary = "SECONDARY"
	GestureHover     = "HOVER"
)

// Orbit phases.
const (
	OrbitBegin = "BEGIN"
	OrbitMove  = "MOVE"
	OrbitEnd   = "END"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
