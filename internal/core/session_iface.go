package core

// SessionState is the lifecycle of one connection's participant.
// Unregistered -> Joined -> Left. Left is terminal.
type SessionState int32

const (
	StateUnregistered SessionState = iota
	StateJoined
	StateLeft
)

func (s SessionState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateJoined:
		return "joined"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}
