package publisher

// State is the publisher connection state. Exactly one is active at a time.
type State int

const (
	// StateDisconnected is the idle state; Connect is legal here only.
	StateDisconnected State = iota
	// StateConnecting covers dial, handshake, and the command sequence.
	StateConnecting
	// StateConnected means the application connect sequence completed.
	StateConnected
	// StatePublishing accepts PublishVideo/PublishAudio.
	StatePublishing
	// StateError is terminal for the attempt; Disconnect to recover.
	StateError
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StatePublishing:
		return "publishing"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
