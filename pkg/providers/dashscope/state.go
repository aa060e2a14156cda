package dashscope

// State is the lifecycle phase of a Session.
type State string

const (
	StateIdle         State = "idle"
	StateStarting     State = "starting"
	StateNegotiating  State = "negotiating"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateStopping     State = "stopping"
)

// validTransitions enumerates the lifecycle graph. The session refuses any
// edge not listed here, so a misplaced transition shows up in the logs
// instead of corrupting state.
var validTransitions = map[State][]State{
	StateIdle:         {StateStarting},
	StateStarting:     {StateNegotiating, StateStopping},
	StateNegotiating:  {StateStreaming, StateReconnecting, StateStopping},
	StateStreaming:    {StateReconnecting, StateStopping},
	StateReconnecting: {StateNegotiating, StateStopping},
	StateStopping:     {StateIdle},
}

func transitionValid(from, to State) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Snapshot is a point-in-time view of a session, safe to hand to callbacks
// and status endpoints.
type Snapshot struct {
	State             State  `json:"state"`
	Language          string `json:"language"`
	Negotiated        bool   `json:"negotiated"`
	ReconnectAttempts int    `json:"reconnect_attempts"`
	DroppedFrames     uint64 `json:"dropped_frames"`
}
