package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	// ReasonAuth marks a missing or rejected credential. Raised before any
	// network activity when the configured key is blank.
	ReasonAuth ReasonCode = "auth"

	// ReasonConnect marks a failed dial or handshake with the recognition
	// endpoint.
	ReasonConnect ReasonCode = "connect"

	// ReasonSend marks a failed write on an open connection handle.
	ReasonSend ReasonCode = "send"

	// ReasonDecode marks a malformed inbound server event.
	ReasonDecode ReasonCode = "decode"

	// ReasonServer marks an error event reported by the recognition service.
	ReasonServer ReasonCode = "server"

	// ReasonReconnectExhausted marks the terminal failure after the maximum
	// number of consecutive reconnect attempts.
	ReasonReconnectExhausted ReasonCode = "reconnect_exhausted"

	// ReasonCapture marks a failure opening or running the audio capture
	// pipeline.
	ReasonCapture ReasonCode = "capture"

	// ReasonChatbox marks a failed OSC send to the chatbox endpoint.
	ReasonChatbox ReasonCode = "chatbox"
)
