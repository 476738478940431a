package live

import "encoding/json"

const (
	EventJoin       = "join-user-room"
	EventLeave      = "leave-user-room"
	EventJoined     = "joined"
	EventLeft       = "left"
	EventURLClicked = "url-clicked"
	EventError      = "error"
)

// Message is the envelope for both directions of the live channel.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// inbound is a client message with data left raw until the event is known.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ErrorData is sent with EventError.
type ErrorData struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
