package types

// ClientMessage is the tagged union a socket client may send. Anything with
// an unknown Type is rejected at the boundary rather than ignored.
type ClientMessage struct {
	Type   string   `json:"type"` // "subscribe" | "ping"
	Lane   string   `json:"lane,omitempty"`
	Events []string `json:"events,omitempty"`
}

const (
	MsgSubscribe = "subscribe"
	MsgPing      = "ping"
)

// ErrorMessage is pushed back when a client message is malformed.
type ErrorMessage struct {
	Type  string `json:"type"` // always "ERROR"
	Error string `json:"error"`
}

type PongMessage struct {
	Type string `json:"type"` // always "PONG"
}
