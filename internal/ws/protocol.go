package ws

import "encoding/json"

// Inbound events (client -> server).
const (
	EventSessionStart   = "session:start"
	EventScanResult     = "scan:result"
	EventQuantityAdjust = "quantity:adjust"
	EventSessionFinish  = "session:finish"
	EventPing           = "ping"
)

// Outbound events owned by the transport layer. The engine owns the rest of
// the outbound vocabulary.
const (
	EventWelcome = "welcome"
	EventPong    = "pong"
	EventError   = "error"
)

// Envelope is the wire frame for every message in both directions.
type Envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// inboundEnvelope defers payload decoding until the event is known.
type inboundEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type startRequest struct {
	SessionID string `json:"sessionId"`
}

type scanRequest struct {
	SessionID string `json:"sessionId"`
	ItemName  string `json:"itemName"`
	Quantity  *int   `json:"quantity"` // nil means the default of 1
}

type adjustRequest struct {
	SessionID string `json:"sessionId"`
	ItemName  string `json:"itemName"`
	Delta     int    `json:"delta"`
}

type finishRequest struct {
	SessionID string `json:"sessionId"`
}

type WelcomePayload struct {
	ConnectionID string `json:"connectionId"`
	ServerTime   int64  `json:"serverTime"`
}

type PongPayload struct {
	Time int64 `json:"time"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	ItemName  string `json:"itemName,omitempty"`
}
