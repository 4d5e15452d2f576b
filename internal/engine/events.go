package engine

import "github.com/scanrally/backend/internal/session"

// Event names emitted by the engine. Broadcast events go to every listener in
// scope; confirmed events are routed only to the initiating connection.
const (
	EventSessionStarted   = "session:started"
	EventSessionConfirmed = "session:confirmed"
	EventScanUpdate       = "scan:update"
	EventInventoryUpdate  = "inventory:update"
	EventScanConfirmed    = "scan:confirmed"
	EventQuantityUpdated  = "quantity:updated"
	EventSessionFinished  = "session:finished"
	EventInventoryReset   = "inventory:reset"
)

// Emitter delivers engine events to connected listeners. Broadcast fans out
// according to the configured scope; Direct targets one connection. Bind
// associates a connection with a session before the first broadcast about it,
// so session-scoped fanout can include the initiator. Delivery is best-effort
// and must not block the caller.
type Emitter interface {
	Bind(connID, sessionID string)
	Broadcast(sessionID, event string, payload any)
	Direct(connID, event string, payload any)
}

type StartedPayload struct {
	SessionID string `json:"sessionId"`
	StartTime int64  `json:"startTime"`
}

type ConfirmedPayload struct {
	SessionID string `json:"sessionId"`
}

type ScanUpdatePayload struct {
	SessionID string             `json:"sessionId"`
	Item      *session.ItemEntry `json:"item"`
	Session   *session.Session   `json:"session"`
}

// InventoryUpdatePayload is the lightweight delta sent alongside every full
// snapshot, cheap enough for leaderboards that only track totals.
type InventoryUpdatePayload struct {
	SessionID   string `json:"sessionId"`
	TotalItems  int    `json:"totalItems"`
	TotalPoints int    `json:"totalPoints"`
	ItemCount   int    `json:"itemCount"`
}

type ScanConfirmedPayload struct {
	SessionID string `json:"sessionId"`
	ItemName  string `json:"itemName"`
	Quantity  int    `json:"quantity"`
}

type QuantityUpdatedPayload struct {
	SessionID string           `json:"sessionId"`
	ItemName  string           `json:"itemName"`
	Quantity  int              `json:"quantity"`
	Session   *session.Session `json:"session"`
}

type ResetPayload struct {
	SessionID string `json:"sessionId"`
}
