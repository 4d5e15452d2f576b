package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Scope controls how far broadcasts fan out.
type Scope string

const (
	// ScopeGlobal delivers every broadcast to every connected listener. Any
	// dashboard can watch any session; this is the default policy.
	ScopeGlobal Scope = "global"
	// ScopeSession delivers a broadcast only to connections that have touched
	// the session it concerns.
	ScopeSession Scope = "session"
)

var ErrTooManyConnections = errors.New("connection limit reached")

type client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	mu       sync.Mutex
	sessions map[string]bool
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.hub.Remove(c)
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

func (c *client) touch(sessionID string) {
	c.mu.Lock()
	c.sessions[sessionID] = true
	c.mu.Unlock()
}

func (c *client) touched(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionID]
}

// Hub tracks connected listeners and fans engine events out to them. Messages
// are best-effort: a listener that cannot keep up is dropped, and nothing is
// replayed to late joiners.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*client
	scope    Scope
	maxConns int
}

func NewHub(scope Scope, maxConns int) *Hub {
	if scope == "" {
		scope = ScopeGlobal
	}
	return &Hub{
		clients:  make(map[string]*client),
		scope:    scope,
		maxConns: maxConns,
	}
}

// Add registers a connection and starts its write pump. maxConns of 0 means
// unlimited.
func (h *Hub) Add(conn *websocket.Conn) (*client, error) {
	h.mu.Lock()
	if h.maxConns > 0 && len(h.clients) >= h.maxConns {
		h.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	c := &client{
		id:       uuid.NewString(),
		conn:     conn,
		hub:      h,
		send:     make(chan []byte, 64),
		sessions: make(map[string]bool),
	}
	h.clients[c.id] = c
	h.mu.Unlock()

	go c.writePump()
	return c, nil
}

func (h *Hub) Remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Bind associates a connection with a session for session-scoped fanout.
// Implements engine.Emitter.
func (h *Hub) Bind(connID, sessionID string) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if ok {
		c.touch(sessionID)
	}
}

// Broadcast fans an event out to listeners in scope. Implements engine.Emitter.
func (h *Hub) Broadcast(sessionID, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		log.Printf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if h.scope == ScopeSession && sessionID != "" && !c.touched(sessionID) {
			continue
		}
		h.deliver(c, data)
	}
}

// Direct sends an event to one connection only. Implements engine.Emitter.
func (h *Hub) Direct(connID, event string, payload any) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		log.Printf("direct marshal error: %v", err)
		return
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.deliver(c, data)
}

func (h *Hub) deliver(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		// Client can't keep up, disconnect it
		log.Printf("ws client %s too slow, disconnecting", c.id)
		h.Remove(c)
	}
}
