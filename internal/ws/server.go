package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/scanrally/backend/internal/engine"
	"github.com/scanrally/backend/internal/session"
)

type Server struct {
	engine         *engine.Engine
	store          *session.Store
	hub            *Hub
	welcomePage    http.Handler
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	started        time.Time
}

func NewServer(eng *engine.Engine, store *session.Store, hub *Hub, allowedOrigins []string, welcomePage http.Handler) *Server {
	s := &Server{
		engine:         eng,
		store:          store,
		hub:            hub,
		welcomePage:    welcomePage,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		started:        time.Now(),
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/sessions/", s.handleSession)
	mux.HandleFunc("/api/health", s.handleHealth)

	if s.welcomePage != nil {
		mux.Handle("/", securityHeaders(s.welcomePage))
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	c, err := s.hub.Add(conn)
	if err != nil {
		log.Printf("ws connection rejected: %v", err)
		conn.Close()
		return
	}

	log.Printf("scanner connected: %s (%s)", c.id, r.RemoteAddr)
	s.hub.Direct(c.id, EventWelcome, WelcomePayload{
		ConnectionID: c.id,
		ServerTime:   session.Now(),
	})

	go func() {
		defer func() {
			s.hub.Remove(c)
			log.Printf("scanner disconnected: %s (%s)", c.id, r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			s.dispatch(c, data)
		}
	}()
}

// dispatch routes one inbound frame. A panic inside a handler is converted to
// an error event so a single bad frame cannot kill the connection's read loop.
func (s *Server) dispatch(c *client, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("handler panic: %v", r)
			s.hub.Direct(c.id, EventError, ErrorPayload{
				Code:    "internal_error",
				Message: fmt.Sprintf("handler failure: %v", r),
			})
		}
	}()

	var env inboundEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.hub.Direct(c.id, EventError, ErrorPayload{
			Code:    "invalid_payload",
			Message: "malformed message envelope",
		})
		return
	}

	switch env.Event {
	case EventPing:
		s.hub.Direct(c.id, EventPong, PongPayload{Time: session.Now()})

	case EventSessionStart:
		var req startRequest
		decodePayload(env.Payload, &req)
		if _, err := s.engine.Start(c.id, req.SessionID); err != nil {
			s.sendError(c, err, req.SessionID, "")
			return
		}

	case EventScanResult:
		var req scanRequest
		decodePayload(env.Payload, &req)
		qty := 1
		if req.Quantity != nil {
			qty = *req.Quantity
		}
		if _, err := s.engine.ApplyScan(c.id, req.SessionID, req.ItemName, qty); err != nil {
			s.sendError(c, err, req.SessionID, req.ItemName)
			return
		}

	case EventQuantityAdjust:
		var req adjustRequest
		decodePayload(env.Payload, &req)
		if _, err := s.engine.ApplyAdjustment(c.id, req.SessionID, req.ItemName, req.Delta); err != nil {
			s.sendError(c, err, req.SessionID, req.ItemName)
			return
		}

	case EventSessionFinish:
		var req finishRequest
		decodePayload(env.Payload, &req)
		if _, err := s.engine.Finish(c.id, req.SessionID); err != nil {
			s.sendError(c, err, req.SessionID, "")
			return
		}

	default:
		s.hub.Direct(c.id, EventError, ErrorPayload{
			Code:    "unknown_event",
			Message: fmt.Sprintf("unknown event %q", env.Event),
		})
	}
}

// decodePayload tolerates an absent payload; missing fields are validated by
// the engine.
func decodePayload(raw json.RawMessage, dst any) {
	if len(raw) == 0 {
		return
	}
	// Decoding errors leave dst zeroed; the engine rejects the empty fields.
	_ = json.Unmarshal(raw, dst)
}

func (s *Server) sendError(c *client, err error, sessionID, itemName string) {
	s.hub.Direct(c.id, EventError, ErrorPayload{
		Code:      errorCode(err),
		Message:   err.Error(),
		SessionID: sessionID,
		ItemName:  itemName,
	})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, engine.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, engine.ErrSessionOrItemNotFound):
		return "session_or_item_not_found"
	case errors.Is(err, session.ErrDuplicateSession):
		return "duplicate_session"
	default:
		return "internal_error"
	}
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.GetAll())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/api/sessions/"))
	if err != nil || id == "" {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	sess, ok := s.store.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}

type healthResponse struct {
	Status           string  `json:"status"`
	UptimeSeconds    int64   `json:"uptimeSeconds"`
	ActiveSessions   int     `json:"activeSessions"`
	PendingEvictions int     `json:"pendingEvictions"`
	Clients          int     `json:"clients"`
	MemoryRSSBytes   uint64  `json:"memoryRssBytes"`
	CPUPercent       float64 `json:"cpuPercent"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:           "ok",
		UptimeSeconds:    int64(time.Since(s.started).Seconds()),
		ActiveSessions:   s.store.ActiveCount(),
		PendingEvictions: s.engine.PendingEvictions(),
		Clients:          s.hub.ClientCount(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := proc.MemoryInfo(); err == nil {
			resp.MemoryRSSBytes = mi.RSS
		}
		if pct, err := proc.CPUPercent(); err == nil {
			resp.CPUPercent = pct
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
