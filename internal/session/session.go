package session

import "time"

// ItemEntry accumulates scan data for one item code within a session.
// PointsPerItem is captured from the scoring table on first scan and never
// re-resolved afterwards.
type ItemEntry struct {
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
	PointsPerItem int    `json:"pointsPerItem"`
	TotalPoints   int    `json:"totalPoints"`
	LastScanned   int64  `json:"lastScanned"`
}

// Session is one bounded scanning activity. Timestamps are epoch milliseconds,
// the unit used throughout the wire protocol.
type Session struct {
	ID          string                `json:"sessionId"`
	Items       map[string]*ItemEntry `json:"items"`
	TotalItems  int                   `json:"totalItems"`
	TotalPoints int                   `json:"totalPoints"`
	StartTime   int64                 `json:"startTime"`
	LastUpdate  int64                 `json:"lastUpdate"`
	Origin      string                `json:"-"`
	Active      bool                  `json:"active"`
}

// Summary is the frozen result of a finished session.
type Summary struct {
	SessionID   string                `json:"sessionId"`
	Items       map[string]*ItemEntry `json:"items"`
	TotalItems  int                   `json:"totalItems"`
	TotalPoints int                   `json:"totalPoints"`
	Duration    int64                 `json:"duration"`
	FinishedAt  int64                 `json:"finishedAt"`
}

// Now returns the current wall clock in epoch milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

func New(id, origin string, now int64) *Session {
	return &Session{
		ID:         id,
		Items:      make(map[string]*ItemEntry),
		StartTime:  now,
		LastUpdate: now,
		Origin:     origin,
		Active:     true,
	}
}

// Recompute rederives the session totals from the full item map. Totals are
// never adjusted incrementally, so they cannot drift from the entries.
func (s *Session) Recompute() {
	items, points := 0, 0
	for _, e := range s.Items {
		items += e.Quantity
		points += e.TotalPoints
	}
	s.TotalItems = items
	s.TotalPoints = points
}

// Clone returns a deep copy of the Session, duplicating the item map so the
// copy can be mutated independently of the original.
func (s *Session) Clone() *Session {
	c := *s
	c.Items = make(map[string]*ItemEntry, len(s.Items))
	for code, e := range s.Items {
		entry := *e
		c.Items[code] = &entry
	}
	return &c
}

// Summarize computes the finish-time summary for the session.
func (s *Session) Summarize(now int64) *Summary {
	c := s.Clone()
	return &Summary{
		SessionID:   c.ID,
		Items:       c.Items,
		TotalItems:  c.TotalItems,
		TotalPoints: c.TotalPoints,
		Duration:    now - c.StartTime,
		FinishedAt:  now,
	}
}
