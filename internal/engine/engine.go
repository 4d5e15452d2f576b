// Package engine applies scan-event mutations to the session store and fans
// the resulting state out to listeners. All mutating operations are serialized
// by a single mutex, so every check-then-mutate sequence is atomic; handlers
// never observe another handler's half-applied change.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scanrally/backend/internal/scoring"
	"github.com/scanrally/backend/internal/session"
)

var (
	ErrInvalidPayload        = errors.New("missing required field")
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionOrItemNotFound = errors.New("session or item not found")
)

// DefaultGracePeriod is the delay between finishing a session and evicting it
// from the store, tolerating late reads from slow dashboards.
const DefaultGracePeriod = 30 * time.Second

type Engine struct {
	mu      sync.Mutex
	store   *session.Store
	table   *scoring.Table
	emitter Emitter
	grace   time.Duration
	reaper  *reaper
	now     func() int64
}

func New(store *session.Store, table *scoring.Table, emitter Emitter, grace time.Duration) *Engine {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Engine{
		store:   store,
		table:   table,
		emitter: emitter,
		grace:   grace,
		reaper:  newReaper(),
		now:     session.Now,
	}
}

// Start creates a session under requestedID, or under an id synthesized from
// the connection id and current time when the caller omits one. Broadcasts
// session:started and confirms directly to the initiator.
func (e *Engine) Start(connID, requestedID string) (*session.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	id := requestedID
	if id == "" {
		id = e.synthesizeID(connID, now)
	}

	sess, err := e.store.Create(id, connID, now)
	if err != nil {
		return nil, err
	}
	log.Printf("session started: %s (origin %s)", id, connID)

	e.emitter.Bind(connID, id)
	e.emitter.Broadcast(id, EventSessionStarted, StartedPayload{
		SessionID: id,
		StartTime: sess.StartTime,
	})
	e.emitter.Direct(connID, EventSessionConfirmed, ConfirmedPayload{SessionID: id})
	return sess, nil
}

// synthesizeID derives a session id from the initiating connection and the
// current millisecond. Two starts from one connection in the same millisecond
// would collide, so a uuid fragment breaks the tie.
func (e *Engine) synthesizeID(connID string, now int64) string {
	prefix := connID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	id := fmt.Sprintf("%s-%d", prefix, now)
	if _, taken := e.store.Get(id); !taken {
		return id
	}
	return fmt.Sprintf("%s-%s", id, uuid.NewString()[:8])
}

// ApplyScan accumulates a scanned item into the session. The item's
// points-per-item value is resolved from the scoring table on first scan and
// kept thereafter; repeat scans only add quantity.
func (e *Engine) ApplyScan(connID, sessionID, itemCode string, quantity int) (*session.Session, error) {
	if sessionID == "" || itemCode == "" {
		return nil, ErrInvalidPayload
	}
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.store.Get(sessionID)
	if !ok || !sess.Active {
		return nil, ErrSessionNotFound
	}

	code := scoring.Normalize(itemCode)
	now := e.now()

	entry, ok := sess.Items[code]
	if !ok {
		entry = &session.ItemEntry{
			Name:          code,
			PointsPerItem: e.table.PointsFor(code),
		}
		sess.Items[code] = entry
	}
	entry.Quantity += quantity
	entry.TotalPoints = entry.Quantity * entry.PointsPerItem
	entry.LastScanned = now

	sess.Recompute()
	sess.LastUpdate = now
	e.store.Update(sess)

	e.emitter.Bind(connID, sess.ID)
	e.emitter.Broadcast(sess.ID, EventScanUpdate, ScanUpdatePayload{
		SessionID: sess.ID,
		Item:      entry,
		Session:   sess,
	})
	e.emitter.Broadcast(sess.ID, EventInventoryUpdate, inventoryDelta(sess))
	e.emitter.Direct(connID, EventScanConfirmed, ScanConfirmedPayload{
		SessionID: sess.ID,
		ItemName:  code,
		Quantity:  entry.Quantity,
	})
	return sess, nil
}

// ApplyAdjustment changes an existing entry's quantity by delta, clamped at
// zero. An entry adjusted to zero is deleted outright. Adjustments cannot
// create items; only ApplyScan can.
func (e *Engine) ApplyAdjustment(connID, sessionID, itemCode string, delta int) (*session.Session, error) {
	if sessionID == "" || itemCode == "" {
		return nil, ErrInvalidPayload
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionOrItemNotFound
	}

	code := scoring.Normalize(itemCode)
	entry, ok := sess.Items[code]
	if !ok {
		return nil, ErrSessionOrItemNotFound
	}

	now := e.now()
	qty := entry.Quantity + delta
	if qty < 0 {
		qty = 0
	}
	if qty == 0 {
		delete(sess.Items, code)
	} else {
		entry.Quantity = qty
		entry.TotalPoints = qty * entry.PointsPerItem
		entry.LastScanned = now
	}

	sess.Recompute()
	sess.LastUpdate = now
	e.store.Update(sess)

	e.emitter.Bind(connID, sess.ID)
	e.emitter.Broadcast(sess.ID, EventQuantityUpdated, QuantityUpdatedPayload{
		SessionID: sess.ID,
		ItemName:  code,
		Quantity:  qty,
		Session:   sess,
	})
	e.emitter.Broadcast(sess.ID, EventInventoryUpdate, inventoryDelta(sess))
	return sess, nil
}

// Finish freezes the session, broadcasts its summary, and schedules eviction
// after the grace period. Finishing an already-finished session that has not
// been evicted yet is an idempotent success: the summary is re-broadcast and
// the eviction timer is left untouched.
func (e *Engine) Finish(connID, sessionID string) (*session.Summary, error) {
	if sessionID == "" {
		return nil, ErrInvalidPayload
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess, ok := e.store.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := e.now()
	summary := sess.Summarize(now)
	firstFinish := sess.Active
	sess.Active = false
	sess.LastUpdate = now
	e.store.Update(sess)

	e.emitter.Bind(connID, sess.ID)
	e.emitter.Broadcast(sess.ID, EventSessionFinished, summary)
	e.emitter.Broadcast(sess.ID, EventInventoryReset, ResetPayload{SessionID: sess.ID})

	if firstFinish {
		id := sess.ID
		e.reaper.Schedule(id, e.grace, func() {
			e.store.Remove(id)
			log.Printf("session evicted: %s", id)
		})
		log.Printf("session finished: %s (%d items, %d points, eviction in %s)",
			id, summary.TotalItems, summary.TotalPoints, e.grace)
	}
	return summary, nil
}

// CancelEviction calls off a pending eviction for the session, leaving the
// finished session in the store. Reports whether an eviction was pending.
func (e *Engine) CancelEviction(sessionID string) bool {
	return e.reaper.Cancel(sessionID)
}

// PendingEvictions reports how many finished sessions await removal.
func (e *Engine) PendingEvictions() int {
	return e.reaper.Pending()
}

func inventoryDelta(sess *session.Session) InventoryUpdatePayload {
	return InventoryUpdatePayload{
		SessionID:   sess.ID,
		TotalItems:  sess.TotalItems,
		TotalPoints: sess.TotalPoints,
		ItemCount:   len(sess.Items),
	}
}
