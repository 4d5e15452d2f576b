// Package demo drives scripted scanner traffic through the real engine so a
// dashboard can be exercised without physical scanner devices.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/scanrally/backend/internal/engine"
)

// tills are the demo checkout lanes; each runs one session at a time.
var tills = []string{"till-1", "till-2", "till-3"}

// itemPool is weighted by repetition: common codes get scanned more often.
var itemPool = []string{
	"APEL", "APEL", "APEL",
	"PISANG", "PISANG",
	"JERUK", "JERUK",
	"SUSU",
	"ROTI",
	"KOPI",
	"KIWI", // deliberately unmapped, exercises the default point value
}

type Generator struct {
	engine *engine.Engine
	connID string
	rng    *rand.Rand

	// active session id per till, "" when between sessions
	sessions map[string]string
	rounds   map[string]int
}

func NewGenerator(eng *engine.Engine) *Generator {
	return &Generator{
		engine:   eng,
		connID:   "demo-" + uuid.NewString()[:8],
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions: make(map[string]string),
		rounds:   make(map[string]int),
	}
}

func (g *Generator) Start(ctx context.Context) {
	log.Printf("demo generator running as %s", g.connID)
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	ticker := time.NewTicker(700 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	till := tills[g.rng.Intn(len(tills))]
	id := g.sessions[till]

	if id == "" {
		id = fmt.Sprintf("%s-%s", till, uuid.NewString()[:8])
		if _, err := g.engine.Start(g.connID, id); err != nil {
			log.Printf("demo: start %s: %v", id, err)
			return
		}
		g.sessions[till] = id
		g.rounds[till] = 0
		return
	}

	g.rounds[till]++
	switch {
	case g.rounds[till] > 12 && g.rng.Intn(4) == 0:
		// Checkout done: finish and free the till for a fresh session.
		if _, err := g.engine.Finish(g.connID, id); err != nil {
			log.Printf("demo: finish %s: %v", id, err)
		}
		g.sessions[till] = ""

	case g.rng.Intn(6) == 0:
		// Occasional correction: the cashier removes one of something.
		item := itemPool[g.rng.Intn(len(itemPool))]
		if _, err := g.engine.ApplyAdjustment(g.connID, id, item, -1); err != nil &&
			!errors.Is(err, engine.ErrSessionOrItemNotFound) {
			log.Printf("demo: adjust %s: %v", id, err)
		}

	default:
		item := itemPool[g.rng.Intn(len(itemPool))]
		qty := 1
		if g.rng.Intn(5) == 0 {
			qty = 2 + g.rng.Intn(3)
		}
		if _, err := g.engine.ApplyScan(g.connID, id, item, qty); err != nil {
			log.Printf("demo: scan %s: %v", id, err)
		}
	}
}
