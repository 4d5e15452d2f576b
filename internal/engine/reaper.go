package engine

import (
	"sync"
	"time"
)

// reaper schedules deferred session eviction, one timer per session id. Timers
// are cancellable so a future session-resumption path can call off a pending
// eviction without redesign; the current lifecycle never does.
type reaper struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newReaper() *reaper {
	return &reaper{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms eviction for id after d. An id that is already scheduled
// keeps its original timer; the first finish wins the clock.
func (r *reaper) Schedule(id string, d time.Duration, evict func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.timers[id]; ok {
		return
	}
	r.timers[id] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, id)
		r.mu.Unlock()
		evict()
	})
}

// Cancel stops a pending eviction. Reports whether a timer was pending.
func (r *reaper) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.timers[id]
	if !ok {
		return false
	}
	t.Stop()
	delete(r.timers, id)
	return true
}

func (r *reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
