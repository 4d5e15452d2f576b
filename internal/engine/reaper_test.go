package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestReaperSchedule(t *testing.T) {
	r := newReaper()
	var fired atomic.Bool

	r.Schedule("s1", 10*time.Millisecond, func() { fired.Store(true) })
	if r.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", r.Pending())
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fired.Load() {
			if r.Pending() != 0 {
				t.Errorf("Pending() after fire = %d, want 0", r.Pending())
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("scheduled eviction never fired")
}

func TestReaperCancel(t *testing.T) {
	r := newReaper()
	var fired atomic.Bool

	r.Schedule("s1", 20*time.Millisecond, func() { fired.Store(true) })
	if !r.Cancel("s1") {
		t.Fatal("Cancel returned false for pending timer")
	}

	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled eviction fired anyway")
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", r.Pending())
	}
}

func TestReaperCancelUnknown(t *testing.T) {
	r := newReaper()
	if r.Cancel("nope") {
		t.Error("Cancel of unknown id returned true")
	}
}

func TestReaperScheduleKeepsFirstTimer(t *testing.T) {
	r := newReaper()
	var first, second atomic.Bool

	r.Schedule("s1", 10*time.Millisecond, func() { first.Store(true) })
	r.Schedule("s1", time.Hour, func() { second.Store(true) })

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if first.Load() {
			if second.Load() {
				t.Error("second Schedule replaced the first timer")
			}
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("first timer never fired; second Schedule must not replace it")
}

func TestReaperIndependentIDs(t *testing.T) {
	r := newReaper()
	var a, b atomic.Bool

	r.Schedule("a", 10*time.Millisecond, func() { a.Store(true) })
	r.Schedule("b", time.Hour, func() { b.Store(true) })

	r.Cancel("b")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Load() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("cancelling one id stopped another id's timer")
}
