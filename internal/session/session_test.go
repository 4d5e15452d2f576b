package session

import "testing"

func TestNew(t *testing.T) {
	s := New("s1", "conn-1", 1000)
	if s.ID != "s1" {
		t.Errorf("ID = %q, want %q", s.ID, "s1")
	}
	if s.Origin != "conn-1" {
		t.Errorf("Origin = %q, want %q", s.Origin, "conn-1")
	}
	if s.StartTime != 1000 || s.LastUpdate != 1000 {
		t.Errorf("timestamps = %d/%d, want 1000/1000", s.StartTime, s.LastUpdate)
	}
	if !s.Active {
		t.Error("new session should be active")
	}
	if s.Items == nil || len(s.Items) != 0 {
		t.Errorf("Items = %v, want empty map", s.Items)
	}
	if s.TotalItems != 0 || s.TotalPoints != 0 {
		t.Errorf("totals = %d/%d, want 0/0", s.TotalItems, s.TotalPoints)
	}
}

func TestRecompute(t *testing.T) {
	s := New("s1", "conn-1", 0)
	s.Items["APEL"] = &ItemEntry{Name: "APEL", Quantity: 2, PointsPerItem: 20, TotalPoints: 40}
	s.Items["SUSU"] = &ItemEntry{Name: "SUSU", Quantity: 3, PointsPerItem: 5, TotalPoints: 15}

	s.Recompute()

	if s.TotalItems != 5 {
		t.Errorf("TotalItems = %d, want 5", s.TotalItems)
	}
	if s.TotalPoints != 55 {
		t.Errorf("TotalPoints = %d, want 55", s.TotalPoints)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	s := New("s1", "conn-1", 0)
	s.Items["APEL"] = &ItemEntry{Name: "APEL", Quantity: 2, PointsPerItem: 20, TotalPoints: 40}

	s.Recompute()
	first, second := s.TotalItems, s.TotalPoints
	s.Recompute()
	if s.TotalItems != first || s.TotalPoints != second {
		t.Errorf("Recompute not idempotent: %d/%d then %d/%d", first, second, s.TotalItems, s.TotalPoints)
	}
}

func TestRecomputeAfterRemoval(t *testing.T) {
	s := New("s1", "conn-1", 0)
	s.Items["APEL"] = &ItemEntry{Name: "APEL", Quantity: 2, PointsPerItem: 20, TotalPoints: 40}
	s.Recompute()

	delete(s.Items, "APEL")
	s.Recompute()

	if s.TotalItems != 0 || s.TotalPoints != 0 {
		t.Errorf("totals after removal = %d/%d, want 0/0", s.TotalItems, s.TotalPoints)
	}
}

func TestCloneIsolation(t *testing.T) {
	s := New("s1", "conn-1", 0)
	s.Items["APEL"] = &ItemEntry{Name: "APEL", Quantity: 1, PointsPerItem: 20, TotalPoints: 20}

	c := s.Clone()
	c.Items["APEL"].Quantity = 99
	c.Items["PISANG"] = &ItemEntry{Name: "PISANG", Quantity: 1}
	c.TotalItems = 42

	if s.Items["APEL"].Quantity != 1 {
		t.Error("Clone did not deep-copy item entries; mutation leaked into original")
	}
	if len(s.Items) != 1 {
		t.Errorf("Clone shares item map; original has %d items, want 1", len(s.Items))
	}
	if s.TotalItems != 0 {
		t.Error("Clone shares scalar state with original")
	}
}

func TestSummarize(t *testing.T) {
	s := New("s1", "conn-1", 1000)
	s.Items["APEL"] = &ItemEntry{Name: "APEL", Quantity: 2, PointsPerItem: 20, TotalPoints: 40}
	s.Recompute()

	sum := s.Summarize(4500)

	if sum.SessionID != "s1" {
		t.Errorf("SessionID = %q, want %q", sum.SessionID, "s1")
	}
	if sum.Duration != 3500 {
		t.Errorf("Duration = %d, want 3500", sum.Duration)
	}
	if sum.FinishedAt != 4500 {
		t.Errorf("FinishedAt = %d, want 4500", sum.FinishedAt)
	}
	if sum.TotalItems != 2 || sum.TotalPoints != 40 {
		t.Errorf("totals = %d/%d, want 2/40", sum.TotalItems, sum.TotalPoints)
	}
	if len(sum.Items) != 1 {
		t.Fatalf("summary has %d items, want 1", len(sum.Items))
	}

	// The summary must be frozen: later session mutations may not leak in.
	s.Items["APEL"].Quantity = 99
	if sum.Items["APEL"].Quantity != 2 {
		t.Error("Summarize did not copy items; later mutation leaked into summary")
	}
}

func TestNowIsMilliseconds(t *testing.T) {
	// Sanity check the unit: epoch millis in 2026 are ~1.7e12, nanos ~1.7e18.
	now := Now()
	if now < 1e12 || now > 1e14 {
		t.Errorf("Now() = %d, not in epoch-millisecond range", now)
	}
}
