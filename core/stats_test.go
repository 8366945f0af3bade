package core

import "testing"

func TestRingBufferWindowAndLongTermExtremes(t *testing.T) {
	rb := newRingBuffer[int64](3)
	for _, v := range []int64{5, 1, 9, 2} { // 5 falls out of the window once 2 is pushed
		rb.Push(v)
	}
	snap := rb.Snapshot()
	if snap.WindowMin != 1 || snap.WindowMax != 9 {
		t.Fatalf("unexpected window extremes: min=%d max=%d", snap.WindowMin, snap.WindowMax)
	}
	if snap.LongMin != 1 || snap.LongMax != 9 {
		t.Fatalf("unexpected long-term extremes: min=%d max=%d", snap.LongMin, snap.LongMax)
	}
	if snap.Count != 3 {
		t.Fatalf("expected window count 3, got %d", snap.Count)
	}
	if snap.Sum != 1+9+2 {
		t.Fatalf("unexpected sum: %d", snap.Sum)
	}
}

func TestRingBufferLongTermSurvivesWindowEviction(t *testing.T) {
	rb := newRingBuffer[int64](2)
	rb.Push(100)
	rb.Push(1)
	rb.Push(2) // evicts 100 from the window, not from long-term tracking

	snap := rb.Snapshot()
	if snap.WindowMax != 2 {
		t.Fatalf("expected window max 2, got %d", snap.WindowMax)
	}
	if snap.LongMax != 100 {
		t.Fatalf("expected long-term max to retain 100, got %d", snap.LongMax)
	}
}

func TestStatsOutstandingCounters(t *testing.T) {
	s := NewStats(10)
	if got := s.IncrementOutstandingSends(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	s.IncrementOutstandingSends()
	if got := s.DecrementOutstandingSends(); got != 1 {
		t.Fatalf("expected 1 after one decrement from 2, got %d", got)
	}

	snap := s.Snapshot()
	if snap.OutstandingSends != 1 {
		t.Fatalf("expected snapshot outstanding sends 1, got %d", snap.OutstandingSends)
	}
	if snap.SendWindow.Count != 1 {
		t.Fatalf("expected one sample recorded in the send window, got %d", snap.SendWindow.Count)
	}
}
