package core

import (
	"cmp"
	"sync"
	"sync/atomic"
	"time"
)

const defaultStatsWindowSize = 100

// WindowSummary reports the rolling-window and lifetime extremes tracked by
// a ring buffer, alongside the window's sum and sample count.
type WindowSummary[T cmp.Ordered] struct {
	WindowMin T `json:"window_min"`
	WindowMax T `json:"window_max"`
	Sum       T `json:"sum"`
	Count     int `json:"count"`
	LongMin   T `json:"long_min"`
	LongMax   T `json:"long_max"`
}

// ringBuffer is a fixed-size circular buffer that tracks both the extremes
// within its current window and the extremes ever pushed to it.
type ringBuffer[T cmp.Ordered] struct {
	mu    sync.Mutex
	buf   []T
	size  int
	next  int
	count int

	haveLong bool
	longMin  T
	longMax  T
}

func newRingBuffer[T cmp.Ordered](size int) *ringBuffer[T] {
	if size <= 0 {
		size = defaultStatsWindowSize
	}
	return &ringBuffer[T]{buf: make([]T, size), size: size}
}

func (r *ringBuffer[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = v
	r.next = (r.next + 1) % r.size
	if r.count < r.size {
		r.count++
	}
	if !r.haveLong || v < r.longMin {
		r.longMin = v
	}
	if !r.haveLong || v > r.longMax {
		r.longMax = v
	}
	r.haveLong = true
}

func (r *ringBuffer[T]) Snapshot() WindowSummary[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s WindowSummary[T]
	s.LongMin, s.LongMax = r.longMin, r.longMax
	if r.count == 0 {
		return s
	}
	start := 0
	if r.count == r.size {
		start = r.next
	}
	first := true
	for i := 0; i < r.count; i++ {
		v := r.buf[(start+i)%r.size]
		if first {
			s.WindowMin, s.WindowMax = v, v
			first = false
		} else {
			if v < s.WindowMin {
				s.WindowMin = v
			}
			if v > s.WindowMax {
				s.WindowMax = v
			}
		}
		s.Sum += v
		s.Count++
	}
	return s
}

// Stats tracks outstanding send/receive counts and rolling windows over
// their history plus inbound processing latency. All methods are safe for
// concurrent use.
type Stats struct {
	outstandingSends    atomic.Int64
	outstandingReceives atomic.Int64

	sendWindow    *ringBuffer[int64]
	receiveWindow *ringBuffer[int64]
	latencyWindow *ringBuffer[time.Duration]
}

// NewStats creates a Stats tracker whose rolling windows hold windowSize
// samples; windowSize <= 0 selects the default.
func NewStats(windowSize int) *Stats {
	return &Stats{
		sendWindow:    newRingBuffer[int64](windowSize),
		receiveWindow: newRingBuffer[int64](windowSize),
		latencyWindow: newRingBuffer[time.Duration](windowSize),
	}
}

func (s *Stats) IncrementOutstandingSends() int64 {
	return s.outstandingSends.Add(1)
}

func (s *Stats) DecrementOutstandingSends() int64 {
	v := s.outstandingSends.Add(-1)
	s.sendWindow.Push(v)
	return v
}

func (s *Stats) IncrementOutstandingReceives() int64 {
	return s.outstandingReceives.Add(1)
}

func (s *Stats) DecrementOutstandingReceives() int64 {
	v := s.outstandingReceives.Add(-1)
	s.receiveWindow.Push(v)
	return v
}

func (s *Stats) RecordReceiveLatency(d time.Duration) {
	s.latencyWindow.Push(d)
}

// StatsSnapshot is the JSON-serializable view of Stats exposed to hosts and
// the debug HTTP endpoint.
type StatsSnapshot struct {
	OutstandingSends    int64                        `json:"outstanding_sends"`
	OutstandingReceives int64                        `json:"outstanding_receives"`
	SendWindow          WindowSummary[int64]         `json:"send_window"`
	ReceiveWindow       WindowSummary[int64]         `json:"receive_window"`
	LatencyWindow       WindowSummary[time.Duration] `json:"latency_window"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		OutstandingSends:    s.outstandingSends.Load(),
		OutstandingReceives: s.outstandingReceives.Load(),
		SendWindow:          s.sendWindow.Snapshot(),
		ReceiveWindow:       s.receiveWindow.Snapshot(),
		LatencyWindow:       s.latencyWindow.Snapshot(),
	}
}
