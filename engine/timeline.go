package engine

import (
	"container/heap"
	"sync"
)

// Timeline runs callbacks after a delay measured in advanced time, not wall time
// The owner drives it with Advance each tick so pause and slow motion apply
type Timeline struct {
	mu      sync.Mutex
	now     float64
	seq     uint64
	entries timerHeap
	due     []*timerEntry
}

type timerEntry struct {
	at  float64
	seq uint64
	fn  func()
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// NewTimeline creates an empty timeline at time zero
func NewTimeline() *Timeline {
	return &Timeline{}
}

// After schedules fn to run once seconds of advanced time have passed
// Callbacks due at the same time run in scheduling order
func (t *Timeline) After(seconds float64, fn func()) {
	if seconds < 0 {
		seconds = 0
	}
	t.mu.Lock()
	t.seq++
	heap.Push(&t.entries, &timerEntry{at: t.now + seconds, seq: t.seq, fn: fn})
	t.mu.Unlock()
}

// At schedules fn to run once advanced time reaches when, a past time runs on the next Advance
func (t *Timeline) At(when float64, fn func()) {
	t.mu.Lock()
	t.seq++
	heap.Push(&t.entries, &timerEntry{at: when, seq: t.seq, fn: fn})
	t.mu.Unlock()
}

// Advance moves time forward by dt seconds and runs every callback that became due
// Callbacks scheduled from inside a callback run on a later Advance at the earliest
func (t *Timeline) Advance(dt float64) int {
	t.mu.Lock()
	if dt > 0 {
		t.now += dt
	}
	t.due = t.due[:0]
	for len(t.entries) > 0 && t.entries[0].at <= t.now {
		t.due = append(t.due, heap.Pop(&t.entries).(*timerEntry))
	}
	due := t.due
	t.mu.Unlock()

	for _, e := range due {
		e.fn()
	}
	n := len(due)
	clear(due)
	return n
}

// Now returns the total advanced time
func (t *Timeline) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.now
}

// Pending returns the number of scheduled callbacks
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Clear drops every scheduled callback without running it
func (t *Timeline) Clear() {
	t.mu.Lock()
	clear(t.entries)
	t.entries = t.entries[:0]
	t.mu.Unlock()
}
