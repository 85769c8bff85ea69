package engine

import (
	"sync"
	"time"
)

type ownerItem struct {
	op   Op
	done *signal
}

// ownerQueue is a multi-producer FIFO consumed only by the owning context
// drain swaps the live slice with a spare to avoid per-tick allocation
type ownerQueue struct {
	mu    sync.Mutex
	items []ownerItem
	spare []ownerItem
}

func (q *ownerQueue) push(item ownerItem) int {
	q.mu.Lock()
	q.items = append(q.items, item)
	n := len(q.items)
	q.mu.Unlock()
	return n
}

// take detaches every currently queued item, valid until the next take
func (q *ownerQueue) take() []ownerItem {
	q.mu.Lock()
	batch := q.items
	q.items = q.spare[:0]
	q.spare = batch
	q.mu.Unlock()
	return batch
}

// recycle drops references held by a consumed batch
func (q *ownerQueue) recycle(batch []ownerItem) {
	clear(batch)
}

func (q *ownerQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// backgroundQueue is a multi-producer FIFO consumed by the single background worker
type backgroundQueue struct {
	mu     sync.Mutex
	items  []Task
	head   int
	busy   bool
	notify chan struct{}
}

func newBackgroundQueue() *backgroundQueue {
	return &backgroundQueue{notify: make(chan struct{}, 1)}
}

func (q *backgroundQueue) push(t Task) int {
	q.mu.Lock()
	q.items = append(q.items, t)
	n := len(q.items) - q.head
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return n
}

// pop blocks up to timeout for the next task, returning early when stop closes
// A popped task marks the queue busy until finish is called
func (q *backgroundQueue) pop(stop <-chan struct{}, timeout time.Duration) (Task, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if q.head < len(q.items) {
			t := q.items[q.head]
			q.items[q.head] = nil
			q.head++
			if q.head == len(q.items) {
				q.items = q.items[:0]
				q.head = 0
			}
			q.busy = true
			q.mu.Unlock()
			return t, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-stop:
			return nil, false
		case <-timer.C:
			return nil, false
		}
	}
}

func (q *backgroundQueue) finish() {
	q.mu.Lock()
	q.busy = false
	q.mu.Unlock()
}

// idle reports an empty queue with no task in flight
func (q *backgroundQueue) idle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head == len(q.items) && !q.busy
}

func (q *backgroundQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}
