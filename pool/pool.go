// Package pool provides explicit free-list pools for scene-bound resources
// Entries stay pooled until acquired or until ClearAll destroys their handles
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/boltfx/status"
)

// Pool is a LIFO free list of T with de-duplication
// Pools touched from more than one goroutine must be built WithLock
type Pool[T comparable] struct {
	name   string
	locked bool
	mu     sync.Mutex

	items []T
	index map[T]struct{}

	newFn   func() T
	reset   func(T)
	valid   func(T) bool
	destroy func(T)

	// Cached metric pointers, nil without a registry
	statIdle    *atomic.Int64
	statCreated *atomic.Int64
	statStale   *atomic.Int64
}

// Option configures a Pool
type Option[T comparable] func(*Pool[T])

// WithLock guards Acquire and Release with a mutex
func WithLock[T comparable]() Option[T] {
	return func(p *Pool[T]) { p.locked = true }
}

// WithReset sets the hook clearing transient state on Release
func WithReset[T comparable](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.reset = fn }
}

// WithValidate sets the hook detecting stale entries on Acquire
// Entries failing validation are discarded and Acquire retries
func WithValidate[T comparable](fn func(T) bool) Option[T] {
	return func(p *Pool[T]) { p.valid = fn }
}

// WithDestroy sets the hook releasing an entry's underlying handle in ClearAll
func WithDestroy[T comparable](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.destroy = fn }
}

// WithStatus publishes pool.<name>.idle, .created and .stale counters
func WithStatus[T comparable](reg *status.Registry) Option[T] {
	return func(p *Pool[T]) {
		if reg == nil {
			return
		}
		p.statIdle = reg.Ints.Get("pool." + p.name + ".idle")
		p.statCreated = reg.Ints.Get("pool." + p.name + ".created")
		p.statStale = reg.Ints.Get("pool." + p.name + ".stale")
	}
}

// New creates a pool constructing entries with newFn
func New[T comparable](name string, newFn func() T, opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{
		name:  name,
		newFn: newFn,
		index: make(map[T]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the pool's name
func (p *Pool[T]) Name() string {
	return p.name
}

func (p *Pool[T]) lock() {
	if p.locked {
		p.mu.Lock()
	}
}

func (p *Pool[T]) unlock() {
	if p.locked {
		p.mu.Unlock()
	}
}

// Acquire returns the most recently released valid entry, or a new one
func (p *Pool[T]) Acquire() T {
	if item, ok := p.TryAcquire(); ok {
		return item
	}
	p.count(p.statCreated, 1)
	return p.newFn()
}

// TryAcquire pops the most recently released valid entry without constructing
// Callers that may not construct on their context fall back to Acquire elsewhere
func (p *Pool[T]) TryAcquire() (T, bool) {
	p.lock()
	defer p.unlock()

	for n := len(p.items); n > 0; n = len(p.items) {
		item := p.items[n-1]
		var zero T
		p.items[n-1] = zero
		p.items = p.items[:n-1]
		delete(p.index, item)
		p.count(p.statIdle, -1)

		if p.valid != nil && !p.valid(item) {
			p.count(p.statStale, 1)
			continue
		}
		return item, true
	}
	var zero T
	return zero, false
}

// Release resets item and returns it to the pool
// Returns false when item is already pooled
func (p *Pool[T]) Release(item T) bool {
	p.lock()
	defer p.unlock()

	if _, ok := p.index[item]; ok {
		return false
	}
	if p.reset != nil {
		p.reset(item)
	}
	p.items = append(p.items, item)
	p.index[item] = struct{}{}
	p.count(p.statIdle, 1)
	return true
}

// Contains reports whether item is currently pooled
func (p *Pool[T]) Contains(item T) bool {
	p.lock()
	defer p.unlock()
	_, ok := p.index[item]
	return ok
}

// Len returns the number of pooled entries
func (p *Pool[T]) Len() int {
	p.lock()
	defer p.unlock()
	return len(p.items)
}

// ClearAll destroys every pooled entry's underlying handle and empties the pool
// Entries currently checked out are untouched
func (p *Pool[T]) ClearAll() int {
	p.lock()
	items := p.items
	p.items = nil
	clear(p.index)
	p.unlock()

	if p.destroy != nil {
		for _, item := range items {
			p.destroy(item)
		}
	}
	if p.statIdle != nil {
		p.statIdle.Store(0)
	}
	return len(items)
}

func (p *Pool[T]) count(stat *atomic.Int64, delta int64) {
	if stat != nil {
		stat.Add(delta)
	}
}
