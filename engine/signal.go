package engine

import "sync"

// signal is a reusable one-shot completion notice for synchronous owner submissions
type signal struct {
	ch chan struct{}
}

func (s *signal) notify() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

// signalPool is a locked free list of signals
// Signals abandoned by a timed-out waiter are never returned, a late notify cannot leak into a later wait
type signalPool struct {
	mu   sync.Mutex
	free []*signal
}

func newSignalPool(prealloc int) *signalPool {
	p := &signalPool{free: make([]*signal, 0, prealloc)}
	for i := 0; i < prealloc; i++ {
		p.free = append(p.free, &signal{ch: make(chan struct{}, 1)})
	}
	return p
}

func (p *signalPool) acquire() *signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return s
	}
	return &signal{ch: make(chan struct{}, 1)}
}

// release returns a consumed signal
func (p *signalPool) release(s *signal) {
	// Drain in case of a stray notify
	select {
	case <-s.ch:
	default:
	}
	p.mu.Lock()
	p.free = append(p.free, s)
	p.mu.Unlock()
}

func (p *signalPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}
