package engine

import (
	"sync"
	"time"
)

// MockTimeProvider is a hand-driven wall clock for PausableClock tests
type MockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockTimeProvider starts the mock at start
func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves wall time forward by d
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Step advances by seconds and ticks clock, returning its scaled delta and effect time
// One call is one host frame of a real loop
func (m *MockTimeProvider) Step(clock *PausableClock, seconds float64) (dt, now float64) {
	m.Advance(time.Duration(seconds * float64(time.Second)))
	return clock.Tick()
}
