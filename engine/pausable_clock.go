package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// PausableClock turns wall time into effect time with pause and time scale
// Tick yields the scaled delta that feeds Manager.Advance
type PausableClock struct {
	mu sync.Mutex

	provider TimeProvider
	lastTick time.Time

	// Effect time since creation, scaled and excluding pauses
	elapsed float64
	scale   float64

	isPaused        atomic.Bool
	pauseStartTime  time.Time
	totalPausedTime time.Duration
}

// NewPausableClock creates a running clock at scale 1, provider nil uses wall time
func NewPausableClock(provider TimeProvider) *PausableClock {
	if provider == nil {
		provider = NewMonotonicTimeProvider()
	}
	return &PausableClock{
		provider: provider,
		lastTick: provider.Now(),
		scale:    1,
	}
}

// Tick returns scaled seconds since the previous tick and the new effect time
// Paused clocks return a zero delta
func (pc *PausableClock) Tick() (dt, now float64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	t := pc.provider.Now()
	wall := t.Sub(pc.lastTick)
	pc.lastTick = t

	if pc.isPaused.Load() {
		return 0, pc.elapsed
	}

	dt = wall.Seconds() * pc.scale
	if dt < 0 {
		dt = 0
	}
	pc.elapsed += dt
	return dt, pc.elapsed
}

// Elapsed returns effect time without ticking
func (pc *PausableClock) Elapsed() float64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.elapsed
}

// SetScale changes the time scale, negative values clamp to zero
func (pc *PausableClock) SetScale(scale float64) {
	if scale < 0 {
		scale = 0
	}
	pc.mu.Lock()
	pc.scale = scale
	pc.mu.Unlock()
}

// Scale returns the current time scale
func (pc *PausableClock) Scale() float64 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.scale
}

// Pause stops effect time advancement
func (pc *PausableClock) Pause() {
	if pc.isPaused.CompareAndSwap(false, true) {
		pc.mu.Lock()
		pc.pauseStartTime = pc.provider.Now()
		pc.mu.Unlock()
	}
}

// Resume continues effect time advancement
func (pc *PausableClock) Resume() {
	if pc.isPaused.CompareAndSwap(true, false) {
		pc.mu.Lock()
		now := pc.provider.Now()
		if !pc.pauseStartTime.IsZero() {
			pc.totalPausedTime += now.Sub(pc.pauseStartTime)
			pc.pauseStartTime = time.Time{}
		}
		// Time spent paused never reaches the next tick
		pc.lastTick = now
		pc.mu.Unlock()
	}
}

// IsPaused returns current pause state
func (pc *PausableClock) IsPaused() bool {
	return pc.isPaused.Load()
}

// GetTotalPauseDuration returns cumulative pause time
func (pc *PausableClock) GetTotalPauseDuration() time.Duration {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	total := pc.totalPausedTime
	if pc.isPaused.Load() && !pc.pauseStartTime.IsZero() {
		total += pc.provider.Now().Sub(pc.pauseStartTime)
	}
	return total
}
