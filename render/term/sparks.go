package term

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	maxSparks   = 512
	sparkGlyph  = '·'
	sparkBright = '*'
)

type spark struct {
	x, y    float64
	vx, vy  float64
	age     float64
	life    float64
	gravity float64
	color   color.RGBA
}

// Emitter sprays short-lived sparks into its scene at bolt endpoints
type Emitter struct {
	scene *Scene

	Burst    [2]int
	HasBurst bool
	Rate     [2]float64
	Color    color.RGBA
	Speed    float64 // cells per second
	Life     float64 // seconds
	Gravity  float64 // cells per second squared, positive is down
}

// BurstRange implements bolt.Emitter
func (e *Emitter) BurstRange() (lo, hi int, ok bool) {
	return e.Burst[0], e.Burst[1], e.HasBurst
}

// RateRange implements bolt.Emitter
func (e *Emitter) RateRange() (lo, hi float64) {
	return e.Rate[0], e.Rate[1]
}

// Emit implements bolt.Emitter
func (e *Emitter) Emit(at r3.Vec, count int) {
	s := e.scene
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y := s.view.project(at)
	for i := 0; i < count && len(s.sparks) < maxSparks; i++ {
		theta := s.rng.Float64() * 2 * math.Pi
		speed := e.Speed * (0.3 + 0.7*s.rng.Float64())
		s.sparks = append(s.sparks, spark{
			x:       x,
			y:       y,
			vx:      math.Cos(theta) * speed,
			vy:      math.Sin(theta) * speed * 0.5,
			life:    e.Life * (0.5 + 0.5*s.rng.Float64()),
			gravity: e.Gravity,
			color:   e.Color,
		})
	}
	s.statSparks.Add(int64(count))
}

// stepSparks advances sparks by dt, dropping expired ones
func (s *Scene) stepSparks(dt float64) {
	live := s.sparks[:0]
	for _, sp := range s.sparks {
		sp.age += dt
		if sp.age >= sp.life {
			continue
		}
		sp.vy += sp.gravity * dt
		sp.x += sp.vx * dt
		sp.y += sp.vy * dt
		live = append(live, sp)
	}
	s.sparks = live
}
