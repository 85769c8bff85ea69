package window

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"gonum.org/v1/gonum/spatial/r3"
)

type spark struct {
	x, y    float64
	vx, vy  float64
	age     float64
	life    float64
	gravity float64
	color   color.RGBA
}

// Emitter sprays additive sparks at bolt endpoints
type Emitter struct {
	scene *Scene

	Burst    [2]int
	HasBurst bool
	Rate     [2]float64
	Color    color.RGBA
	Speed    float64 // pixels per second
	Life     float64 // seconds
	Gravity  float64 // pixels per second squared
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

	x, y := s.view.project(at.X, at.Y)
	for i := 0; i < count && len(s.sparks) < maxSparks; i++ {
		theta := s.rng.Float64() * 2 * math.Pi
		speed := e.Speed * (0.3 + 0.7*s.rng.Float64())
		s.sparks = append(s.sparks, spark{
			x:       float64(x),
			y:       float64(y),
			vx:      math.Cos(theta) * speed,
			vy:      math.Sin(theta) * speed,
			life:    e.Life * (0.5 + 0.5*s.rng.Float64()),
			gravity: e.Gravity,
			color:   e.Color,
		})
	}
}

func (s *Scene) drawSparks(screen *ebiten.Image, dt float64) {
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendLighter}
	k := 6.0 / spriteSize

	live := s.sparks[:0]
	for _, sp := range s.sparks {
		fade := float32(1 - sp.age/sp.life)
		op.GeoM.Reset()
		op.GeoM.Translate(-spriteSize/2, -spriteSize/2)
		op.GeoM.Scale(k, k)
		op.GeoM.Translate(sp.x, sp.y)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(sp.color.R)/255*fade, float32(sp.color.G)/255*fade, float32(sp.color.B)/255*fade, fade)
		screen.DrawImage(s.sprite, op)

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
