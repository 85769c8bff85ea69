// Package bolttest provides a recording scene and deterministic generators for lifecycle tests
package bolttest

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/geometry"
)

// Scene records every resource it creates
type Scene struct {
	mu          sync.Mutex
	Renderables []*Renderable
	Lights      []*Light
}

// NewScene creates an empty recording scene
func NewScene() *Scene {
	return &Scene{}
}

// NewRenderable implements bolt.Scene
func (s *Scene) NewRenderable() bolt.Renderable {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Renderable{alive: true}
	s.Renderables = append(s.Renderables, r)
	return r
}

// NewLight implements bolt.Scene
func (s *Scene) NewLight() bolt.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &Light{alive: true}
	s.Lights = append(s.Lights, l)
	return l
}

// RenderableCount returns renderables created so far
func (s *Scene) RenderableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Renderables)
}

// LightCount returns lights created so far
func (s *Scene) LightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Lights)
}

// Renderable records uploads and visibility
type Renderable struct {
	Setup   bolt.SurfaceSetup
	Enabled bool
	Epoch   float64
	Quads   int
	Bounds  r3.Box
	Uploads int
	Clears  int

	alive     bool
	Destroyed bool
}

func (r *Renderable) Upload(m *geometry.Mesh, bounds r3.Box) {
	r.Uploads++
	r.Quads = len(m.Positions) / 4
	r.Bounds = bounds
}

func (r *Renderable) Clear()                        { r.Clears++; r.Quads = 0 }
func (r *Renderable) Configure(s bolt.SurfaceSetup) { r.Setup = s }
func (r *Renderable) Enable(epoch float64)          { r.Enabled, r.Epoch = true, epoch }
func (r *Renderable) Disable()                      { r.Enabled = false }
func (r *Renderable) Alive() bool                   { return r.alive }

func (r *Renderable) Destroy() {
	r.alive = false
	r.Destroyed = true
}

// Kill simulates external destruction of the underlying handle
func (r *Renderable) Kill() {
	r.alive = false
}

// Light records properties and the intensity history
type Light struct {
	Props     bolt.LightProperties
	Position  r3.Vec
	Intensity float64
	History   []float64

	alive     bool
	Destroyed bool
}

func (l *Light) SetProperties(p bolt.LightProperties) { l.Props = p }
func (l *Light) SetPosition(pos r3.Vec)               { l.Position = pos }
func (l *Light) Alive() bool                          { return l.alive }

func (l *Light) SetIntensity(v float64) {
	l.Intensity = v
	l.History = append(l.History, v)
}

func (l *Light) Destroy() {
	l.alive = false
	l.Destroyed = true
}

// Emission is one recorded particle burst
type Emission struct {
	At    r3.Vec
	Count int
}

// Emitter records bursts
type Emitter struct {
	Burst     [2]int
	HasBurst  bool
	Rate      [2]float64
	Emissions []Emission
}

func (e *Emitter) BurstRange() (int, int, bool) { return e.Burst[0], e.Burst[1], e.HasBurst }
func (e *Emitter) RateRange() (float64, float64) { return e.Rate[0], e.Rate[1] }

func (e *Emitter) Emit(at r3.Vec, count int) {
	e.Emissions = append(e.Emissions, Emission{At: at, Count: count})
}
