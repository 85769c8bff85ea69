package term

import (
	"image/color"

	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/geometry"
)

// quad is one uploaded segment reduced to what the rasterizer needs
type quad struct {
	start, end f32.Vec3
	color      color.RGBA
	startFade  f32.Vec4
	endFade    f32.Vec4
	glow       f32.Vec2
}

// Surface is a terminal renderable holding a copy of its last upload
type Surface struct {
	scene   *Scene
	setup   bolt.SurfaceSetup
	quads   []quad
	bounds  r3.Box
	epoch   float64
	enabled bool
	alive   bool
}

// Upload copies the mesh, the batch reuses its buffers afterwards
func (s *Surface) Upload(m *geometry.Mesh, bounds r3.Box) {
	s.scene.mu.Lock()
	defer s.scene.mu.Unlock()

	s.quads = s.quads[:0]
	for v := 0; v+3 < len(m.Positions); v += 4 {
		s.quads = append(s.quads, quad{
			start:     m.Positions[v],
			end:       m.Positions[v+2],
			color:     m.Colors[v],
			startFade: m.Fades[v],
			endFade:   m.Fades[v+2],
			glow:      m.Glows[v],
		})
	}
	s.bounds = bounds
}

func (s *Surface) Clear() {
	s.scene.mu.Lock()
	s.quads = s.quads[:0]
	s.scene.mu.Unlock()
}

func (s *Surface) Configure(setup bolt.SurfaceSetup) {
	s.scene.mu.Lock()
	s.setup = setup
	s.scene.mu.Unlock()
}

func (s *Surface) Enable(epoch float64) {
	s.scene.mu.Lock()
	s.enabled, s.epoch = true, epoch
	s.scene.mu.Unlock()
}

func (s *Surface) Disable() {
	s.scene.mu.Lock()
	s.enabled = false
	s.scene.mu.Unlock()
}

func (s *Surface) Alive() bool {
	s.scene.mu.Lock()
	defer s.scene.mu.Unlock()
	return s.alive
}

// Destroy detaches the surface from its scene
func (s *Surface) Destroy() {
	s.scene.mu.Lock()
	defer s.scene.mu.Unlock()
	s.alive = false
	s.enabled = false
	s.scene.surfaces = removeItem(s.scene.surfaces, s)
}

// Light tints cell backgrounds within its range
type Light struct {
	scene     *Scene
	props     bolt.LightProperties
	pos       r3.Vec
	intensity float64
	alive     bool
}

func (l *Light) SetProperties(p bolt.LightProperties) {
	l.scene.mu.Lock()
	l.props = p
	l.scene.mu.Unlock()
}

func (l *Light) SetPosition(pos r3.Vec) {
	l.scene.mu.Lock()
	l.pos = pos
	l.scene.mu.Unlock()
}

func (l *Light) SetIntensity(intensity float64) {
	l.scene.mu.Lock()
	l.intensity = intensity
	l.scene.mu.Unlock()
}

func (l *Light) Alive() bool {
	l.scene.mu.Lock()
	defer l.scene.mu.Unlock()
	return l.alive
}

func (l *Light) Destroy() {
	l.scene.mu.Lock()
	defer l.scene.mu.Unlock()
	l.alive = false
	l.scene.lights = removeItem(l.scene.lights, l)
}

func removeItem[T comparable](items []T, item T) []T {
	for i, it := range items {
		if it == item {
			last := len(items) - 1
			items[i] = items[last]
			var zero T
			items[last] = zero
			return items[:last]
		}
	}
	return items
}
