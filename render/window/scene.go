// Package window renders bolt effects with ebiten triangle batches
package window

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/geometry"
	"github.com/lixenwraith/boltfx/parameter"
)

// Viewport maps world XY onto pixels, y grows downward
type Viewport struct {
	OffsetX, OffsetY float64
	Scale            float64 // pixels per world unit
}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

func (v Viewport) project(x, y float64) (float32, float32) {
	s := v.scale()
	return float32((x - v.OffsetX) * s), float32((y - v.OffsetY) * s)
}

const (
	spriteSize = 64
	maxSparks  = 2048
	// minLineWidth keeps far or thin bolts at least this many pixels wide
	minLineWidth = 1.5
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Scene implements bolt.Scene on an ebiten screen
type Scene struct {
	mu       sync.Mutex
	view     Viewport
	surfaces []*Surface
	lights   []*Light
	sparks   []spark
	rng      *rand.Rand
	sprite   *ebiten.Image

	vertices []ebiten.Vertex
	indices  []uint16
}

// NewScene creates an empty scene with a radial falloff sprite for lights and sparks
func NewScene(view Viewport, seed int64) *Scene {
	return &Scene{
		view:   view,
		rng:    rand.New(rand.NewSource(seed)),
		sprite: radialSprite(spriteSize),
	}
}

// radialSprite builds a soft disc fading to transparent at its edge
func radialSprite(size int) *ebiten.Image {
	img := ebiten.NewImage(size, size)
	pixels := make([]byte, size*size*4)
	center := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-center, float64(y)+0.5-center) / center
			if d >= 1 {
				continue
			}
			v := byte(255 * (1 - d) * (1 - d))
			i := (y*size + x) * 4
			pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = v, v, v, v
		}
	}
	img.WritePixels(pixels)
	return img
}

// NewRenderable implements bolt.Scene
func (s *Scene) NewRenderable() bolt.Renderable {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Surface{scene: s, alive: true}
	s.surfaces = append(s.surfaces, r)
	return r
}

// NewLight implements bolt.Scene
func (s *Scene) NewLight() bolt.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &Light{scene: s, alive: true}
	s.lights = append(s.lights, l)
	return l
}

// NewEmitter creates a spark emitter drawing into this scene
func (s *Scene) NewEmitter(c color.RGBA) *Emitter {
	return &Emitter{scene: s, Rate: [2]float64{8, 16}, Color: c, Speed: 220, Life: 0.7, Gravity: 400}
}

// SetViewport replaces the world to pixel mapping
func (s *Scene) SetViewport(v Viewport) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// Draw renders lights, bolts and sparks at effect time now, then steps sparks by dt
func (s *Scene) Draw(screen *ebiten.Image, now, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.lights {
		s.drawLight(screen, l)
	}

	tri := &ebiten.DrawTrianglesOptions{Blend: ebiten.BlendLighter}
	for _, r := range s.surfaces {
		if !r.enabled || len(r.mesh.Positions) == 0 {
			continue
		}
		t := now - r.epoch
		if r.setup.UseGlow {
			s.buildVertices(&r.mesh, t, true)
			screen.DrawTriangles(s.vertices, s.indices, whiteSubImage, tri)
		}
		s.buildVertices(&r.mesh, t, false)
		screen.DrawTriangles(s.vertices, s.indices, whiteSubImage, tri)
	}

	s.drawSparks(screen, dt)
}

// buildVertices expands mesh quads across their direction, glow widens and dims them
func (s *Scene) buildVertices(m *geometry.Mesh, t float64, glow bool) {
	s.vertices = s.vertices[:0]
	scale := float32(s.view.scale())

	for i, p := range m.Positions {
		d := m.Directions[i]
		x, y := s.view.project(float64(p[0]), float64(p[1]))

		// Perpendicular in screen space, sign and half width in w
		nx, ny := -d[1], d[0]
		if n := float32(math.Hypot(float64(nx), float64(ny))); n > 0 {
			nx, ny = nx/n, ny/n
		}
		half := d[3] * scale
		if half*sign(half) < minLineWidth/2 {
			half = minLineWidth / 2 * sign(d[3])
		}

		alpha := fadeAlpha(m.Fades[i], t) * float64(m.Colors[i].A) / 255 * parameter.MaxColorIntensity / 2
		if glow {
			g := m.Glows[i]
			half *= max(g[0], 1)
			alpha *= float64(g[1])
		}
		alpha = min(alpha, 1)

		c := m.Colors[i]
		s.vertices = append(s.vertices, ebiten.Vertex{
			DstX:   x + nx*half,
			DstY:   y + ny*half,
			SrcX:   1,
			SrcY:   1,
			ColorR: float32(float64(c.R) / 255 * alpha),
			ColorG: float32(float64(c.G) / 255 * alpha),
			ColorB: float32(float64(c.B) / 255 * alpha),
			ColorA: float32(alpha),
		})
	}
	s.indices = append(s.indices[:0], m.Indices...)
}

func (s *Scene) drawLight(screen *ebiten.Image, l *Light) {
	if !l.alive || l.intensity <= 0 || l.props.Range <= 0 {
		return
	}
	x, y := s.view.project(l.pos.X, l.pos.Y)
	radius := l.props.Range * s.view.scale()
	k := radius * 2 / spriteSize

	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendLighter}
	op.GeoM.Translate(-spriteSize/2, -spriteSize/2)
	op.GeoM.Scale(k, k)
	op.GeoM.Translate(float64(x), float64(y))
	a := float32(min(1, l.intensity*0.4))
	c := l.props.Color
	op.ColorScale.Scale(float32(c.R)/255*a, float32(c.G)/255*a, float32(c.B)/255*a, a)
	screen.DrawImage(s.sprite, op)
}

// fadeAlpha evaluates the start, fade-in end, fade-out start, end ramp at t
func fadeAlpha(f f32.Vec4, t float64) float64 {
	start, inEnd, outStart, end := float64(f[0]), float64(f[1]), float64(f[2]), float64(f[3])
	switch {
	case t < start || t >= end:
		return 0
	case t < inEnd:
		return (t - start) / (inEnd - start)
	case t < outStart:
		return 1
	case end > outStart:
		return (end - t) / (end - outStart)
	}
	return 0
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

// Surface is an ebiten renderable holding a copy of its last upload
type Surface struct {
	scene   *Scene
	setup   bolt.SurfaceSetup
	mesh    geometry.Mesh
	bounds  r3.Box
	epoch   float64
	enabled bool
	alive   bool
}

// Upload copies the mesh, the batch reuses its buffers afterwards
func (r *Surface) Upload(m *geometry.Mesh, bounds r3.Box) {
	r.scene.mu.Lock()
	defer r.scene.mu.Unlock()
	r.mesh.Positions = append(r.mesh.Positions[:0], m.Positions...)
	r.mesh.Directions = append(r.mesh.Directions[:0], m.Directions...)
	r.mesh.Colors = append(r.mesh.Colors[:0], m.Colors...)
	r.mesh.Fades = append(r.mesh.Fades[:0], m.Fades...)
	r.mesh.Glows = append(r.mesh.Glows[:0], m.Glows...)
	r.mesh.Indices = append(r.mesh.Indices[:0], m.Indices...)
	r.bounds = bounds
}

func (r *Surface) Clear() {
	r.scene.mu.Lock()
	r.mesh.Positions = r.mesh.Positions[:0]
	r.mesh.Indices = r.mesh.Indices[:0]
	r.scene.mu.Unlock()
}

func (r *Surface) Configure(setup bolt.SurfaceSetup) {
	r.scene.mu.Lock()
	r.setup = setup
	r.scene.mu.Unlock()
}

func (r *Surface) Enable(epoch float64) {
	r.scene.mu.Lock()
	r.enabled, r.epoch = true, epoch
	r.scene.mu.Unlock()
}

func (r *Surface) Disable() {
	r.scene.mu.Lock()
	r.enabled = false
	r.scene.mu.Unlock()
}

func (r *Surface) Alive() bool {
	r.scene.mu.Lock()
	defer r.scene.mu.Unlock()
	return r.alive
}

func (r *Surface) Destroy() {
	r.scene.mu.Lock()
	defer r.scene.mu.Unlock()
	r.alive, r.enabled = false, false
	r.scene.surfaces = removeItem(r.scene.surfaces, r)
}

// Light draws an additive radial sprite sized to its range
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
