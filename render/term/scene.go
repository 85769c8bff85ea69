// Package term renders bolt effects into a tcell screen with quadrant block glyphs
package term

import (
	"image/color"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/parameter"
	"github.com/lixenwraith/boltfx/status"
)

// Viewport maps world XY onto terminal cells, y grows downward
type Viewport struct {
	OffsetX, OffsetY float64
	Scale            float64 // cells per world unit
}

func (v Viewport) scale() float64 {
	if v.Scale <= 0 {
		return 1
	}
	return v.Scale
}

func (v Viewport) project(p r3.Vec) (x, y float64) {
	return (p.X - v.OffsetX) * v.scale(), (p.Y - v.OffsetY) * v.scale()
}

const (
	// minVisible drops sub-cells dimmer than this
	minVisible = 0.02
	// lightGain scales light intensity into background brightness
	lightGain = 0.35
	// glowGain scales glow intensity into neighbor background brightness
	glowGain = 0.25
	// sparkGravity is the default downward pull in cells per second squared
	sparkGravity = 6.0
)

// cell accumulates one frame of output at a screen position
type cell struct {
	bits  uint8
	level float64
	fg    [3]float64
	bg    [3]float64
}

// Scene implements bolt.Scene for a terminal
type Scene struct {
	mu       sync.Mutex
	view     Viewport
	surfaces []*Surface
	lights   []*Light
	sparks   []spark
	rng      *rand.Rand
	cells    map[uint64]*cell
	free     []*cell

	statSurfaces *atomic.Int64
	statLights   *atomic.Int64
	statSparks   *atomic.Int64
	statCells    *atomic.Int64
}

// NewScene creates an empty scene, reg may be nil
func NewScene(view Viewport, seed int64, reg *status.Registry) *Scene {
	if reg == nil {
		reg = status.NewRegistry()
	}
	return &Scene{
		view:         view,
		rng:          rand.New(rand.NewSource(seed)),
		cells:        make(map[uint64]*cell),
		statSurfaces: reg.Ints.Get("term.surfaces"),
		statLights:   reg.Ints.Get("term.lights"),
		statSparks:   reg.Ints.Get("term.sparks_emitted"),
		statCells:    reg.Ints.Get("term.cells_drawn"),
	}
}

// NewRenderable implements bolt.Scene
func (s *Scene) NewRenderable() bolt.Renderable {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Surface{scene: s, alive: true}
	s.surfaces = append(s.surfaces, r)
	s.statSurfaces.Store(int64(len(s.surfaces)))
	return r
}

// NewLight implements bolt.Scene
func (s *Scene) NewLight() bolt.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &Light{scene: s, alive: true}
	s.lights = append(s.lights, l)
	s.statLights.Store(int64(len(s.lights)))
	return l
}

// NewEmitter creates a spark emitter drawing into this scene
func (s *Scene) NewEmitter(c color.RGBA) *Emitter {
	return &Emitter{
		scene:   s,
		Rate:    [2]float64{6, 12},
		Color:   c,
		Speed:   10,
		Life:    0.6,
		Gravity: sparkGravity,
	}
}

// SetViewport replaces the world to cell mapping
func (s *Scene) SetViewport(v Viewport) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// Counts returns live surfaces, visible surfaces, lights and sparks
func (s *Scene) Counts() (surfaces, visible, lights, sparks int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.surfaces {
		if r.enabled {
			visible++
		}
	}
	return len(s.surfaces), visible, len(s.lights), len(s.sparks)
}

// Draw paints lights, visible bolts and sparks at effect time now, then steps sparks by dt
// The caller clears and shows the screen
func (s *Scene) Draw(screen tcell.Screen, now, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, c := range s.cells {
		*c = cell{}
		s.free = append(s.free, c)
		delete(s.cells, k)
	}

	for _, l := range s.lights {
		s.shadeLight(l)
	}
	for _, r := range s.surfaces {
		if r.enabled {
			s.rasterize(r, now-r.epoch)
		}
	}

	w, h := screen.Size()
	drawn := 0
	for key, c := range s.cells {
		x, y := unpackKey(key)
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		style := tcell.StyleDefault.Background(rgb(c.bg, 1))
		ch := ' '
		if c.bits != 0 {
			ch = quadrantChars[c.bits]
			style = style.Foreground(rgb(c.fg, 1))
		}
		screen.SetContent(x, y, ch, nil, style)
		drawn++
	}

	for _, sp := range s.sparks {
		x, y := int(math.Floor(sp.x)), int(math.Floor(sp.y))
		if x < 0 || y < 0 || x >= w || y >= h {
			continue
		}
		fade := 1 - sp.age/sp.life
		glyph := sparkGlyph
		if fade > 0.6 {
			glyph = sparkBright
		}
		c := [3]float64{float64(sp.color.R), float64(sp.color.G), float64(sp.color.B)}
		screen.SetContent(x, y, glyph, nil, tcell.StyleDefault.Foreground(rgb(c, fade)))
		drawn++
	}
	s.stepSparks(dt)
	s.statCells.Store(int64(drawn))
}

func (s *Scene) at(x, y int) *cell {
	key := cellKey(x, y)
	if c, ok := s.cells[key]; ok {
		return c
	}
	var c *cell
	if n := len(s.free); n > 0 {
		c, s.free = s.free[n-1], s.free[:n-1]
	} else {
		c = &cell{}
	}
	s.cells[key] = c
	return c
}

// shadeLight adds a linear falloff tint around the light
func (s *Scene) shadeLight(l *Light) {
	if l.intensity <= 0 || l.props.Range <= 0 {
		return
	}
	cx, cy := s.view.project(l.pos)
	radius := l.props.Range * s.view.scale()

	c := l.props.Color
	tint := [3]float64{float64(c.R), float64(c.G), float64(c.B)}
	x0, x1 := int(math.Floor(cx-radius)), int(math.Ceil(cx+radius))
	y0, y1 := int(math.Floor(cy-radius)), int(math.Ceil(cy+radius))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			if d >= radius {
				continue
			}
			f := (1 - d/radius) * l.intensity * lightGain
			cl := s.at(x, y)
			for i := range cl.bg {
				cl.bg[i] += tint[i] * f
			}
		}
	}
}

// rasterize traces every quad of r at time t since its epoch
func (s *Scene) rasterize(r *Surface, t float64) {
	for _, q := range r.quads {
		a0, a1 := fadeAlpha(q.startFade, t), fadeAlpha(q.endFade, t)
		if a0 <= 0 && a1 <= 0 {
			continue
		}
		// Alpha carries intensity over MaxColorIntensity, mid intensity maps to full brightness
		gain := float64(q.color.A) / 255 * parameter.MaxColorIntensity / 2
		tint := [3]float64{float64(q.color.R), float64(q.color.G), float64(q.color.B)}
		glow := 0.0
		if r.setup.UseGlow {
			glow = float64(q.glow[1]) * glowGain
		}

		x0, y0 := s.view.project(r3.Vec{X: float64(q.start[0]), Y: float64(q.start[1])})
		x1, y1 := s.view.project(r3.Vec{X: float64(q.end[0]), Y: float64(q.end[1])})
		traceQuadrants(subPixel(x0), subPixel(y0), subPixel(x1), subPixel(y1),
			func(cx, cy int, quadrant uint8, u float64) {
				a := (a0 + (a1-a0)*u) * gain
				if a < minVisible {
					return
				}
				c := s.at(cx, cy)
				c.bits |= quadrant
				if a > c.level {
					c.level = a
					for i := range c.fg {
						c.fg[i] = tint[i] * min(a, 1.5)
					}
				}
				if glow > 0 {
					s.glowAround(cx, cy, tint, a*glow)
				}
			})
	}
}

func (s *Scene) glowAround(cx, cy int, tint [3]float64, f float64) {
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		c := s.at(cx+d[0], cy+d[1])
		for i := range c.bg {
			c.bg[i] = max(c.bg[i], tint[i]*f)
		}
	}
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

func subPixel(v float64) int {
	return int(math.Floor(v * 2))
}

func rgb(c [3]float64, scale float64) tcell.Color {
	ch := func(v float64) int32 {
		return int32(math.Max(0, math.Min(255, v*scale)))
	}
	return tcell.NewRGBColor(ch(c[0]), ch(c[1]), ch(c[2]))
}
