package bolt

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/geometry"
)

// Scene creates scene resources, every method is only called on the owning context
type Scene interface {
	NewRenderable() Renderable
	NewLight() Light
}

// SurfaceSetup is re-applied to a renderable each time a batch is enabled
type SurfaceSetup struct {
	GlowMaterial  any
	PlainMaterial any
	UseGlow       bool
	SortLayer     string
	SortOrder     int
	Parent        any // scene parent, local transform is reset on attach
}

// Renderable is a scene object displaying one committed geometry batch
type Renderable interface {
	geometry.Surface
	Configure(setup SurfaceSetup)
	// Enable shows the renderable, epoch is the effect time vertex fades are relative to
	Enable(epoch float64)
	Disable()
	Alive() bool
	Destroy()
}

// LightProperties are the visual settings applied to a light on every reuse
type LightProperties struct {
	Color   color.RGBA
	Range   float64
	Shadows bool
}

// Light is a pooled point light
type Light interface {
	SetProperties(p LightProperties)
	SetPosition(pos r3.Vec)
	SetIntensity(intensity float64)
	Alive() bool
	Destroy()
}

// Emitter is a particle system fired at bolt endpoints
type Emitter interface {
	// BurstRange returns a configured per-burst count range, ok false when none is set
	BurstRange() (lo, hi int, ok bool)
	// RateRange returns the emission-rate range used when no burst range is set
	RateRange() (lo, hi float64)
	Emit(at r3.Vec, count int)
}

// Generator turns one parameter set into segment groups on inst
// Groups must be obtained from inst.AddGroup, the resolved start and end points are returned
// Output must depend only on the parameter set including its random source
type Generator interface {
	Generate(inst *Instance, p *Parameters) (start, end r3.Vec)
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func(inst *Instance, p *Parameters) (start, end r3.Vec)

// Generate implements Generator
func (f GeneratorFunc) Generate(inst *Instance, p *Parameters) (start, end r3.Vec) {
	return f(inst, p)
}
