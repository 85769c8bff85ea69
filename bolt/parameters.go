package bolt

import (
	"image/color"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/parameter"
)

// Range is an inclusive float interval
type Range struct {
	Min, Max float64
}

// Random returns a value in [Min, Max]
func (r Range) Random(rng *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// LightParameters configure lights placed along the main trunk
type LightParameters struct {
	Color     color.RGBA
	Range     float64
	Intensity float64

	// LightPercent is the share of trunk segments receiving a light, 0 to 1
	LightPercent float64
	// LightShadowPercent is the share of created lights casting shadows, 0 to 1
	LightShadowPercent float64

	// OrthographicOffset is added to the camera depth for lights in orthographic modes
	OrthographicOffset float64

	FadeInMultiplier       float64
	FadeFullyLitMultiplier float64
	FadeOutMultiplier      float64
}

// HasLight reports whether any light would be produced
func (lp *LightParameters) HasLight() bool {
	return lp != nil && lp.Intensity > parameter.Epsilon && lp.Range > parameter.Epsilon && lp.LightPercent > parameter.Epsilon
}

// TransformPhase marks the point in a bolt's life a custom transform is called at
type TransformPhase int

const (
	TransformStarted TransformPhase = iota
	TransformExecuting
	TransformEnded
)

// TransformState is the pooled argument of a custom transform callback
type TransformState struct {
	Phase    TransformPhase
	Params   *Parameters
	Start    r3.Vec
	End      r3.Vec
	Elapsed  float64
	LifeTime float64
	Target   Renderable
	UserData any
}

func (s *TransformState) reset() {
	*s = TransformState{}
}

// TransformFunc moves a bolt's renderable each frame
type TransformFunc func(state *TransformState)

// Parameters describe one bolt within an instance
type Parameters struct {
	Start, End    r3.Vec
	StartVariance float64
	EndVariance   float64
	Points        []r3.Vec // optional path, overrides Start and End for generators that follow it

	Generations        int
	ChaosFactor        float64
	ChaosFactorForks   float64
	Forkedness         float64
	ForkStopSubtractor int
	ForkLength         Range // fork length as a fraction of remaining trunk

	LifeTime   float64
	Delay      float64
	DelayRange Range

	TrunkWidth          float64
	EndWidthMultiplier  float64
	Color               color.RGBA
	Intensity           float64 // 0 to 10
	GlowIntensity       float64
	GlowWidthMultiplier float64

	FadePercent            float64 // 0 to 0.5
	FadeInMultiplier       float64
	FadeFullyLitMultiplier float64
	FadeOutMultiplier      float64
	GrowthMultiplier       float64

	Light *LightParameters

	Transform TransformFunc
	UserData  any

	Random         *rand.Rand
	RandomOverride *rand.Rand

	// OnComplete runs on the owning context when the instance expires, before the set is pooled
	OnComplete func(p *Parameters)

	// Set by Instance.Start before the generator runs
	ForkStopGeneration int
	ForkBudget         int
}

// NewParameters returns a parameter set with default values
func NewParameters() *Parameters {
	p := &Parameters{}
	p.setDefaults()
	return p
}

func (p *Parameters) setDefaults() {
	p.Generations = 6
	p.ChaosFactor = 0.15
	p.ChaosFactorForks = 0.15
	p.Forkedness = 0.25
	p.ForkLength = Range{Min: 0.25, Max: 0.5}
	p.LifeTime = 0.5
	p.TrunkWidth = 0.1
	p.EndWidthMultiplier = 0.5
	p.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	p.Intensity = 1
	p.GlowIntensity = 0.1
	p.GlowWidthMultiplier = 4
	p.FadePercent = 0.15
	p.FadeInMultiplier = 1
	p.FadeFullyLitMultiplier = 1
	p.FadeOutMultiplier = 1
}

// ApplyPreset copies a configured preset onto p
func (p *Parameters) ApplyPreset(b parameter.BoltPreset) {
	p.Generations = b.Generations
	p.LifeTime = b.LifeTime
	p.Delay = b.Delay
	p.DelayRange = Range{Min: b.DelayRange[0], Max: b.DelayRange[1]}
	p.ChaosFactor = b.ChaosFactor
	p.ChaosFactorForks = b.ChaosFactorForks
	p.Forkedness = b.Forkedness
	p.ForkStopSubtractor = b.ForkStopSubtractor
	p.TrunkWidth = b.TrunkWidth
	p.EndWidthMultiplier = b.EndWidthMultiplier
	p.Intensity = b.Intensity
	p.GlowIntensity = b.GlowIntensity
	p.GlowWidthMultiplier = b.GlowWidth
	p.FadePercent = b.FadePercent
	p.FadeInMultiplier = b.Fade[0]
	p.FadeFullyLitMultiplier = b.Fade[1]
	p.FadeOutMultiplier = b.Fade[2]
	p.GrowthMultiplier = b.GrowthMultiplier
	p.Color = color.RGBA{R: b.Color[0], G: b.Color[1], B: b.Color[2], A: 255}

	if !b.Light.Enabled {
		p.Light = nil
		return
	}
	p.Light = &LightParameters{
		Color:                  color.RGBA{R: b.Light.Color[0], G: b.Light.Color[1], B: b.Light.Color[2], A: 255},
		Range:                  b.Light.Range,
		Intensity:              b.Light.Intensity,
		LightPercent:           b.Light.LightPercent,
		LightShadowPercent:     b.Light.LightShadowPercent,
		OrthographicOffset:     b.Light.OrthographicOffset,
		FadeInMultiplier:       b.Light.Fade[0],
		FadeFullyLitMultiplier: b.Light.Fade[1],
		FadeOutMultiplier:      b.Light.Fade[2],
	}
}

// Rand returns the random source, RandomOverride first, creating Random when unset
func (p *Parameters) Rand() *rand.Rand {
	if p.RandomOverride != nil {
		return p.RandomOverride
	}
	if p.Random == nil {
		p.Random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p.Random
}

// Reset restores defaults, clears callbacks, the random override and the point list
// Random and the point list capacity are kept for reuse
func (p *Parameters) Reset() {
	rng := p.Random
	points := p.Points[:0]
	*p = Parameters{}
	p.setDefaults()
	p.Random = rng
	p.Points = points
}

// glow reports whether the set asks for a glow pass
func (p *Parameters) glow() bool {
	return p.GlowIntensity > parameter.Epsilon || p.GlowWidthMultiplier > parameter.Epsilon
}

// endpoints returns the path ends used for distance checks
func (p *Parameters) endpoints() (r3.Vec, r3.Vec) {
	if n := len(p.Points); n > 0 {
		return p.Points[0], p.Points[n-1]
	}
	return p.Start, p.End
}
