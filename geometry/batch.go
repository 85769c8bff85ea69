// Package geometry accumulates bolt segments into capped quad meshes
package geometry

import (
	"image/color"
	"math"

	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/parameter"
)

// Mesh holds per-vertex attribute streams, four vertices and six indices per quad
type Mesh struct {
	Positions  []f32.Vec3
	Directions []f32.Vec4 // xyz segment direction, w signed radius
	Colors     []color.RGBA
	Fades      []f32.Vec4 // epoch-relative start, fade-in end, fade-out start, end
	Glows      []f32.Vec2 // glow width multiplier, glow intensity
	UVs        []f32.Vec2
	Indices    []uint16
}

// Surface is the renderable a batch uploads into
type Surface interface {
	Upload(m *Mesh, bounds r3.Box)
	Clear()
}

// Line describes one segment quad
type Line struct {
	Start, End    r3.Vec
	Radius        float64
	Color         color.RGBA // alpha ignored, derived from Intensity
	Intensity     float64    // 0 to MaxColorIntensity
	GlowWidth     float64
	GlowIntensity float64
	StartFade     f32.Vec4 // fade timing on start vertices
	EndFade       f32.Vec4 // fade timing on end vertices
}

// Batch is an append-only quad builder with incremental integer bounds
// Not safe for concurrent use, a batch is filled by one context at a time
type Batch struct {
	surface  Surface
	mesh     Mesh
	maxQuads int

	min, max [3]int32

	// Directions of the previous quad's end vertices, reused as the next start
	prev1, prev2 f32.Vec4
}

// NewBatch creates a batch bound to surface, maxQuads <= 0 uses MaxQuadsPerBatch
func NewBatch(surface Surface, maxQuads int) *Batch {
	if maxQuads <= 0 || maxQuads > parameter.MaxQuadsPerBatch {
		maxQuads = parameter.MaxQuadsPerBatch
	}
	b := &Batch{surface: surface, maxQuads: maxQuads}
	b.resetBounds()
	return b
}

// Surface returns the bound renderable
func (b *Batch) Surface() Surface {
	return b.surface
}

// Capacity returns the quad limit
func (b *Batch) Capacity() int {
	return b.maxQuads
}

// Quads returns the number of appended quads
func (b *Batch) Quads() int {
	return len(b.mesh.Positions) / 4
}

// Empty reports whether nothing was appended since the last reset
func (b *Batch) Empty() bool {
	return len(b.mesh.Positions) == 0
}

// HasRoom reports whether n more quads fit
func (b *Batch) HasRoom(n int) bool {
	return b.Quads()+n <= b.maxQuads
}

// Mesh exposes the accumulated buffers, valid until the next append or reset
func (b *Batch) Mesh() *Mesh {
	return &b.mesh
}

// Bounds returns the integer min and max per axis
// Empty batches report the sentinels MaxInt32 and MinInt32
func (b *Batch) Bounds() (lo, hi [3]int32) {
	return b.min, b.max
}

// BeginLine appends the first quad of a connected run
func (b *Batch) BeginLine(l Line) {
	dir := direction(l.Start, l.End, l.Radius)
	neg := dir
	neg[3] = -dir[3]
	b.appendQuad(&l, dir, neg)
}

// AppendLine appends a quad joined to the previous one by reusing its end directions
func (b *Batch) AppendLine(l Line) {
	b.appendQuad(&l, b.prev1, b.prev2)
}

func (b *Batch) appendQuad(l *Line, startPos, startNeg f32.Vec4) {
	base := uint16(len(b.mesh.Positions))

	dir := direction(l.Start, l.End, l.Radius)
	neg := dir
	neg[3] = -dir[3]

	start := vec3(l.Start)
	end := vec3(l.End)
	b.mesh.Positions = append(b.mesh.Positions, start, start, end, end)
	b.mesh.Directions = append(b.mesh.Directions, startPos, startNeg, dir, neg)

	c := l.Color
	c.A = intensityAlpha(l.Intensity)
	b.mesh.Colors = append(b.mesh.Colors, c, c, c, c)

	b.mesh.Fades = append(b.mesh.Fades, l.StartFade, l.StartFade, l.EndFade, l.EndFade)

	glow := f32.Vec2{float32(l.GlowWidth), float32(l.GlowIntensity)}
	b.mesh.Glows = append(b.mesh.Glows, glow, glow, glow, glow)

	b.mesh.UVs = append(b.mesh.UVs,
		f32.Vec2{0, 0}, f32.Vec2{0, 1}, f32.Vec2{1, 0}, f32.Vec2{1, 1})

	b.mesh.Indices = append(b.mesh.Indices,
		base, base+1, base+2, base+2, base+1, base+3)

	b.prev1, b.prev2 = dir, neg

	b.include(l.Start)
	b.include(l.End)
}

// include widens bounds to cover p, floor for min and ceil for max
func (b *Batch) include(p r3.Vec) {
	lo := [3]int32{floor32(p.X), floor32(p.Y), floor32(p.Z)}
	hi := [3]int32{ceil32(p.X), ceil32(p.Y), ceil32(p.Z)}
	for i := 0; i < 3; i++ {
		b.min[i] = min(b.min[i], lo[i])
		b.max[i] = max(b.max[i], hi[i])
	}
}

// Commit uploads the buffers to the surface or clears it when empty
// Bounds are padded by BoundsPadding and grown by BoundsGrowth about their center
func (b *Batch) Commit() {
	if b.surface == nil {
		return
	}
	if b.Empty() {
		b.surface.Clear()
		return
	}
	b.surface.Upload(&b.mesh, b.Volume())
}

// Volume returns the padded and grown bounding box used on commit
func (b *Batch) Volume() r3.Box {
	pad := float64(parameter.BoundsPadding)
	lo := r3.Vec{X: float64(b.min[0]) - pad, Y: float64(b.min[1]) - pad, Z: float64(b.min[2]) - pad}
	hi := r3.Vec{X: float64(b.max[0]) + pad, Y: float64(b.max[1]) + pad, Z: float64(b.max[2]) + pad}

	center := r3.Scale(0.5, r3.Add(lo, hi))
	half := r3.Scale(0.5*parameter.BoundsGrowth, r3.Sub(hi, lo))
	return r3.Box{Min: r3.Sub(center, half), Max: r3.Add(center, half)}
}

// Reset empties every buffer keeping capacity and restores bound sentinels
func (b *Batch) Reset() {
	b.mesh.Positions = b.mesh.Positions[:0]
	b.mesh.Directions = b.mesh.Directions[:0]
	b.mesh.Colors = b.mesh.Colors[:0]
	b.mesh.Fades = b.mesh.Fades[:0]
	b.mesh.Glows = b.mesh.Glows[:0]
	b.mesh.UVs = b.mesh.UVs[:0]
	b.mesh.Indices = b.mesh.Indices[:0]
	b.prev1, b.prev2 = f32.Vec4{}, f32.Vec4{}
	b.resetBounds()
}

func (b *Batch) resetBounds() {
	b.min = [3]int32{math.MaxInt32, math.MaxInt32, math.MaxInt32}
	b.max = [3]int32{math.MinInt32, math.MinInt32, math.MinInt32}
}

func direction(start, end r3.Vec, radius float64) f32.Vec4 {
	d := r3.Sub(end, start)
	return f32.Vec4{float32(d.X), float32(d.Y), float32(d.Z), float32(radius)}
}

func vec3(v r3.Vec) f32.Vec3 {
	return f32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// intensityAlpha maps a 0-10 intensity onto an 8-bit alpha
func intensityAlpha(intensity float64) uint8 {
	a := intensity / parameter.MaxColorIntensity * 255
	return uint8(math.Round(math.Max(0, math.Min(255, a))))
}

func floor32(v float64) int32 {
	return clampInt32(math.Floor(v))
}

func ceil32(v float64) int32 {
	return clampInt32(math.Ceil(v))
}

func clampInt32(v float64) int32 {
	switch {
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}
