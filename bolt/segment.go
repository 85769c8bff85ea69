package bolt

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is one straight piece of a bolt
type Segment struct {
	Start, End r3.Vec
}

// SegmentGroup is a run of segments sharing one fade curve, usually one branch
type SegmentGroup struct {
	Segments []Segment

	// Segments before StartIndex only feed later calculations and are not rendered
	StartIndex int
	Generation int
	LineWidth  float64

	// Timing relative to the instance epoch
	Delay     float64
	PeakStart float64 // fade-in end
	PeakEnd   float64 // fade-out start
	LifeTime  float64

	Color  color.RGBA
	Lights []Light

	light *LightParameters
	run   *paramRun
}

func newSegmentGroup() *SegmentGroup {
	return &SegmentGroup{Segments: make([]Segment, 0, 16)}
}

// AddSegment appends a segment
func (g *SegmentGroup) AddSegment(start, end r3.Vec) {
	g.Segments = append(g.Segments, Segment{Start: start, End: end})
}

// SegmentCount returns the number of rendered segments
func (g *SegmentGroup) SegmentCount() int {
	return max(0, len(g.Segments)-g.StartIndex)
}

// Reset clears segments, lights and markers keeping capacity
func (g *SegmentGroup) Reset() {
	clear(g.Lights)
	*g = SegmentGroup{
		Segments: g.Segments[:0],
		Lights:   g.Lights[:0],
	}
}

// FadeMarkers computes peakStart, peakEnd and the adjusted lifetime of a fade curve
// Result satisfies 0 <= peakStart <= peakEnd <= life for non-negative inputs with fadePercent <= 0.5
func FadeMarkers(life, fadePercent, inMult, fullyLitMult, outMult float64) (peakStart, peakEnd, adjusted float64) {
	fade := life * fadePercent
	peakStart = fade * inMult
	peakEnd = peakStart + (life-2*fade)*fullyLitMult
	adjusted = peakEnd + fade*outMult
	return peakStart, peakEnd, adjusted
}

// LightIntensity evaluates a three phase fade at local time t
// Phases are linear fade-in to peakStart, full to peakEnd, linear fade-out to life
func LightIntensity(t, peakStart, peakEnd, life float64) float64 {
	switch {
	case t < 0 || t >= life:
		return 0
	case t < peakStart:
		return t / peakStart
	case t < peakEnd:
		return 1
	}
	span := life - peakEnd
	if span <= 0 {
		return 0
	}
	return 1 - (t-peakEnd)/span
}

// lightMarkers scales a group's geometry markers by its light fade multipliers
func (g *SegmentGroup) lightMarkers() (peakStart, peakEnd, life float64) {
	lp := g.light
	if lp == nil {
		return g.PeakStart, g.PeakEnd, g.LifeTime
	}
	peakStart = g.PeakStart * lp.FadeInMultiplier
	peakEnd = peakStart + (g.PeakEnd-g.PeakStart)*lp.FadeFullyLitMultiplier
	life = peakEnd + (g.LifeTime-g.PeakEnd)*lp.FadeOutMultiplier
	return peakStart, peakEnd, life
}
