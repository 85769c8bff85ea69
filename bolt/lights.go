package bolt

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/parameter"
)

// createLights spaces lights evenly along each main trunk group of run
// Only groups at the run's full generation count are lit
func (in *Instance) createLights(run *paramRun) {
	for gi := run.firstGroup; gi < run.lastGroup; gi++ {
		g := in.groups[gi]
		if g.Generation != run.params.Generations {
			continue
		}

		n := g.SegmentCount()
		if n == 0 {
			continue
		}
		maxLights := max(1, min(run.lightBudget, int(float64(n)*run.lightPercent)))
		nth := max(1, n/maxLights)

		shadows := int(float64(maxLights) * run.lightShadowPercent)
		nthShadow := 0
		if shadows > 0 {
			nthShadow = max(1, maxLights/shadows)
		}

		placed, shadowed := 0, 0
		for i := g.StartIndex + nth/2; i < len(g.Segments) && placed < maxLights; i += nth {
			shadow := nthShadow > 0 && shadowed < shadows && placed%nthShadow == 0
			if !in.AddLightToGroup(g, g.Segments[i].Start, shadow) {
				return
			}
			placed++
			if shadow {
				shadowed++
			}
		}
	}
}

// AddLightToGroup attaches a pooled light at pos to g
// No-op returning false once the manager's global cap or the parameter set's budget is reached
// Must be called on the owning context
func (in *Instance) AddLightToGroup(g *SegmentGroup, pos r3.Vec, shadow bool) bool {
	m := in.m
	lp := g.light
	if lp == nil || g.run == nil {
		return false
	}
	if m.lightCount >= m.cfg.Lights.MaxTotal || g.run.lightsCreated >= g.run.lightBudget {
		m.statDroppedLights.Add(1)
		return false
	}

	l := m.pools.Lights.Acquire()
	l.SetProperties(LightProperties{Color: lp.Color, Range: lp.Range, Shadows: shadow})
	l.SetPosition(in.deps.lightPosition(pos, lp.OrthographicOffset))
	l.SetIntensity(0)

	if len(g.Lights) == 0 {
		in.lightGroups = append(in.lightGroups, g)
	}
	g.Lights = append(g.Lights, l)
	g.run.lightsCreated++

	m.lightCount++
	m.statLights.Store(int64(m.lightCount))
	if in.deps.LightAdded != nil {
		in.deps.LightAdded(l)
	}
	return true
}

// updateGroupLights sets every light of g from its fade curve at the instance's elapsed time
func (in *Instance) updateGroupLights(g *SegmentGroup) {
	peakStart, peakEnd, life := g.lightMarkers()
	intensity := LightIntensity(in.elapsed-g.Delay, peakStart, peakEnd, life) * g.light.Intensity
	if intensity < parameter.Epsilon {
		intensity = 0
	}
	for _, l := range g.Lights {
		l.SetIntensity(intensity)
	}
}
