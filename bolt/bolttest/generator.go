package bolttest

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
)

// LineGenerator builds a straight trunk of 2^(generations-1) segments from Start to End
// Forks adds that many single-segment fork groups one generation below the trunk
type LineGenerator struct {
	Forks int
}

// Generate implements bolt.Generator
func (g LineGenerator) Generate(inst *bolt.Instance, p *bolt.Parameters) (r3.Vec, r3.Vec) {
	trunk := inst.AddGroup()
	trunk.Generation = p.Generations
	trunk.LineWidth = p.TrunkWidth

	n := 1 << (p.Generations - 1)
	prev := p.Start
	for i := 1; i <= n; i++ {
		next := r3.Add(p.Start, r3.Scale(float64(i)/float64(n), r3.Sub(p.End, p.Start)))
		trunk.AddSegment(prev, next)
		prev = next
	}

	for f := 0; f < g.Forks; f++ {
		fork := inst.AddGroup()
		fork.Generation = p.Generations - 1
		fork.LineWidth = p.TrunkWidth * 0.5
		origin := trunk.Segments[f%len(trunk.Segments)].End
		fork.AddSegment(origin, r3.Add(origin, r3.Vec{Y: 1}))
	}
	return p.Start, p.End
}
