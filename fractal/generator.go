// Package fractal generates branching discharge paths by midpoint displacement
package fractal

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
)

// Generator subdivides the trunk once per generation, displacing each midpoint
// perpendicular to its segment by the chaos factor, and spawns forks from midpoints
// Planar keeps every displacement in the XY plane for 2D scenes
type Generator struct {
	Planar bool
}

var polylinePool = sync.Pool{
	New: func() any {
		s := make([]r3.Vec, 0, 256)
		return &s
	},
}

type fork struct {
	start, end r3.Vec
	generation int
	width      float64
}

// Generate implements bolt.Generator
func (g Generator) Generate(inst *bolt.Instance, p *bolt.Parameters) (start, end r3.Vec) {
	rng := p.Rand()

	bufA := polylinePool.Get().(*[]r3.Vec)
	bufB := polylinePool.Get().(*[]r3.Vec)
	defer func() {
		*bufA = (*bufA)[:0]
		*bufB = (*bufB)[:0]
		polylinePool.Put(bufA)
		polylinePool.Put(bufB)
	}()

	path := (*bufA)[:0]
	if len(p.Points) >= 2 {
		path = append(path, p.Points...)
	} else {
		path = append(path, p.Start, p.End)
	}
	path[0] = r3.Add(path[0], g.jitter(rng, p.StartVariance))
	last := len(path) - 1
	path[last] = r3.Add(path[last], g.jitter(rng, p.EndVariance))
	start, end = path[0], path[last]

	budget := p.ForkBudget
	var forks []fork

	// Trunk first so group zero is the main branch at full generation
	trunk := inst.AddGroup()
	trunk.Generation = p.Generations
	trunk.LineWidth = p.TrunkWidth
	path, *bufB = g.subdivide(rng, path, (*bufB)[:0], p.Generations, p.ChaosFactor, p, &budget, &forks, p.TrunkWidth)
	*bufA = path
	emit(trunk, path)

	for i := 0; i < len(forks); i++ {
		f := forks[i]
		group := inst.AddGroup()
		group.Generation = f.generation
		group.LineWidth = f.width

		fp := append((*bufA)[:0], f.start, f.end)
		fp, *bufB = g.subdivide(rng, fp, (*bufB)[:0], f.generation, p.ChaosFactorForks, p, &budget, &forks, f.width)
		*bufA = fp
		emit(group, fp)
	}
	return start, end
}

// subdivide runs generations-1 displacement passes over path using spare as the swap buffer
// Forks are queued while the pass index is below ForkStopGeneration and budget remains
func (g Generator) subdivide(rng *rand.Rand, path, spare []r3.Vec, generations int, chaos float64,
	p *bolt.Parameters, budget *int, forks *[]fork, width float64) ([]r3.Vec, []r3.Vec) {

	offset := chaos * polylineLength(path)
	for pass := 1; pass < generations; pass++ {
		next := spare[:0]
		for i := 0; i < len(path)-1; i++ {
			a, b := path[i], path[i+1]
			mid := r3.Scale(0.5, r3.Add(a, b))
			mid = r3.Add(mid, r3.Scale(offset*(rng.Float64()*2-1), g.perpendicular(rng, r3.Sub(b, a))))
			next = append(next, a, mid)

			if pass < p.ForkStopGeneration && *budget > 0 && rng.Float64() < p.Forkedness {
				*budget--
				*forks = append(*forks, fork{
					start:      mid,
					end:        g.forkEnd(rng, a, mid, path[len(path)-1], p),
					generation: generations - pass,
					width:      width * 0.5,
				})
			}
		}
		next = append(next, path[len(path)-1])
		path, spare = next, path
		offset *= 0.5
	}
	return path, spare
}

// forkEnd points a fork away from its parent direction with a length drawn from ForkLength
func (g Generator) forkEnd(rng *rand.Rand, a, mid, trunkEnd r3.Vec, p *bolt.Parameters) r3.Vec {
	dir := r3.Sub(mid, a)
	if r3.Norm(dir) < 1e-9 {
		dir = r3.Vec{X: 1}
	}
	dir = r3.Unit(dir)
	side := g.perpendicular(rng, dir)
	if rng.Intn(2) == 0 {
		side = r3.Scale(-1, side)
	}
	heading := r3.Unit(r3.Add(dir, r3.Scale(0.5+rng.Float64()*0.5, side)))

	length := r3.Norm(r3.Sub(trunkEnd, mid)) * p.ForkLength.Random(rng)
	return r3.Add(mid, r3.Scale(length, heading))
}

// perpendicular returns a unit vector orthogonal to d
func (g Generator) perpendicular(rng *rand.Rand, d r3.Vec) r3.Vec {
	if r3.Norm(d) < 1e-12 {
		return r3.Vec{Y: 1}
	}
	if g.Planar {
		return r3.Unit(r3.Vec{X: -d.Y, Y: d.X})
	}
	ref := r3.Vec{Z: 1}
	if math.Abs(r3.Unit(d).Z) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	u := r3.Unit(r3.Cross(d, ref))
	v := r3.Unit(r3.Cross(d, u))
	theta := rng.Float64() * 2 * math.Pi
	return r3.Add(r3.Scale(math.Cos(theta), u), r3.Scale(math.Sin(theta), v))
}

// jitter returns a random offset of at most radius
func (g Generator) jitter(rng *rand.Rand, radius float64) r3.Vec {
	if radius <= 0 {
		return r3.Vec{}
	}
	theta := rng.Float64() * 2 * math.Pi
	r := rng.Float64() * radius
	if g.Planar {
		return r3.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	}
	z := rng.Float64()*2 - 1
	s := math.Sqrt(1 - z*z)
	return r3.Scale(r, r3.Vec{X: s * math.Cos(theta), Y: s * math.Sin(theta), Z: z})
}

func polylineLength(path []r3.Vec) float64 {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		total += r3.Norm(r3.Sub(path[i+1], path[i]))
	}
	return total
}

func emit(group *bolt.SegmentGroup, path []r3.Vec) {
	for i := 0; i < len(path)-1; i++ {
		group.AddSegment(path[i], path[i+1])
	}
}
