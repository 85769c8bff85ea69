package bolt

import (
	"github.com/lixenwraith/boltfx/geometry"
	"github.com/lixenwraith/boltfx/pool"
	"github.com/lixenwraith/boltfx/status"
)

// Batch pairs a geometry builder with the renderable it commits into
type Batch struct {
	*geometry.Batch
	Renderable Renderable

	minDelay float64
	owner    *paramRun // set for batches exclusive to a transform
}

// Pools holds every reuse pool of one manager
// Batches, lights and segment groups cross contexts and are locked
// Transforms, parameters, instances and dependency bundles stay on the owning context
type Pools struct {
	Batches      *pool.Pool[*Batch]
	Groups       *pool.Pool[*SegmentGroup]
	Lights       *pool.Pool[Light]
	Transforms   *pool.Pool[*TransformState]
	Parameters   *pool.Pool[*Parameters]
	Dependencies *pool.Pool[*Dependencies]
}

// NewPools creates pools constructing scene resources through scene
func NewPools(scene Scene, maxQuads int, reg *status.Registry) *Pools {
	return &Pools{
		Batches: pool.New("batch",
			func() *Batch {
				r := scene.NewRenderable()
				return &Batch{Batch: geometry.NewBatch(r, maxQuads), Renderable: r}
			},
			pool.WithLock[*Batch](),
			pool.WithReset(func(b *Batch) {
				b.Reset()
				b.minDelay = 0
				b.owner = nil
			}),
			pool.WithValidate(func(b *Batch) bool { return b.Renderable.Alive() }),
			pool.WithDestroy(func(b *Batch) { b.Renderable.Destroy() }),
			pool.WithStatus[*Batch](reg),
		),
		Groups: pool.New("group", newSegmentGroup,
			pool.WithLock[*SegmentGroup](),
			pool.WithReset((*SegmentGroup).Reset),
			pool.WithStatus[*SegmentGroup](reg),
		),
		Lights: pool.New("light", scene.NewLight,
			pool.WithLock[Light](),
			pool.WithValidate(Light.Alive),
			pool.WithDestroy(Light.Destroy),
			pool.WithStatus[Light](reg),
		),
		Transforms: pool.New("transform", func() *TransformState { return &TransformState{} },
			pool.WithReset((*TransformState).reset),
		),
		Parameters: pool.New("parameters", NewParameters,
			pool.WithReset((*Parameters).Reset),
			pool.WithStatus[*Parameters](reg),
		),
		Dependencies: pool.New("dependencies", func() *Dependencies { return &Dependencies{} },
			pool.WithReset((*Dependencies).Reset),
		),
	}
}

// ClearAll destroys pooled scene handles and empties every pool
func (p *Pools) ClearAll() {
	p.Batches.ClearAll()
	p.Groups.ClearAll()
	p.Lights.ClearAll()
	p.Transforms.ClearAll()
	p.Parameters.ClearAll()
	p.Dependencies.ClearAll()
}
