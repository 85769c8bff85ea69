package bolt

import (
	"math/rand"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/core"
	"github.com/lixenwraith/boltfx/engine"
	"github.com/lixenwraith/boltfx/parameter"
	"github.com/lixenwraith/boltfx/pool"
	"github.com/lixenwraith/boltfx/status"
)

// Manager is the host facing owner of instances, pools and the scheduler
// Every method except Pools and Registry must be called on the owning context
type Manager struct {
	cfg      parameter.Config
	scene    Scene
	gen      Generator
	sched    *engine.Scheduler
	timeline *engine.Timeline
	pools    *Pools
	reg      *status.Registry

	instances *pool.Pool[*Instance]
	template  Dependencies
	rng       *rand.Rand

	now        float64
	active     []*Instance
	live       map[*Instance]struct{}
	lightCount int
	closed     bool

	// Cached metric pointers
	statActive          *atomic.Int64
	statStarted         *atomic.Int64
	statExpired         *atomic.Int64
	statLights          *atomic.Int64
	statDroppedLights   *atomic.Int64
	statSegments        *atomic.Int64
	statDroppedSegments *atomic.Int64
	statNow             *status.AtomicFloat
}

// Option configures a Manager
type Option func(*Manager)

// WithRegistry publishes metrics into reg
func WithRegistry(reg *status.Registry) Option {
	return func(m *Manager) { m.reg = reg }
}

// WithDependencies sets the template copied into every dependency bundle
// Scene and ReturnToCache are always overwritten by the manager
func WithDependencies(d Dependencies) Option {
	return func(m *Manager) { m.template = d }
}

// WithSeed seeds the random sources handed to new parameter sets
func WithSeed(seed int64) Option {
	return func(m *Manager) { m.rng = rand.New(rand.NewSource(seed)) }
}

// NewManager creates a manager and starts its scheduler
func NewManager(cfg parameter.Config, scene Scene, gen Generator, opts ...Option) *Manager {
	m := &Manager{
		cfg:      cfg,
		scene:    scene,
		gen:      gen,
		timeline: engine.NewTimeline(),
		live:     make(map[*Instance]struct{}),
	}
	m.template.Camera = cameraFromConfig(cfg.Camera)
	m.template.LevelOfDetailDistance = cfg.Camera.LODDistance

	for _, opt := range opts {
		opt(m)
	}
	if m.reg == nil {
		m.reg = status.NewRegistry()
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	m.sched = engine.NewScheduler(cfg.Scheduler, m.reg)
	m.pools = NewPools(scene, cfg.Batch.MaxQuads, m.reg)
	m.instances = pool.New("instance", func() *Instance { return newInstance(m) },
		pool.WithStatus[*Instance](m.reg),
	)

	m.statActive = m.reg.Ints.Get("bolt.active")
	m.statStarted = m.reg.Ints.Get("bolt.started")
	m.statExpired = m.reg.Ints.Get("bolt.expired")
	m.statLights = m.reg.Ints.Get("lights.active")
	m.statDroppedLights = m.reg.Ints.Get("lights.dropped")
	m.statSegments = m.reg.Ints.Get("bolt.segments")
	m.statDroppedSegments = m.reg.Ints.Get("bolt.segments_dropped")
	m.statNow = m.reg.Floats.Get("bolt.now")

	m.sched.Start()
	return m
}

func cameraFromConfig(c parameter.CameraConfig) Camera {
	cam := Camera{Position: r3.Vec{X: c.Position[0], Y: c.Position[1], Z: c.Position[2]}}
	if c.Orthographic {
		cam.Mode = CameraOrthographicXY
		if c.Mode == "xz" {
			cam.Mode = CameraOrthographicXZ
		}
	}
	return cam
}

// Scheduler returns the dual-queue scheduler
func (m *Manager) Scheduler() *engine.Scheduler {
	return m.sched
}

// Timeline returns the delayed callback timeline driven by Advance
func (m *Manager) Timeline() *engine.Timeline {
	return m.timeline
}

// Pools returns the manager's reuse pools
func (m *Manager) Pools() *Pools {
	return m.pools
}

// Registry returns the metrics registry
func (m *Manager) Registry() *status.Registry {
	return m.reg
}

// Now returns the effect time passed to the last Advance
func (m *Manager) Now() float64 {
	return m.now
}

// Active returns instances currently in the active state
func (m *Manager) Active() []*Instance {
	return m.active
}

// LightCount returns lights attached across all instances
func (m *Manager) LightCount() int {
	return m.lightCount
}

// AcquireParameters returns a pooled parameter set initialized from the configured preset
func (m *Manager) AcquireParameters() *Parameters {
	p := m.pools.Parameters.Acquire()
	p.ApplyPreset(m.cfg.Bolt)
	if p.Random == nil {
		p.Random = rand.New(rand.NewSource(m.rng.Int63()))
	}
	return p
}

// NewInstance returns an idle instance from the instance cache
func (m *Manager) NewInstance() *Instance {
	return m.instances.Acquire()
}

// AcquireDependencies returns a pooled bundle filled from the template
func (m *Manager) AcquireDependencies() *Dependencies {
	d := m.pools.Dependencies.Acquire()
	*d = m.template
	d.Scene = m.scene
	d.ReturnToCache = m.releaseDependencies
	return d
}

func (m *Manager) releaseDependencies(d *Dependencies) {
	m.pools.Dependencies.Release(d)
}

// Strike starts a new instance over params
func (m *Manager) Strike(params ...*Parameters) (*Instance, error) {
	in := m.NewInstance()
	deps := m.AcquireDependencies()
	if err := in.Start(params, deps); err != nil {
		m.releaseDependencies(deps)
		m.instances.Release(in)
		return nil, err
	}
	return in, nil
}

// Advance is the owner tick: drain owner work, run due timeline callbacks, update and reclaim instances
// now is the host's effect time, dt the step since the previous call
func (m *Manager) Advance(dt, now float64) int {
	if m.closed {
		return 0
	}
	m.now = now
	m.statNow.Set(now)

	m.sched.DrainOwnerQueue()
	m.timeline.Advance(dt)

	kept := m.active[:0]
	var expired []*Instance
	for _, in := range m.active {
		if in.Update(dt) {
			kept = append(kept, in)
		} else {
			expired = append(expired, in)
		}
	}
	clear(m.active[len(kept):])
	m.active = kept

	for _, in := range expired {
		in.Expire(false)
		m.instances.Release(in)
		m.statExpired.Add(1)
	}
	m.statActive.Store(int64(len(m.active)))
	return len(m.active)
}

// Close terminates the scheduler, expires every instance and clears all pools
// teardown skips scene mutation on instances that are still live
func (m *Manager) Close(teardown bool) {
	if m.closed {
		return
	}
	m.closed = true
	drained := m.sched.Terminate(teardown)
	m.timeline.Clear()

	for in := range m.live {
		// A timed out terminate leaves the worker inside generate or render, it still owns the run
		if st := in.State(); !drained && (st == StateGenerating || st == StateRendering) {
			core.Logger().Warn("bolt: abandoning instance still generating", "instance", in.ID, "state", st)
			m.untrack(in)
			continue
		}
		in.Expire(teardown)
	}
	clear(m.active)
	m.active = m.active[:0]
	m.statActive.Store(0)

	m.pools.ClearAll()
	m.instances.ClearAll()
	core.Logger().Debug("bolt: manager closed", "teardown", teardown)
}

func (m *Manager) track(in *Instance) {
	m.live[in] = struct{}{}
	m.statStarted.Add(1)
}

func (m *Manager) untrack(in *Instance) {
	delete(m.live, in)
}

func (m *Manager) activate(in *Instance) {
	m.active = append(m.active, in)
	m.statActive.Store(int64(len(m.active)))
}

// qualityTier returns the active tier, a configured level without a tier logs and falls back to parameters
func (m *Manager) qualityTier() (parameter.QualityTier, bool) {
	if m.cfg.Quality.UsesParameters() {
		return parameter.QualityTier{}, false
	}
	tier, ok := m.cfg.Quality.Active()
	if !ok {
		core.Logger().Warn("bolt: quality tier missing, using parameter values", "level", m.cfg.Quality.Level)
	}
	return tier, ok
}

// releaseLight detaches l and returns it to the light pool
func (m *Manager) releaseLight(l Light, deps *Dependencies, teardown bool) {
	if !teardown {
		l.SetIntensity(0)
	}
	m.pools.Lights.Release(l)
	m.lightCount--
	m.statLights.Store(int64(m.lightCount))
	if deps != nil && deps.LightRemoved != nil {
		deps.LightRemoved(l)
	}
}
