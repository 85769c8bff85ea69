package bolt

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/image/math/f32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/core"
	"github.com/lixenwraith/boltfx/geometry"
	"github.com/lixenwraith/boltfx/parameter"
)

// State is the lifecycle stage of an instance
type State int32

const (
	StateIdle State = iota
	StateGenerating
	StateRendering
	StateActive
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateRendering:
		return "rendering"
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// paramRun holds values resolved for one parameter set during a run
type paramRun struct {
	params *Parameters

	delay              float64
	start, end         r3.Vec
	firstGroup         int
	lastGroup          int
	lightBudget        int
	lightsCreated      int
	lightPercent       float64
	lightShadowPercent float64

	originCount      int
	destinationCount int
}

// Instance is one discharge spanning one or more parameter sets
// Start and Update are called on the owning context, generation may run on the background worker
type Instance struct {
	ID string

	m     *Manager
	state atomic.Int32
	// serial changes on every reset so delayed callbacks from an older run are ignored
	serial atomic.Uint64

	deps   *Dependencies
	params []*Parameters
	runs   []paramRun

	groups      []*SegmentGroup
	lightGroups []*SegmentGroup
	batches     []*Batch
	transforms  []*TransformState

	// epoch is host time at start, startedAt the timeline time every delay is measured from
	epoch       float64
	startedAt   float64
	elapsed     float64
	lifeTime    float64
	maxLifeTime float64
	minDelay    float64
	hasGlow     bool
}

func newInstance(m *Manager) *Instance {
	return &Instance{m: m}
}

// State returns the current lifecycle stage
func (in *Instance) State() State {
	return State(in.state.Load())
}

// Elapsed returns seconds since the instance started
func (in *Instance) Elapsed() float64 {
	return in.elapsed
}

// LifeTime returns the longest delay plus life across parameter sets
func (in *Instance) LifeTime() float64 {
	return in.lifeTime
}

// MaxLifeTime returns the time after which the instance expires
func (in *Instance) MaxLifeTime() float64 {
	return in.maxLifeTime
}

// Groups returns every segment group of the run
func (in *Instance) Groups() []*SegmentGroup {
	return in.groups
}

// SegmentGroupsWithLight returns groups holding at least one light
func (in *Instance) SegmentGroupsWithLight() []*SegmentGroup {
	return in.lightGroups
}

// Batches returns the geometry batches of the run
func (in *Instance) Batches() []*Batch {
	return in.batches
}

// HasGlow reports whether any parameter set requested glow
func (in *Instance) HasGlow() bool {
	return in.hasGlow
}

// AddGroup returns a pooled segment group appended to the instance
// Generators must create every group through this call
func (in *Instance) AddGroup() *SegmentGroup {
	g := in.m.pools.Groups.Acquire()
	in.groups = append(in.groups, g)
	return g
}

// Start binds params and deps and begins generation
// Misuse is logged and returned, the instance stays idle without partial state
func (in *Instance) Start(params []*Parameters, deps *Dependencies) error {
	log := core.Logger()

	switch {
	case deps == nil:
		log.Error("bolt: start rejected", "error", ErrNilDependencies)
		return ErrNilDependencies
	case len(params) == 0:
		log.Error("bolt: start rejected", "error", ErrNoParameters)
		return ErrNoParameters
	case in.deps != nil || in.State() != StateIdle:
		log.Error("bolt: start rejected", "error", ErrInUse, "instance", in.ID)
		return ErrInUse
	case in.m.closed || in.m.sched.Terminating():
		log.Error("bolt: start rejected", "error", ErrClosed)
		return ErrClosed
	}

	in.ID = uuid.NewString()
	in.deps = deps
	in.params = append(in.params[:0], params...)
	in.epoch = in.m.now
	in.startedAt = in.m.timeline.Now()
	in.minDelay = math.MaxFloat64

	in.hasGlow = false
	for _, p := range params {
		if p.glow() {
			in.hasGlow = true
			break
		}
	}

	in.state.Store(int32(StateGenerating))
	in.m.track(in)
	log.Debug("bolt: generating", "instance", in.ID, "params", len(params))

	serial := in.serial.Load()
	if !in.m.sched.SubmitToBackground(func(ctx context.Context) { in.generate(ctx, serial) }) {
		in.m.untrack(in)
		in.deps = nil
		in.params = in.params[:0]
		in.state.Store(int32(StateIdle))
		return ErrClosed
	}
	return nil
}

// generate resolves each parameter set and runs the generator
func (in *Instance) generate(ctx context.Context, serial uint64) {
	if serial != in.serial.Load() {
		return
	}
	m := in.m
	cam := in.deps.Camera.Position
	lod := in.deps.LevelOfDetailDistance

	lightBudget := m.cfg.Lights.MaxPerInstance / len(in.params)
	tier, useTier := m.qualityTier()

	in.runs = in.runs[:0]
	for _, p := range in.params {
		rng := p.Rand()
		run := paramRun{params: p}

		// Effective delay lies in [Delay+DelayRange.Min, Delay+DelayRange.Max]
		run.delay = max(0, p.Delay+p.DelayRange.Random(rng))

		gens := clampGenerations(p.Generations)
		subtractor := p.ForkStopSubtractor
		if lod > parameter.Epsilon {
			a, b := p.endpoints()
			d := min(r3.Norm(r3.Sub(a, cam)), r3.Norm(r3.Sub(b, cam)))
			mod := min(parameter.LODGenerationCap, int(d/lod))
			gens = max(parameter.MinGenerations, gens-mod)
			subtractor = min(parameter.LODGenerationCap, max(0, subtractor-mod))
		}
		if useTier {
			gens = min(gens, tier.MaxGenerations)
		}
		gens = clampGenerations(gens)

		p.Generations = gens
		p.ForkStopGeneration = gens - subtractor
		p.ForkBudget = int(math.Ceil(p.Forkedness * float64(gens)))

		if p.Light != nil {
			run.lightBudget = lightBudget
			run.lightPercent = p.Light.LightPercent
			run.lightShadowPercent = p.Light.LightShadowPercent
			if useTier {
				run.lightPercent = tier.LightPercent
				run.lightShadowPercent = tier.LightShadowPercent
			}
		}

		run.firstGroup = len(in.groups)
		run.start, run.end = m.gen.Generate(in, p)
		run.lastGroup = len(in.groups)

		// Particle counts use the parameter's random source here, not on the owner
		run.originCount = burstCount(in.deps.OriginParticles, rng)
		run.destinationCount = burstCount(in.deps.DestinationParticles, rng)

		in.lifeTime = max(in.lifeTime, run.delay+p.LifeTime)
		in.minDelay = min(in.minDelay, run.delay)
		in.runs = append(in.runs, run)
	}
	in.maxLifeTime = in.lifeTime

	in.render(ctx, serial)
}

// render fills geometry batches and funnels scene work to the owner
func (in *Instance) render(ctx context.Context, serial uint64) {
	in.state.Store(int32(StateRendering))
	m := in.m

	var shared *Batch
runs:
	for i := range in.runs {
		run := &in.runs[i]
		p := run.params
		exclusive := p.Transform != nil

		var own *Batch
		if exclusive {
			if own = in.acquireBatch(ctx); own == nil {
				break runs
			}
			own.minDelay = run.delay
			own.owner = run
		}

		for gi := run.firstGroup; gi < run.lastGroup; gi++ {
			g := in.groups[gi]
			in.prepareGroup(g, run)

			n := g.SegmentCount()
			if n == 0 {
				continue
			}

			if exclusive {
				if dropped := in.appendGroup(own, g, p); dropped > 0 {
					m.statDroppedSegments.Add(int64(dropped))
				}
				continue
			}

			for written := 0; written < n; {
				if shared == nil || !shared.HasRoom(1) {
					if shared != nil {
						in.finishBatch(ctx, serial, shared)
					}
					if shared = in.acquireBatch(ctx); shared == nil {
						break runs
					}
					shared.minDelay = run.delay
				}
				shared.minDelay = min(shared.minDelay, run.delay)
				written += in.appendGroupFrom(shared, g, p, written)
			}
		}

		if exclusive {
			in.finishBatch(ctx, serial, own)
		}
		in.submitRunEffects(ctx, serial, run)
	}

	if shared != nil {
		in.finishBatch(ctx, serial, shared)
	}

	m.sched.SubmitToOwner(ctx, func(teardown bool) {
		if teardown || serial != in.serial.Load() {
			return
		}
		in.activate()
	}, false)
}

// prepareGroup assigns timing markers and extends the instance lifetime
func (in *Instance) prepareGroup(g *SegmentGroup, run *paramRun) {
	p := run.params
	g.Delay = run.delay
	g.PeakStart, g.PeakEnd, g.LifeTime = FadeMarkers(p.LifeTime, p.FadePercent,
		p.FadeInMultiplier, p.FadeFullyLitMultiplier, p.FadeOutMultiplier)
	g.Color = p.Color
	g.light = p.Light
	g.run = run
	if g.LineWidth <= 0 {
		g.LineWidth = p.TrunkWidth
	}

	end := g.Delay + g.LifeTime
	if g.light != nil {
		_, _, lightLife := g.lightMarkers()
		end = max(end, g.Delay+lightLife)
	}
	in.maxLifeTime = max(in.maxLifeTime, end)
}

// appendGroup writes a whole group into an exclusive batch, returning segments that did not fit
func (in *Instance) appendGroup(b *Batch, g *SegmentGroup, p *Parameters) int {
	n := g.SegmentCount()
	written := 0
	for written < n && b.HasRoom(1) {
		written += in.appendGroupFrom(b, g, p, written)
	}
	return n - written
}

// appendGroupFrom writes rendered segments of g starting at offset while b has room
// Radius tapers from half width to half width times EndWidthMultiplier across the group
func (in *Instance) appendGroupFrom(b *Batch, g *SegmentGroup, p *Parameters, offset int) int {
	n := g.SegmentCount()
	half := g.LineWidth * 0.5
	step := (half*p.EndWidthMultiplier - half) / float64(n)

	stagger := 0.0
	if p.GrowthMultiplier > parameter.Epsilon {
		stagger = g.PeakStart / float64(n) * p.GrowthMultiplier
	}
	fade := func(i int) f32.Vec4 {
		start := g.Delay + stagger*float64(i)
		peakStart := g.Delay + g.PeakStart
		return f32.Vec4{float32(min(start, peakStart)), float32(peakStart),
			float32(g.Delay + g.PeakEnd), float32(g.Delay + g.LifeTime)}
	}

	written := 0
	for i := offset; i < n && b.HasRoom(1); i++ {
		s := g.Segments[g.StartIndex+i]
		l := geometry.Line{
			Start:         s.Start,
			End:           s.End,
			Radius:        half + step*float64(i),
			Color:         g.Color,
			Intensity:     p.Intensity,
			GlowWidth:     p.GlowWidthMultiplier,
			GlowIntensity: p.GlowIntensity,
			StartFade:     fade(i),
			EndFade:       fade(i + 1),
		}
		if written == 0 {
			b.BeginLine(l)
		} else {
			b.AppendLine(l)
		}
		written++
	}
	in.m.statSegments.Add(int64(written))
	return written
}

// acquireBatch takes a pooled batch, creating one on the owner when none is idle
func (in *Instance) acquireBatch(ctx context.Context) *Batch {
	m := in.m
	b, ok := m.pools.Batches.TryAcquire()
	if !ok {
		h := &batchHandoff{}
		m.sched.SubmitToOwner(ctx, func(teardown bool) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if !teardown && !h.abandoned {
				h.batch = m.pools.Batches.Acquire()
			}
		}, true)
		if b = h.take(); b == nil {
			core.Logger().Warn("bolt: no batch available, dropping remaining geometry", "instance", in.ID)
			return nil
		}
	}
	in.batches = append(in.batches, b)
	return b
}

// batchHandoff carries a batch created on the owner back to a waiting worker
// A worker that gave up marks it abandoned so a late owner op creates nothing
type batchHandoff struct {
	mu        sync.Mutex
	batch     *Batch
	abandoned bool
}

func (h *batchHandoff) take() *Batch {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.batch == nil {
		h.abandoned = true
	}
	return h.batch
}

// finishBatch hands a filled batch to the owner for commit and enable
func (in *Instance) finishBatch(ctx context.Context, serial uint64, b *Batch) {
	in.m.sched.SubmitToOwner(ctx, func(teardown bool) {
		if teardown || serial != in.serial.Load() {
			return
		}
		in.enableBatch(b, serial)
	}, false)
}

// enableBatch commits geometry and shows it once its earliest delay has passed
func (in *Instance) enableBatch(b *Batch, serial uint64) {
	b.Renderable.Configure(in.deps.surfaceSetup(in.hasGlow))
	b.Commit()

	show := func() {
		if serial != in.serial.Load() {
			return
		}
		b.Renderable.Enable(in.epoch)
		if b.owner != nil {
			in.startTransform(b)
		}
		if in.deps.BatchEnabled != nil {
			in.deps.BatchEnabled(in, b)
		}
	}

	if b.minDelay > in.since() {
		in.m.timeline.At(in.startedAt+b.minDelay, show)
		return
	}
	show()
}

// submitRunEffects queues light creation and particle bursts for one parameter set
func (in *Instance) submitRunEffects(ctx context.Context, serial uint64, run *paramRun) {
	m := in.m
	if run.params.Light.HasLight() && run.lightPercent > parameter.Epsilon && run.lightBudget > 0 {
		m.sched.SubmitToOwner(ctx, func(teardown bool) {
			if teardown || serial != in.serial.Load() {
				return
			}
			in.createLights(run)
		}, false)
	}

	if run.originCount > 0 || run.destinationCount > 0 {
		m.sched.SubmitToOwner(ctx, func(teardown bool) {
			if teardown || serial != in.serial.Load() {
				return
			}
			in.scheduleBurst(serial, in.deps.OriginParticles, run.start, run.originCount, run.delay)
			in.scheduleBurst(serial, in.deps.DestinationParticles, run.end, run.destinationCount,
				run.delay+run.params.LifeTime*parameter.DestinationBurstDelayFraction)
		}, false)
	}
}

func (in *Instance) scheduleBurst(serial uint64, e Emitter, at r3.Vec, count int, delay float64) {
	if e == nil || count <= 0 {
		return
	}
	emit := func() {
		if serial == in.serial.Load() {
			e.Emit(at, count)
		}
	}
	if delay > in.since() {
		in.m.timeline.At(in.startedAt+delay, emit)
		return
	}
	emit()
}

// burstCount draws a particle count from the burst range, else from the rate range
func burstCount(e Emitter, rng *rand.Rand) int {
	if e == nil {
		return 0
	}
	if lo, hi, ok := e.BurstRange(); ok {
		if hi <= lo {
			return lo
		}
		return lo + int(rng.Float64()*float64(hi-lo+1))
	}
	lo, hi := e.RateRange()
	return int(Range{Min: lo, Max: hi}.Random(rng))
}

// since returns timeline seconds since Start, the clock every delay and elapsed value follows
// Owner ops drained late in background mode catch up through it instead of the host time
func (in *Instance) since() float64 {
	return in.m.timeline.Now() - in.startedAt
}

// activate marks the instance live on the owner after all scene work was queued
func (in *Instance) activate() {
	in.elapsed = in.since()
	in.state.Store(int32(StateActive))
	in.m.activate(in)
	core.Logger().Debug("bolt: active", "instance", in.ID,
		"groups", len(in.groups), "batches", len(in.batches), "max_life", in.maxLifeTime)
}

// Update advances the instance by dt, returning false once it should expire
func (in *Instance) Update(dt float64) bool {
	if in.State() != StateActive {
		return false
	}
	in.elapsed += dt
	if in.elapsed > in.maxLifeTime {
		return false
	}
	for _, g := range in.lightGroups {
		in.updateGroupLights(g)
	}
	for _, ts := range in.transforms {
		in.runTransform(ts, TransformExecuting)
	}
	return true
}

// Expire releases every pooled resource of the run and returns the instance to idle
// teardown skips scene mutation while still returning resources to their pools
func (in *Instance) Expire(teardown bool) {
	m := in.m
	in.state.Store(int32(StateExpired))
	core.Logger().Debug("bolt: expired", "instance", in.ID, "teardown", teardown)

	for _, g := range in.lightGroups {
		for _, l := range g.Lights {
			m.releaseLight(l, in.deps, teardown)
		}
	}
	for _, ts := range in.transforms {
		if !teardown {
			in.runTransform(ts, TransformEnded)
		}
		m.pools.Transforms.Release(ts)
	}
	for _, g := range in.groups {
		m.pools.Groups.Release(g)
	}
	for _, b := range in.batches {
		if !teardown {
			b.Renderable.Disable()
		}
		m.pools.Batches.Release(b)
	}

	if deps := in.deps; deps != nil && deps.ReturnToCache != nil {
		deps.ReturnToCache(deps)
	}
	for _, p := range in.params {
		if p.OnComplete != nil {
			p.OnComplete(p)
		}
		m.pools.Parameters.Release(p)
	}

	m.untrack(in)
	in.reset()
}

// reset clears run state keeping slice capacity
func (in *Instance) reset() {
	in.serial.Add(1)
	in.ID = ""
	in.deps = nil
	clear(in.params)
	in.params = in.params[:0]
	clear(in.runs)
	in.runs = in.runs[:0]
	clear(in.groups)
	in.groups = in.groups[:0]
	clear(in.lightGroups)
	in.lightGroups = in.lightGroups[:0]
	clear(in.batches)
	in.batches = in.batches[:0]
	clear(in.transforms)
	in.transforms = in.transforms[:0]
	in.epoch, in.startedAt, in.elapsed, in.lifeTime, in.maxLifeTime, in.minDelay = 0, 0, 0, 0, 0, 0
	in.hasGlow = false
	in.state.Store(int32(StateIdle))
}

// startTransform hands an exclusive batch to its parameter set's transform callback
func (in *Instance) startTransform(b *Batch) {
	run := b.owner
	ts := in.m.pools.Transforms.Acquire()
	ts.Params = run.params
	ts.Start, ts.End = run.start, run.end
	ts.LifeTime = run.params.LifeTime
	ts.Target = b.Renderable
	ts.UserData = run.params.UserData
	in.transforms = append(in.transforms, ts)
	in.runTransform(ts, TransformStarted)
}

func (in *Instance) runTransform(ts *TransformState, phase TransformPhase) {
	ts.Phase = phase
	ts.Elapsed = in.elapsed
	ts.Params.Transform(ts)
}

func clampGenerations(g int) int {
	return min(parameter.MaxGenerations, max(parameter.MinGenerations, g))
}
