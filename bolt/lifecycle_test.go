package bolt_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/bolt/bolttest"
	"github.com/lixenwraith/boltfx/parameter"
)

func inlineConfig() parameter.Config {
	cfg := parameter.Default()
	cfg.Scheduler.Background = false
	return cfg
}

func newManager(t *testing.T, cfg parameter.Config, opts ...bolt.Option) (*bolt.Manager, *bolttest.Scene) {
	t.Helper()
	scene := bolttest.NewScene()
	opts = append([]bolt.Option{bolt.WithSeed(1)}, opts...)
	m := bolt.NewManager(cfg, scene, bolttest.LineGenerator{}, opts...)
	t.Cleanup(func() { m.Close(true) })
	return m, scene
}

// simpleParams returns a one second bolt along +x with 2^(gens-1) trunk segments
func simpleParams(m *bolt.Manager, gens int) *bolt.Parameters {
	p := m.AcquireParameters()
	p.Start = r3.Vec{}
	p.End = r3.Vec{X: 8}
	p.Generations = gens
	p.LifeTime = 1
	p.Delay = 0
	p.DelayRange = bolt.Range{}
	p.FadePercent = 0.15
	p.FadeInMultiplier, p.FadeFullyLitMultiplier, p.FadeOutMultiplier = 1, 1, 1
	p.GrowthMultiplier = 0
	return p
}

func renderable(t *testing.T, b *bolt.Batch) *bolttest.Renderable {
	t.Helper()
	r, ok := b.Renderable.(*bolttest.Renderable)
	require.True(t, ok)
	return r
}

func TestFadeMarkersOrdering(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		life := rng.Float64()*10 + 1e-3
		fp := rng.Float64() * 0.5
		in, full, out := rng.Float64()*3, rng.Float64()*3, rng.Float64()*3

		ps, pe, adj := bolt.FadeMarkers(life, fp, in, full, out)
		require.GreaterOrEqual(t, ps, 0.0)
		require.LessOrEqual(t, ps, pe, "life=%v fp=%v", life, fp)
		require.LessOrEqual(t, pe, adj, "life=%v fp=%v", life, fp)
	}
}

func TestLightIntensityContinuousAtBoundaries(t *testing.T) {
	const eps = 1e-7
	cases := []struct{ peakStart, peakEnd, life float64 }{
		{0.15, 0.85, 1},
		{0.3, 0.3, 1},
		{0.01, 2.5, 3},
	}
	for _, c := range cases {
		for _, edge := range []float64{c.peakStart, c.peakEnd} {
			lo := bolt.LightIntensity(edge-eps, c.peakStart, c.peakEnd, c.life)
			hi := bolt.LightIntensity(edge+eps, c.peakStart, c.peakEnd, c.life)
			assert.InDelta(t, lo, hi, 1e-5, "discontinuity at %v for %+v", edge, c)
		}
	}

	assert.Zero(t, bolt.LightIntensity(-0.1, 0.15, 0.85, 1))
	assert.InDelta(t, 0.5, bolt.LightIntensity(0.075, 0.15, 0.85, 1), 1e-9)
	assert.Equal(t, 1.0, bolt.LightIntensity(0.5, 0.15, 0.85, 1))
	assert.Zero(t, bolt.LightIntensity(1, 0.15, 0.85, 1))
	// Zero-length fade-in starts at full intensity
	assert.Equal(t, 1.0, bolt.LightIntensity(0, 0, 0.5, 1))
}

func TestSingleGenerationScenario(t *testing.T) {
	m, _ := newManager(t, inlineConfig())
	p := simpleParams(m, 1)

	in, err := m.Strike(p)
	require.NoError(t, err)
	require.Equal(t, bolt.StateActive, in.State())

	require.Len(t, in.Groups(), 1)
	g := in.Groups()[0]
	assert.InDelta(t, 0.15, g.PeakStart, 1e-9)
	assert.InDelta(t, 0.85, g.PeakEnd, 1e-9)
	assert.InDelta(t, 1.0, g.LifeTime, 1e-9)

	require.Len(t, in.Batches(), 1)
	assert.Equal(t, 1, in.Batches()[0].Quads())
	assert.InDelta(t, 1.0, in.MaxLifeTime(), 1e-9)
}

func TestInlineStartIsSynchronous(t *testing.T) {
	m, _ := newManager(t, inlineConfig())

	in, err := m.Strike(simpleParams(m, 3))
	require.NoError(t, err)

	assert.Equal(t, bolt.StateActive, in.State())
	owner, bg := m.Scheduler().Pending()
	assert.Zero(t, owner)
	assert.Zero(t, bg)
	assert.Zero(t, m.Timeline().Pending())
	assert.Len(t, m.Active(), 1)

	r := renderable(t, in.Batches()[0])
	assert.True(t, r.Enabled)
	assert.Equal(t, 4, r.Quads)
}

func TestLightCapExhausted(t *testing.T) {
	cfg := inlineConfig()
	cfg.Lights.MaxTotal = 3
	m, _ := newManager(t, cfg)

	lit := simpleParams(m, 3)
	lit.Light.LightPercent = 1
	first, err := m.Strike(lit)
	require.NoError(t, err)
	require.Len(t, first.SegmentGroupsWithLight(), 1)
	assert.Len(t, first.SegmentGroupsWithLight()[0].Lights, 3)
	assert.Equal(t, 3, m.LightCount())

	second, err := m.Strike(simpleParams(m, 3))
	require.NoError(t, err)

	assert.Empty(t, second.SegmentGroupsWithLight(), "groups without lights are excluded")
	require.Len(t, second.Groups(), 1)
	g := second.Groups()[0]
	assert.False(t, second.AddLightToGroup(g, r3.Vec{}, false))
	assert.Empty(t, g.Lights)
	assert.Equal(t, 3, m.LightCount())

	// Geometry still renders unlit
	require.Len(t, second.Batches(), 1)
	assert.Equal(t, 4, second.Batches()[0].Quads())
	assert.True(t, renderable(t, second.Batches()[0]).Enabled)
	assert.Positive(t, m.Registry().Ints.Get("lights.dropped").Load())
}

func TestPerInstanceLightBudget(t *testing.T) {
	cfg := inlineConfig()
	cfg.Lights.MaxPerInstance = 4
	m, _ := newManager(t, cfg)

	a, b := simpleParams(m, 4), simpleParams(m, 4)
	in, err := m.Strike(a, b)
	require.NoError(t, err)

	// Budget splits evenly: two lights per parameter set
	require.Len(t, in.SegmentGroupsWithLight(), 2)
	for _, g := range in.SegmentGroupsWithLight() {
		assert.Len(t, g.Lights, 2)
	}
}

func TestShadowDistribution(t *testing.T) {
	m, scene := newManager(t, inlineConfig())
	p := simpleParams(m, 3)
	p.Light.LightPercent = 1
	p.Light.LightShadowPercent = 0.5

	_, err := m.Strike(p)
	require.NoError(t, err)

	require.Equal(t, 4, scene.LightCount())
	shadows := 0
	for _, l := range scene.Lights {
		if l.Props.Shadows {
			shadows++
		}
	}
	assert.Equal(t, 2, shadows)
}

func TestLightsOnlyOnMainTrunk(t *testing.T) {
	scene := bolttest.NewScene()
	m := bolt.NewManager(inlineConfig(), scene, bolttest.LineGenerator{Forks: 2}, bolt.WithSeed(1))
	defer m.Close(true)

	in, err := m.Strike(simpleParams(m, 3))
	require.NoError(t, err)

	require.Len(t, in.Groups(), 3)
	require.Len(t, in.SegmentGroupsWithLight(), 1)
	assert.Same(t, in.Groups()[0], in.SegmentGroupsWithLight()[0])
	assert.Equal(t, 6, in.Batches()[0].Quads(), "trunk and forks share one batch")
}

func TestLightIntensityFollowsFade(t *testing.T) {
	m, scene := newManager(t, inlineConfig())
	p := simpleParams(m, 2)
	p.Light.Intensity = 2
	_, err := m.Strike(p)
	require.NoError(t, err)
	require.NotZero(t, scene.LightCount())
	l := scene.Lights[0]

	m.Advance(0.075, 0.075)
	assert.InDelta(t, 1.0, l.Intensity, 1e-9, "half way through fade-in")

	m.Advance(0.425, 0.5)
	assert.InDelta(t, 2.0, l.Intensity, 1e-9)

	m.Advance(0.425, 0.925)
	assert.InDelta(t, 1.0, l.Intensity, 1e-6, "half way through fade-out")
}

func TestExpiryReleasesEverything(t *testing.T) {
	m, scene := newManager(t, inlineConfig())
	p := simpleParams(m, 2)

	completed := 0
	p.OnComplete = func(*bolt.Parameters) { completed++ }

	in, err := m.Strike(p)
	require.NoError(t, err)
	r := renderable(t, in.Batches()[0])
	require.NotZero(t, m.LightCount())

	assert.Equal(t, 1, m.Advance(0.6, 0.6))
	assert.Zero(t, completed)

	assert.Equal(t, 0, m.Advance(0.6, 1.2))
	assert.Equal(t, 1, completed)
	assert.Equal(t, bolt.StateIdle, in.State())
	assert.False(t, r.Enabled)
	assert.Zero(t, m.LightCount())

	pools := m.Pools()
	assert.Equal(t, 1, pools.Groups.Len())
	assert.Equal(t, 1, pools.Batches.Len())
	assert.Equal(t, scene.LightCount(), pools.Lights.Len())
	assert.Equal(t, 1, pools.Parameters.Len())
	assert.Equal(t, 1, pools.Dependencies.Len())

	// Reused parameter set was reset before going back to the pool
	assert.Nil(t, p.OnComplete)

	// Cached instance and batch are reused by the next strike
	again, err := m.Strike(simpleParams(m, 2))
	require.NoError(t, err)
	assert.Same(t, in, again)
	assert.Same(t, r, renderable(t, again.Batches()[0]))
	assert.Equal(t, 1, scene.RenderableCount())
}

func TestDelayedEnable(t *testing.T) {
	var enabled []*bolt.Batch
	m, _ := newManager(t, inlineConfig(), bolt.WithDependencies(bolt.Dependencies{
		BatchEnabled: func(_ *bolt.Instance, b *bolt.Batch) { enabled = append(enabled, b) },
	}))
	p := simpleParams(m, 2)
	p.Delay = 0.5

	in, err := m.Strike(p)
	require.NoError(t, err)
	r := renderable(t, in.Batches()[0])
	assert.False(t, r.Enabled)
	assert.Empty(t, enabled)
	assert.Equal(t, 1, m.Timeline().Pending())
	assert.InDelta(t, 1.5, in.MaxLifeTime(), 1e-9)

	m.Advance(0.3, 0.3)
	assert.False(t, r.Enabled)
	m.Advance(0.3, 0.6)
	assert.True(t, r.Enabled)
	assert.Zero(t, r.Epoch)
	assert.Equal(t, []*bolt.Batch{in.Batches()[0]}, enabled)
}

func TestParticleBursts(t *testing.T) {
	origin := &bolttest.Emitter{Burst: [2]int{3, 3}, HasBurst: true}
	dest := &bolttest.Emitter{Rate: [2]float64{5, 5}}
	m, _ := newManager(t, inlineConfig(), bolt.WithDependencies(bolt.Dependencies{
		OriginParticles:      origin,
		DestinationParticles: dest,
	}))

	_, err := m.Strike(simpleParams(m, 1))
	require.NoError(t, err)

	require.Len(t, origin.Emissions, 1)
	assert.Equal(t, bolttest.Emission{At: r3.Vec{}, Count: 3}, origin.Emissions[0])
	assert.Empty(t, dest.Emissions)

	m.Advance(0.5, 0.5)
	assert.Empty(t, dest.Emissions)
	m.Advance(0.4, 0.9)
	require.Len(t, dest.Emissions, 1)
	assert.Equal(t, bolttest.Emission{At: r3.Vec{X: 8}, Count: 5}, dest.Emissions[0])
}

func TestLevelOfDetailReducesGenerations(t *testing.T) {
	cfg := inlineConfig()
	cfg.Camera.LODDistance = 10
	cfg.Camera.Position = [3]float64{0, 0, -10}
	m, _ := newManager(t, cfg)

	p := simpleParams(m, 4)
	p.Start = r3.Vec{Z: 15}
	p.End = r3.Vec{Y: 10, Z: 15}

	in, err := m.Strike(p)
	require.NoError(t, err)
	// Nearest endpoint is 25 away: two generations removed
	assert.Equal(t, 2, p.Generations)
	assert.Len(t, in.Groups()[0].Segments, 2)
}

func TestForkBudgetAndStopGeneration(t *testing.T) {
	m, _ := newManager(t, inlineConfig())
	p := simpleParams(m, 5)
	p.Forkedness = 0.3
	p.ForkStopSubtractor = 2

	_, err := m.Strike(p)
	require.NoError(t, err)
	assert.Equal(t, 3, p.ForkStopGeneration)
	assert.Equal(t, 2, p.ForkBudget)
}

func TestGenerationsClamped(t *testing.T) {
	m, _ := newManager(t, inlineConfig())

	high := simpleParams(m, 12)
	_, err := m.Strike(high)
	require.NoError(t, err)
	assert.Equal(t, parameter.MaxGenerations, high.Generations)

	low := simpleParams(m, 0)
	_, err = m.Strike(low)
	require.NoError(t, err)
	assert.Equal(t, parameter.MinGenerations, low.Generations)
}

func TestQualityTier(t *testing.T) {
	t.Run("clamps to tier", func(t *testing.T) {
		cfg := inlineConfig()
		cfg.Quality.Level = 0
		m, scene := newManager(t, cfg)

		p := simpleParams(m, 6)
		_, err := m.Strike(p)
		require.NoError(t, err)
		assert.Equal(t, 3, p.Generations)
		assert.Zero(t, scene.LightCount(), "tier 0 disables lights")
	})

	t.Run("missing tier keeps requested value", func(t *testing.T) {
		cfg := inlineConfig()
		cfg.Quality.Level = 42
		m, _ := newManager(t, cfg)

		p := simpleParams(m, 6)
		in, err := m.Strike(p)
		require.NoError(t, err)
		assert.Equal(t, 6, p.Generations)
		assert.Len(t, in.Groups()[0].Segments, 32)
	})
}

func TestOrthographicLightDepth(t *testing.T) {
	cfg := inlineConfig()
	cfg.Camera.Orthographic = true
	cfg.Camera.Mode = "xy"
	cfg.Camera.Position = [3]float64{0, 0, -10}
	m, scene := newManager(t, cfg)

	p := simpleParams(m, 2)
	p.Light.OrthographicOffset = 2
	_, err := m.Strike(p)
	require.NoError(t, err)

	require.NotZero(t, scene.LightCount())
	for _, l := range scene.Lights {
		assert.Equal(t, -8.0, l.Position.Z)
	}
}

func TestTransformGetsExclusiveBatch(t *testing.T) {
	m, _ := newManager(t, inlineConfig())

	var phases []bolt.TransformPhase
	custom := simpleParams(m, 2)
	custom.Transform = func(s *bolt.TransformState) { phases = append(phases, s.Phase) }
	plain := simpleParams(m, 2)

	in, err := m.Strike(custom, plain)
	require.NoError(t, err)
	require.Len(t, in.Batches(), 2)
	assert.Equal(t, 2, in.Batches()[0].Quads())
	assert.Equal(t, 2, in.Batches()[1].Quads())
	assert.Equal(t, []bolt.TransformPhase{bolt.TransformStarted}, phases)

	m.Advance(0.5, 0.5)
	m.Advance(1, 1.5)
	assert.Equal(t, []bolt.TransformPhase{
		bolt.TransformStarted, bolt.TransformExecuting, bolt.TransformEnded,
	}, phases)
	assert.Equal(t, 1, m.Pools().Transforms.Len())
}

func TestGlowDetection(t *testing.T) {
	tests := []struct {
		name      string
		intensity float64
		width     float64
		want      bool
	}{
		{"none", 0, 0, false},
		{"below epsilon", parameter.Epsilon / 2, parameter.Epsilon / 2, false},
		{"intensity only", 0.5, 0, true},
		{"width only", 0, 2, true},
		{"both", 0.5, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newManager(t, inlineConfig())
			p := simpleParams(m, 1)
			p.GlowIntensity, p.GlowWidthMultiplier = tt.intensity, tt.width

			in, err := m.Strike(p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.HasGlow())
			assert.Equal(t, tt.want, renderable(t, in.Batches()[0]).Setup.UseGlow)
		})
	}

	t.Run("any set", func(t *testing.T) {
		m, _ := newManager(t, inlineConfig())
		dull := simpleParams(m, 1)
		dull.GlowIntensity, dull.GlowWidthMultiplier = 0, 0
		glowing := simpleParams(m, 1)
		glowing.GlowIntensity, glowing.GlowWidthMultiplier = 0, 2

		in, err := m.Strike(dull, glowing)
		require.NoError(t, err)
		assert.True(t, in.HasGlow())
	})
}

func TestStartMisuse(t *testing.T) {
	m, _ := newManager(t, inlineConfig())

	in := m.NewInstance()
	assert.ErrorIs(t, in.Start(nil, m.AcquireDependencies()), bolt.ErrNoParameters)
	assert.Equal(t, bolt.StateIdle, in.State())

	assert.ErrorIs(t, in.Start([]*bolt.Parameters{simpleParams(m, 1)}, nil), bolt.ErrNilDependencies)
	assert.Equal(t, bolt.StateIdle, in.State())
	assert.Empty(t, in.Groups())

	require.NoError(t, in.Start([]*bolt.Parameters{simpleParams(m, 1)}, m.AcquireDependencies()))
	assert.ErrorIs(t, in.Start([]*bolt.Parameters{simpleParams(m, 1)}, m.AcquireDependencies()), bolt.ErrInUse)
	assert.Equal(t, bolt.StateActive, in.State())
}

func TestStaleBatchDiscarded(t *testing.T) {
	m, scene := newManager(t, inlineConfig())

	first, err := m.Strike(simpleParams(m, 1))
	require.NoError(t, err)
	stale := renderable(t, first.Batches()[0])
	m.Advance(2, 2)
	require.Equal(t, 1, m.Pools().Batches.Len())

	stale.Kill()
	next, err := m.Strike(simpleParams(m, 1))
	require.NoError(t, err)
	assert.NotSame(t, stale, renderable(t, next.Batches()[0]))
	assert.Equal(t, 2, scene.RenderableCount())
}

func TestCloseClearsPools(t *testing.T) {
	scene := bolttest.NewScene()
	m := bolt.NewManager(inlineConfig(), scene, bolttest.LineGenerator{}, bolt.WithSeed(1))

	_, err := m.Strike(simpleParams(m, 2))
	require.NoError(t, err)
	m.Close(false)

	for _, r := range scene.Renderables {
		assert.True(t, r.Destroyed)
	}
	for _, l := range scene.Lights {
		assert.True(t, l.Destroyed)
	}
	assert.Zero(t, m.LightCount())
	assert.Empty(t, m.Active())

	_, err = m.Strike(bolt.NewParameters())
	assert.ErrorIs(t, err, bolt.ErrClosed)
}

func TestBackgroundMatchesInline(t *testing.T) {
	run := func(t *testing.T, background bool) (groups, quads, lights int) {
		cfg := parameter.Default()
		cfg.Scheduler.Background = background
		m, scene := newManager(t, cfg)

		in, err := m.Strike(simpleParams(m, 4))
		require.NoError(t, err)

		deadline := time.Now().Add(2 * time.Second)
		for in.State() != bolt.StateActive {
			require.True(t, time.Now().Before(deadline), "instance never became active")
			m.Advance(0, 0)
			time.Sleep(time.Millisecond)
		}
		return len(in.Groups()), in.Batches()[0].Quads(), scene.LightCount()
	}

	g1, q1, l1 := run(t, false)
	g2, q2, l2 := run(t, true)
	assert.Equal(t, g1, g2)
	assert.Equal(t, q1, q2)
	assert.Equal(t, l1, l2)
}

// timing records what the host observes while ticking one delayed bolt
type timing struct {
	elapsed   []float64
	enabledAt float64
	burstAt   float64
}

func TestBackgroundTimingMatchesInline(t *testing.T) {
	const dt = 0.125

	run := func(t *testing.T, background bool) timing {
		cfg := parameter.Default()
		cfg.Scheduler.Background = background

		var tr timing
		now := 0.0
		dest := &bolttest.Emitter{Burst: [2]int{1, 1}, HasBurst: true}
		m, _ := newManager(t, cfg, bolt.WithDependencies(bolt.Dependencies{
			DestinationParticles: dest,
			BatchEnabled:         func(*bolt.Instance, *bolt.Batch) { tr.enabledAt = now },
		}))

		// A pooled batch keeps the worker from waiting on an owner tick
		m.Pools().Batches.Release(m.Pools().Batches.Acquire())

		p := simpleParams(m, 3)
		p.Delay = 0.5
		in, err := m.Strike(p)
		require.NoError(t, err)

		// Let the worker finish so its owner work drains inside a tick that advances time
		require.Eventually(t, m.Scheduler().BackgroundIdle, 2*time.Second, time.Millisecond)

		for i := 1; i <= 12; i++ {
			now = float64(i) * dt
			m.Advance(dt, now)
			tr.elapsed = append(tr.elapsed, in.Elapsed())
			if len(dest.Emissions) > 0 && tr.burstAt == 0 {
				tr.burstAt = now
			}
		}
		return tr
	}

	inline := run(t, false)
	background := run(t, true)

	assert.InDelta(t, 3*dt, inline.elapsed[2], 1e-9)
	assert.InDelta(t, 0.5, inline.enabledAt, 1e-9)
	assert.InDelta(t, 1.375, inline.burstAt, 1e-9)
	assert.Equal(t, inline, background)
}

func TestCloseAbandonsInstanceStillGenerating(t *testing.T) {
	cfg := parameter.Default()
	cfg.Scheduler.Background = true
	cfg.Scheduler.TerminateTimeout = 0.05
	cfg.Scheduler.PollInterval = 0.005

	entered := make(chan struct{})
	release := make(chan struct{})
	gen := bolt.GeneratorFunc(func(in *bolt.Instance, p *bolt.Parameters) (r3.Vec, r3.Vec) {
		close(entered)
		<-release
		return bolttest.LineGenerator{}.Generate(in, p)
	})

	scene := bolttest.NewScene()
	m := bolt.NewManager(cfg, scene, gen, bolt.WithSeed(1))

	completed := false
	p := simpleParams(m, 2)
	p.OnComplete = func(*bolt.Parameters) { completed = true }
	in, err := m.Strike(p)
	require.NoError(t, err)
	<-entered

	m.Close(false)
	assert.Equal(t, bolt.StateGenerating, in.State(), "instance expired under a running worker")
	assert.False(t, completed)

	close(release)
	require.Eventually(t, m.Scheduler().BackgroundIdle, 2*time.Second, time.Millisecond)

	// The worker finished its run alone, nothing reached the owner after close
	assert.Equal(t, bolt.StateRendering, in.State())
	assert.Len(t, in.Groups(), 1)
	assert.Empty(t, in.Batches())
	assert.Zero(t, scene.RenderableCount())
	assert.False(t, completed)
	assert.Empty(t, m.Active())
}

func TestTimedOutBatchWaitCreatesNothing(t *testing.T) {
	cfg := parameter.Default()
	cfg.Scheduler.Background = true
	cfg.Scheduler.WaitTimeout = 0.02
	m, scene := newManager(t, cfg)

	in, err := m.Strike(simpleParams(m, 2))
	require.NoError(t, err)

	// No owner tick runs, so the worker's batch request times out
	require.Eventually(t, m.Scheduler().BackgroundIdle, 2*time.Second, time.Millisecond)
	owner, _ := m.Scheduler().Pending()
	assert.Equal(t, 2, owner, "stale batch request and activation stay queued")

	m.Advance(0, 0)
	assert.Zero(t, scene.RenderableCount())
	assert.Zero(t, m.Pools().Batches.Len())
	assert.Empty(t, in.Batches())
	require.Equal(t, bolt.StateActive, in.State(), "starved instance still activates")

	m.Advance(2, 2)
	assert.Equal(t, bolt.StateIdle, in.State())
	assert.Len(t, in.Groups(), 0)
}

func TestParametersReset(t *testing.T) {
	p := bolt.NewParameters()
	p.Random = rand.New(rand.NewSource(3))
	p.RandomOverride = rand.New(rand.NewSource(4))
	p.Transform = func(*bolt.TransformState) {}
	p.OnComplete = func(*bolt.Parameters) {}
	p.Points = append(p.Points, r3.Vec{X: 1}, r3.Vec{X: 2})
	p.Generations = 2
	rng := p.Random

	p.Reset()
	assert.Nil(t, p.RandomOverride)
	assert.Nil(t, p.Transform)
	assert.Nil(t, p.OnComplete)
	assert.Empty(t, p.Points)
	assert.Equal(t, 2, cap(p.Points))
	assert.Same(t, rng, p.Random)
	assert.Equal(t, bolt.NewParameters().Generations, p.Generations)
}
