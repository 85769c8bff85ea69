package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/lixenwraith/boltfx/audio"
	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/core"
	"github.com/lixenwraith/boltfx/engine"
	"github.com/lixenwraith/boltfx/fractal"
	"github.com/lixenwraith/boltfx/parameter"
	"github.com/lixenwraith/boltfx/status"
)

// session bundles everything both front ends share
type session struct {
	id      uuid.UUID
	cfg     parameter.Config
	reg     *status.Registry
	rng     *rand.Rand
	clock   *engine.PausableClock
	manager *bolt.Manager
	sound   *audio.Engine

	interval   float64
	nextStrike float64
	logFile    io.Closer
}

func (g *Globals) loadConfig() (parameter.Config, error) {
	if g.Config == "" {
		return parameter.Default(), nil
	}
	return parameter.Load(g.Config)
}

// openSession configures logging and config, the scene is bound later by bind
func (g *Globals) openSession() (*session, error) {
	s := &session{
		id:       uuid.New(),
		reg:      status.NewRegistry(),
		clock:    engine.NewPausableClock(nil),
		interval: g.Interval,
	}

	if g.LogFile != "" {
		f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		var level slog.Level
		if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
			level = slog.LevelInfo
		}
		core.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})).
			With(slog.String("session", s.id.String())))
		s.logFile = f
	}

	cfg, err := g.loadConfig()
	if err != nil {
		s.close()
		return nil, err
	}
	if g.Inline {
		cfg.Scheduler.Background = false
	}
	s.cfg = cfg

	seed := g.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s.rng = rand.New(rand.NewSource(seed))

	if g.Sound {
		acfg := audio.LoadConfig()
		acfg.Enabled = true
		s.sound = audio.NewEngine(acfg, s.reg)
		if err := s.sound.Start(); err != nil {
			core.Logger().Warn("audio unavailable", slog.Any("error", err))
		}
	}

	core.Logger().Info("session opened", slog.Int64("seed", seed), slog.Bool("background", cfg.Scheduler.Background))
	return s, nil
}

// bind creates the manager over scene with sparks at both ends
func (s *session) bind(scene bolt.Scene, origin, destination bolt.Emitter, planar bool) {
	deps := bolt.Dependencies{
		OriginParticles:      origin,
		DestinationParticles: destination,
	}
	if s.sound != nil {
		deps.BatchEnabled = s.sound.BatchEnabled
	}
	s.manager = bolt.NewManager(s.cfg, scene, fractal.Generator{Planar: planar},
		bolt.WithRegistry(s.reg),
		bolt.WithSeed(s.rng.Int63()),
		bolt.WithDependencies(deps),
	)
}

// strike fires one bolt between two world points
func (s *session) strike(from, to r3.Vec) {
	p := s.manager.AcquireParameters()
	p.Start, p.End = from, to
	p.StartVariance = 0.5
	if _, err := s.manager.Strike(p); err != nil {
		core.Logger().Warn("strike rejected", slog.Any("error", err))
	}
}

// strikeRandom fires from the top edge to the bottom edge of a w by h world
func (s *session) strikeRandom(w, h float64) {
	from := r3.Vec{X: w * (0.2 + 0.6*s.rng.Float64())}
	to := r3.Vec{X: w * (0.1 + 0.8*s.rng.Float64()), Y: h * (0.7 + 0.3*s.rng.Float64())}
	s.strike(from, to)
}

// tick advances the clock and the manager, auto-striking on the interval
func (s *session) tick(w, h float64) (dt, now float64) {
	dt, now = s.clock.Tick()
	if s.interval > 0 && now >= s.nextStrike {
		s.strikeRandom(w, h)
		s.nextStrike = now + s.interval
	}
	s.manager.Advance(dt, now)
	return dt, now
}

// togglePause flips the clock between paused and running
func (s *session) togglePause() {
	if s.clock.IsPaused() {
		s.clock.Resume()
		return
	}
	s.clock.Pause()
}

// toggleSlowMotion switches the time scale between 1 and 0.2
func (s *session) toggleSlowMotion() {
	if s.clock.Scale() < 1 {
		s.clock.SetScale(1)
		return
	}
	s.clock.SetScale(0.2)
}

func (s *session) hud() string {
	state := "running"
	if s.clock.IsPaused() {
		state = "paused"
	}
	return fmt.Sprintf("t=%.2fs x%.1f %s | bolts %d | lights %d |%s | space pause  s slow  enter strike  m mute  q quit",
		s.clock.Elapsed(), s.clock.Scale(), state, len(s.manager.Active()), s.manager.LightCount(), s.poolSummary())
}

// poolSummary lists idle pooled items per pool, e.g. " batch 2 group 31"
func (s *session) poolSummary() string {
	var b strings.Builder
	s.reg.Ints.RangePrefix("pool.", func(key string, v *atomic.Int64) {
		if name, ok := strings.CutSuffix(strings.TrimPrefix(key, "pool."), ".idle"); ok {
			fmt.Fprintf(&b, " %s %d", name, v.Load())
		}
	})
	return b.String()
}

// serveMetrics exposes the registry until ctx is done, an empty addr is a no-op
func (s *session) serveMetrics(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	preg := prometheus.NewRegistry()
	preg.MustRegister(status.NewCollector(s.reg, "boltfx"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	core.Go(func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	})

	core.Logger().Info("serving metrics", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (s *session) close() {
	if s.manager != nil {
		s.manager.Close(false)
	}
	if s.sound != nil {
		s.sound.Stop()
	}
	core.Logger().Info("session closed")
	if s.logFile != nil {
		core.SetLogger(nil)
		s.logFile.Close()
	}
}

var (
	sparkColor = color.RGBA{R: 255, G: 240, B: 200, A: 255}
	emberColor = color.RGBA{R: 160, G: 190, B: 255, A: 255}
)
