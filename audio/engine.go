package audio

import (
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/boltfx/bolt"
	"github.com/lixenwraith/boltfx/core"
	"github.com/lixenwraith/boltfx/status"
)

// Engine plays thunder cues through a piped system audio tool
// With no usable backend it runs silent and Play reports false
type Engine struct {
	config *Config
	mixer  *Mixer

	backend *BackendConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File

	running    atomic.Bool
	muted      atomic.Bool
	silentMode atomic.Bool

	mu  sync.Mutex // protects config and rng
	rng *rand.Rand
	wg  sync.WaitGroup

	statPlayed  *atomic.Int64
	statDropped *atomic.Int64
}

// NewEngine creates an engine, nil cfg uses DefaultConfig
func NewEngine(cfg *Config, reg *status.Registry) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if reg == nil {
		reg = status.NewRegistry()
	}
	e := &Engine{
		config:      cfg,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		statPlayed:  reg.Ints.Get("audio.played"),
		statDropped: reg.Ints.Get("audio.dropped"),
	}
	e.muted.Store(!cfg.Enabled)
	return e
}

// Start launches the audio backend and mixer
func (e *Engine) Start() error {
	if e.running.Load() {
		return ErrRunning
	}
	log := core.Logger().With(slog.String("component", "audio"))

	backend, err := DetectBackend(e.config.SampleRate)
	if err != nil {
		log.Info("no audio backend, running silent")
		e.silentMode.Store(true)
		e.running.Store(true)
		return nil
	}
	e.backend = backend

	var writer io.Writer
	if backend.Type == BackendOSS {
		f, err := os.OpenFile(backend.Path, os.O_WRONLY, 0)
		if err != nil {
			log.Warn("open audio device failed", slog.String("path", backend.Path), slog.Any("error", err))
			e.silentMode.Store(true)
			e.running.Store(true)
			return nil
		}
		e.ossFile = f
		writer = f
	} else {
		cmd := exec.Command(backend.Path, backend.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			e.silentMode.Store(true)
			e.running.Store(true)
			return nil
		}
		if err := cmd.Start(); err != nil {
			log.Warn("audio backend failed to start", slog.String("backend", backend.Name), slog.Any("error", err))
			stdin.Close()
			e.silentMode.Store(true)
			e.running.Store(true)
			return nil
		}
		e.cmd = cmd
		e.stdin = stdin
		writer = stdin

		e.wg.Add(1)
		go e.monitorProcess()
	}

	log.Info("audio started", slog.String("backend", backend.Name))
	e.StartWithWriter(writer)
	return nil
}

// StartWithWriter runs the mixer against w instead of a detected backend
func (e *Engine) StartWithWriter(w io.Writer) {
	e.mixer = NewMixer(w, e.config.frameCount())
	e.mixer.Start()

	e.wg.Add(1)
	go e.monitorMixer()

	e.running.Store(true)
}

// monitorProcess watches for subprocess exit
func (e *Engine) monitorProcess() {
	defer e.wg.Done()

	if err := e.cmd.Wait(); err != nil && e.running.Load() && !e.silentMode.Load() {
		core.Logger().Warn("audio backend exited", slog.Any("error", err))
		e.silentMode.Store(true)
	}
}

// monitorMixer watches for pipe errors
func (e *Engine) monitorMixer() {
	defer e.wg.Done()

	select {
	case err := <-e.mixer.Errors():
		core.Logger().Warn("audio pipe failed", slog.Any("error", err))
		e.silentMode.Store(true)
	case <-e.mixer.stopChan:
	}
}

// Stop terminates the engine, repeated calls are no-ops
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}

	if e.mixer != nil {
		e.mixer.Stop()
	}
	if e.stdin != nil {
		e.stdin.Close()
	}
	if e.ossFile != nil {
		e.ossFile.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}

	e.wg.Wait()
	e.syncStats()
}

// Play queues cue c at gain in [0,1]
func (e *Engine) Play(c Cue, gain float64) bool {
	if !e.IsEnabled() || e.mixer == nil || c < 0 || c >= cueCount {
		return false
	}

	e.mu.Lock()
	s := NewCue(c, e.config, gain, e.rng)
	e.mu.Unlock()

	e.mixer.Play(s)
	e.syncStats()
	return true
}

// BatchEnabled plays thunder for the first visible batch of an instance
// It matches bolt.Dependencies.BatchEnabled
func (e *Engine) BatchEnabled(in *bolt.Instance, b *bolt.Batch) {
	batches := in.Batches()
	if len(batches) == 0 || batches[0] != b {
		return
	}
	quads := 0
	for _, bb := range batches {
		quads += bb.Quads()
	}
	// Longer bolts are louder, saturating at 64 quads
	e.Play(CueThunder, 0.4+0.6*min(1, float64(quads)/64))
}

func (e *Engine) syncStats() {
	if e.mixer == nil {
		return
	}
	played, dropped := e.mixer.Stats()
	e.statPlayed.Store(int64(played))
	e.statDropped.Store(int64(dropped))
}

// ToggleMute toggles mute state, returns true if now audible
func (e *Engine) ToggleMute() bool {
	newMute := !e.muted.Load()
	e.muted.Store(newMute)
	return !newMute
}

// IsMuted returns current mute state
func (e *Engine) IsMuted() bool {
	return e.muted.Load()
}

// IsEnabled returns true if running, unmuted and not silent
func (e *Engine) IsEnabled() bool {
	return e.running.Load() && !e.muted.Load() && !e.silentMode.Load()
}

// IsRunning returns true if engine is running, even in silent mode
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// SetVolume updates master volume, clamped to [0,1]
func (e *Engine) SetVolume(vol float64) {
	e.mu.Lock()
	e.config.MasterVolume = clampUnit(vol)
	e.mu.Unlock()
}
