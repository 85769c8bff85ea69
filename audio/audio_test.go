package audio

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/boltfx/status"
)

// drain streams s to completion and returns every frame
func drain(t *testing.T, s beep.Streamer) [][2]float64 {
	t.Helper()
	var out [][2]float64
	buf := make([][2]float64, 512)
	for i := 0; i < 10000; i++ {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
	t.Fatal("streamer did not terminate")
	return nil
}

func TestCueLengths(t *testing.T) {
	cfg := DefaultConfig()
	rate := beep.SampleRate(cfg.SampleRate)
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		cue  Cue
		want int
	}{
		{CueCrack, rate.N(crackDuration)},
		{CueRumble, rate.N(rumbleLead) + rate.N(rumbleDuration)},
		{CueThunder, rate.N(rumbleLead) + rate.N(rumbleDuration)},
	}
	for _, tt := range tests {
		got := len(drain(t, NewCue(tt.cue, cfg, 1, rng)))
		if got != tt.want {
			t.Errorf("%s: got %d frames, want %d", tt.cue, got, tt.want)
		}
	}
}

func TestCueAmplitudeBounded(t *testing.T) {
	cfg := DefaultConfig()
	rng := rand.New(rand.NewSource(7))
	limit := cfg.MasterVolume * (cfg.CueVolumes[CueCrack] + cfg.CueVolumes[CueRumble]*rumbleBoost)

	peak := 0.0
	for _, f := range drain(t, NewCue(CueThunder, cfg, 1, rng)) {
		for _, v := range f {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("non-finite sample %v", v)
			}
			peak = max(peak, math.Abs(v))
		}
	}
	if peak == 0 {
		t.Error("thunder is silent")
	}
	if peak > limit+1e-9 {
		t.Errorf("peak %v exceeds %v", peak, limit)
	}
}

func TestZeroGainIsSilent(t *testing.T) {
	cfg := DefaultConfig()
	for _, f := range drain(t, NewCue(CueCrack, cfg, 0, rand.New(rand.NewSource(3)))) {
		if f[0] != 0 || f[1] != 0 {
			t.Fatalf("expected silence, got %v", f)
		}
	}
}

func TestEnvelopeRamps(t *testing.T) {
	rate := beep.SampleRate(1000)
	dc := beep.StreamerFunc(func(s [][2]float64) (int, bool) {
		for i := range s {
			s[i] = [2]float64{1, 1}
		}
		return len(s), true
	})
	frames := drain(t, NewEnvelope(dc, time.Second, 100*time.Millisecond, 200*time.Millisecond, rate))
	if len(frames) != 1000 {
		t.Fatalf("got %d frames, want 1000", len(frames))
	}
	if frames[0][0] != 0 {
		t.Errorf("attack should start at 0, got %v", frames[0][0])
	}
	if frames[50][0] != 0.5 {
		t.Errorf("mid attack got %v, want 0.5", frames[50][0])
	}
	if frames[500][0] != 1 {
		t.Errorf("sustain got %v, want 1", frames[500][0])
	}
	if frames[900][0] != 0.5 {
		t.Errorf("mid release got %v, want 0.5", frames[900][0])
	}
}

func TestFloatToBytesLimits(t *testing.T) {
	in := [][2]float64{{0, 0.5}, {5, -5}}
	out := make([]byte, len(in)*bytesPerFrame)
	floatToBytes(in, out)

	sample := func(i int) int16 { return int16(binary.LittleEndian.Uint16(out[i*2:])) }
	if sample(0) != 0 {
		t.Errorf("zero sample got %d", sample(0))
	}
	if sample(1) != 16383 {
		t.Errorf("0.5 sample got %d", sample(1))
	}
	if sample(2) <= 26213 {
		t.Errorf("soft limit out of range: %d", sample(2))
	}
	if sample(3) != -sample(2) {
		t.Errorf("limiter not symmetric: %d vs %d", sample(3), sample(2))
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) nonZero() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range b.buf.Bytes() {
		if v != 0 {
			return true
		}
	}
	return false
}

func TestEnginePlaysIntoWriter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	reg := status.NewRegistry()
	e := NewEngine(cfg, reg)

	var out lockedBuffer
	e.StartWithWriter(&out)
	if !e.IsEnabled() {
		t.Fatal("engine should be enabled")
	}
	if !e.Play(CueThunder, 1) {
		t.Fatal("Play returned false")
	}

	deadline := time.Now().Add(2 * time.Second)
	for !out.nonZero() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	e.Stop()

	if !out.nonZero() {
		t.Error("no audio reached the writer")
	}
	if got := reg.Ints.Get("audio.played").Load(); got != 1 {
		t.Errorf("audio.played = %d, want 1", got)
	}
	if e.IsRunning() {
		t.Error("engine still running after Stop")
	}
	e.Stop()
}

func TestMutedEngineDoesNotPlay(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)
	var out lockedBuffer
	e.StartWithWriter(&out)
	defer e.Stop()

	if !e.IsMuted() {
		t.Fatal("default config should start muted")
	}
	if e.Play(CueCrack, 1) {
		t.Error("muted engine played")
	}
	if !e.ToggleMute() {
		t.Error("ToggleMute should report audible")
	}
	if !e.Play(CueCrack, 1) {
		t.Error("unmuted engine refused to play")
	}
	if e.Play(cueCount, 1) {
		t.Error("invalid cue played")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BOLTFX_AUDIO_ENABLED", "true")
	t.Setenv("BOLTFX_MASTER_VOLUME", "150")
	t.Setenv("BOLTFX_CUE_VOLUMES", `{"crack":0.2,"rumble":2}`)
	t.Setenv("BOLTFX_SAMPLE_RATE", "22050")

	cfg := LoadConfig()
	if !cfg.Enabled {
		t.Error("expected enabled")
	}
	if cfg.MasterVolume != 1 {
		t.Errorf("master volume not clamped: %v", cfg.MasterVolume)
	}
	if cfg.CueVolumes[CueCrack] != 0.2 || cfg.CueVolumes[CueRumble] != 1 {
		t.Errorf("cue volumes: %v", cfg.CueVolumes)
	}
	if cfg.SampleRate != 22050 || cfg.frameCount() != 1102 {
		t.Errorf("sample rate %d frames %d", cfg.SampleRate, cfg.frameCount())
	}
}
