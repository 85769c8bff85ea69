package parameter

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if !cfg.Scheduler.Background {
		t.Error("background dispatch should be enabled by default")
	}
	if got := cfg.Scheduler.WaitTimeoutDuration(); got != WaitTimeout {
		t.Errorf("WaitTimeoutDuration() = %v, want %v", got, WaitTimeout)
	}
	if got := cfg.Scheduler.TerminateTimeoutDuration(); got != TerminateTimeout {
		t.Errorf("TerminateTimeoutDuration() = %v, want %v", got, TerminateTimeout)
	}
	if cfg.Batch.MaxQuads != 16384 {
		t.Errorf("MaxQuads = %d, want 16384", cfg.Batch.MaxQuads)
	}
}

func TestDecodeOverridesDefaults(t *testing.T) {
	src := `
[scheduler]
background = false
wait_timeout = 2.5

[lights]
max_total = 16

[quality]
level = 2

[[quality.tier]]
level = 2
max_generations = 4
light_percent = 0.5
`
	cfg, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if cfg.Scheduler.Background {
		t.Error("background should be overridden to false")
	}
	if got := cfg.Scheduler.WaitTimeoutDuration(); got != 2500*time.Millisecond {
		t.Errorf("wait timeout = %v, want 2.5s", got)
	}
	if cfg.Lights.MaxTotal != 16 {
		t.Errorf("max_total = %d, want 16", cfg.Lights.MaxTotal)
	}
	// Untouched sections keep defaults
	if cfg.Lights.MaxPerInstance != MaxLightsPerInstance {
		t.Errorf("max_per_instance = %d, want default %d", cfg.Lights.MaxPerInstance, MaxLightsPerInstance)
	}

	tier, ok := cfg.Quality.Active()
	if !ok {
		t.Fatal("expected active tier for level 2")
	}
	if tier.MaxGenerations != 4 {
		t.Errorf("MaxGenerations = %d, want 4", tier.MaxGenerations)
	}
}

func TestDecodeClampsInvalidValues(t *testing.T) {
	src := `
[scheduler]
wait_timeout = -1

[batch]
max_quads = 100000

[camera]
mode = "yz"

[bolt]
fade_percent = 0.9
`
	cfg, err := Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	def := Default()
	if cfg.Scheduler.WaitTimeout != def.Scheduler.WaitTimeout {
		t.Errorf("wait_timeout = %v, want default", cfg.Scheduler.WaitTimeout)
	}
	if cfg.Batch.MaxQuads != MaxQuadsPerBatch {
		t.Errorf("max_quads = %d, want %d", cfg.Batch.MaxQuads, MaxQuadsPerBatch)
	}
	if cfg.Camera.Mode != "xy" {
		t.Errorf("camera mode = %q, want xy", cfg.Camera.Mode)
	}
	if cfg.Bolt.FadePercent != def.Bolt.FadePercent {
		t.Errorf("fade_percent = %v, want default", cfg.Bolt.FadePercent)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader("[scheduler\nbackground = ")); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	cfg, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Bolt.Generations != Default().Bolt.Generations {
		t.Errorf("generations = %d after round trip", cfg.Bolt.Generations)
	}
}

func TestQualityLookupMiss(t *testing.T) {
	q := DefaultQualityTable()
	q.Level = 42
	if _, ok := q.Active(); ok {
		t.Error("expected miss for unconfigured level")
	}
	q.Level = UseParameters
	if !q.UsesParameters() {
		t.Error("UseParameters level should report UsesParameters")
	}
	if _, ok := q.Lookup(3); !ok {
		t.Error("expected tier 3 in default table")
	}
}
