package parameter

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/boltfx/core"
)

// SchedulerConfig controls the dual-queue scheduler, durations in seconds
type SchedulerConfig struct {
	Background       bool    `toml:"background"`
	WaitTimeout      float64 `toml:"wait_timeout"`
	TerminateTimeout float64 `toml:"terminate_timeout"`
	PollInterval     float64 `toml:"poll_interval"`
}

// LightConfig caps light creation
type LightConfig struct {
	MaxTotal       int `toml:"max_total"`
	MaxPerInstance int `toml:"max_per_instance"`
}

// BatchConfig sizes geometry batches
type BatchConfig struct {
	MaxQuads int `toml:"max_quads"`
}

// CameraConfig describes the viewer for LOD and orthographic light placement
type CameraConfig struct {
	Orthographic bool       `toml:"orthographic"`
	Mode         string     `toml:"mode"` // "xy" or "xz"
	Position     [3]float64 `toml:"position"`
	LODDistance  float64    `toml:"lod_distance"`
}

// LightPreset holds light sub-parameters of a bolt preset
type LightPreset struct {
	Enabled            bool       `toml:"enabled"`
	Range              float64    `toml:"range"`
	Intensity          float64    `toml:"intensity"`
	Color              [3]uint8   `toml:"color"`
	LightPercent       float64    `toml:"light_percent"`
	LightShadowPercent float64    `toml:"light_shadow_percent"`
	OrthographicOffset float64    `toml:"orthographic_offset"`
	Fade               [3]float64 `toml:"fade"` // in, fully lit, out multipliers
}

// BoltPreset is a parameter set template used by hosts that configure bolts from file
type BoltPreset struct {
	Generations        int         `toml:"generations"`
	LifeTime           float64     `toml:"life_time"`
	Delay              float64     `toml:"delay"`
	DelayRange         [2]float64  `toml:"delay_range"`
	ChaosFactor        float64     `toml:"chaos"`
	ChaosFactorForks   float64     `toml:"chaos_forks"`
	Forkedness         float64     `toml:"forkedness"`
	ForkStopSubtractor int         `toml:"fork_stop_subtractor"`
	TrunkWidth         float64     `toml:"trunk_width"`
	EndWidthMultiplier float64     `toml:"end_width_multiplier"`
	Intensity          float64     `toml:"intensity"`
	GlowIntensity      float64     `toml:"glow_intensity"`
	GlowWidth          float64     `toml:"glow_width"`
	FadePercent        float64     `toml:"fade_percent"`
	Fade               [3]float64  `toml:"fade"` // in, fully lit, out multipliers
	GrowthMultiplier   float64     `toml:"growth"`
	Color              [3]uint8    `toml:"color"`
	Light              LightPreset `toml:"light"`
}

// Config is the full engine configuration
type Config struct {
	Scheduler SchedulerConfig `toml:"scheduler"`
	Lights    LightConfig     `toml:"lights"`
	Batch     BatchConfig     `toml:"batch"`
	Quality   QualityTable    `toml:"quality"`
	Camera    CameraConfig    `toml:"camera"`
	Bolt      BoltPreset      `toml:"bolt"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Scheduler: SchedulerConfig{
			Background:       true,
			WaitTimeout:      WaitTimeout.Seconds(),
			TerminateTimeout: TerminateTimeout.Seconds(),
			PollInterval:     TerminatePollInterval.Seconds(),
		},
		Lights: LightConfig{
			MaxTotal:       MaxLightCount,
			MaxPerInstance: MaxLightsPerInstance,
		},
		Batch:   BatchConfig{MaxQuads: MaxQuadsPerBatch},
		Quality: DefaultQualityTable(),
		Camera: CameraConfig{
			Mode:     "xy",
			Position: [3]float64{0, 0, -10},
		},
		Bolt: BoltPreset{
			Generations:        6,
			LifeTime:           0.5,
			DelayRange:         [2]float64{0, 0},
			ChaosFactor:        0.15,
			ChaosFactorForks:   0.15,
			Forkedness:         0.25,
			ForkStopSubtractor: 0,
			TrunkWidth:         0.1,
			EndWidthMultiplier: 0.5,
			Intensity:          1,
			GlowIntensity:      0.1,
			GlowWidth:          4,
			FadePercent:        0.15,
			Fade:               [3]float64{1, 1, 1},
			Color:              [3]uint8{255, 255, 255},
			Light: LightPreset{
				Enabled:            true,
				Range:              4,
				Intensity:          1,
				Color:              [3]uint8{220, 230, 255},
				LightPercent:       1,
				LightShadowPercent: 0,
				Fade:               [3]float64{1, 1, 1},
			},
		},
	}
}

// Load reads a TOML file on top of Default
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads TOML from r on top of Default and clamps invalid values
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.validate()
	return cfg, nil
}

// Encode writes cfg as TOML
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// WaitTimeoutDuration returns the scheduler wait bound as a duration
func (s SchedulerConfig) WaitTimeoutDuration() time.Duration {
	return seconds(s.WaitTimeout)
}

// TerminateTimeoutDuration returns the scheduler terminate bound as a duration
func (s SchedulerConfig) TerminateTimeoutDuration() time.Duration {
	return seconds(s.TerminateTimeout)
}

// PollIntervalDuration returns the terminate poll sleep as a duration
func (s SchedulerConfig) PollIntervalDuration() time.Duration {
	return seconds(s.PollInterval)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (c *Config) validate() {
	def := Default()
	log := core.Logger()

	if c.Scheduler.WaitTimeout <= 0 {
		log.Warn("config: wait_timeout must be positive, using default", "value", c.Scheduler.WaitTimeout)
		c.Scheduler.WaitTimeout = def.Scheduler.WaitTimeout
	}
	if c.Scheduler.TerminateTimeout <= 0 {
		log.Warn("config: terminate_timeout must be positive, using default", "value", c.Scheduler.TerminateTimeout)
		c.Scheduler.TerminateTimeout = def.Scheduler.TerminateTimeout
	}
	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = def.Scheduler.PollInterval
	}
	if c.Lights.MaxTotal < 0 {
		log.Warn("config: lights.max_total must not be negative, using default", "value", c.Lights.MaxTotal)
		c.Lights.MaxTotal = def.Lights.MaxTotal
	}
	if c.Lights.MaxPerInstance < 0 {
		log.Warn("config: lights.max_per_instance must not be negative, using default", "value", c.Lights.MaxPerInstance)
		c.Lights.MaxPerInstance = def.Lights.MaxPerInstance
	}
	if c.Batch.MaxQuads <= 0 || c.Batch.MaxQuads > MaxQuadsPerBatch {
		log.Warn("config: batch.max_quads out of range, using default", "value", c.Batch.MaxQuads, "max", MaxQuadsPerBatch)
		c.Batch.MaxQuads = def.Batch.MaxQuads
	}
	if c.Camera.Mode != "xy" && c.Camera.Mode != "xz" {
		log.Warn("config: camera.mode must be xy or xz, using xy", "value", c.Camera.Mode)
		c.Camera.Mode = "xy"
	}
	if c.Bolt.FadePercent < 0 || c.Bolt.FadePercent > 0.5 {
		log.Warn("config: bolt.fade_percent must be within [0, 0.5], using default", "value", c.Bolt.FadePercent)
		c.Bolt.FadePercent = def.Bolt.FadePercent
	}
}
