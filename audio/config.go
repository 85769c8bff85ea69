package audio

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

const (
	channels      = 2
	bytesPerFrame = channels * 2 // s16le stereo

	// bufferDuration sets latency and the mixer tick rate
	bufferDuration = 50 * time.Millisecond
)

// Config controls thunder playback
type Config struct {
	Enabled      bool
	MasterVolume float64
	CueVolumes   [cueCount]float64
	SampleRate   int
}

// DefaultConfig returns muted playback at 44.1kHz
func DefaultConfig() *Config {
	return &Config{
		Enabled:      false,
		MasterVolume: 0.7,
		CueVolumes: [cueCount]float64{
			CueCrack:   0.6,
			CueRumble:  0.5,
			CueThunder: 1.0,
		},
		SampleRate: 44100,
	}
}

// LoadConfig overlays BOLTFX_* environment variables on DefaultConfig
func LoadConfig() *Config {
	cfg := DefaultConfig()

	if enabled := os.Getenv("BOLTFX_AUDIO_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Master volume is given as 0-100
	if volume := os.Getenv("BOLTFX_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = clampUnit(float64(val) / 100.0)
		}
	}

	if cueVols := os.Getenv("BOLTFX_CUE_VOLUMES"); cueVols != "" {
		var volumes map[string]float64
		if err := json.Unmarshal([]byte(cueVols), &volumes); err == nil {
			for c := Cue(0); c < cueCount; c++ {
				if v, ok := volumes[c.String()]; ok {
					cfg.CueVolumes[c] = clampUnit(v)
				}
			}
		}
	}

	if sampleRate := os.Getenv("BOLTFX_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	return cfg
}

// frameCount is the number of frames mixed per tick
func (c *Config) frameCount() int {
	return c.SampleRate * int(bufferDuration/time.Millisecond) / 1000
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
