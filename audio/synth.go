package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveNoise
)

// oscillator generates raw audio waves
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
	rng      *rand.Rand
}

// NewOscillator creates a mono oscillator duplicated on both channels
// rng drives the noise wave
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
		rng:      rng,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveNoise:
			val = o.rng.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// envelope applies attack/release shaping to a stream
type envelope struct {
	streamer       beep.Streamer
	position       int
	attackSamples  int
	releaseSamples int
	totalSamples   int
}

// NewEnvelope ramps in over attack and out over the final release of duration
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	total := rate.N(duration)
	att := min(rate.N(attack), total)
	rel := min(rate.N(release), total-att)
	return &envelope{
		streamer:       s,
		attackSamples:  att,
		releaseSamples: rel,
		totalSamples:   total,
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)

	releaseStart := e.totalSamples - e.releaseSamples
	for i := 0; i < n; i++ {
		if e.position >= e.totalSamples {
			return i, i > 0
		}

		vol := 1.0
		if e.position < e.attackSamples {
			vol = float64(e.position) / float64(e.attackSamples)
		} else if e.position >= releaseStart && e.releaseSamples > 0 {
			vol = float64(e.totalSamples-e.position) / float64(e.releaseSamples)
		}

		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// lowPass is a one-pole filter, alpha in (0,1] with smaller values darker
type lowPass struct {
	streamer beep.Streamer
	alpha    float64
	state    [2]float64
}

func newLowPass(s beep.Streamer, alpha float64) beep.Streamer {
	return &lowPass{streamer: s, alpha: alpha}
}

func (f *lowPass) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			f.state[ch] += f.alpha * (samples[i][ch] - f.state[ch])
			samples[i][ch] = f.state[ch]
		}
	}
	return n, ok
}

func (f *lowPass) Err() error { return f.streamer.Err() }

// newVolume wraps s in a linear gain
// math.Log2(0) is -Inf, so zero volume is made silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// Cue timing
const (
	crackDuration = 180 * time.Millisecond
	crackAttack   = 2 * time.Millisecond
	crackRelease  = 150 * time.Millisecond

	rumbleLead     = 90 * time.Millisecond
	rumbleDuration = 1600 * time.Millisecond
	rumbleAttack   = 250 * time.Millisecond
	rumbleRelease  = 1100 * time.Millisecond

	// rumbleBoost restores level lost in the low-pass
	rumbleBoost = 4.0
)

// createCrack is a bright noise burst with a faint high sine ring
func createCrack(rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	noise := NewEnvelope(NewOscillator(0, crackDuration, WaveNoise, rate, rng),
		crackDuration, crackAttack, crackRelease, rate)
	ring := NewEnvelope(NewOscillator(2400, crackDuration, WaveSine, rate, rng),
		crackDuration, crackAttack, crackRelease/3, rate)
	return beep.Mix(newVolume(noise, 0.85), newVolume(ring, 0.15))
}

// createRumble is dark filtered noise starting shortly after the crack
func createRumble(rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	noise := NewOscillator(0, rumbleDuration, WaveNoise, rate, rng)
	dark := newLowPass(newLowPass(noise, 0.03), 0.06)
	shaped := NewEnvelope(dark, rumbleDuration, rumbleAttack, rumbleRelease, rate)
	return beep.Seq(beep.Silence(rate.N(rumbleLead)), newVolume(shaped, rumbleBoost))
}

// NewCue builds a finite streamer for c scaled by master, cue volume and gain
func NewCue(c Cue, cfg *Config, gain float64, rng *rand.Rand) beep.Streamer {
	rate := beep.SampleRate(cfg.SampleRate)
	vol := cfg.MasterVolume * cfg.CueVolumes[c] * clampUnit(gain)

	switch c {
	case CueCrack:
		return newVolume(createCrack(rate, rng), vol)
	case CueRumble:
		return newVolume(createRumble(rate, rng), vol)
	case CueThunder:
		mixed := beep.Mix(
			newVolume(createCrack(rate, rng), cfg.CueVolumes[CueCrack]),
			newVolume(createRumble(rate, rng), cfg.CueVolumes[CueRumble]),
		)
		return newVolume(mixed, vol)
	default:
		return nil
	}
}
