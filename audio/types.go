package audio

import (
	"errors"
)

// Cue identifies a synthesized sound
type Cue int

const (
	CueCrack  Cue = iota // sharp broadband snap at the strike
	CueRumble            // low rolling tail
	CueThunder           // crack followed by rumble
	cueCount
)

func (c Cue) String() string {
	switch c {
	case CueCrack:
		return "crack"
	case CueRumble:
		return "rumble"
	case CueThunder:
		return "thunder"
	default:
		return "unknown"
	}
}

// BackendType identifies the audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrPipeClosed     = errors.New("audio pipe closed")
	ErrRunning        = errors.New("audio engine already running")
)
