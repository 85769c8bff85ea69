package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
)

// Mixer sums queued streamers and writes s16le stereo frames to a pipe
type Mixer struct {
	output io.Writer
	frames int

	playQueue chan beep.Streamer
	stopChan  chan struct{}
	done      chan struct{}
	started   atomic.Bool
	stopped   atomic.Bool

	// Accessed only by the mix goroutine
	mix beep.Mixer

	played  atomic.Uint64
	dropped atomic.Uint64

	errChan chan error
}

// NewMixer creates a mixer writing frames per tick to out
func NewMixer(out io.Writer, frames int) *Mixer {
	return &Mixer{
		output:    out,
		frames:    frames,
		playQueue: make(chan beep.Streamer, 32),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		errChan:   make(chan error, 1),
	}
}

// Start begins the mixing loop
func (m *Mixer) Start() {
	if m.started.CompareAndSwap(false, true) {
		go m.loop()
	}
}

// Stop signals the mixer to halt and waits for the loop to exit
func (m *Mixer) Stop() {
	if m.stopped.CompareAndSwap(false, true) {
		close(m.stopChan)
	}
	if m.started.Load() {
		<-m.done
	}
}

// Play queues s, dropping it when the queue is full
func (m *Mixer) Play(s beep.Streamer) {
	if m.stopped.Load() || s == nil {
		return
	}
	select {
	case m.playQueue <- s:
	default:
		m.dropped.Add(1)
	}
}

// Errors returns channel for pipe errors
func (m *Mixer) Errors() <-chan error {
	return m.errChan
}

// Stats returns played and dropped counts
func (m *Mixer) Stats() (played, dropped uint64) {
	return m.played.Load(), m.dropped.Load()
}

func (m *Mixer) loop() {
	defer close(m.done)

	ticker := time.NewTicker(bufferDuration)
	defer ticker.Stop()

	mixBuf := make([][2]float64, m.frames)
	outBytes := make([]byte, m.frames*bytesPerFrame)

	for {
		select {
		case <-m.stopChan:
			return

		case s := <-m.playQueue:
			m.add(s)
			m.drainQueue(4)

		case <-ticker.C:
			m.tick(mixBuf, outBytes)
			if _, err := m.output.Write(outBytes); err != nil {
				select {
				case m.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
		}
	}
}

func (m *Mixer) add(s beep.Streamer) {
	m.mix.Add(s)
	m.played.Add(1)
}

// drainQueue adds up to n additional queued streamers
func (m *Mixer) drainQueue(n int) {
	for i := 0; i < n; i++ {
		select {
		case s := <-m.playQueue:
			m.add(s)
		default:
			return
		}
	}
}

// tick mixes one buffer worth of frames into out, silence when nothing plays
func (m *Mixer) tick(mixBuf [][2]float64, out []byte) {
	if m.mix.Len() == 0 {
		clear(out)
		return
	}
	clear(mixBuf)
	m.mix.Stream(mixBuf)
	floatToBytes(mixBuf, out)
}

// floatToBytes converts stereo float frames to interleaved int16 LE bytes
// Applies soft limiting before hard clip
func floatToBytes(in [][2]float64, out []byte) {
	for i, frame := range in {
		for ch, v := range frame {
			if v > 0.8 {
				v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
			} else if v < -0.8 {
				v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
			}

			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}

			binary.LittleEndian.PutUint16(out[i*bytesPerFrame+ch*2:], uint16(int16(v*32767)))
		}
	}
}
