package audio

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/debug"
)

// Clock is advanced once before every Core tick; a sequencer player uses
// it to dispatch events with sample accuracy.
type Clock interface {
	Advance()
}

// Stream renders a Core into interleaved 16-bit stereo. Rendering and
// control calls made through Do are serialized, so a pull driver can read
// on its own goroutine while a UI changes parameters.
type Stream struct {
	mu     sync.Mutex
	core   *spu.Core
	clock  Clock
	paused bool
	frames uint64
}

func NewStream(core *spu.Core, clock Clock) *Stream {
	return &Stream{core: core, clock: clock}
}

// Do runs fn with exclusive access to the Core.
func (s *Stream) Do(fn func(c *spu.Core)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.core)
}

// SetClock replaces the clock; nil renders without one.
func (s *Stream) SetClock(c Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = c
}

// SetPaused stops the clock and the Core. A paused stream renders silence.
func (s *Stream) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *Stream) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Frames returns the number of stereo frames rendered so far.
func (s *Stream) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Render fills dst with interleaved stereo samples. A trailing odd sample
// is left untouched.
func (s *Stream) Render(dst []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i+1 < len(dst); i += 2 {
		dst[i], dst[i+1] = s.tick()
	}
}

// RenderFloat fills dst with interleaved stereo samples in [-1, 1].
func (s *Stream) RenderFloat(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i+1 < len(dst); i += 2 {
		if s.paused {
			dst[i], dst[i+1] = 0, 0
			continue
		}
		l, r := s.step()
		dst[i], dst[i+1] = clampUnit(l), clampUnit(r)
	}
}

// GetSamples renders count interleaved samples into a new slice.
func (s *Stream) GetSamples(count int) []int16 {
	out := make([]int16, max(count, 0))
	s.Render(out)
	return out
}

// Read renders whole stereo frames as 16-bit little-endian PCM. It never
// returns an error; a stream is endless.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(p) / bytesPerFrame * bytesPerFrame
	for i := 0; i < n; i += bytesPerFrame {
		l, r := s.tick()
		binary.LittleEndian.PutUint16(p[i:], uint16(l))
		binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
	}
	return n, nil
}

func (s *Stream) ToggleVoice(v int) {
	s.Do(func(c *spu.Core) { c.ToggleVoice(v) })
}

func (s *Stream) SoloVoice(v int) {
	s.Do(func(c *spu.Core) { c.SoloVoice(v) })
}

func (s *Stream) UnmuteAll() {
	s.Do(func(c *spu.Core) { c.UnmuteAll() })
}

// Snapshot captures the Core state for visualizers.
func (s *Stream) Snapshot() *debug.AudioData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return debug.ExtractAudioData(s.core, s.frames)
}

// tick must be called with mu held.
func (s *Stream) tick() (int16, int16) {
	if s.paused {
		return 0, 0
	}
	l, r := s.step()
	return toInt16(l), toInt16(r)
}

func (s *Stream) step() (float32, float32) {
	if s.clock != nil {
		s.clock.Advance()
	}
	s.frames++
	return s.core.Tick()
}

func clampUnit(x float32) float32 {
	return max(-1, min(1, x))
}

// toInt16 converts a float sample, saturating outside [-1, 1].
func toInt16(x float32) int16 {
	return int16(clampUnit(x) * math.MaxInt16)
}
