package audio

import (
	"sync"

	"github.com/pkg/errors"
)

// Output is a push-based sink for interleaved 16-bit stereo blocks.
type Output interface {
	Open(sampleRate, channels, bufferFrames int) error
	Close() error
	Write(samples []int16) error
	IsPlaying() bool
}

var errNotOpen = errors.New("output not open")

// BufferOutput collects everything written to it, for tests and offline
// analysis.
type BufferOutput struct {
	mu         sync.Mutex
	buffer     []int16
	sampleRate int
	channels   int
	open       bool
}

func NewBufferOutput() *BufferOutput {
	return &BufferOutput{}
}

func (b *BufferOutput) Open(sampleRate, channels, bufferFrames int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sampleRate = sampleRate
	b.channels = channels
	b.buffer = make([]int16, 0, sampleRate*channels) // one second
	b.open = true
	return nil
}

// Close stops accepting samples; the collected buffer stays readable.
func (b *BufferOutput) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return nil
}

func (b *BufferOutput) Write(samples []int16) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return errNotOpen
	}
	b.buffer = append(b.buffer, samples...)
	return nil
}

func (b *BufferOutput) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Samples returns a copy of the collected samples.
func (b *BufferOutput) Samples() []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]int16, len(b.buffer))
	copy(out, b.buffer)
	return out
}

// Clear drops the collected samples.
func (b *BufferOutput) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = b.buffer[:0]
}

// NullOutput discards samples.
type NullOutput struct{}

func (NullOutput) Open(int, int, int) error { return nil }
func (NullOutput) Close() error             { return nil }
func (NullOutput) Write([]int16) error      { return nil }
func (NullOutput) IsPlaying() bool          { return true }
