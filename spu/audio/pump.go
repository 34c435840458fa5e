package audio

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/valerio/go-spu/spu/timing"
)

// Pump pushes blocks rendered by a Stream into an Output. A real-time
// output paces itself (or is paced by the limiter); an offline output is
// filled as fast as the Core renders.
type Pump struct {
	stream  *Stream
	output  Output
	limiter timing.Limiter
	block   []int16

	mu      sync.Mutex
	running bool
	done    chan struct{}
	err     error
}

// NewPump creates a pump writing blockFrames stereo frames per block. A nil
// limiter never waits.
func NewPump(stream *Stream, output Output, limiter timing.Limiter, blockFrames int) *Pump {
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	return &Pump{
		stream:  stream,
		output:  output,
		limiter: limiter,
		block:   make([]int16, blockFrames*Channels),
	}
}

// BlockFrames is the number of stereo frames per pushed block.
func (p *Pump) BlockFrames() int {
	return len(p.block) / Channels
}

// Start opens the output and pushes blocks on a new goroutine until Stop.
func (p *Pump) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("pump already running")
	}
	if err := p.output.Open(SampleRate, Channels, p.BlockFrames()); err != nil {
		return errors.Wrap(err, "opening output")
	}

	p.running = true
	p.err = nil
	p.done = make(chan struct{})
	p.limiter.Reset()
	go p.loop()
	return nil
}

// Stop ends the push loop and closes the output. It returns the first
// write error the loop hit, if any.
func (p *Pump) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	done := p.done
	p.mu.Unlock()

	<-done

	closeErr := p.output.Close()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	return errors.Wrap(closeErr, "closing output")
}

func (p *Pump) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Done is closed when the push loop exits, either on Stop or after a write
// error. It is nil before the first Start.
func (p *Pump) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

func (p *Pump) loop() {
	defer close(p.done)

	for {
		p.mu.Lock()
		running := p.running
		p.mu.Unlock()
		if !running {
			return
		}

		p.stream.Render(p.block)
		if err := p.output.Write(p.block); err != nil {
			slog.Error("Audio output failed", "error", err)
			p.mu.Lock()
			p.err = errors.Wrap(err, "writing block")
			p.mu.Unlock()
			return
		}
		p.limiter.WaitForNextFrame()
	}
}

// RenderFrames synchronously pushes frames stereo frames through an
// already opened output, stopping early when until reports true. It
// returns the number of frames written.
func (p *Pump) RenderFrames(frames uint64, until func() bool) (uint64, error) {
	var written uint64
	for written < frames {
		if until != nil && until() {
			break
		}
		n := min(uint64(p.BlockFrames()), frames-written)
		block := p.block[:n*Channels]
		p.stream.Render(block)
		if err := p.output.Write(block); err != nil {
			return written, errors.Wrap(err, "writing block")
		}
		written += n
		p.limiter.WaitForNextFrame()
	}
	return written, nil
}
