//go:build !headless

package audio

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
)

var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

// oto allows a single context per process.
func sharedContext(bufferFrames int) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(bufferFrames) * time.Second / SampleRate,
		})
		if err != nil {
			otoErr = errors.Wrap(err, "creating oto context")
			return
		}
		<-ready
		otoContext = ctx
	})
	return otoContext, otoErr
}

// OtoPlayer pulls PCM from a Stream on oto's own goroutine.
type OtoPlayer struct {
	mu      sync.Mutex
	player  *oto.Player
	started bool
}

func NewOtoPlayer(stream *Stream, bufferFrames int) (*OtoPlayer, error) {
	if bufferFrames <= 0 {
		bufferFrames = DefaultBlockFrames
	}
	ctx, err := sharedContext(bufferFrames)
	if err != nil {
		return nil, err
	}

	p := ctx.NewPlayer(stream)
	p.SetBufferSize(bufferFrames * bytesPerFrame)
	return &OtoPlayer{player: p}, nil
}

func (op *OtoPlayer) Start() {
	op.mu.Lock()
	defer op.mu.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

func (op *OtoPlayer) Stop() {
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.started && op.player != nil {
		op.player.Pause()
		op.started = false
	}
}

// Close pauses the player and reports any error it hit while playing.
// The shared context stays alive for the next player.
func (op *OtoPlayer) Close() error {
	op.Stop()
	op.mu.Lock()
	defer op.mu.Unlock()

	if op.player == nil {
		return nil
	}
	err := op.player.Err()
	op.player = nil
	return errors.Wrap(err, "oto player")
}

func (op *OtoPlayer) IsStarted() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.started
}
