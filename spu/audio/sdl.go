//go:build sdl2

package audio

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
)

// maxQueuedBlocks bounds the SDL queue; Write blocks while it is full.
const maxQueuedBlocks = 3

// SDLOutput pushes blocks into an SDL2 audio device queue.
// Note: building this requires SDL2 development libraries installed.
type SDLOutput struct {
	mu         sync.Mutex
	device     sdl.AudioDeviceID
	blockBytes uint32
	scratch    []byte
	open       bool
}

func NewSDLOutput() *SDLOutput {
	return &SDLOutput{}
}

func (o *SDLOutput) Open(sampleRate, channels, bufferFrames int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.open {
		return errors.New("sdl output already open")
	}
	if err := sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
		return errors.Wrap(err, "initializing SDL2 audio")
	}

	want := &sdl.AudioSpec{
		Freq:     int32(sampleRate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: uint8(channels),
		Samples:  uint16(bufferFrames),
	}
	var have sdl.AudioSpec
	dev, err := sdl.OpenAudioDevice("", false, want, &have, 0)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_AUDIO)
		return errors.Wrap(err, "opening SDL2 audio device")
	}

	o.device = dev
	o.blockBytes = uint32(bufferFrames * channels * 2)
	o.scratch = make([]byte, 0, o.blockBytes)
	o.open = true
	sdl.PauseAudioDevice(dev, false)
	return nil
}

func (o *SDLOutput) Write(samples []int16) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.open {
		return errNotOpen
	}
	for sdl.GetQueuedAudioSize(o.device) > o.blockBytes*maxQueuedBlocks {
		time.Sleep(time.Millisecond)
	}

	o.scratch = o.scratch[:0]
	for _, s := range samples {
		o.scratch = binary.LittleEndian.AppendUint16(o.scratch, uint16(s))
	}
	return errors.Wrap(sdl.QueueAudio(o.device, o.scratch), "queueing audio")
}

func (o *SDLOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.open {
		return nil
	}
	o.open = false
	sdl.ClearQueuedAudio(o.device)
	sdl.CloseAudioDevice(o.device)
	sdl.QuitSubSystem(sdl.INIT_AUDIO)
	return nil
}

func (o *SDLOutput) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}
