//go:build !sdl2

package audio

import "github.com/pkg/errors"

// SDLOutput stub for when SDL2 is not available
type SDLOutput struct{}

func NewSDLOutput() *SDLOutput {
	return &SDLOutput{}
}

func (o *SDLOutput) Open(sampleRate, channels, bufferFrames int) error {
	return errors.New("SDL2 audio not available - build with -tags sdl2 to enable")
}

func (o *SDLOutput) Close() error                { return nil }
func (o *SDLOutput) Write(samples []int16) error { return errNotOpen }
func (o *SDLOutput) IsPlaying() bool             { return false }
