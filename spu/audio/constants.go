package audio

import "github.com/valerio/go-spu/spu"

const (
	// SampleRate is the output rate of every driver.
	SampleRate = spu.SampleRate

	// Channels is the interleaved channel count (stereo).
	Channels = 2

	// bytesPerFrame is one stereo frame of 16-bit little-endian samples.
	bytesPerFrame = Channels * 2

	// DefaultBlockFrames is the push block size: 1024 frames, about 23 ms.
	DefaultBlockFrames = 1024
)
