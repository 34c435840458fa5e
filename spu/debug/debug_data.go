package debug

import "time"

// PlaybackState is the transport state shown by debug displays.
type PlaybackState int

const (
	PlaybackRunning PlaybackState = iota
	PlaybackPaused
	PlaybackFinished
)

func (s PlaybackState) String() string {
	switch s {
	case PlaybackPaused:
		return "paused"
	case PlaybackFinished:
		return "finished"
	default:
		return "playing"
	}
}

// CompleteDebugData contains all debug information needed by debug displays
type CompleteDebugData struct {
	Audio    *AudioData
	State    PlaybackState
	Position time.Duration
	Length   time.Duration // zero when nothing is scheduled
	Loop     bool
	Selected int // voice targeted by the voice debugging keys
}
