package timing

import "time"

// Limiter paces a loop that pushes audio blocks or refreshes a display.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for offline rendering).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// DisplayFPS is the refresh rate of the terminal meters.
const DisplayFPS = 30

// BlockDuration returns the playback time of samples frames at sampleRate.
func BlockDuration(samples, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// FrameDuration returns the period of the display refresh.
func FrameDuration() time.Duration {
	return time.Second / DisplayFPS
}
