package timing

import (
	"log/slog"
	"time"
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	period        time.Duration
	nextFrameTime time.Time
	frameCounter  int64
	started       time.Time
}

func NewAdaptiveLimiter(period time.Duration) *AdaptiveLimiter {
	now := time.Now()
	return &AdaptiveLimiter{
		period:        period,
		nextFrameTime: now,
		started:       now,
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := time.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime < 2*time.Millisecond {
			for time.Now().Before(a.nextFrameTime) {
				// busy-wait for times under 2ms, higher accuracy.
			}
		} else {
			time.Sleep(sleepTime - time.Millisecond)
			for time.Now().Before(a.nextFrameTime) {
			}
		}
	} else if sleepTime < -5*a.period {
		// too far behind, drop the backlog instead of bursting
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.period)
	a.frameCounter++

	if a.frameCounter%100 == 0 {
		elapsed := time.Since(a.started)
		expected := time.Duration(a.frameCounter) * a.period
		if drift := elapsed - expected; drift.Abs() > 10*time.Millisecond {
			slog.Debug("Block timing drift",
				"drift_ms", drift.Milliseconds(),
				"blocks", a.frameCounter)
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	now := time.Now()
	a.nextFrameTime = now
	a.started = now
	a.frameCounter = 0
}
