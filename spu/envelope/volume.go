package envelope

// VolumeEnvelope is the hardware counter that moves a level toward its
// target. Only the counter overflow (bit 15) applies a step, so slow rates
// change the level once every many ticks.
type VolumeEnvelope struct {
	counter     uint16
	increment   uint16
	step        int32
	rate        uint8
	decreasing  bool
	exponential bool
}

// Reset reprograms the envelope for a new phase. rateMask is the value the
// rate takes when every bit the phase can express is set; such rates never
// get the minimum increment and stall instead.
func (e *VolumeEnvelope) Reset(rate, rateMask uint8, decreasing, exponential bool) {
	e.rate = rate
	e.decreasing = decreasing
	e.exponential = exponential
	e.counter = 0
	e.increment = 0x8000

	base := int32(7 - (rate & 3))
	if decreasing {
		e.step = ^base
	} else {
		e.step = base
	}

	switch {
	case rate < 44:
		e.step <<= 11 - (rate >> 2)
	case rate >= 48:
		sh := (rate >> 2) - 11
		if sh >= 16 {
			e.increment = 0
			return
		}
		e.increment >>= sh
		if rate&rateMask != rateMask {
			e.increment = max(e.increment, 1)
		}
	}
}

// Tick advances the counter by one sample and updates level in place.
func (e *VolumeEnvelope) Tick(level *int16) {
	if e.increment == 0 {
		return
	}

	step := e.step
	inc := e.increment
	if e.exponential {
		if e.decreasing {
			step = (step * int32(*level)) >> 15
		} else if *level >= 0x6000 {
			switch {
			case e.rate < 40:
				step >>= 2
			case e.rate >= 44:
				inc >>= 2
			default:
				step >>= 1
				inc >>= 1
			}
		}
	}

	e.counter += inc
	if e.counter&0x8000 == 0 {
		return
	}
	e.counter = 0

	next := int32(*level) + step
	if e.decreasing {
		*level = int16(max(next, 0))
	} else {
		*level = int16(max(-32768, min(32767, next)))
	}
}

// Increment exposes the per-tick counter increment, mostly for diagnostics.
func (e *VolumeEnvelope) Increment() uint16 {
	return e.increment
}

// Step exposes the signed level change applied on counter overflow.
func (e *VolumeEnvelope) Step() int32 {
	return e.step
}
