package envelope

import "math"

// BaseTime is the duration in seconds of a full-range linear traversal at
// rate 0: a step of 7<<11 every tick covers 32767 in about 2.285 samples.
// Each additional 4 rate units doubles the time.
const BaseTime = 32767.0 / 14336.0 / 44100.0

// baseTicks is BaseTime expressed in output samples.
const baseTicks = 32767.0 / 14336.0

// ExpectedLinearTicks returns the analytic number of ticks a linear phase
// at rate needs to cover the full level range.
func ExpectedLinearTicks(rate uint8) float64 {
	return baseTicks * math.Pow(2, float64(rate)/4)
}

// SecondsToRate converts a phase duration to the nearest rate (0-127).
func SecondsToRate(seconds float64) uint8 {
	if seconds <= 0 {
		return 0
	}
	r := math.Round(4 * math.Log2(seconds/BaseTime))
	return uint8(max(0, min(127, r)))
}

// TimeToAttack splits a duration into attack shift and step.
func TimeToAttack(seconds float64) (shift, step uint8) {
	r := SecondsToRate(seconds)
	return r / 4, r % 4
}

// TimeToDecayShift returns the 4-bit decay shift for a duration.
func TimeToDecayShift(seconds float64) uint8 {
	return min(SecondsToRate(seconds)/4, 15)
}

// TimeToReleaseShift returns the 5-bit release shift for a duration.
func TimeToReleaseShift(seconds float64) uint8 {
	return min(SecondsToRate(seconds)/4, 31)
}

// FromTimes builds register parameters from generic envelope times.
//
// sustain is the linear sustain amplitude in [0,1]. Looped samples get a
// short decay (at most 0.3s) and a sustain level of at least 14 so they
// settle quickly near full volume. Sustain always holds; release is
// exponential.
func FromTimes(attack, decay, sustain, release float64, looped bool) Params {
	shift, step := TimeToAttack(attack)

	if looped {
		decay = min(decay, 0.3)
	}

	level := uint8(min(15, max(0, math.Round(sustain*15))))
	if looped {
		level = max(level, 14)
	}

	return Params{
		AttackExp:    attack > 0.1,
		AttackShift:  shift,
		AttackStep:   step,
		DecayShift:   TimeToDecayShift(decay),
		SustainLevel: level,
		SustainShift: 31,
		ReleaseExp:   true,
		ReleaseShift: TimeToReleaseShift(release),
	}
}
