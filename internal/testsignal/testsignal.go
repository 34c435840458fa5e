// Package testsignal provides deterministic signals and measurements for
// audio tests.
package testsignal

import (
	"math"
)

// SampleRate is the native SPU output rate.
const SampleRate = 44100

// Sine returns n samples of a sine at freq Hz with the given peak amplitude.
func Sine(freq float64, n, sampleRate int, amplitude float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freq*t))
	}
	return out
}

// SineSeconds is Sine sized by duration.
func SineSeconds(freq, seconds float64, sampleRate int, amplitude float64) []int16 {
	return Sine(freq, int(seconds*float64(sampleRate)), sampleRate, amplitude)
}

// Mix returns n samples of the sum of equal-amplitude sines, scaled so the
// peak never exceeds amplitude.
func Mix(freqs []float64, n, sampleRate int, amplitude float64) []int16 {
	out := make([]int16, n)
	if len(freqs) == 0 {
		return out
	}
	per := amplitude / float64(len(freqs))
	for i := range out {
		t := float64(i) / float64(sampleRate)
		var v float64
		for _, f := range freqs {
			v += per * math.Sin(2*math.Pi*f*t)
		}
		out[i] = int16(v)
	}
	return out
}

// RMS returns the root mean square of samples.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// SNR returns the signal-to-noise ratio in dB of decoded against original,
// over the length of the shorter slice. Identical signals report +Inf.
func SNR(original, decoded []int16) float64 {
	n := min(len(original), len(decoded))
	var sig, noise float64
	for i := range n {
		o := float64(original[i])
		e := o - float64(decoded[i])
		sig += o * o
		noise += e * e
	}
	if noise == 0 {
		return math.Inf(1)
	}
	return 10 * math.Log10(sig/noise)
}

// Frequency estimates the dominant frequency from rising zero crossings,
// interpolating each crossing to sub-sample precision. It returns 0 when
// fewer than two crossings are found.
func Frequency(samples []int16, sampleRate int) float64 {
	var first, last float64
	count := 0
	for i := 1; i < len(samples); i++ {
		a, b := float64(samples[i-1]), float64(samples[i])
		if a <= 0 && b > 0 {
			pos := float64(i-1) + (-a)/(b-a)
			if count == 0 {
				first = pos
			}
			last = pos
			count++
		}
	}
	if count < 2 {
		return 0
	}
	period := (last - first) / float64(count-1)
	return float64(sampleRate) / period
}

// MaxStep returns the largest absolute difference between consecutive samples.
func MaxStep(samples []int16) int {
	best := 0
	for i := 1; i < len(samples); i++ {
		d := int(samples[i]) - int(samples[i-1])
		if d < 0 {
			d = -d
		}
		best = max(best, d)
	}
	return best
}

// LongestZeroRun returns the length of the longest run of exact zeros.
func LongestZeroRun(samples []int16) int {
	best, run := 0, 0
	for _, s := range samples {
		if s == 0 {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

// Goertzel returns the magnitude of a single frequency bin, normalized by
// the number of samples.
func Goertzel(samples []int16, sampleRate int, freq float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	w := 2 * math.Pi * freq / float64(sampleRate)
	coeff := 2 * math.Cos(w)
	var s1, s2 float64
	for _, x := range samples {
		s0 := float64(x) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}
	power := s1*s1 + s2*s2 - coeff*s1*s2
	return math.Sqrt(math.Max(power, 0)) / float64(len(samples))
}

// Clamp16 saturates an int32 into the int16 range.
func Clamp16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
