package testsignal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequency(t *testing.T) {
	for _, freq := range []float64{110, 440, 1000, 3520} {
		s := Sine(freq, SampleRate, SampleRate, 16000)
		assert.InDelta(t, freq, Frequency(s, SampleRate), freq*0.001, "freq %v", freq)
	}
	assert.Zero(t, Frequency(make([]int16, 100), SampleRate))
}

func TestRMSAndSNR(t *testing.T) {
	s := Sine(440, SampleRate, SampleRate, 10000)
	assert.InDelta(t, 10000/math.Sqrt2, RMS(s), 10)
	assert.True(t, math.IsInf(SNR(s, s), 1))

	noisy := make([]int16, len(s))
	for i, v := range s {
		noisy[i] = v + 100
	}
	assert.InDelta(t, 20*math.Log10((10000/math.Sqrt2)/100), SNR(s, noisy), 0.1)
}

func TestGoertzel(t *testing.T) {
	s := Sine(1000, 4410, SampleRate, 8000)
	on := Goertzel(s, SampleRate, 1000)
	off := Goertzel(s, SampleRate, 3000)
	assert.Greater(t, on, off*50)
}

func TestStepAndZeroRun(t *testing.T) {
	assert.Equal(t, 10, MaxStep([]int16{0, 5, -5, -3}))
	assert.Equal(t, 3, LongestZeroRun([]int16{1, 0, 0, 2, 0, 0, 0, 4}))
	assert.Equal(t, int16(32767), Clamp16(40000))
	assert.Equal(t, int16(-32768), Clamp16(-40000))
}
