package library

import (
	"math"

	"github.com/valerio/go-spu/spu/envelope"
)

// demoPeriod is the waveform period in samples: four ADPCM blocks, so demo
// loops need no resampling.
const demoPeriod = 112

type demoInstrument struct {
	program   uint8
	harmonics []float64
	adsr      envelope.Params
}

var demoInstruments = []demoInstrument{
	{program: 0, harmonics: []float64{1, 0.5, 0.25, 0.12}, adsr: envelope.Percussive()},
	{program: 38, harmonics: []float64{1, 0.6, 0.1}, adsr: envelope.Percussive()},
	{program: 48, harmonics: []float64{1, 1.0 / 2, 1.0 / 3, 1.0 / 4, 1.0 / 5, 1.0 / 6, 1.0 / 7, 1.0 / 8}, adsr: envelope.Sustained()},
	{program: 80, harmonics: []float64{1, 0, 1.0 / 3, 0, 1.0 / 5, 0, 1.0 / 7}, adsr: envelope.Default()},
}

// DemoLibrary builds a small library of synthesized looped instruments, for
// running without an external bank.
func DemoLibrary() (*SampleLibrary, error) {
	lib := NewSampleLibrary("demo")
	b := NewBuilder(lib)

	freq := 44100.0 / demoPeriod
	semis := 69 + 12*math.Log2(freq/440)
	root := math.Floor(semis)
	fine := -int16(math.Round((semis - root) * 100))

	for _, inst := range demoInstruments {
		pcm := Waveform(inst.harmonics, demoPeriod, 4, 12000)
		spec := RegionSpec{
			PCM:       pcm,
			LoopStart: 0,
			LoopEnd:   len(pcm),
			BaseNote:  uint8(root),
			KeyLo:     0,
			KeyHi:     127,
			FineTune:  fine,
			ADSR:      inst.adsr,
		}
		if err := b.AddInstrument(inst.program, GMNames[inst.program], []RegionSpec{spec}); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Waveform renders cycles periods of an additive waveform with the given
// harmonic amplitudes, normalized to peak.
func Waveform(harmonics []float64, period, cycles int, peak float64) []int16 {
	n := period * cycles
	raw := make([]float64, n)
	var maxAbs float64
	for i := range raw {
		phase := 2 * math.Pi * float64(i) / float64(period)
		var v float64
		for h, amp := range harmonics {
			v += amp * math.Sin(phase*float64(h+1))
		}
		raw[i] = v
		maxAbs = max(maxAbs, math.Abs(v))
	}

	out := make([]int16, n)
	if maxAbs == 0 {
		return out
	}
	scale := peak / maxAbs
	for i, v := range raw {
		out[i] = int16(math.Round(v * scale))
	}
	return out
}
