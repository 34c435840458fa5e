package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-spu/internal/testsignal"
	"github.com/valerio/go-spu/spu/adpcm"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/library"
	"github.com/valerio/go-spu/spu/memory"
)

// instant reaches full level in a few ticks and holds it.
var instant = envelope.Params{SustainLevel: 15, SustainShift: 31}

func loadRegion(t *testing.T, pcm []int16, loopStart, loopEnd int) (*memory.RAM, *library.SampleRegion) {
	t.Helper()
	lib := library.NewSampleLibrary("test")
	b := library.NewBuilder(lib)
	require.NoError(t, b.AddInstrument(0, "test", []library.RegionSpec{{
		PCM:       pcm,
		LoopStart: loopStart,
		LoopEnd:   loopEnd,
		BaseNote:  69,
		KeyHi:     127,
		ADSR:      instant,
	}}))
	r := lib.Instrument(0).RegionForNote(69)
	require.NotNil(t, r)
	return lib.RAM, r
}

func render(v *Voice, ram *memory.RAM, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		l, _ := v.Tick(ram)
		out[i] = testsignal.Clamp16(l)
	}
	return out
}

func TestGaussTableRows(t *testing.T) {
	for i := range 256 {
		sum := gaussTable[0xFF-i] + gaussTable[0x1FF-i] + gaussTable[0x100+i] + gaussTable[i]
		assert.InDelta(t, 0x8000, sum, 32, "row %d", i)
	}
	assert.Equal(t, int32(0), gaussTable[0])
	assert.Equal(t, int32(1305<<4), gaussTable[511])
}

func TestInterpolateDC(t *testing.T) {
	v := New()
	for i := range v.decoded {
		v.decoded[i] = 10000
	}
	for i := range v.history {
		v.history[i] = 10000
	}
	for _, counter := range []uint32{0, 0x0800, 0x0FF0, 0x5A30, 27 << 12} {
		v.pitchCounter = counter
		assert.InDelta(t, 10000, v.interpolate(), 12, "counter %#x", counter)
	}
}

func TestInterpolateUsesHistory(t *testing.T) {
	v := New()
	v.history = [4]int16{0, 1000, 2000, 3000}
	v.decoded[0] = 4000

	v.pitchCounter = 0
	got := v.interpolate()
	assert.Greater(t, got, int16(1500))
	assert.Less(t, got, int16(2500))
}

func TestIdleVoiceIsSilent(t *testing.T) {
	v := New()
	ram := memory.New()
	l, r := v.Tick(ram)
	assert.Zero(t, l)
	assert.Zero(t, r)
	assert.False(t, v.Active())
	assert.Equal(t, envelope.Off, v.Phase())
}

func TestKeyOnVolume(t *testing.T) {
	_, region := loadRegion(t, make([]int16, 56), adpcm.NoLoop, adpcm.NoLoop)

	v := New()
	v.KeyOn(region, 69, 127)
	s := v.State()
	assert.True(t, s.Active)
	assert.Equal(t, envelope.Attack, s.Phase)
	assert.Equal(t, int16(0x7FFF), s.VolumeLeft)
	assert.Equal(t, int16(0x7FFF), s.VolumeRight)
	assert.Equal(t, uint16(library.NativePitch), s.Pitch)

	v.KeyOn(region, 81, 64)
	s = v.State()
	assert.Equal(t, int16(32767*32/127), s.VolumeLeft)
	assert.Equal(t, uint16(0x2000), s.Pitch)
}

func TestSetVolumeFromPan(t *testing.T) {
	_, region := loadRegion(t, make([]int16, 56), adpcm.NoLoop, adpcm.NoLoop)

	tests := []struct {
		name      string
		pan       uint8
		wantLeft  int16
		wantRight int16
		delta     float64
	}{
		{"hard left", 0, 0x7FFF, 0, 0},
		{"hard right", 127, 0, 0x7FFF, 1},
		{"center", 64, 23027, 23313, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.KeyOn(region, 69, 127)
			v.SetVolumeFromPan(tt.pan, 127)
			s := v.State()
			assert.InDelta(t, tt.wantLeft, s.VolumeLeft, tt.delta)
			assert.InDelta(t, tt.wantRight, s.VolumeRight, tt.delta)
		})
	}

	t.Run("volume curve", func(t *testing.T) {
		v := New()
		v.KeyOn(region, 69, 127)
		v.SetVolumeFromPan(0, 0)
		assert.Zero(t, v.State().VolumeLeft)
	})
}

func TestSetPitchClamps(t *testing.T) {
	v := New()
	v.SetPitch(0xFFFF)
	assert.Equal(t, uint16(library.MaxPitch), v.Pitch())
	v.SetPitch(0x0800)
	assert.Equal(t, uint16(0x0800), v.Pitch())
}

func TestKeyOffPhases(t *testing.T) {
	_, region := loadRegion(t, make([]int16, 56), 0, 56)

	v := New()
	v.KeyOff()
	assert.Equal(t, envelope.Off, v.Phase())

	v.KeyOn(region, 69, 100)
	v.KeyOff()
	assert.Equal(t, envelope.Release, v.Phase())
	v.KeyOff()
	assert.Equal(t, envelope.Release, v.Phase())
}

func TestOneShotEnds(t *testing.T) {
	pcm := library.Waveform([]float64{1}, 28, 2, 12000)
	ram, region := loadRegion(t, pcm, adpcm.NoLoop, adpcm.NoLoop)

	v := New()
	v.KeyOn(region, 69, 127)
	render(v, ram, 55)
	assert.True(t, v.Active())

	v.Tick(ram)
	s := v.State()
	assert.False(t, s.Active)
	assert.True(t, s.EndFlag)
	assert.Equal(t, envelope.Off, s.Phase)
	assert.Zero(t, s.Level)

	out := render(v, ram, 1000)
	assert.Zero(t, testsignal.RMS(out))
}

func TestLoopPlaysIndefinitely(t *testing.T) {
	pcm := library.Waveform([]float64{1}, 56, 1, 16000)
	ram, region := loadRegion(t, pcm, 0, 56)

	v := New()
	v.KeyOn(region, 69, 127)
	render(v, ram, 10000)
	require.True(t, v.Active())

	out := render(v, ram, 4410)
	assert.Greater(t, testsignal.RMS(out), 100.0)
	assert.Less(t, testsignal.LongestZeroRun(out), 8)
	assert.True(t, v.State().EndFlag)
}

func TestLoopStartFlagSetsLoopAddress(t *testing.T) {
	ram := memory.New()
	pcm := library.Waveform([]float64{1}, 28, 3, 12000)
	off, err := ram.Allocate(adpcm.Encode(pcm, 28, 84))
	require.NoError(t, err)

	region := &library.SampleRegion{
		SPURAMOffset: off,
		LoopOffset:   off,
		BaseNote:     69,
		BasePitch:    library.NativePitch,
		KeyHi:        127,
		ADSR:         instant,
	}

	v := New()
	v.KeyOn(region, 69, 127)
	for range 1000 {
		v.Tick(ram)
		require.True(t, v.Active())
		require.GreaterOrEqual(t, v.State().Address, off)
	}
	for range 200 {
		v.Tick(ram)
		assert.NotEqual(t, off, v.State().Address, "first block is not part of the loop")
	}
}

func TestPitchTracksNote(t *testing.T) {
	pcm := testsignal.Sine(1000, 44100, testsignal.SampleRate, 16000)
	ram, region := loadRegion(t, pcm, 0, len(pcm))

	tests := []struct {
		note uint8
		want float64
	}{
		{57, 500},
		{69, 1000},
		{81, 2000},
		{76, 1000 * 1.4983070768766815},
	}

	for _, tt := range tests {
		v := New()
		v.KeyOn(region, tt.note, 127)
		out := render(v, ram, 22050)
		got := testsignal.Frequency(out[200:], testsignal.SampleRate)
		assert.InEpsilon(t, tt.want, got, 0.02, "note %d", tt.note)
	}
}
