package library

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-spu/spu/adpcm"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/memory"
)

func TestPitchForNote(t *testing.T) {
	r := SampleRegion{BaseNote: 60, BasePitch: NativePitch}

	tests := []struct {
		name     string
		note     uint8
		fineTune int16
		want     uint16
	}{
		{"root", 60, 0, 0x1000},
		{"octave up", 72, 0, 0x2000},
		{"octave down", 48, 0, 0x0800},
		{"two octaves down", 36, 0, 0x0400},
		{"clamped", 84, 0, MaxPitch},
		{"fine tune one semitone", 59, 100, 0x1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r.FineTune = tt.fineTune
			assert.Equal(t, tt.want, r.PitchForNote(tt.note))
		})
	}
}

func TestRegionForNote(t *testing.T) {
	bank := InstrumentBank{Regions: []SampleRegion{
		{KeyLo: 60, KeyHi: 127, SPURAMOffset: 32},
		{KeyLo: 0, KeyHi: 59, SPURAMOffset: 16},
	}}
	bank.sortRegions()

	assert.Equal(t, uint8(0), bank.Regions[0].KeyLo)
	require.NotNil(t, bank.RegionForNote(10))
	assert.Equal(t, uint32(16), bank.RegionForNote(59).SPURAMOffset)
	assert.Equal(t, uint32(32), bank.RegionForNote(60).SPURAMOffset)

	split := InstrumentBank{Regions: []SampleRegion{{KeyLo: 40, KeyHi: 50}}}
	assert.Nil(t, split.RegionForNote(39))
	assert.Nil(t, split.RegionForNote(51))
}

func TestLibraryLookup(t *testing.T) {
	lib := NewSampleLibrary("test")
	lib.Instruments = append(lib.Instruments,
		InstrumentBank{Name: "Violin", Program: 40},
		InstrumentBank{Name: "Flute", Program: 73},
	)

	require.NotNil(t, lib.Instrument(73))
	assert.Equal(t, "Flute", lib.Instrument(73).Name)
	assert.Nil(t, lib.Instrument(0))
	assert.Equal(t, []InstrumentName{{40, "Violin"}, {73, "Flute"}}, lib.InstrumentNames())

	lib.Reset()
	assert.Empty(t, lib.Instruments)
	assert.Zero(t, lib.RAM.AllocatedBytes())
}

func TestAlignLoop(t *testing.T) {
	pcm := make([]int16, 300)
	for i := range pcm {
		pcm[i] = int16(i)
	}

	t.Run("already aligned", func(t *testing.T) {
		out, start, end, corr := AlignLoop(pcm, 28, 112)
		assert.Equal(t, pcm, out)
		assert.Equal(t, 28, start)
		assert.Equal(t, 112, end)
		assert.Equal(t, 1.0, corr)
	})

	t.Run("rounds start up and length to nearest", func(t *testing.T) {
		out, start, end, corr := AlignLoop(pcm, 10, 110)
		assert.Equal(t, 28, start)
		assert.Equal(t, 140, end)
		assert.Len(t, out, 140)
		assert.InDelta(t, 1.12, corr, 1e-9)
		assert.Equal(t, pcm[:28], out[:28])
		assert.Equal(t, int16(28), out[28], "loop continues from the pre-loop")
	})

	t.Run("tie rounds down", func(t *testing.T) {
		_, start, end, corr := AlignLoop(pcm, 28, 70)
		assert.Equal(t, 28, start)
		assert.Equal(t, 56, end)
		assert.InDelta(t, 28.0/42.0, corr, 1e-9)
	})

	t.Run("short loop rounds up", func(t *testing.T) {
		_, start, end, _ := AlignLoop(pcm, 0, 20)
		assert.Equal(t, 0, start)
		assert.Equal(t, 28, end)
	})

	t.Run("empty loop", func(t *testing.T) {
		out, _, _, corr := AlignLoop(pcm, 50, 50)
		assert.Equal(t, pcm, out)
		assert.Equal(t, 1.0, corr)
	})
}

func TestNormalizePreLoop(t *testing.T) {
	loop := Waveform([]float64{1}, 100, 1, 10000)
	pcm := make([]int16, 1000+len(loop))
	for i := range 176 {
		pcm[i] = 20000
	}
	copy(pcm[1000:], loop)

	NormalizePreLoop(pcm, 1000, len(pcm))

	assert.Equal(t, int16(20000), pcm[0], "attack is preserved")
	assert.Equal(t, int16(20000), pcm[175])
	for i := 264; i < 1000; i++ {
		require.Equal(t, loop[(i-264)%100], pcm[i], "sample %d", i)
	}

	quiet := make([]int16, 500)
	copy(quiet[400:], loop)
	before := append([]int16(nil), quiet...)
	NormalizePreLoop(quiet, 400, 120)
	assert.Equal(t, before, quiet, "loop end before start is ignored")
}

func TestBuilderAddInstrument(t *testing.T) {
	lib := NewSampleLibrary("test")
	b := NewBuilder(lib)

	pcm := Waveform([]float64{1}, 112, 2, 8000)
	spec := RegionSpec{PCM: pcm, SampleRate: 22050, LoopStart: 112, LoopEnd: 224, BaseNote: 60, KeyHi: 63, ADSR: envelope.Default()}
	oneShot := RegionSpec{PCM: pcm, LoopStart: adpcm.NoLoop, BaseNote: 72, KeyLo: 64, KeyHi: 127, AttenuationDB: 6}

	require.NoError(t, b.AddInstrument(5, "Electric Piano 2", []RegionSpec{oneShot, spec}))

	bank := lib.Instrument(5)
	require.NotNil(t, bank)
	require.Len(t, bank.Regions, 2)

	looped := bank.Regions[0]
	assert.Equal(t, uint8(0), looped.KeyLo, "regions are sorted by key")
	assert.True(t, looped.HasLoop)
	assert.Equal(t, uint16(0x800), looped.BasePitch)
	assert.Equal(t, looped.SPURAMOffset+4*adpcm.BlockSize, looped.LoopOffset)
	assert.Equal(t, uint32(8*adpcm.BlockSize), looped.ADPCMLength)
	assert.Zero(t, looped.SPURAMOffset%memory.BlockAlign)

	plain := bank.Regions[1]
	assert.False(t, plain.HasLoop)
	assert.Equal(t, plain.SPURAMOffset, plain.LoopOffset)
	assert.Equal(t, uint16(NativePitch), plain.BasePitch)
	assert.InDelta(t, 0x7FFF/2, plain.DefaultVolume, 200)
	assert.Equal(t, 2, lib.SampleCount)

	used := lib.RAM.AllocatedBytes()
	require.NoError(t, b.AddInstrument(6, "dup", []RegionSpec{spec}))
	assert.Equal(t, used, lib.RAM.AllocatedBytes(), "identical sample is stored once")
	assert.Equal(t, looped.SPURAMOffset, lib.Instrument(6).Regions[0].SPURAMOffset)

	require.NoError(t, b.AddInstrument(5, "again", nil), "already loaded programs are kept")
	assert.Equal(t, "Electric Piano 2", lib.Instrument(5).Name)

	assert.Error(t, b.AddInstrument(7, "empty", []RegionSpec{{LoopStart: adpcm.NoLoop}}))
	assert.Nil(t, lib.Instrument(7))
}

func TestBuilderRAMFull(t *testing.T) {
	t.Run("instrument skipped", func(t *testing.T) {
		lib := NewSampleLibrary("full")
		_, err := lib.RAM.Allocate(make([]byte, memory.Size-32))
		require.NoError(t, err)

		b := NewBuilder(lib)
		err = b.AddInstrument(1, "big", []RegionSpec{{PCM: make([]int16, 280), LoopStart: adpcm.NoLoop, KeyHi: 127}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, memory.ErrRAMFull))
		assert.Equal(t, memory.ErrRAMFull, errors.Cause(err))
		assert.Nil(t, lib.Instrument(1))
	})

	t.Run("partial bank kept", func(t *testing.T) {
		lib := NewSampleLibrary("partial")
		_, err := lib.RAM.Allocate(make([]byte, memory.Size-208))
		require.NoError(t, err)

		b := NewBuilder(lib)
		small := RegionSpec{PCM: Waveform([]float64{1}, 112, 1, 8000), LoopStart: 0, LoopEnd: 112, KeyHi: 59}
		big := RegionSpec{PCM: make([]int16, 280), LoopStart: adpcm.NoLoop, KeyLo: 60, KeyHi: 127}

		err = b.AddInstrument(2, "split", []RegionSpec{small, big})
		assert.True(t, errors.Is(err, memory.ErrRAMFull))
		require.NotNil(t, lib.Instrument(2))
		assert.Len(t, lib.Instrument(2).Regions, 1)
	})
}

func TestBankRoundTrip(t *testing.T) {
	lib, err := DemoLibrary()
	require.NoError(t, err)
	require.Len(t, lib.Instruments, len(demoInstruments))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, lib))

	loaded, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, lib.SourceName, loaded.SourceName)
	assert.Equal(t, lib.SampleCount, loaded.SampleCount)
	assert.Equal(t, lib.Instruments, loaded.Instruments)
	assert.Equal(t, lib.RAM.AllocatedBytes(), loaded.RAM.AllocatedBytes())
	assert.Equal(t, lib.RAM.Data(), loaded.RAM.Data())
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("RIFF0000WAVEfmt xxxxxxxxxxxxxx")))
	assert.ErrorIs(t, err, ErrBadBank)

	_, err = Load(bytes.NewReader(nil))
	assert.Error(t, err)
}

func TestDemoLibraryTuning(t *testing.T) {
	lib, err := DemoLibrary()
	require.NoError(t, err)

	r := lib.Instrument(80).RegionForNote(69)
	require.NotNil(t, r)
	// 440 Hz from a 112-sample period needs pitch 0x1000 * 440 / (44100/112).
	want := float64(NativePitch) * 440 / (44100.0 / demoPeriod)
	assert.InDelta(t, want, float64(r.PitchForNote(69)), want*0.001)
}
