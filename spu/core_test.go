package spu

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-spu/internal/testsignal"
	"github.com/valerio/go-spu/spu/adpcm"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/library"
	"github.com/valerio/go-spu/spu/reverb"
)

const (
	sineProgram = 0
	loopProgram = 1
)

var instant = envelope.Params{SustainLevel: 15, SustainShift: 31}

// testLibrary holds a one second 440 Hz one-shot sine (program 0) and a
// looped 393.75 Hz tone (program 1), both rooted at A4.
func testLibrary(t testing.TB) *library.SampleLibrary {
	t.Helper()
	lib := library.NewSampleLibrary("test")
	b := library.NewBuilder(lib)

	sine := testsignal.Sine(440, testsignal.SampleRate, testsignal.SampleRate, 16000)
	require.NoError(t, b.AddInstrument(sineProgram, "Sine", []library.RegionSpec{{
		PCM:       sine,
		LoopStart: adpcm.NoLoop,
		BaseNote:  69,
		KeyHi:     127,
		ADSR:      instant,
	}}))

	tone := library.Waveform([]float64{1, 0.3}, 112, 4, 16000)
	require.NoError(t, b.AddInstrument(loopProgram, "Loop", []library.RegionSpec{{
		PCM:       tone,
		LoopStart: 0,
		LoopEnd:   len(tone),
		BaseNote:  69,
		KeyLo:     40,
		KeyHi:     100,
		ADSR:      instant,
	}}))
	return lib
}

func loadedCore(t *testing.T) *Core {
	t.Helper()
	c := New()
	c.LoadSampleLibrary(testLibrary(t))
	require.True(t, c.IsLoaded())
	return c
}

func renderLeft(c *Core, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		l, _ := c.Tick()
		out[i] = int16(max(-1, min(1, l)) * math.MaxInt16)
	}
	return out
}

func TestNoLibraryIsSilent(t *testing.T) {
	c := New()
	assert.False(t, c.IsLoaded())
	assert.Empty(t, c.SourceName())
	assert.Nil(t, c.InstrumentNames())

	c.NoteOn(0, 0, 60, 127)
	assert.False(t, c.IsVoiceActive(0))

	for range 100 {
		l, r := c.Tick()
		require.Zero(t, l)
		require.Zero(t, r)
	}
	assert.Equal(t, Frame{}, c.TickFrame())
}

func TestOutOfRangeVoicesAreIgnored(t *testing.T) {
	c := loadedCore(t)

	for _, v := range []int{-1, MaxVoices, 100} {
		assert.NotPanics(t, func() {
			c.NoteOn(v, sineProgram, 69, 127)
			c.NoteOff(v)
			c.SetProgram(v, 5)
			c.SetVoicePan(v, 0, 127)
			c.SetVoicePitch(v, 0x2000)
			c.SetVoiceReverb(v, true)
			c.ToggleVoice(v)
			c.SoloVoice(v)
			c.MuteVoice(v, true)
		})
		assert.Zero(t, c.Program(v))
		assert.Zero(t, c.VoicePitch(v))
		assert.False(t, c.IsVoiceActive(v))
		assert.False(t, c.IsVoiceMuted(v))
	}
	assert.Zero(t, c.ActiveVoices())
}

func TestNoteOnLookup(t *testing.T) {
	c := loadedCore(t)

	c.NoteOn(0, 42, 69, 127)
	assert.False(t, c.IsVoiceActive(0), "unknown program")
	assert.Zero(t, c.Program(0))

	c.NoteOn(1, loopProgram, 20, 127)
	assert.False(t, c.IsVoiceActive(1), "note outside every region")

	c.NoteOn(2, loopProgram, 69, 127)
	assert.True(t, c.IsVoiceActive(2))
	assert.Equal(t, uint8(loopProgram), c.Program(2))
	assert.Equal(t, uint16(library.NativePitch), c.VoicePitch(2))
	assert.Equal(t, 1, c.ActiveVoices())

	c.NoteOff(2)
	assert.Equal(t, envelope.Release, c.VoiceStates()[2].Phase)

	c.AllNotesOff()
	assert.Zero(t, c.ActiveVoices())
}

func TestNoteFrequencies(t *testing.T) {
	tests := []struct {
		note uint8
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("note %d", tt.note), func(t *testing.T) {
			c := loadedCore(t)
			c.NoteOn(0, sineProgram, tt.note, 127)

			out := renderLeft(c, 20000)
			got := testsignal.Frequency(out[500:], SampleRate)
			assert.InEpsilon(t, tt.want, got, 0.02)
		})
	}
}

// TestMixMatchesVoiceSum checks that the mix is exactly the clamped sum of
// each voice ticked on its own.
func TestMixMatchesVoiceSum(t *testing.T) {
	tests := []struct {
		name     string
		voices   int
		velocity uint8
	}{
		{"quiet", 4, 40},
		{"clipping", 12, 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadedCore(t)
			for v := range tt.voices {
				c.SetVoiceReverb(v, v%2 == 0)
				c.NoteOn(v, loopProgram, uint8(50+3*v), tt.velocity)
				c.SetVoicePan(v, uint8(v*10), 100)
			}
			ram := c.Library().RAM

			var clipped int
			for range 5000 {
				isolated := c.voices
				var dryL, dryR, sendL, sendR int32
				for v := range isolated {
					l, r := isolated[v].Tick(ram)
					dryL += l
					dryR += r
					if v%2 == 0 {
						sendL += l
						sendR += r
					}
				}

				f := c.TickFrame()
				require.Equal(t, clamp16(dryL), f.DryLeft)
				require.Equal(t, clamp16(dryR), f.DryRight)
				require.Equal(t, clamp16(sendL), f.SendLeft)
				require.Equal(t, clamp16(sendR), f.SendRight)

				if dryL != int32(f.DryLeft) || dryR != int32(f.DryRight) {
					clipped++
				}
			}

			if tt.velocity < 64 {
				assert.Zero(t, clipped, "quiet voices never clip")
			} else {
				assert.Positive(t, clipped)
			}
		})
	}
}

func TestReverbRouting(t *testing.T) {
	c := loadedCore(t)
	c.SetReverbPreset(reverb.Hall)
	c.SetVoiceReverb(1, true)

	c.NoteOn(0, loopProgram, 69, 127)
	var heard bool
	for range 1000 {
		f := c.TickFrame()
		require.Zero(t, f.SendLeft)
		heard = heard || f.DryLeft != 0
	}
	assert.True(t, heard, "dry bus carries the voice")

	c.NoteOn(1, loopProgram, 72, 127)
	assert.True(t, c.VoiceStates()[1].Reverb, "send survives NoteOn")

	var wet bool
	for range 10000 {
		f := c.TickFrame()
		wet = wet || f.WetLeft != 0
	}
	assert.True(t, wet)
}

func TestWetDryBalance(t *testing.T) {
	c := loadedCore(t)
	c.SetReverbWetLevel(0)
	c.NoteOn(0, loopProgram, 69, 127)

	ref := loadedCore(t)
	ref.NoteOn(0, loopProgram, 69, 127)

	for range 2000 {
		l, r := c.Tick()
		f := ref.TickFrame()
		require.Equal(t, float32(f.DryLeft)/32768, l)
		require.Equal(t, float32(f.DryRight)/32768, r)
	}
}

func TestMasterVolume(t *testing.T) {
	c := New()
	assert.Equal(t, float32(1), c.MasterVolume())

	c.SetMasterVolume(5)
	assert.Equal(t, float32(2), c.MasterVolume())
	c.SetMasterVolume(-1)
	assert.Zero(t, c.MasterVolume())

	loud := loadedCore(t)
	loud.SetMasterVolume(2)
	unity := loadedCore(t)
	loud.NoteOn(0, loopProgram, 69, 127)
	unity.NoteOn(0, loopProgram, 69, 127)

	for range 1000 {
		l1, r1 := unity.Tick()
		l2, r2 := loud.Tick()
		require.Equal(t, 2*l1, l2)
		require.Equal(t, 2*r1, r2)
	}
}

func TestLoadSampleLibraryStopsVoices(t *testing.T) {
	c := loadedCore(t)
	c.SetReverbPreset(reverb.Room)
	c.SetVoiceReverb(0, true)
	c.NoteOn(0, loopProgram, 69, 127)
	for range 500 {
		c.Tick()
	}
	require.True(t, c.IsVoiceActive(0))

	c.LoadSampleLibrary(testLibrary(t))
	assert.False(t, c.IsVoiceActive(0))
	assert.Equal(t, "test", c.SourceName())
	assert.Equal(t, []library.InstrumentName{
		{Program: sineProgram, Name: "Sine"},
		{Program: loopProgram, Name: "Loop"},
	}, c.InstrumentNames())

	for range 5000 {
		f := c.TickFrame()
		require.Zero(t, f.WetLeft, "reverb tail is cleared")
		require.Zero(t, f.WetRight)
	}

	c.LoadSampleLibrary(nil)
	assert.False(t, c.IsLoaded())
}

func TestMuteAndSolo(t *testing.T) {
	c := loadedCore(t)
	c.NoteOn(0, loopProgram, 60, 127)
	c.NoteOn(1, loopProgram, 67, 127)
	ram := c.Library().RAM

	c.SoloVoice(1)
	assert.True(t, c.IsVoiceMuted(0))
	assert.False(t, c.IsVoiceMuted(1))

	for range 1000 {
		solo := c.voices[1]
		l, _ := solo.Tick(ram)
		f := c.TickFrame()
		require.Equal(t, clamp16(l), f.DryLeft)
	}
	assert.True(t, c.IsVoiceActive(0), "muted voices keep playing")

	c.ToggleVoice(0)
	assert.False(t, c.IsVoiceMuted(0))
	c.ToggleVoice(0)
	assert.True(t, c.IsVoiceMuted(0))

	c.UnmuteAll()
	for v := range MaxVoices {
		assert.False(t, c.IsVoiceMuted(v))
	}
}

func TestSetVoicePitch(t *testing.T) {
	c := loadedCore(t)
	c.NoteOn(3, loopProgram, 69, 127)
	c.SetVoicePitch(3, 0x1800)
	assert.Equal(t, uint16(0x1800), c.VoicePitch(3))
	c.SetVoicePitch(3, 0xFFFF)
	assert.Equal(t, uint16(library.MaxPitch), c.VoicePitch(3))
}
