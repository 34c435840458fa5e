// Package spu emulates the PlayStation SPU: 24 ADPCM sample voices mixed
// into a dry bus and a reverb send, producing 44100 Hz stereo one sample at
// a time.
package spu

import (
	"log/slog"
	"math"

	"github.com/valerio/go-spu/spu/library"
	"github.com/valerio/go-spu/spu/reverb"
	"github.com/valerio/go-spu/spu/voice"
)

const (
	// MaxVoices is the number of hardware voices.
	MaxVoices = 24

	// SampleRate is the output rate in Hz; Tick is called once per sample.
	SampleRate = 44100

	maxMasterVolume = 2.0
)

// Frame is one output sample before the float conversion: the clamped dry
// and reverb send buses, and the reverb unit's output.
type Frame struct {
	DryLeft, DryRight   int16
	SendLeft, SendRight int16
	WetLeft, WetRight   int32
}

// Core is the SPU mixer. It is not safe for concurrent use: Tick and the
// control methods must be called from one goroutine or serialized by the
// caller.
type Core struct {
	voices  [MaxVoices]voice.Voice
	reverb  *reverb.Processor
	library *library.SampleLibrary

	masterVolume float32
	programs     [MaxVoices]uint8
	reverbSend   [MaxVoices]bool
	muted        [MaxVoices]bool
}

func New() *Core {
	c := &Core{
		reverb:       reverb.New(),
		masterVolume: 1,
	}
	for i := range c.voices {
		c.voices[i] = *voice.New()
	}
	return c
}

// LoadSampleLibrary replaces the sample set. All voices stop and the reverb
// tail is cleared; a nil library unloads.
func (c *Core) LoadSampleLibrary(lib *library.SampleLibrary) {
	c.AllNotesOff()
	c.reverb.Clear()
	c.library = lib
	if lib == nil {
		return
	}
	slog.Info("Loaded sample library",
		"source", lib.SourceName,
		"instruments", len(lib.Instruments),
		"samples", lib.SampleCount,
		"ram_used_kb", lib.RAM.AllocatedBytes()/1024)
}

func (c *Core) IsLoaded() bool {
	return c.library != nil
}

// SourceName returns the loaded library's source name, or "" if none.
func (c *Core) SourceName() string {
	if c.library == nil {
		return ""
	}
	return c.library.SourceName
}

func (c *Core) Library() *library.SampleLibrary {
	return c.library
}

// Tick advances every voice by one sample and returns the mixed output in
// [-1, 1] at unity master volume.
func (c *Core) Tick() (float32, float32) {
	if c.library == nil {
		return 0, 0
	}
	f := c.TickFrame()

	wet := c.reverb.WetLevel()
	dry := 1 - wet
	left := float32(f.DryLeft)*dry + float32(f.WetLeft)*wet
	right := float32(f.DryRight)*dry + float32(f.WetRight)*wet

	scale := c.masterVolume / 32768
	return left * scale, right * scale
}

// TickFrame is Tick without the wet/dry balance and master volume. With no
// library loaded it returns a silent frame and leaves all state untouched.
func (c *Core) TickFrame() Frame {
	if c.library == nil {
		return Frame{}
	}
	ram := c.library.RAM

	var dryL, dryR, sendL, sendR int32
	for i := range c.voices {
		l, r := c.voices[i].Tick(ram)
		if c.muted[i] {
			continue
		}
		dryL += l
		dryR += r
		if c.reverbSend[i] {
			sendL += l
			sendR += r
		}
	}

	f := Frame{
		DryLeft:   clamp16(dryL),
		DryRight:  clamp16(dryR),
		SendLeft:  clamp16(sendL),
		SendRight: clamp16(sendR),
	}
	f.WetLeft, f.WetRight = c.reverb.Process(f.SendLeft, f.SendRight)
	return f
}

// NoteOn starts note on voice v with the region program maps it to. Unknown
// voices, programs and unmapped notes are ignored.
func (c *Core) NoteOn(v int, program, note, velocity uint8) {
	if !validVoice(v) || c.library == nil {
		return
	}
	bank := c.library.Instrument(program)
	if bank == nil {
		return
	}
	region := bank.RegionForNote(note)
	if region == nil {
		return
	}

	c.programs[v] = program
	c.voices[v].KeyOn(region, note, velocity)
	c.voices[v].SetReverb(c.reverbSend[v])
}

// NoteOff releases voice v.
func (c *Core) NoteOff(v int) {
	if validVoice(v) {
		c.voices[v].KeyOff()
	}
}

// AllNotesOff stops every voice immediately, without a release.
func (c *Core) AllNotesOff() {
	for i := range c.voices {
		c.voices[i].Stop()
	}
}

func (c *Core) SetProgram(v int, program uint8) {
	if validVoice(v) {
		c.programs[v] = program
	}
}

// Program returns the last program used on voice v, 0 for invalid voices.
func (c *Core) Program(v int) uint8 {
	if !validVoice(v) {
		return 0
	}
	return c.programs[v]
}

// SetVoicePan positions voice v (pan 0 left, 64 center, 127 right) at
// channel volume 0-127.
func (c *Core) SetVoicePan(v int, pan, volume uint8) {
	if validVoice(v) {
		c.voices[v].SetVolumeFromPan(pan, volume)
	}
}

// SetVoicePitch writes the pitch register directly, for pitch bends.
func (c *Core) SetVoicePitch(v int, pitch uint16) {
	if validVoice(v) {
		c.voices[v].SetPitch(pitch)
	}
}

func (c *Core) VoicePitch(v int) uint16 {
	if !validVoice(v) {
		return 0
	}
	return c.voices[v].Pitch()
}

// SetVoiceReverb routes voice v to the reverb send. The setting survives
// later NoteOn calls.
func (c *Core) SetVoiceReverb(v int, enabled bool) {
	if validVoice(v) {
		c.reverbSend[v] = enabled
		c.voices[v].SetReverb(enabled)
	}
}

func (c *Core) IsVoiceActive(v int) bool {
	return validVoice(v) && c.voices[v].Active()
}

func (c *Core) SetReverbPreset(t reverb.Type) {
	c.reverb.SetPreset(t)
}

func (c *Core) ReverbType() reverb.Type {
	return c.reverb.Type()
}

// SetReverbWetLevel sets the wet/dry balance, 0 fully dry to 1 fully wet.
func (c *Core) SetReverbWetLevel(level float32) {
	c.reverb.SetWetLevel(level)
}

func (c *Core) ReverbWetLevel() float32 {
	return c.reverb.WetLevel()
}

// ClearReverb drops the reverb tail, for use when playback stops.
func (c *Core) ClearReverb() {
	c.reverb.Clear()
}

// SetMasterVolume sets the output gain, clamped to [0, 2].
func (c *Core) SetMasterVolume(volume float32) {
	if math.IsNaN(float64(volume)) {
		return
	}
	c.masterVolume = max(0, min(maxMasterVolume, volume))
}

func (c *Core) MasterVolume() float32 {
	return c.masterVolume
}

// InstrumentNames lists the loaded programs, or nil with no library.
func (c *Core) InstrumentNames() []library.InstrumentName {
	if c.library == nil {
		return nil
	}
	return c.library.InstrumentNames()
}

// MuteVoice excludes voice v from both buses. A muted voice keeps playing.
func (c *Core) MuteVoice(v int, muted bool) {
	if validVoice(v) {
		c.muted[v] = muted
	}
}

// ToggleVoice flips the mute state of voice v.
func (c *Core) ToggleVoice(v int) {
	if validVoice(v) {
		c.muted[v] = !c.muted[v]
	}
}

// SoloVoice mutes every voice except v.
func (c *Core) SoloVoice(v int) {
	if !validVoice(v) {
		return
	}
	for i := range c.muted {
		c.muted[i] = i != v
	}
}

func (c *Core) UnmuteAll() {
	c.muted = [MaxVoices]bool{}
}

func (c *Core) IsVoiceMuted(v int) bool {
	return validVoice(v) && c.muted[v]
}

// VoiceStates snapshots every voice, in index order.
func (c *Core) VoiceStates() []voice.State {
	states := make([]voice.State, MaxVoices)
	for i := range c.voices {
		states[i] = c.voices[i].State()
	}
	return states
}

// ActiveVoices counts the voices currently playing.
func (c *Core) ActiveVoices() int {
	n := 0
	for i := range c.voices {
		if c.voices[i].Active() {
			n++
		}
	}
	return n
}

func validVoice(v int) bool {
	return v >= 0 && v < MaxVoices
}

func clamp16(x int32) int16 {
	return int16(max(math.MinInt16, min(math.MaxInt16, x)))
}
