// Package sequencer turns MIDI into SPU voice control: a Dispatcher maps
// channel messages onto the 24 hardware voices and a Player feeds it from a
// sample-indexed Schedule, usually read from a Standard MIDI File.
package sequencer

import (
	"log/slog"
	"math"

	"gitlab.com/gomidi/midi/v2"

	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/library"
)

// Synth is the voice control surface driven by the Dispatcher.
type Synth interface {
	NoteOn(v int, program, note, velocity uint8)
	NoteOff(v int)
	AllNotesOff()
	SetVoicePan(v int, pan, volume uint8)
	SetVoicePitch(v int, pitch uint16)
	VoicePitch(v int) uint16
	SetVoiceReverb(v int, enabled bool)
	IsVoiceActive(v int) bool
}

var _ Synth = (*spu.Core)(nil)

// MIDI controller numbers handled by the dispatcher.
const (
	ccModulation      = 1
	ccVolume          = 7
	ccPan             = 10
	ccExpression      = 11
	ccSustain         = 64
	ccReverbSend      = 91
	ccAllSoundOff     = 120
	ccResetAll        = 121
	ccAllNotesOff     = 123
	percussionChannel = 9

	numChannels = 16

	// bendRange is the pitch bend range in semitones.
	bendRange = 2
)

// ChannelState is the controller state of one MIDI channel.
type ChannelState struct {
	Program    uint8
	Volume     uint8
	Expression uint8
	Pan        uint8
	Modulation uint8
	ReverbSend uint8
	Sustain    bool
	Bend       int16 // -8192..8191
}

func defaultChannel() ChannelState {
	return ChannelState{Volume: 100, Expression: 127, Pan: 64}
}

// EffectiveVolume combines channel volume and expression.
func (c ChannelState) EffectiveVolume() uint8 {
	return uint8(min(127, uint16(c.Volume)*uint16(c.Expression)/127))
}

type slot struct {
	owned     bool
	channel   uint8
	note      uint8
	released  bool
	held      bool // note off arrived while the sustain pedal was down
	age       uint64
	basePitch uint16
}

// Dispatcher allocates voices for incoming notes, stealing the oldest
// released voice (or else the oldest voice) when all 24 are busy.
type Dispatcher struct {
	synth    Synth
	channels [numChannels]ChannelState
	slots    [spu.MaxVoices]slot
	counter  uint64

	// PlayPercussion enables notes on MIDI channel 10. GM drum kits are not
	// part of the instrument set, so they are dropped by default.
	PlayPercussion bool
}

func NewDispatcher(synth Synth) *Dispatcher {
	d := &Dispatcher{synth: synth}
	d.resetChannels()
	return d
}

// Handle applies one MIDI message. Unsupported messages are ignored.
func (d *Dispatcher) Handle(msg midi.Message) {
	var ch, key, vel, cc, val, prog uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		d.NoteOn(ch, key, vel)
	case msg.GetNoteEnd(&ch, &key):
		d.NoteOff(ch, key)
	case msg.GetControlChange(&ch, &cc, &val):
		d.ControlChange(ch, cc, val)
	case msg.GetProgramChange(&ch, &prog):
		d.ProgramChange(ch, prog)
	case msg.GetPitchBend(&ch, &rel, &abs):
		d.PitchBend(ch, rel)
	}
}

// NoteOn starts key on a voice using the channel's current program and
// controllers.
func (d *Dispatcher) NoteOn(ch, key, velocity uint8) {
	if ch >= numChannels || (ch == percussionChannel && !d.PlayPercussion) {
		return
	}
	cs := &d.channels[ch]
	v := d.allocate(ch, key)

	d.synth.SetVoiceReverb(v, cs.ReverbSend > 0)
	d.synth.NoteOn(v, cs.Program, min(key, 127), min(velocity, 127))
	if !d.synth.IsVoiceActive(v) {
		d.slots[v] = slot{}
		return
	}

	d.counter++
	d.slots[v] = slot{
		owned:     true,
		channel:   ch,
		note:      key,
		age:       d.counter,
		basePitch: d.synth.VoicePitch(v),
	}
	d.synth.SetVoicePan(v, cs.Pan, cs.EffectiveVolume())
	if cs.Bend != 0 {
		d.applyBend(v, cs.Bend)
	}
}

// NoteOff releases every voice playing key on ch, or defers the release
// while the sustain pedal is down.
func (d *Dispatcher) NoteOff(ch, key uint8) {
	if ch >= numChannels {
		return
	}
	sustain := d.channels[ch].Sustain
	for v := range d.slots {
		s := &d.slots[v]
		if !s.owned || s.released || s.channel != ch || s.note != key {
			continue
		}
		if sustain {
			s.held = true
			continue
		}
		d.release(v)
	}
}

func (d *Dispatcher) ProgramChange(ch, program uint8) {
	if ch >= numChannels {
		return
	}
	d.channels[ch].Program = min(program, library.MaxPrograms-1)
}

// PitchBend bends every sounding voice on ch; bend is relative to center,
// -8192..8191, spanning two semitones each way.
func (d *Dispatcher) PitchBend(ch uint8, bend int16) {
	if ch >= numChannels {
		return
	}
	d.channels[ch].Bend = bend
	for v := range d.slots {
		if d.slots[v].owned && d.slots[v].channel == ch {
			d.applyBend(v, bend)
		}
	}
}

func (d *Dispatcher) ControlChange(ch, cc, value uint8) {
	if ch >= numChannels {
		return
	}
	cs := &d.channels[ch]
	value = min(value, 127)

	switch cc {
	case ccVolume:
		cs.Volume = value
		d.syncVolume(ch)
	case ccExpression:
		cs.Expression = value
		d.syncVolume(ch)
	case ccPan:
		cs.Pan = value
		d.syncVolume(ch)
	case ccModulation:
		cs.Modulation = value
	case ccReverbSend:
		cs.ReverbSend = value
		d.forChannel(ch, func(v int) { d.synth.SetVoiceReverb(v, value > 0) })
	case ccSustain:
		cs.Sustain = value >= 64
		if !cs.Sustain {
			d.forChannel(ch, func(v int) {
				if d.slots[v].held {
					d.release(v)
				}
			})
		}
	case ccResetAll:
		program := cs.Program
		*cs = defaultChannel()
		cs.Program = program
		d.syncVolume(ch)
		d.PitchBend(ch, 0)
	case ccAllNotesOff, ccAllSoundOff:
		d.forChannel(ch, d.release)
	}
}

// Reset stops every voice and restores all channels to their defaults.
func (d *Dispatcher) Reset() {
	d.synth.AllNotesOff()
	d.slots = [spu.MaxVoices]slot{}
	d.resetChannels()
}

// Channel returns the controller state of MIDI channel ch (0-15).
func (d *Dispatcher) Channel(ch uint8) ChannelState {
	if ch >= numChannels {
		return ChannelState{}
	}
	return d.channels[ch]
}

// VoiceOwner reports which channel and note voice v was allocated to.
func (d *Dispatcher) VoiceOwner(v int) (channel, note uint8, ok bool) {
	if v < 0 || v >= spu.MaxVoices || !d.slots[v].owned || !d.synth.IsVoiceActive(v) {
		return 0, 0, false
	}
	return d.slots[v].channel, d.slots[v].note, true
}

func (d *Dispatcher) resetChannels() {
	for i := range d.channels {
		d.channels[i] = defaultChannel()
	}
}

// allocate picks a voice for key: the voice already playing it, a free
// voice, the oldest released voice, or the oldest voice.
func (d *Dispatcher) allocate(ch, key uint8) int {
	for v, s := range d.slots {
		if s.owned && !s.released && s.channel == ch && s.note == key && d.synth.IsVoiceActive(v) {
			return v
		}
	}
	for v := range d.slots {
		if !d.synth.IsVoiceActive(v) {
			return v
		}
	}

	victim, oldest := 0, uint64(math.MaxUint64)
	for v, s := range d.slots {
		if s.released && s.age < oldest {
			victim, oldest = v, s.age
		}
	}
	if oldest == math.MaxUint64 {
		for v, s := range d.slots {
			if s.age < oldest {
				victim, oldest = v, s.age
			}
		}
	}
	slog.Debug("Stealing voice", "voice", victim, "channel", d.slots[victim].channel, "note", d.slots[victim].note)
	return victim
}

func (d *Dispatcher) release(v int) {
	d.slots[v].released = true
	d.slots[v].held = false
	d.synth.NoteOff(v)
}

func (d *Dispatcher) syncVolume(ch uint8) {
	cs := d.channels[ch]
	d.forChannel(ch, func(v int) { d.synth.SetVoicePan(v, cs.Pan, cs.EffectiveVolume()) })
}

func (d *Dispatcher) applyBend(v int, bend int16) {
	base := d.slots[v].basePitch
	if base == 0 {
		return
	}
	semitones := float64(bend) / 8192 * bendRange
	pitch := float64(base) * math.Exp2(semitones/12)
	d.synth.SetVoicePitch(v, uint16(min(pitch, library.MaxPitch)))
}

func (d *Dispatcher) forChannel(ch uint8, fn func(v int)) {
	for v := range d.slots {
		if d.slots[v].owned && d.slots[v].channel == ch {
			fn(v)
		}
	}
}
