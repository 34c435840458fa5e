package debug

import (
	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/reverb"
)

// VoiceStatus is the displayable state of one voice.
type VoiceStatus struct {
	Index   int
	Active  bool
	Muted   bool
	Reverb  bool
	Phase   envelope.Phase
	Level   int16 // envelope level, 0..0x7FFF
	Pitch   uint16
	Program uint8
	Note    string
	Left    int16
	Right   int16
}

// LevelFraction is the envelope level in [0, 1].
func (v VoiceStatus) LevelFraction() float64 {
	return float64(max(v.Level, 0)) / 0x7FFF
}

type AudioData struct {
	Loaded       bool
	Source       string
	Frames       uint64
	SampleRate   int
	Reverb       reverb.Type
	WetLevel     float32
	MasterVolume float32
	ActiveVoices int
	Voices       []VoiceStatus
}

// ExtractAudioData captures the Core state. frames is the number of stereo
// frames rendered so far.
func ExtractAudioData(core *spu.Core, frames uint64) *AudioData {
	data := &AudioData{
		Loaded:       core.IsLoaded(),
		Source:       core.SourceName(),
		Frames:       frames,
		SampleRate:   spu.SampleRate,
		Reverb:       core.ReverbType(),
		WetLevel:     core.ReverbWetLevel(),
		MasterVolume: core.MasterVolume(),
		Voices:       make([]VoiceStatus, 0, spu.MaxVoices),
	}

	for i, st := range core.VoiceStates() {
		vs := VoiceStatus{
			Index:   i,
			Active:  st.Active,
			Muted:   core.IsVoiceMuted(i),
			Reverb:  st.Reverb,
			Phase:   st.Phase,
			Level:   st.Level,
			Pitch:   st.Pitch,
			Program: core.Program(i),
			Note:    "--",
			Left:    st.VolumeLeft,
			Right:   st.VolumeRight,
		}
		if st.Active {
			vs.Note = NoteName(st.Note)
			data.ActiveVoices++
		}
		data.Voices = append(data.Voices, vs)
	}
	return data
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName formats a MIDI note number, with middle C (60) as C4.
func NoteName(note uint8) string {
	if note > 127 {
		return "--"
	}
	octave := int(note)/12 - 1
	if octave < 0 {
		return noteNames[note%12] + "-1"
	}
	return noteNames[note%12] + string(rune('0'+octave))
}
