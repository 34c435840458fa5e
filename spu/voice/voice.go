// Package voice implements one SPU playback channel: ADPCM streaming from
// SPU RAM, pitch-driven Gaussian interpolation, the ADSR envelope and stereo
// volume.
package voice

import (
	"log/slog"
	"math"

	"github.com/valerio/go-spu/spu/adpcm"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/library"
	"github.com/valerio/go-spu/spu/memory"
)

const (
	defaultVolume = 0x3FFF
	maxVolume     = 0x7FFF
	historyLen    = 4
)

// Voice is a single hardware channel. The zero value is not ready for use;
// create voices with New.
type Voice struct {
	active bool

	currentAddr uint32
	loopAddr    uint32
	hasLoop     bool

	prev1, prev2 int16
	decoded      [adpcm.SamplesPerBlock]int16
	history      [historyLen]int16
	hasSamples   bool

	pitch        uint16
	pitchCounter uint32

	adsr envelope.ADSR

	baseVolume  int16
	volumeLeft  int16
	volumeRight int16

	reverb  bool
	endFlag bool

	note     uint8
	velocity uint8
}

// State is a read-only snapshot of a voice for visualizers and tests.
type State struct {
	Active      bool
	Phase       envelope.Phase
	Level       int16
	Pitch       uint16
	Note        uint8
	Velocity    uint8
	VolumeLeft  int16
	VolumeRight int16
	Reverb      bool
	EndFlag     bool
	Address     uint32
}

func New() *Voice {
	return &Voice{
		pitch:       library.NativePitch,
		baseVolume:  defaultVolume,
		volumeLeft:  defaultVolume,
		volumeRight: defaultVolume,
		velocity:    127,
	}
}

// KeyOn starts region from its first block at the pitch for note.
func (v *Voice) KeyOn(region *library.SampleRegion, note, velocity uint8) {
	v.active = true
	v.note = note
	v.velocity = velocity

	v.currentAddr = region.SPURAMOffset
	v.loopAddr = region.LoopOffset
	v.hasLoop = region.HasLoop

	v.prev1, v.prev2 = 0, 0
	v.decoded = [adpcm.SamplesPerBlock]int16{}
	v.history = [historyLen]int16{}
	v.hasSamples = false

	v.pitch = min(region.PitchForNote(note), library.MaxPitch)
	v.pitchCounter = 0

	v.adsr.Start(region.ADSR)

	v.baseVolume = min(region.DefaultVolume, maxVolume)
	vol := int16(clamp(int32(v.baseVolume)*velocityCurve(velocity)/127, 0, maxVolume))
	v.volumeLeft = vol
	v.volumeRight = vol

	v.endFlag = false

	p := region.ADSR
	slog.Debug("Voice key on",
		"note", note,
		"velocity", velocity,
		"pitch", v.pitch,
		"attack", p.AttackRate(),
		"decay", p.DecayRate(),
		"sustain_level", p.SustainLevel,
		"sustain", p.SustainRate(),
		"release", p.ReleaseRate(),
		"base_volume", v.baseVolume)
}

// KeyOff moves the envelope to release. Idle and releasing voices are
// unaffected.
func (v *Voice) KeyOff() {
	phase := v.adsr.Phase()
	if phase == envelope.Off || phase == envelope.Release {
		return
	}
	slog.Debug("Voice key off", "note", v.note, "phase", phase, "level", v.adsr.Level())
	v.adsr.Release()
}

// SetVolumeFromPan sets an equal-power stereo position. pan runs from 0 (hard
// left) to 127 (hard right); volume is the channel volume 0-127. Both volume
// and velocity follow a squared curve.
func (v *Voice) SetVolumeFromPan(pan, volume uint8) {
	combined := int32(v.baseVolume) * velocityCurve(volume) * velocityCurve(v.velocity) / (127 * 127)
	level := float32(clamp(combined, 0, maxVolume))

	angle := float32(pan) / 127 * (math.Pi / 2)
	v.volumeLeft = int16(level * float32(math.Cos(float64(angle))))
	v.volumeRight = int16(level * float32(math.Sin(float64(angle))))
}

// SetPitch overrides the pitch register, clamped to the hardware maximum.
func (v *Voice) SetPitch(pitch uint16) {
	v.pitch = min(pitch, library.MaxPitch)
}

func (v *Voice) Pitch() uint16 {
	return v.pitch
}

func (v *Voice) Active() bool {
	return v.active
}

func (v *Voice) SetReverb(enabled bool) {
	v.reverb = enabled
}

func (v *Voice) Reverb() bool {
	return v.reverb
}

// Stop deactivates the voice without a release.
func (v *Voice) Stop() {
	v.active = false
}

func (v *Voice) Phase() envelope.Phase {
	return v.adsr.Phase()
}

func (v *Voice) Level() int16 {
	return v.adsr.Level()
}

func (v *Voice) Note() uint8 {
	return v.note
}

func (v *Voice) State() State {
	return State{
		Active:      v.active,
		Phase:       v.adsr.Phase(),
		Level:       v.adsr.Level(),
		Pitch:       v.pitch,
		Note:        v.note,
		Velocity:    v.velocity,
		VolumeLeft:  v.volumeLeft,
		VolumeRight: v.volumeRight,
		Reverb:      v.reverb,
		EndFlag:     v.endFlag,
		Address:     v.currentAddr,
	}
}

// Tick produces one output sample pair. The values are not clamped; the
// mixer sums all voices first.
//
// Order per sample: decode if needed, interpolate at the current position,
// apply the envelope, tick the envelope, advance the pitch counter (handling
// block flags), apply stereo volume.
func (v *Voice) Tick(ram *memory.RAM) (int32, int32) {
	if !v.active {
		return 0, 0
	}

	if !v.hasSamples {
		v.decodeCurrent(ram)
		v.hasSamples = true
		if ram.ReadByte(v.currentAddr+1)&adpcm.FlagLoopStart != 0 {
			v.loopAddr = v.currentAddr
			v.hasLoop = true
		}
	}

	sample := int32(v.interpolate())

	var enveloped int32
	if level := v.adsr.Level(); level != 0 {
		enveloped = (sample * int32(level)) >> 15
	}

	v.adsr.Tick()
	if v.adsr.Phase() == envelope.Off {
		v.active = false
		return 0, 0
	}

	v.pitchCounter += uint32(min(v.pitch, library.MaxPitch))
	if v.pitchCounter>>12 >= adpcm.SamplesPerBlock {
		v.pitchCounter -= adpcm.SamplesPerBlock << 12
		v.hasSamples = false

		flags := ram.ReadByte(v.currentAddr + 1)
		v.currentAddr += adpcm.BlockSize

		if flags&adpcm.FlagLoopEnd != 0 {
			v.endFlag = true
			if flags&adpcm.FlagLoopRepeat != 0 && v.hasLoop {
				v.currentAddr = v.loopAddr
			} else {
				v.active = false
				v.adsr.Off()
				return 0, 0
			}
		}
	}

	left := (enveloped * int32(v.volumeLeft)) >> 15
	right := (enveloped * int32(v.volumeRight)) >> 15
	return left, right
}

// decodeCurrent keeps the last four samples of the previous block for
// interpolation across the boundary, then decodes the block at currentAddr.
func (v *Voice) decodeCurrent(ram *memory.RAM) {
	copy(v.history[:], v.decoded[adpcm.SamplesPerBlock-historyLen:])
	blk := adpcm.Block(ram.ReadBlock(v.currentAddr))
	adpcm.DecodeBlock(&blk, &v.prev1, &v.prev2, &v.decoded)
}

// interpolate applies the 4-tap Gaussian kernel at the pitch counter. Bits
// 4-11 of the counter select the kernel row; the integer part selects the
// newest of the four samples.
func (v *Voice) interpolate() int16 {
	i := (v.pitchCounter >> 4) & 0xFF
	s := int(min(v.pitchCounter>>12, adpcm.SamplesPerBlock-1))

	sum := gaussTable[0xFF-i]*int32(v.sample(s-3)) +
		gaussTable[0x1FF-i]*int32(v.sample(s-2)) +
		gaussTable[0x100+i]*int32(v.sample(s-1)) +
		gaussTable[i]*int32(v.sample(s))

	return int16(clamp(sum>>15, math.MinInt16, math.MaxInt16))
}

// sample reads decoded sample idx, falling back to the previous block's
// tail for negative indices.
func (v *Voice) sample(idx int) int16 {
	if idx < 0 {
		return v.history[historyLen+idx]
	}
	return v.decoded[idx]
}

func velocityCurve(x uint8) int32 {
	return int32(x) * int32(x) / 127
}

func clamp(x, lo, hi int32) int32 {
	return max(lo, min(hi, x))
}
