package reverb

import (
	"log/slog"
	"math"
)

const (
	bufferSize = 0x40000
	bufferMask = bufferSize - 1

	// DefaultWetLevel is the wet/dry balance of a new Processor.
	DefaultWetLevel = 0.5
)

// firCoefficients is the 39-tap half-band resampling filter; only the odd
// taps are non-zero, the center tap (0x4000) is applied separately.
var firCoefficients = [20]int32{
	-1, 2, -10, 35, -103, 266, -616, 1332, -2960, 10246,
	10246, -2960, 1332, -616, 266, -103, 35, -10, 2, -1,
}

// Processor runs the reverb network. It consumes and produces 44100 Hz
// stereo; the network itself ticks on every other sample.
type Processor struct {
	typ     Type
	preset  Preset
	enabled bool
	wet     float32

	buffer []int16
	cur    uint32

	// Resampler rings. Each value is written twice, at i and i+len/2, so the
	// FIR window never wraps.
	down [2][128]int16
	up   [2][64]int16
	pos  uint32
}

// New returns a disabled processor with the Off preset.
func New() *Processor {
	return &Processor{
		typ:    Off,
		preset: Off.Preset(),
		wet:    DefaultWetLevel,
		buffer: make([]int16, bufferSize),
	}
}

// SetPreset switches to t and clears the work buffer. Selecting the current
// type is a no-op so a running tail is not cut off.
func (p *Processor) SetPreset(t Type) {
	t = TypeFromIndex(t.Index())
	if t == p.typ {
		return
	}
	p.typ = t
	p.preset = t.Preset()
	p.enabled = t != Off
	p.Clear()
	slog.Debug("Reverb preset changed", "type", t)
}

func (p *Processor) Type() Type {
	return p.typ
}

func (p *Processor) Enabled() bool {
	return p.enabled
}

// SetWetLevel sets the wet/dry balance, clamped to [0, 1].
func (p *Processor) SetWetLevel(level float32) {
	if math.IsNaN(float64(level)) {
		return
	}
	p.wet = max(0, min(1, level))
}

func (p *Processor) WetLevel() float32 {
	return p.wet
}

// Clear silences the work buffer and the resampler history.
func (p *Processor) Clear() {
	clear(p.buffer)
	p.down = [2][128]int16{}
	p.up = [2][64]int16{}
	p.cur = 0
	p.pos = 0
}

// Process feeds one stereo input sample and returns the wet signal. A
// disabled processor returns silence.
func (p *Processor) Process(left, right int16) (int32, int32) {
	if !p.enabled {
		return 0, 0
	}

	in := [2]int16{left, right}
	for ch := range 2 {
		p.down[ch][p.pos&0x3F] = in[ch]
		p.down[ch][(p.pos&0x3F)|0x40] = in[ch]
	}

	var out [2]int32
	if p.pos&1 != 0 {
		var downs [2]int32
		for ch := range 2 {
			downs[ch] = p.downsample(ch)
		}
		p.reflect(downs)
		p.combAndDiffuse()
		p.cur = (p.cur + 1) & bufferMask
		for ch := range 2 {
			out[ch] = p.upsample(ch)
		}
	} else {
		idx := (((p.pos >> 1) - 19) & 0x1F) + 9
		for ch := range 2 {
			out[ch] = int32(p.up[ch][idx])
		}
	}

	p.pos = (p.pos + 1) & 0x3F
	return out[0], out[1]
}

func (p *Processor) downsample(ch int) int32 {
	src := &p.down[ch]
	start := (p.pos - 38) & 0x3F

	var acc int32
	for t, c := range firCoefficients {
		acc += c * int32(src[start+uint32(2*t)])
	}
	acc += 0x4000 * int32(src[start+19])
	return clamp16(acc >> 15)
}

func (p *Processor) upsample(ch int) int32 {
	src := &p.up[ch]
	start := ((p.pos >> 1) - 19) & 0x1F

	var acc int32
	for t, c := range firCoefficients {
		acc += c * int32(src[start+uint32(t)])
	}
	return clamp16(acc >> 14)
}

// reflect runs the same-side and cross-side IIR reflection filters.
func (p *Processor) reflect(in [2]int32) {
	pr := &p.preset
	wall := int32(pr.WallVolume)
	alpha := int32(pr.IIRVolume)

	for ch := range 2 {
		input := (in[ch] * int32(pr.InputVolume[ch])) >> 14

		same := clamp16((((p.read(pr.SameSideSrc[ch], 0) * wall) >> 14) + input) >> 1)
		cross := clamp16((((p.read(pr.CrossSrc[ch^1], 0) * wall) >> 14) + input) >> 1)

		sameOut := clamp16((((same * alpha) >> 14) + (p.iirFeedback(p.read(pr.SameSideDest[ch], -1)) >> 14)) >> 1)
		crossOut := clamp16((((cross * alpha) >> 14) + (p.iirFeedback(p.read(pr.CrossDest[ch], -1)) >> 14)) >> 1)

		p.write(pr.SameSideDest[ch], sameOut)
		p.write(pr.CrossDest[ch], crossOut)
	}
}

// combAndDiffuse sums the four comb taps and runs them through both allpass
// stages, feeding the upsampler.
func (p *Processor) combAndDiffuse() {
	pr := &p.preset

	for ch := range 2 {
		acc := ((p.read(pr.Comb1[ch], 0) * int32(pr.CombVolume[0])) >> 14) +
			((p.read(pr.Comb2[ch], 0) * int32(pr.CombVolume[1])) >> 14) +
			((p.read(pr.Comb3[ch], 0) * int32(pr.CombVolume[2])) >> 14) +
			((p.read(pr.Comb4[ch], 0) * int32(pr.CombVolume[3])) >> 14)

		fbA := p.readAPF(pr.APFDest1[ch], pr.APFOffset1)
		fbB := p.readAPF(pr.APFDest2[ch], pr.APFOffset2)

		apf1 := int32(pr.APFVolume1)
		apf2 := int32(pr.APFVolume2)

		mda := clamp16((acc + ((fbA * negate(apf1)) >> 14)) >> 1)
		mdb := clamp16(fbA + ((((mda * apf1) >> 14) + ((fbB * negate(apf2)) >> 14)) >> 1))
		out := int16(clamp16(fbB + ((mdb * apf2) >> 15)))

		idx := (p.pos >> 1) & 0x1F
		p.up[ch][idx] = out
		p.up[ch][idx|0x20] = out

		p.write(pr.APFDest1[ch], mda)
		p.write(pr.APFDest2[ch], mdb)
	}
}

// iirFeedback scales the previous filter output by 1-alpha, guarding the
// products that would overflow.
func (p *Processor) iirFeedback(x int32) int32 {
	alpha := int32(p.preset.IIRVolume)
	if alpha == math.MinInt16 {
		if x == math.MinInt16 {
			return 0
		}
		return x * -65536
	}
	return x * (32768 - alpha)
}

func (p *Processor) address(reg uint16, offset int32) uint32 {
	return (p.cur + uint32(reg)<<2 + uint32(offset)) & bufferMask
}

func (p *Processor) read(reg uint16, offset int32) int32 {
	return int32(p.buffer[p.address(reg, offset)])
}

func (p *Processor) readAPF(dest, offset uint16) int32 {
	return int32(p.buffer[(p.cur+(uint32(dest)-uint32(offset))<<2)&bufferMask])
}

func (p *Processor) write(reg uint16, v int32) {
	p.buffer[p.address(reg, 0)] = int16(v)
}

func negate(x int32) int32 {
	if x == math.MinInt16 {
		return math.MaxInt16
	}
	return -x
}

func clamp16(x int32) int32 {
	return max(math.MinInt16, min(math.MaxInt16, x))
}
