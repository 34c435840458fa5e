// Package adpcm implements the SPU 4-bit ADPCM block codec.
//
// A block is 16 bytes encoding 28 samples:
//
//	byte 0     shift (bits 0-3) | filter (bits 4-6)
//	byte 1     flags (bit 0 loop end, bit 1 loop repeat, bit 2 loop start)
//	bytes 2-15 28 signed nibbles, low nibble first
package adpcm

import (
	"github.com/valerio/go-spu/spu/bit"
)

const (
	// BlockSize is the size of one encoded block in bytes.
	BlockSize = 16

	// SamplesPerBlock is the number of PCM samples one block decodes to.
	SamplesPerBlock = 28

	// MaxShift is the largest meaningful shift; larger values decode as MaxShift.
	MaxShift = 12

	// MaxFilter is the largest prediction filter index; larger values decode as MaxFilter.
	MaxFilter = 4
)

// Block flag bits, stored in byte 1.
const (
	loopEndBit = iota
	loopRepeatBit
	loopStartBit
)

// Block flags as masks over byte 1.
const (
	FlagLoopEnd    uint8 = 1 << loopEndBit
	FlagLoopRepeat uint8 = 1 << loopRepeatBit
	FlagLoopStart  uint8 = 1 << loopStartBit
)

// Prediction filter coefficients, applied as (prev * k) >> 6.
var (
	filterPos = [MaxFilter + 1]int32{0, 60, 115, 98, 122}
	filterNeg = [MaxFilter + 1]int32{0, 0, -52, -55, -60}
)

// Block is one raw 16-byte ADPCM block.
type Block [BlockSize]byte

// Shift returns the raw 4-bit shift value (0-15).
func (b *Block) Shift() uint8 {
	return bit.LowNibble(b[0])
}

// Filter returns the raw 3-bit filter index (0-7).
func (b *Block) Filter() uint8 {
	return bit.ExtractBits(b[0], 6, 4)
}

// Flags returns the loop flag byte.
func (b *Block) Flags() uint8 {
	return b[1]
}

// Nibble returns the i-th (0-27) sample nibble sign-extended to 16 bits.
func (b *Block) Nibble(i int) int16 {
	v := b[2+i/2]
	if i&1 == 0 {
		return bit.SignExtend4(bit.LowNibble(v))
	}
	return bit.SignExtend4(bit.HighNibble(v))
}

func (b *Block) IsLoopEnd() bool {
	return bit.IsSet(loopEndBit, b[1])
}

func (b *Block) IsLoopRepeat() bool {
	return bit.IsSet(loopRepeatBit, b[1])
}

func (b *Block) IsLoopStart() bool {
	return bit.IsSet(loopStartBit, b[1])
}

// setHeader packs shift and filter into byte 0.
func (b *Block) setHeader(shift, filter uint8) {
	b[0] = (shift & 0x0F) | (filter&0x07)<<4
}

// setNibble stores the low 4 bits of n at sample position i.
func (b *Block) setNibble(i int, n int32) {
	idx := 2 + i/2
	v := uint8(n) & 0x0F
	if i&1 == 0 {
		b[idx] = (b[idx] & 0xF0) | v
	} else {
		b[idx] = (b[idx] & 0x0F) | v<<4
	}
}

// BlockAt returns the i-th block of an encoded byte stream. It panics if the
// stream is shorter than (i+1)*BlockSize, like any slice index.
func BlockAt(data []byte, i int) *Block {
	return (*Block)(data[i*BlockSize : (i+1)*BlockSize])
}
