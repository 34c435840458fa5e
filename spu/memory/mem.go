package memory

import (
	"errors"

	"github.com/valerio/go-spu/spu/bit"
)

const (
	// Size is the capacity of SPU RAM in bytes.
	Size = 512 * 1024

	// BlockAlign is the allocation granularity, one ADPCM block.
	BlockAlign = 16
)

// ErrRAMFull is returned by Allocate when a region does not fit in the
// remaining SPU RAM.
var ErrRAMFull = errors.New("spu ram full")

// RAM is the 512KB sample arena of the SPU. All addressing wraps modulo Size,
// matching hardware that never bounds-checks voice addresses.
type RAM struct {
	data     []byte
	nextFree int
}

// New creates an empty, zeroed RAM.
func New() *RAM {
	return &RAM{
		data: make([]byte, Size),
	}
}

// ReadByte reads a single byte, wrapping the address.
func (r *RAM) ReadByte(addr uint32) uint8 {
	return r.data[addr%Size]
}

// ReadI16 reads a little-endian 16 bit sample, wrapping the address.
func (r *RAM) ReadI16(addr uint32) int16 {
	return int16(bit.Combine(r.data[(addr+1)%Size], r.data[addr%Size]))
}

// WriteI16 writes a little-endian 16 bit sample, wrapping the address.
func (r *RAM) WriteI16(addr uint32, value int16) {
	r.data[addr%Size] = bit.Low(uint16(value))
	r.data[(addr+1)%Size] = bit.High(uint16(value))
}

// WriteBytes copies data starting at offset, wrapping past the end of RAM.
func (r *RAM) WriteBytes(offset uint32, data []byte) {
	for i, b := range data {
		r.data[(offset+uint32(i))%Size] = b
	}
}

// ReadBlock returns the 16 bytes starting at addr, wrapping past the end of RAM.
func (r *RAM) ReadBlock(addr uint32) [BlockAlign]byte {
	var block [BlockAlign]byte
	start := addr % Size
	if start+BlockAlign <= Size {
		copy(block[:], r.data[start:start+BlockAlign])
		return block
	}
	for i := range block {
		block[i] = r.data[(start+uint32(i))%Size]
	}
	return block
}

// Allocate reserves a 16-byte aligned region, copies data into it and returns
// its byte offset. It fails with ErrRAMFull instead of wrapping.
func (r *RAM) Allocate(data []byte) (uint32, error) {
	aligned := (r.nextFree + BlockAlign - 1) &^ (BlockAlign - 1)
	if aligned+len(data) > Size {
		return 0, ErrRAMFull
	}
	offset := uint32(aligned)
	r.WriteBytes(offset, data)
	r.nextFree = aligned + len(data)
	return offset, nil
}

// Reset zeroes the arena and rewinds the allocation cursor.
func (r *RAM) Reset() {
	clear(r.data)
	r.nextFree = 0
}

// AllocatedBytes returns the position of the allocation cursor.
func (r *RAM) AllocatedBytes() int {
	return r.nextFree
}

// Free returns the number of bytes still available to Allocate, ignoring
// alignment padding.
func (r *RAM) Free() int {
	return Size - r.nextFree
}

// Data exposes the raw arena. Callers must not resize it.
func (r *RAM) Data() []byte {
	return r.data
}

// Restore replaces the arena contents with image and sets the allocation
// cursor to used. It is the inverse of Data()[:AllocatedBytes()].
func (r *RAM) Restore(image []byte, used int) error {
	if len(image) > Size || used > Size || used < 0 {
		return ErrRAMFull
	}
	clear(r.data)
	copy(r.data, image)
	r.nextFree = used
	return nil
}
