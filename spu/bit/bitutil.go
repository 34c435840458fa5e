package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// IsSet will check if the bit at the specified index is Set to 1 or not.
func IsSet(index, byte uint8) bool {
	return ((byte >> index) & 1) == 1
}

func IsSet16(index, value uint16) bool {
	return ((value >> index) & 1) == 1
}

// Set will return the passed byte with the bit at the specified index Set to 1.
func Set(index, byte uint8) uint8 {
	return byte | (1 << index)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// LowNibble returns bits 0-3 of a byte.
func LowNibble(value uint8) uint8 {
	return value & 0x0F
}

// HighNibble returns bits 4-7 of a byte.
func HighNibble(value uint8) uint8 {
	return value >> 4
}

// ExtractBits extracts bits from highBit to lowBit (inclusive)
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (extracts bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	shift := lowBit
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> shift) & mask
}

// Field16 extracts a width-bit field starting at lowBit from a 16 bit register.
func Field16(value uint16, lowBit, width uint8) uint16 {
	return (value >> lowBit) & ((1 << width) - 1)
}

// PutField16 returns value with the width-bit field at lowBit replaced by field.
// Bits of field above width are discarded.
func PutField16(value uint16, lowBit, width uint8, field uint16) uint16 {
	mask := uint16((1<<width)-1) << lowBit
	return (value &^ mask) | ((field << lowBit) & mask)
}

// FromBool returns 1 for true and 0 for false.
func FromBool(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// SignExtend4 sign-extends the low 4 bits of value to a 16 bit signed integer.
func SignExtend4(value uint8) int16 {
	return int16(uint16(value&0x0F)<<12) >> 12
}
