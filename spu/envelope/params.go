// Package envelope implements the SPU ADSR envelope generator.
package envelope

import "github.com/valerio/go-spu/spu/bit"

// Params mirrors the two hardware ADSR registers field by field.
type Params struct {
	AttackExp   bool
	AttackShift uint8 // 0-31
	AttackStep  uint8 // 0-3, stored as 7-step by hardware

	DecayShift uint8 // 0-15

	SustainLevel uint8 // 0-15

	SustainExp      bool
	SustainDecrease bool
	SustainShift    uint8 // 0-31
	SustainStep     uint8 // 0-3

	ReleaseExp   bool
	ReleaseShift uint8 // 0-31
}

// Default is a slow linear attack into a held sustain with an exponential release.
func Default() Params {
	return Params{
		AttackShift:  0,
		AttackStep:   3,
		DecayShift:   4,
		SustainLevel: 12,
		SustainShift: 31,
		ReleaseExp:   true,
		ReleaseShift: 8,
	}
}

// Percussive decays quickly through sustain, for plucks and drums.
func Percussive() Params {
	return Params{
		AttackShift:     0,
		AttackStep:      3,
		DecayShift:      2,
		SustainLevel:    10,
		SustainExp:      true,
		SustainDecrease: true,
		SustainShift:    8,
		ReleaseExp:      true,
		ReleaseShift:    5,
	}
}

// Sustained holds its level for pads and organs.
func Sustained() Params {
	return Params{
		AttackShift:  2,
		AttackStep:   3,
		DecayShift:   6,
		SustainLevel: 12,
		SustainShift: 31,
		ReleaseExp:   true,
		ReleaseShift: 10,
	}
}

// SustainTarget returns the level at which decay hands over to sustain.
func (p Params) SustainTarget() int16 {
	return int16(min((int32(p.SustainLevel)+1)<<11, 0x7FFF))
}

func (p Params) AttackRate() uint8 {
	return min(p.AttackShift<<2|p.AttackStep&3, 127)
}

func (p Params) DecayRate() uint8 {
	return min(p.DecayShift<<2, 127)
}

func (p Params) SustainRate() uint8 {
	return min(p.SustainShift<<2|p.SustainStep&3, 127)
}

func (p Params) ReleaseRate() uint8 {
	return min(p.ReleaseShift<<2, 127)
}

// ADSR1 packs the attack, decay and sustain level fields.
//
//	bits 0-3   sustain level
//	bits 4-7   decay shift
//	bits 8-9   attack step
//	bits 10-14 attack shift
//	bit  15    attack exponential
func (p Params) ADSR1() uint16 {
	var r uint16
	r = bit.PutField16(r, 0, 4, uint16(p.SustainLevel))
	r = bit.PutField16(r, 4, 4, uint16(p.DecayShift))
	r = bit.PutField16(r, 8, 2, uint16(p.AttackStep))
	r = bit.PutField16(r, 10, 5, uint16(p.AttackShift))
	r = bit.PutField16(r, 15, 1, bit.FromBool(p.AttackExp))
	return r
}

// ADSR2 packs the sustain and release fields.
//
//	bit  0     sustain exponential
//	bits 1-5   sustain shift
//	bits 6-7   sustain step
//	bit  8     sustain decrease
//	bits 9-13  release shift
//	bit  14    release exponential
func (p Params) ADSR2() uint16 {
	var r uint16
	r = bit.PutField16(r, 0, 1, bit.FromBool(p.SustainExp))
	r = bit.PutField16(r, 1, 5, uint16(p.SustainShift))
	r = bit.PutField16(r, 6, 2, uint16(p.SustainStep))
	r = bit.PutField16(r, 8, 1, bit.FromBool(p.SustainDecrease))
	r = bit.PutField16(r, 9, 5, uint16(p.ReleaseShift))
	r = bit.PutField16(r, 14, 1, bit.FromBool(p.ReleaseExp))
	return r
}

// FromRegisters decodes a register pair packed by ADSR1 and ADSR2.
func FromRegisters(adsr1, adsr2 uint16) Params {
	return Params{
		SustainLevel: uint8(bit.Field16(adsr1, 0, 4)),
		DecayShift:   uint8(bit.Field16(adsr1, 4, 4)),
		AttackStep:   uint8(bit.Field16(adsr1, 8, 2)),
		AttackShift:  uint8(bit.Field16(adsr1, 10, 5)),
		AttackExp:    bit.IsSet16(15, adsr1),

		SustainExp:      bit.IsSet16(0, adsr2),
		SustainShift:    uint8(bit.Field16(adsr2, 1, 5)),
		SustainStep:     uint8(bit.Field16(adsr2, 6, 2)),
		SustainDecrease: bit.IsSet16(8, adsr2),
		ReleaseShift:    uint8(bit.Field16(adsr2, 9, 5)),
		ReleaseExp:      bit.IsSet16(14, adsr2),
	}
}
