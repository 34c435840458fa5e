// Package reverb implements the SPU reverb unit: a 22050 Hz network of IIR
// reflections, four combs and two allpass stages working inside a circular
// work buffer, with FIR resampling to and from the 44100 Hz mix.
package reverb

import "strings"

// Type selects one of the standard library reverb configurations.
type Type uint8

const (
	Off Type = iota
	Room
	StudioSmall
	StudioMedium
	StudioLarge
	Hall
	HalfEcho
	SpaceEcho
	ChaosEcho
	Delay

	numTypes
)

var typeNames = [numTypes]string{
	"Off", "Room", "Studio Small", "Studio Medium", "Studio Large",
	"Hall", "Half Echo", "Space Echo", "Chaos Echo", "Delay",
}

func (t Type) String() string {
	if t >= numTypes {
		return typeNames[Off]
	}
	return typeNames[t]
}

// Index returns the type's position in Types.
func (t Type) Index() uint8 {
	if t >= numTypes {
		return 0
	}
	return uint8(t)
}

// TypeFromIndex maps an index back to a Type; unknown indices are Off.
func TypeFromIndex(i uint8) Type {
	if Type(i) >= numTypes {
		return Off
	}
	return Type(i)
}

// Types lists every reverb type in index order.
func Types() []Type {
	out := make([]Type, numTypes)
	for i := range out {
		out[i] = Type(i)
	}
	return out
}

// ParseType matches a display name case-insensitively, ignoring spaces,
// dashes and underscores ("studio-small" and "StudioSmall" both work).
func ParseType(name string) (Type, bool) {
	key := normalizeName(name)
	for i, n := range typeNames {
		if normalizeName(n) == key {
			return Type(i), true
		}
	}
	return Off, false
}

func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// Preset holds the 32 reverb registers. Addresses are in units of 8 bytes
// (4 halfwords) relative to the buffer's current position; the L/R pairs
// are indexed by channel.
type Preset struct {
	APFOffset1 uint16 // dAPF1
	APFOffset2 uint16 // dAPF2

	IIRVolume  int16 // vIIR, reflection filter alpha
	CombVolume [4]int16
	WallVolume int16 // vWALL
	APFVolume1 int16
	APFVolume2 int16

	SameSideDest [2]uint16 // mLSAME / mRSAME
	Comb1        [2]uint16
	Comb2        [2]uint16
	SameSideSrc  [2]uint16 // dLSAME / dRSAME
	CrossDest    [2]uint16 // mLDIFF / mRDIFF
	Comb3        [2]uint16
	Comb4        [2]uint16
	CrossSrc     [2]uint16 // dLDIFF / dRDIFF
	APFDest1     [2]uint16 // mLAPF1 / mRAPF1
	APFDest2     [2]uint16 // mLAPF2 / mRAPF2
	InputVolume  [2]int16
}

// PresetFromRegisters decodes the registers in hardware order, starting at
// dAPF1 (0x1F801DC0).
func PresetFromRegisters(r [32]uint16) Preset {
	pair := func(i int) [2]uint16 { return [2]uint16{r[i], r[i+1]} }
	return Preset{
		APFOffset1: r[0],
		APFOffset2: r[1],
		IIRVolume:  int16(r[2]),
		CombVolume: [4]int16{int16(r[3]), int16(r[4]), int16(r[5]), int16(r[6])},
		WallVolume: int16(r[7]),
		APFVolume1: int16(r[8]),
		APFVolume2: int16(r[9]),

		SameSideDest: pair(10),
		Comb1:        pair(12),
		Comb2:        pair(14),
		SameSideSrc:  pair(16),
		CrossDest:    pair(18),
		Comb3:        pair(20),
		Comb4:        pair(22),
		CrossSrc:     pair(24),
		APFDest1:     pair(26),
		APFDest2:     pair(28),
		InputVolume:  [2]int16{int16(r[30]), int16(r[31])},
	}
}

// Preset returns the register set for t.
func (t Type) Preset() Preset {
	return presets[t.Index()]
}

var presets = func() [numTypes]Preset {
	var out [numTypes]Preset
	for i, regs := range presetRegisters {
		out[i] = PresetFromRegisters(regs)
	}
	return out
}()

// presetRegisters are the standard library reverb settings.
var presetRegisters = [numTypes][32]uint16{
	Off: {
		0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000,
		0x0000, 0x0000, 0x0001, 0x0001, 0x0001, 0x0001, 0x0001, 0x0001,
		0x0000, 0x0000, 0x0001, 0x0001, 0x0001, 0x0001, 0x0001, 0x0001,
		0x0000, 0x0000, 0x0001, 0x0001, 0x0001, 0x0001, 0x0000, 0x0000,
	},
	Room: {
		0x007D, 0x005B, 0x6D80, 0x54B8, 0xBED0, 0x0000, 0x0000, 0xBA80,
		0x5800, 0x5300, 0x04D6, 0x0333, 0x03F0, 0x0227, 0x0374, 0x01EF,
		0x0334, 0x01B5, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000,
		0x0000, 0x0000, 0x01B4, 0x0136, 0x00B8, 0x005C, 0x8000, 0x8000,
	},
	StudioSmall: {
		0x0033, 0x0025, 0x70F0, 0x4FA8, 0xBCE0, 0x4410, 0xC0F0, 0x9C00,
		0x5280, 0x4EC0, 0x03E4, 0x031B, 0x03A4, 0x02AF, 0x0372, 0x0266,
		0x031C, 0x025D, 0x025C, 0x018E, 0x022F, 0x0135, 0x01D2, 0x00B7,
		0x018F, 0x00B5, 0x00B4, 0x0080, 0x004C, 0x0026, 0x8000, 0x8000,
	},
	StudioMedium: {
		0x00B1, 0x007F, 0x70F0, 0x4FA8, 0xBCE0, 0x4510, 0xBEF0, 0xB4C0,
		0x5280, 0x4EC0, 0x0904, 0x076B, 0x0824, 0x065F, 0x07A2, 0x0616,
		0x076C, 0x05ED, 0x05EC, 0x042E, 0x050F, 0x0305, 0x0462, 0x02B7,
		0x042F, 0x0265, 0x0264, 0x01B2, 0x0100, 0x0080, 0x8000, 0x8000,
	},
	StudioLarge: {
		0x00E3, 0x00A9, 0x6F60, 0x4FA8, 0xBCE0, 0x4510, 0xBEF0, 0xA680,
		0x5680, 0x52C0, 0x0DFB, 0x0B58, 0x0D09, 0x0A3C, 0x0BD9, 0x0973,
		0x0B59, 0x08DA, 0x08D9, 0x05E9, 0x07EC, 0x04B0, 0x06EF, 0x03D2,
		0x05EA, 0x031D, 0x031C, 0x0238, 0x0154, 0x00AA, 0x8000, 0x8000,
	},
	Hall: {
		0x01A5, 0x0139, 0x6000, 0x5000, 0x4C00, 0xB800, 0xBC00, 0xC000,
		0x6000, 0x5C00, 0x15BA, 0x11BB, 0x14C2, 0x10BD, 0x11BC, 0x0DC1,
		0x11C0, 0x0DC3, 0x0DC0, 0x09C1, 0x0BC4, 0x07C1, 0x0A00, 0x06CD,
		0x09C2, 0x05C1, 0x05C0, 0x041A, 0x0274, 0x013A, 0x8000, 0x8000,
	},
	HalfEcho: {
		0x0017, 0x0013, 0x70F0, 0x4FA8, 0xBCE0, 0x4510, 0xBEF0, 0x8500,
		0x5F80, 0x54C0, 0x0371, 0x02AF, 0x02E5, 0x01DF, 0x02B0, 0x01D7,
		0x0358, 0x026A, 0x01D6, 0x011E, 0x012D, 0x00B1, 0x011F, 0x0059,
		0x01A0, 0x00E3, 0x0058, 0x0040, 0x0028, 0x0014, 0x8000, 0x8000,
	},
	SpaceEcho: {
		0x033D, 0x0231, 0x7E00, 0x5000, 0xB400, 0xB000, 0x4C00, 0xB000,
		0x6000, 0x5400, 0x1ED6, 0x1A31, 0x1D14, 0x183B, 0x1BC2, 0x16B2,
		0x1A32, 0x15EF, 0x15EE, 0x1055, 0x1334, 0x0F2D, 0x11F6, 0x0C5D,
		0x1056, 0x0AE1, 0x0AE0, 0x07A2, 0x0464, 0x0232, 0x8000, 0x8000,
	},
	ChaosEcho: {
		0x0001, 0x0001, 0x7FFF, 0x7FFF, 0x0000, 0x0000, 0x0000, 0x8100,
		0x0000, 0x0000, 0x1FFF, 0x0FFF, 0x1005, 0x0005, 0x0000, 0x0000,
		0x1005, 0x0005, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000,
		0x0000, 0x0000, 0x1004, 0x1002, 0x0004, 0x0002, 0x8000, 0x8000,
	},
	Delay: {
		0x0001, 0x0001, 0x7FFF, 0x7FFF, 0x0000, 0x0000, 0x0000, 0x0000,
		0x0000, 0x0000, 0x1FFF, 0x0FFF, 0x1005, 0x0005, 0x0000, 0x0000,
		0x1005, 0x0005, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000,
		0x0000, 0x0000, 0x1004, 0x1002, 0x0004, 0x0002, 0x8000, 0x8000,
	},
}
