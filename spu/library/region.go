// Package library describes playable instruments: key-split sample regions
// pointing into SPU RAM, grouped into per-program banks.
package library

import (
	"math"
	"slices"

	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/memory"
)

const (
	// NativePitch plays a sample at 44100 Hz, one source sample per tick.
	NativePitch = 0x1000

	// MaxPitch is the largest value the pitch register accepts.
	MaxPitch = 0x3FFF

	// MaxPrograms is the number of GM program slots.
	MaxPrograms = 128
)

// SampleRegion maps a key range to one encoded sample in SPU RAM.
type SampleRegion struct {
	SPURAMOffset uint32
	LoopOffset   uint32
	HasLoop      bool
	ADPCMLength  uint32

	BaseNote  uint8
	BasePitch uint16
	KeyLo     uint8
	KeyHi     uint8

	ADSR          envelope.Params
	DefaultVolume int16
	FineTune      int16 // cents
}

// PitchForNote returns the pitch register value for note using equal
// temperament around the root key, clamped to MaxPitch. Notes that would
// exceed the clamp play flat.
func (r *SampleRegion) PitchForNote(note uint8) uint16 {
	semitones := float64(note) - float64(r.BaseNote) + float64(r.FineTune)/100
	pitch := uint32(float64(r.BasePitch) * math.Exp2(semitones/12))
	return uint16(min(pitch, MaxPitch))
}

// Covers reports whether note falls inside the region's key range.
func (r *SampleRegion) Covers(note uint8) bool {
	return note >= r.KeyLo && note <= r.KeyHi
}

// InstrumentBank holds the regions of one program, sorted by KeyLo.
type InstrumentBank struct {
	Name    string
	Program uint8
	Regions []SampleRegion
}

// RegionForNote returns the first region covering note, or nil.
func (b *InstrumentBank) RegionForNote(note uint8) *SampleRegion {
	for i := range b.Regions {
		if b.Regions[i].Covers(note) {
			return &b.Regions[i]
		}
	}
	return nil
}

func (b *InstrumentBank) sortRegions() {
	slices.SortStableFunc(b.Regions, func(x, y SampleRegion) int {
		return int(x.KeyLo) - int(y.KeyLo)
	})
}

// SampleLibrary owns SPU RAM together with the banks that reference it.
// It is read-only once handed to the engine.
type SampleLibrary struct {
	RAM         *memory.RAM
	Instruments []InstrumentBank
	SampleCount int
	SourceName  string
}

// InstrumentName pairs a program number with its display name.
type InstrumentName struct {
	Program uint8
	Name    string
}

func NewSampleLibrary(sourceName string) *SampleLibrary {
	return &SampleLibrary{
		RAM:         memory.New(),
		Instruments: make([]InstrumentBank, 0, MaxPrograms),
		SourceName:  sourceName,
	}
}

// Instrument returns the bank for program, or nil if none is loaded.
func (l *SampleLibrary) Instrument(program uint8) *InstrumentBank {
	for i := range l.Instruments {
		if l.Instruments[i].Program == program {
			return &l.Instruments[i]
		}
	}
	return nil
}

// InstrumentNames lists the loaded programs in load order.
func (l *SampleLibrary) InstrumentNames() []InstrumentName {
	names := make([]InstrumentName, 0, len(l.Instruments))
	for _, b := range l.Instruments {
		names = append(names, InstrumentName{Program: b.Program, Name: b.Name})
	}
	return names
}

// Reset clears SPU RAM and drops every instrument.
func (l *SampleLibrary) Reset() {
	l.RAM.Reset()
	l.Instruments = l.Instruments[:0]
	l.SampleCount = 0
}
