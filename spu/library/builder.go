package library

import (
	"log/slog"
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/valerio/go-spu/spu/adpcm"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/memory"
)

// RegionSpec is one uncompressed key-split zone handed to a Builder.
type RegionSpec struct {
	PCM        []int16
	SampleRate int // Hz, 0 means 44100

	// LoopStart and LoopEnd are sample indices into PCM; LoopStart < 0
	// disables looping. LoopEnd is exclusive.
	LoopStart int
	LoopEnd   int

	BaseNote uint8
	KeyLo    uint8
	KeyHi    uint8
	FineTune int16 // cents

	ADSR          envelope.Params
	AttenuationDB float64
}

type cacheKey struct {
	data                  *int16
	n, loopStart, loopEnd int
}

type cacheEntry struct {
	offset, length, loopOffset uint32
	hasLoop                    bool
	basePitch                  uint16
}

// Builder encodes PCM instruments into a SampleLibrary.
//
// Regions that reference the same PCM slice with the same loop are encoded
// and stored once.
type Builder struct {
	lib   *SampleLibrary
	cache map[cacheKey]cacheEntry
}

func NewBuilder(lib *SampleLibrary) *Builder {
	return &Builder{
		lib:   lib,
		cache: make(map[cacheKey]cacheEntry),
	}
}

// Library returns the library being built.
func (b *Builder) Library() *SampleLibrary {
	return b.lib
}

// AddInstrument encodes specs as program and appends the resulting bank.
//
// When SPU RAM runs out the regions stored so far are kept and the returned
// error wraps memory.ErrRAMFull. A program that is already loaded is left
// alone.
func (b *Builder) AddInstrument(program uint8, name string, specs []RegionSpec) error {
	if b.lib.Instrument(program) != nil {
		return nil
	}

	bank := InstrumentBank{Name: name, Program: program}
	var failure error

	for i, spec := range specs {
		region, err := b.encodeRegion(spec)
		if errors.Is(err, memory.ErrRAMFull) {
			failure = errors.Wrapf(err, "program %d region %d", program, i)
			break
		}
		if err != nil {
			slog.Debug("Skipping region", "program", program, "region", i, "reason", err)
			continue
		}
		bank.Regions = append(bank.Regions, region)
		b.lib.SampleCount++
	}

	if len(bank.Regions) == 0 {
		if failure != nil {
			slog.Warn("Instrument skipped, SPU RAM full", "program", program, "name", name)
			return failure
		}
		return errors.Errorf("program %d: no usable regions", program)
	}

	bank.sortRegions()
	b.lib.Instruments = append(b.lib.Instruments, bank)

	slog.Info("Loaded instrument",
		"program", program,
		"name", name,
		"regions", len(bank.Regions),
		"ram_used_kb", b.lib.RAM.AllocatedBytes()/1024)

	return failure
}

var errEmptyRegion = errors.New("empty region")

func (b *Builder) encodeRegion(spec RegionSpec) (SampleRegion, error) {
	if len(spec.PCM) == 0 || spec.KeyLo > spec.KeyHi {
		return SampleRegion{}, errEmptyRegion
	}

	looped := spec.LoopStart >= 0 && spec.LoopEnd > spec.LoopStart && spec.LoopStart < len(spec.PCM)
	key := cacheKey{data: &spec.PCM[0], n: len(spec.PCM), loopStart: -1, loopEnd: -1}
	if looped {
		key.loopStart, key.loopEnd = spec.LoopStart, spec.LoopEnd
	}

	entry, ok := b.cache[key]
	if !ok {
		var err error
		entry, err = b.store(spec, looped)
		if err != nil {
			return SampleRegion{}, err
		}
		b.cache[key] = entry
	}

	return SampleRegion{
		SPURAMOffset:  entry.offset,
		LoopOffset:    entry.loopOffset,
		HasLoop:       entry.hasLoop,
		ADPCMLength:   entry.length,
		BaseNote:      spec.BaseNote,
		BasePitch:     entry.basePitch,
		KeyLo:         spec.KeyLo,
		KeyHi:         min(spec.KeyHi, 127),
		ADSR:          spec.ADSR,
		DefaultVolume: volumeForAttenuation(spec.AttenuationDB),
		FineTune:      spec.FineTune,
	}, nil
}

func (b *Builder) store(spec RegionSpec, looped bool) (cacheEntry, error) {
	pcm := spec.PCM
	loopStart, loopEnd := adpcm.NoLoop, adpcm.NoLoop
	correction := 1.0

	if looped {
		pcm = slices.Clone(spec.PCM)
		NormalizePreLoop(pcm, spec.LoopStart, spec.LoopEnd)
		pcm, loopStart, loopEnd, correction = AlignLoop(pcm, spec.LoopStart, spec.LoopEnd)
	}

	encoded := adpcm.Encode(pcm, loopStart, loopEnd)
	offset, err := b.lib.RAM.Allocate(encoded)
	if err != nil {
		return cacheEntry{}, err
	}

	loopOffset := offset
	if looped {
		loopOffset += uint32(loopStart/adpcm.SamplesPerBlock) * adpcm.BlockSize
	}

	return cacheEntry{
		offset:     offset,
		length:     uint32(len(encoded)),
		loopOffset: loopOffset,
		hasLoop:    looped,
		basePitch:  basePitchFor(spec.SampleRate, correction),
	}, nil
}

// basePitchFor returns the root-key pitch register value for a source rate.
func basePitchFor(sampleRate int, correction float64) uint16 {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	p := float64(sampleRate) / 44100 * NativePitch * correction
	return uint16(max(0, min(math.MaxUint16, p)))
}

func volumeForAttenuation(db float64) int16 {
	scale := 1.0
	if db > 0 {
		scale = math.Pow(10, -db/20)
	}
	return int16(max(0, min(0x7FFF, 0x7FFF*scale)))
}
