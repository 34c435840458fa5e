package library

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/memory"
)

// bankMagic identifies a saved sample library.
var bankMagic = [8]byte{'S', 'P', 'U', 'B', 'A', 'N', 'K', '1'}

// ErrBadBank is returned by Load for data that is not a saved library.
var ErrBadBank = errors.New("not a sample bank")

type bankHeader struct {
	Magic       [8]byte
	SampleCount uint32
	RAMUsed     uint32
	Instruments uint16
}

type bankRegion struct {
	SPURAMOffset  uint32
	LoopOffset    uint32
	ADPCMLength   uint32
	HasLoop       uint8
	BaseNote      uint8
	BasePitch     uint16
	KeyLo         uint8
	KeyHi         uint8
	ADSR1         uint16
	ADSR2         uint16
	DefaultVolume int16
	FineTune      int16
}

// Save writes lib as a little-endian bank: header, source name, the used
// part of SPU RAM, then every instrument with its regions.
func Save(w io.Writer, lib *SampleLibrary) error {
	bw := bufio.NewWriter(w)
	used := lib.RAM.AllocatedBytes()

	hdr := bankHeader{
		Magic:       bankMagic,
		SampleCount: uint32(lib.SampleCount),
		RAMUsed:     uint32(used),
		Instruments: uint16(len(lib.Instruments)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "writing bank header")
	}
	if err := writeString(bw, lib.SourceName); err != nil {
		return err
	}
	if _, err := bw.Write(lib.RAM.Data()[:used]); err != nil {
		return errors.Wrap(err, "writing spu ram")
	}

	for _, bank := range lib.Instruments {
		if err := bw.WriteByte(bank.Program); err != nil {
			return errors.WithStack(err)
		}
		if err := writeString(bw, bank.Name); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint16(len(bank.Regions))); err != nil {
			return errors.WithStack(err)
		}
		for _, r := range bank.Regions {
			rec := bankRegion{
				SPURAMOffset:  r.SPURAMOffset,
				LoopOffset:    r.LoopOffset,
				ADPCMLength:   r.ADPCMLength,
				HasLoop:       boolByte(r.HasLoop),
				BaseNote:      r.BaseNote,
				BasePitch:     r.BasePitch,
				KeyLo:         r.KeyLo,
				KeyHi:         r.KeyHi,
				ADSR1:         r.ADSR.ADSR1(),
				ADSR2:         r.ADSR.ADSR2(),
				DefaultVolume: r.DefaultVolume,
				FineTune:      r.FineTune,
			}
			if err := binary.Write(bw, binary.LittleEndian, &rec); err != nil {
				return errors.Wrapf(err, "writing program %d", bank.Program)
			}
		}
	}

	return errors.WithStack(bw.Flush())
}

// Load reads a bank written by Save.
func Load(r io.Reader) (*SampleLibrary, error) {
	br := bufio.NewReader(r)

	var hdr bankHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, errors.Wrap(err, "reading bank header")
	}
	if hdr.Magic != bankMagic {
		return nil, ErrBadBank
	}
	if hdr.RAMUsed > memory.Size {
		return nil, errors.Wrapf(memory.ErrRAMFull, "bank uses %d bytes", hdr.RAMUsed)
	}

	name, err := readString(br)
	if err != nil {
		return nil, err
	}

	lib := NewSampleLibrary(name)
	lib.SampleCount = int(hdr.SampleCount)

	image := make([]byte, hdr.RAMUsed)
	if _, err := io.ReadFull(br, image); err != nil {
		return nil, errors.Wrap(err, "reading spu ram")
	}
	if err := lib.RAM.Restore(image, int(hdr.RAMUsed)); err != nil {
		return nil, err
	}

	for range hdr.Instruments {
		program, err := br.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "reading instrument")
		}
		bankName, err := readString(br)
		if err != nil {
			return nil, err
		}
		var count uint16
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, errors.Wrapf(err, "reading program %d", program)
		}

		bank := InstrumentBank{Name: bankName, Program: program, Regions: make([]SampleRegion, 0, count)}
		for range count {
			var rec bankRegion
			if err := binary.Read(br, binary.LittleEndian, &rec); err != nil {
				return nil, errors.Wrapf(err, "reading program %d", program)
			}
			bank.Regions = append(bank.Regions, SampleRegion{
				SPURAMOffset:  rec.SPURAMOffset,
				LoopOffset:    rec.LoopOffset,
				HasLoop:       rec.HasLoop != 0,
				ADPCMLength:   rec.ADPCMLength,
				BaseNote:      rec.BaseNote,
				BasePitch:     rec.BasePitch,
				KeyLo:         rec.KeyLo,
				KeyHi:         rec.KeyHi,
				ADSR:          envelope.FromRegisters(rec.ADSR1, rec.ADSR2),
				DefaultVolume: rec.DefaultVolume,
				FineTune:      rec.FineTune,
			})
		}
		lib.Instruments = append(lib.Instruments, bank)
	}

	return lib, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return errors.WithStack(err)
	}
	_, err := io.WriteString(w, s)
	return errors.WithStack(err)
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", errors.Wrap(err, "reading string length")
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "reading string")
	}
	return string(buf), nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
