package audio

import (
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const wavHeaderSize = 44

// WAVOutput writes 16-bit PCM to a RIFF/WAVE file. The size fields are
// patched when the output is closed.
type WAVOutput struct {
	mu       sync.Mutex
	path     string
	w        io.WriteSeeker
	closer   io.Closer
	written  uint32
	scratch  []byte
	finished bool
}

// NewWAVOutput creates an output that writes to path when opened.
func NewWAVOutput(path string) *WAVOutput {
	return &WAVOutput{path: path}
}

// NewWAVWriter creates an output over an existing seekable writer. The
// writer is not closed by Close.
func NewWAVWriter(w io.WriteSeeker) *WAVOutput {
	return &WAVOutput{w: w}
}

func (o *WAVOutput) Open(sampleRate, channels, bufferFrames int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.w == nil {
		f, err := os.Create(o.path)
		if err != nil {
			return errors.Wrap(err, "creating wav file")
		}
		o.w, o.closer = f, f
	}

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*channels*2))
	binary.LittleEndian.PutUint16(header[32:34], uint16(channels*2))
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")

	if _, err := o.w.Write(header); err != nil {
		return errors.Wrap(err, "writing wav header")
	}
	o.written = 0
	o.finished = false
	o.scratch = make([]byte, 0, bufferFrames*channels*2)
	return nil
}

func (o *WAVOutput) Write(samples []int16) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.w == nil || o.finished {
		return errNotOpen
	}

	o.scratch = o.scratch[:0]
	for _, s := range samples {
		o.scratch = binary.LittleEndian.AppendUint16(o.scratch, uint16(s))
	}
	n, err := o.w.Write(o.scratch)
	o.written += uint32(n)
	return errors.Wrap(err, "writing wav data")
}

// Close patches the RIFF and data chunk sizes and closes the file.
func (o *WAVOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.w == nil || o.finished {
		return nil
	}
	o.finished = true

	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], o.written+wavHeaderSize-8)
	if err := o.patch(4, size[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(size[:], o.written)
	if err := o.patch(40, size[:]); err != nil {
		return err
	}
	if _, err := o.w.Seek(0, io.SeekEnd); err != nil {
		return errors.WithStack(err)
	}

	if o.closer != nil {
		err := o.closer.Close()
		o.w, o.closer = nil, nil
		return errors.Wrap(err, "closing wav file")
	}
	return nil
}

func (o *WAVOutput) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w != nil && !o.finished
}

// BytesWritten is the size of the data chunk so far.
func (o *WAVOutput) BytesWritten() uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.written
}

func (o *WAVOutput) patch(offset int64, b []byte) error {
	if _, err := o.w.Seek(offset, io.SeekStart); err != nil {
		return errors.Wrap(err, "seeking wav header")
	}
	_, err := o.w.Write(b)
	return errors.Wrap(err, "patching wav header")
}
