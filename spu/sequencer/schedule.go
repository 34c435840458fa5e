package sequencer

import (
	"cmp"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/valerio/go-spu/spu"
)

// Event is a MIDI message due at an output sample index.
type Event struct {
	Sample  uint64
	Track   int
	Message midi.Message
}

// Schedule is a time-ordered list of events.
type Schedule struct {
	Name   string
	Events []Event
	Length uint64 // samples, at least the last event's index
}

// NewSchedule sorts events by sample, keeping the order of simultaneous
// events.
func NewSchedule(events []Event) *Schedule {
	s := &Schedule{Events: slices.Clone(events)}
	slices.SortStableFunc(s.Events, func(a, b Event) int { return cmp.Compare(a.Sample, b.Sample) })
	if n := len(s.Events); n > 0 {
		s.Length = s.Events[n-1].Sample
	}
	return s
}

// Duration is the schedule length in time.
func (s *Schedule) Duration() time.Duration {
	return samplesToDuration(s.Length)
}

// ReadSMF reads a Standard MIDI File, keeping the channel messages of all
// tracks. Tempo changes are resolved to sample positions.
func ReadSMF(r io.Reader) (*Schedule, error) {
	var events []Event
	var end int64

	rd := smf.ReadTracksFrom(r)
	rd.Do(func(te smf.TrackEvent) {
		end = max(end, te.AbsMicroSeconds)
		if !te.Message.IsPlayable() {
			return
		}
		events = append(events, Event{
			Sample:  microsToSamples(te.AbsMicroSeconds),
			Track:   te.TrackNo,
			Message: midi.Message(te.Message),
		})
	})
	if err := rd.Error(); err != nil {
		return nil, errors.Wrap(err, "reading SMF")
	}

	s := NewSchedule(events)
	s.Length = max(s.Length, microsToSamples(end))
	return s, nil
}

// LoadSMF reads the Standard MIDI File at path.
func LoadSMF(path string) (*Schedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	s, err := ReadSMF(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	s.Name = filepath.Base(path)
	return s, nil
}

func microsToSamples(us int64) uint64 {
	if us <= 0 {
		return 0
	}
	return uint64(us) * spu.SampleRate / 1_000_000
}

func samplesToDuration(n uint64) time.Duration {
	return time.Duration(n) * time.Second / spu.SampleRate
}
