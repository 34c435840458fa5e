package sequencer

import "gitlab.com/gomidi/midi/v2"

// ScaleTest plays a one-octave chromatic run from middle C on each
// program in turn, one note every eighth of a second. It checks a bank's
// tuning and key ranges without a song.
func ScaleTest(programs []uint8) *Schedule {
	const step = 5512 // 1/8 s

	var events []Event
	var t uint64
	for _, prog := range programs {
		events = append(events, Event{Sample: t, Message: midi.ProgramChange(0, prog)})
		for n := uint8(60); n <= 72; n++ {
			events = append(events,
				Event{Sample: t, Message: midi.NoteOn(0, n, 100)},
				Event{Sample: t + step - 1, Message: midi.NoteOff(0, n)},
			)
			t += step
		}
		t += step * 2
	}
	s := NewSchedule(events)
	s.Name = "scale test"
	s.Length = t
	return s
}
