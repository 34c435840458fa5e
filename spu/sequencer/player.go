package sequencer

import (
	"time"

	"gitlab.com/gomidi/midi/v2"
)

// Player steps through a Schedule one output sample at a time.
type Player struct {
	schedule   *Schedule
	dispatcher *Dispatcher
	next       int
	pos        uint64

	// Loop restarts the schedule after its last sample.
	Loop bool
}

func NewPlayer(s *Schedule, d *Dispatcher) *Player {
	return &Player{schedule: s, dispatcher: d}
}

// Advance dispatches the events due at the current sample, then moves one
// sample forward. Call it once before every Core tick.
func (p *Player) Advance() {
	events := p.schedule.Events
	for p.next < len(events) && events[p.next].Sample <= p.pos {
		p.dispatcher.Handle(events[p.next].Message)
		p.next++
	}
	p.pos++

	if p.Loop && p.pos > p.schedule.Length && p.next >= len(events) {
		p.Rewind()
	}
}

// Done reports whether every event has been dispatched and the schedule's
// length has elapsed. A looping player is never done.
func (p *Player) Done() bool {
	return !p.Loop && p.next >= len(p.schedule.Events) && p.pos > p.schedule.Length
}

// Rewind restarts the schedule and silences every voice.
func (p *Player) Rewind() {
	p.next = 0
	p.pos = 0
	p.dispatcher.Reset()
}

func (p *Player) Position() time.Duration {
	return samplesToDuration(p.pos)
}

func (p *Player) Schedule() *Schedule {
	return p.schedule
}

// DemoSong is a short four-part progression for the demo instruments:
// piano, synth bass, strings and a square lead.
func DemoSong() *Schedule {
	const beat = 11025 // 240 bpm quarter notes

	var events []Event
	at := func(b int, msg midi.Message) {
		events = append(events, Event{Sample: uint64(b) * beat, Message: msg})
	}

	at(0, midi.ProgramChange(0, 0))
	at(0, midi.ProgramChange(1, 38))
	at(0, midi.ProgramChange(2, 48))
	at(0, midi.ProgramChange(3, 80))
	at(0, midi.ControlChange(2, ccReverbSend, 80))
	at(0, midi.ControlChange(3, ccReverbSend, 40))
	at(0, midi.ControlChange(1, ccPan, 40))
	at(0, midi.ControlChange(3, ccPan, 90))
	at(0, midi.ControlChange(2, ccVolume, 70))

	chords := [][3]uint8{{60, 64, 67}, {57, 60, 64}, {53, 57, 60}, {55, 59, 62}}
	melody := []uint8{72, 76, 79, 76, 72, 69, 72, 76, 77, 72, 69, 65, 74, 71, 67, 71}

	for bar, chord := range chords {
		start := bar * 4
		for _, n := range chord {
			at(start, midi.NoteOn(2, n, 70))
			at(start+4, midi.NoteOff(2, n))
		}
		root := chord[0] - 24
		for b := range 4 {
			at(start+b, midi.NoteOn(1, root, 100))
			at(start+b+1, midi.NoteOff(1, root))
		}
		at(start, midi.NoteOn(0, chord[0], 90))
		at(start+2, midi.NoteOff(0, chord[0]))
		for b := range 4 {
			n := melody[start+b]
			at(start+b, midi.NoteOn(3, n, 85))
			at(start+b+1, midi.NoteOff(3, n))
		}
	}

	end := len(chords) * 4
	at(end-1, midi.Pitchbend(3, 4096))
	at(end, midi.Pitchbend(3, 0))

	s := NewSchedule(events)
	s.Name = "demo"
	s.Length += beat * 2
	return s
}
