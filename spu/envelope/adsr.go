package envelope

// Phase is the current ADSR stage of a voice.
type Phase uint8

const (
	Off Phase = iota
	Attack
	Decay
	Sustain
	Release
)

func (p Phase) String() string {
	switch p {
	case Attack:
		return "Attack"
	case Decay:
		return "Decay"
	case Sustain:
		return "Sustain"
	case Release:
		return "Release"
	default:
		return "Off"
	}
}

// Rate masks for each phase: the largest rate value the phase's register
// fields can produce.
const (
	attackMask  = 0x7F
	decayMask   = 0x1F << 2
	sustainMask = 0x7F
	releaseMask = 0x7C
)

// releaseFloor is the level below which a releasing voice is cut.
const releaseFloor = 0x10

// ADSR drives a VolumeEnvelope through the four hardware phases.
type ADSR struct {
	params Params
	phase  Phase
	level  int16
	target int16
	env    VolumeEnvelope
}

// Start begins a new note from level 0 in the attack phase.
func (a *ADSR) Start(p Params) {
	a.params = p
	a.level = 0
	a.enter(Attack)
}

// Release moves any sounding phase to release. Off and Release are left alone.
func (a *ADSR) Release() {
	if a.phase == Off || a.phase == Release {
		return
	}
	a.enter(Release)
}

// Off silences the envelope immediately.
func (a *ADSR) Off() {
	a.level = 0
	a.enter(Off)
}

func (a *ADSR) Level() int16 {
	return a.level
}

func (a *ADSR) Phase() Phase {
	return a.phase
}

func (a *ADSR) Params() Params {
	return a.params
}

// Tick advances the envelope by one output sample.
func (a *ADSR) Tick() {
	if a.phase == Off {
		return
	}

	a.env.Tick(&a.level)

	if a.phase == Release && a.level < releaseFloor {
		a.Off()
		return
	}

	if a.phase == Sustain {
		return
	}

	reached := a.level >= a.target
	if a.env.decreasing {
		reached = a.level <= a.target
	}
	if reached {
		a.level = a.target
		a.enter(a.phase.next())
	}
}

func (p Phase) next() Phase {
	switch p {
	case Attack:
		return Decay
	case Decay:
		return Sustain
	default:
		return Off
	}
}

func (a *ADSR) enter(phase Phase) {
	a.phase = phase
	p := a.params

	switch phase {
	case Attack:
		a.target = 0x7FFF
		a.env.Reset(p.AttackRate(), attackMask, false, p.AttackExp)
	case Decay:
		a.target = p.SustainTarget()
		a.env.Reset(p.DecayRate(), decayMask, true, true)
	case Sustain:
		a.target = 0
		a.env.Reset(p.SustainRate(), sustainMask, p.SustainDecrease, p.SustainExp)
	case Release:
		a.target = 0
		a.env.Reset(p.ReleaseRate(), releaseMask, true, p.ReleaseExp)
	default:
		a.target = 0
		a.env.Reset(0, 0, false, false)
	}
}
