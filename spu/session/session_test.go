package session

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/audio"
	"github.com/valerio/go-spu/spu/backend"
	"github.com/valerio/go-spu/spu/backend/headless"
	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/input"
	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
	"github.com/valerio/go-spu/spu/library"
	"github.com/valerio/go-spu/spu/reverb"
	"github.com/valerio/go-spu/spu/sequencer"
)

func loadedCore(t *testing.T) *spu.Core {
	t.Helper()
	lib, err := library.DemoLibrary()
	require.NoError(t, err)
	core := spu.New()
	core.LoadSampleLibrary(lib)
	return core
}

// shortSong holds one piano note for a tenth of a second.
func shortSong(t *testing.T) (*spu.Core, *sequencer.Player) {
	t.Helper()
	core := loadedCore(t)
	sched := sequencer.NewSchedule([]sequencer.Event{
		{Sample: 0, Message: midi.NoteOn(0, 60, 100)},
		{Sample: 4410, Message: midi.NoteOff(0, 60)},
	})
	return core, sequencer.NewPlayer(sched, sequencer.NewDispatcher(core))
}

func TestHandleActionMixer(t *testing.T) {
	s := New(loadedCore(t), nil)

	var (
		typ      reverb.Type
		wet, vol float32
	)
	read := func() {
		s.Stream().Do(func(c *spu.Core) {
			typ, wet, vol = c.ReverbType(), c.ReverbWetLevel(), c.MasterVolume()
		})
	}

	s.HandleAction(action.ReverbNext)
	read()
	assert.Equal(t, reverb.Room, typ)

	s.HandleAction(action.ReverbPrev)
	s.HandleAction(action.ReverbPrev)
	read()
	assert.Equal(t, reverb.Delay, typ, "cycling wraps around")

	s.HandleAction(action.WetLevelUp)
	read()
	assert.InDelta(t, reverb.DefaultWetLevel+0.1, wet, 1e-6)

	for range 20 {
		s.HandleAction(action.WetLevelUp)
	}
	read()
	assert.Equal(t, float32(1), wet, "wet level is clamped")

	s.HandleAction(action.MasterVolumeUp)
	read()
	assert.InDelta(t, 1.1, vol, 1e-6)

	s.HandleAction(action.MasterVolumeDown)
	s.HandleAction(action.MasterVolumeDown)
	read()
	assert.InDelta(t, 0.9, vol, 1e-6)
}

func TestHandleActionVoices(t *testing.T) {
	s := New(loadedCore(t), nil)
	muted := func(v int) bool {
		var m bool
		s.Stream().Do(func(c *spu.Core) { m = c.IsVoiceMuted(v) })
		return m
	}

	s.HandleAction(action.VoiceSelectPrev)
	assert.Equal(t, spu.MaxVoices-1, s.Selected())
	s.HandleAction(action.VoiceSelectNext)
	s.HandleAction(action.VoiceSelectNext)
	s.HandleAction(action.VoiceSelectNext)
	require.Equal(t, 2, s.Selected())

	s.HandleAction(action.VoiceToggle)
	assert.True(t, muted(2))
	assert.False(t, muted(3))

	s.HandleAction(action.VoiceSolo)
	assert.False(t, muted(2))
	assert.True(t, muted(0))
	assert.True(t, muted(23))

	s.HandleAction(action.VoiceUnmuteAll)
	for v := range spu.MaxVoices {
		assert.False(t, muted(v), "voice %d", v)
	}
}

func TestHandleActionPlayback(t *testing.T) {
	core, player := shortSong(t)
	s := New(core, player)

	s.HandleAction(action.PlaybackPauseToggle)
	assert.True(t, s.Stream().Paused())
	assert.Equal(t, debug.PlaybackPaused, s.ExtractDebugData().State)
	s.HandleAction(action.PlaybackPauseToggle)
	assert.False(t, s.Stream().Paused())

	s.Stream().GetSamples(2 * 2000)
	data := s.ExtractDebugData()
	assert.Positive(t, data.Position)
	assert.Equal(t, player.Schedule().Duration(), data.Length)
	assert.Equal(t, 1, data.Audio.ActiveVoices)

	s.HandleAction(action.PlaybackLoopToggle)
	assert.True(t, s.ExtractDebugData().Loop)

	s.HandleAction(action.PlaybackRestart)
	data = s.ExtractDebugData()
	assert.Zero(t, data.Position)
	assert.Equal(t, debug.PlaybackRunning, data.State)

	assert.False(t, s.Quitting())
	s.HandleAction(action.PlaybackQuit)
	assert.True(t, s.Quitting())
}

func TestManagerDrivesActions(t *testing.T) {
	s := New(loadedCore(t), nil)

	s.Manager().Dispatch([]input.Event{
		{Action: action.VoiceSelectNext, Type: event.Press},
		{Action: action.VoiceSelectNext, Type: event.Repeat},
		{Action: action.VoiceSelectNext, Type: event.Repeat},
		{Action: action.VoiceSelectNext, Type: event.Press},
	})
	assert.Equal(t, 3, s.Selected(), "repeats step, a second press is debounced")

	assert.False(t, s.Manager().Trigger(action.VoiceToggle, event.Repeat), "toggles ignore repeats")
}

func TestRunUntilFinished(t *testing.T) {
	core, player := shortSong(t)
	s := New(core, player)

	out := audio.NewBufferOutput()
	require.NoError(t, out.Open(audio.SampleRate, audio.Channels, audio.DefaultBlockFrames))
	pump := audio.NewPump(s.Stream(), out, nil, 0)

	b := headless.New(0, headless.SnapshotConfig{})
	require.NoError(t, b.Init(backend.BackendConfig{Title: "test"}))

	require.NoError(t, s.Run(b, nil, FrameRender(pump)))
	assert.True(t, s.Quitting())
	assert.Equal(t, debug.PlaybackFinished, s.ExtractDebugData().State)
	assert.Len(t, out.Samples(), b.Frames()*audio.SampleRate/30*audio.Channels)
	assert.Less(t, b.Frames(), 30*3, "stops once the release tail is over")
}

func TestRunStopsAtFrameLimit(t *testing.T) {
	s := New(loadedCore(t), nil)
	b := headless.New(5, headless.SnapshotConfig{})
	require.NoError(t, b.Init(backend.BackendConfig{}))

	renders := 0
	require.NoError(t, s.Run(b, nil, func() error {
		renders++
		return nil
	}))
	assert.Equal(t, 5, b.Frames())
	assert.Equal(t, 5, renders)
}

type failingBackend struct{}

func (failingBackend) Init(backend.BackendConfig) error { return nil }
func (failingBackend) Cleanup() error                   { return nil }
func (failingBackend) Update(*debug.CompleteDebugData) ([]input.Event, error) {
	return nil, errors.New("window closed")
}

func TestRunErrors(t *testing.T) {
	s := New(loadedCore(t), nil)
	err := s.Run(failingBackend{}, nil, nil)
	assert.ErrorContains(t, err, "window closed")

	err = s.Run(headless.New(0, headless.SnapshotConfig{}), nil, func() error {
		return errors.New("device lost")
	})
	assert.ErrorContains(t, err, "device lost")
	assert.ErrorContains(t, err, "rendering audio")
}
