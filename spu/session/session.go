// Package session ties a Core to its audio stream, an optional song player
// and the interactive controls, and drives a display backend.
package session

import (
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/audio"
	"github.com/valerio/go-spu/spu/backend"
	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/input"
	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
	"github.com/valerio/go-spu/spu/reverb"
	"github.com/valerio/go-spu/spu/sequencer"
	"github.com/valerio/go-spu/spu/timing"
)

const (
	levelStep = 0.1

	// releaseTail is how long a finished song may keep ringing.
	releaseTail = 2 * time.Second
)

type Session struct {
	stream   *audio.Stream
	player   *sequencer.Player
	manager  *input.Manager
	selected int
	quit     atomic.Bool
}

// New creates a session. player may be nil for a Core driven by other
// means; the Core must not be used directly afterwards, only through
// Stream().Do.
func New(core *spu.Core, player *sequencer.Player) *Session {
	s := &Session{
		stream:  audio.NewStream(core, nil),
		player:  player,
		manager: input.NewManager(),
	}
	if player != nil {
		s.stream.SetClock(player)
	}
	s.registerActions()
	return s
}

func (s *Session) Stream() *audio.Stream {
	return s.stream
}

func (s *Session) Manager() *input.Manager {
	return s.manager
}

// Selected is the voice targeted by the voice debugging actions.
func (s *Session) Selected() int {
	return s.selected
}

// Quit makes Run return after the current frame. Safe from any goroutine.
func (s *Session) Quit() {
	s.quit.Store(true)
}

func (s *Session) Quitting() bool {
	return s.quit.Load()
}

func (s *Session) registerActions() {
	for _, act := range []action.Action{
		action.PlaybackPauseToggle, action.PlaybackRestart, action.PlaybackLoopToggle, action.PlaybackQuit,
		action.ReverbNext, action.ReverbPrev, action.VoiceToggle, action.VoiceSolo, action.VoiceUnmuteAll,
	} {
		s.manager.On(act, event.Press, func() { s.HandleAction(act) })
	}

	// held keys step continuously
	for _, act := range []action.Action{
		action.WetLevelUp, action.WetLevelDown, action.MasterVolumeUp, action.MasterVolumeDown,
		action.VoiceSelectNext, action.VoiceSelectPrev,
	} {
		s.manager.On(act, event.Press, func() { s.HandleAction(act) })
		s.manager.On(act, event.Repeat, func() { s.HandleAction(act) })
	}
}

// HandleAction applies one control action.
func (s *Session) HandleAction(act action.Action) {
	switch act {
	case action.PlaybackPauseToggle:
		paused := !s.stream.Paused()
		s.stream.SetPaused(paused)
		slog.Info("Playback", "paused", paused)

	case action.PlaybackRestart:
		s.stream.Do(func(c *spu.Core) {
			if s.player != nil {
				s.player.Rewind()
			} else {
				c.AllNotesOff()
			}
			c.ClearReverb()
		})
		slog.Info("Playback restarted")

	case action.PlaybackLoopToggle:
		if s.player == nil {
			return
		}
		var loop bool
		s.stream.Do(func(*spu.Core) {
			s.player.Loop = !s.player.Loop
			loop = s.player.Loop
		})
		slog.Info("Playback", "loop", loop)

	case action.PlaybackQuit:
		s.Quit()

	case action.ReverbNext, action.ReverbPrev:
		dir := 1
		if act == action.ReverbPrev {
			dir = -1
		}
		var next reverb.Type
		s.stream.Do(func(c *spu.Core) {
			types := reverb.Types()
			i := slices.Index(types, c.ReverbType())
			next = types[(i+dir+len(types))%len(types)]
			c.SetReverbPreset(next)
		})
		slog.Info("Reverb preset", "type", next)

	case action.WetLevelUp, action.WetLevelDown:
		delta := float32(levelStep)
		if act == action.WetLevelDown {
			delta = -delta
		}
		var wet float32
		s.stream.Do(func(c *spu.Core) {
			c.SetReverbWetLevel(c.ReverbWetLevel() + delta)
			wet = c.ReverbWetLevel()
		})
		slog.Debug("Reverb wet level", "wet", wet)

	case action.MasterVolumeUp, action.MasterVolumeDown:
		delta := float32(levelStep)
		if act == action.MasterVolumeDown {
			delta = -delta
		}
		var vol float32
		s.stream.Do(func(c *spu.Core) {
			c.SetMasterVolume(c.MasterVolume() + delta)
			vol = c.MasterVolume()
		})
		slog.Debug("Master volume", "volume", vol)

	case action.VoiceSelectNext:
		s.selected = (s.selected + 1) % spu.MaxVoices
	case action.VoiceSelectPrev:
		s.selected = (s.selected + spu.MaxVoices - 1) % spu.MaxVoices

	case action.VoiceToggle:
		s.stream.ToggleVoice(s.selected)
	case action.VoiceSolo:
		s.stream.SoloVoice(s.selected)
		slog.Info("Solo voice", "voice", s.selected)
	case action.VoiceUnmuteAll:
		s.stream.UnmuteAll()
	}
}

// ExtractDebugData captures everything a backend displays.
func (s *Session) ExtractDebugData() *debug.CompleteDebugData {
	data := &debug.CompleteDebugData{
		Audio:    s.stream.Snapshot(),
		Selected: s.selected,
	}
	if s.stream.Paused() {
		data.State = debug.PlaybackPaused
	}
	if s.player == nil {
		return data
	}

	s.stream.Do(func(c *spu.Core) {
		data.Position = s.player.Position()
		data.Length = s.player.Schedule().Duration()
		data.Loop = s.player.Loop

		tailDone := c.ActiveVoices() == 0 || data.Position >= data.Length+releaseTail
		if s.player.Done() && tailDone {
			data.State = debug.PlaybackFinished
		}
	})
	return data
}

// Run updates b once per frame until quit. render, when set, pushes the
// audio for one frame first; pull drivers render on their own and pass
// nil.
func (s *Session) Run(b backend.Backend, limiter timing.Limiter, render func() error) error {
	if limiter == nil {
		limiter = timing.NewNoOpLimiter()
	}
	limiter.Reset()

	for !s.Quitting() {
		if render != nil {
			if err := render(); err != nil {
				return errors.Wrap(err, "rendering audio")
			}
		}

		events, err := b.Update(s.ExtractDebugData())
		if err != nil {
			return errors.Wrap(err, "updating backend")
		}
		s.manager.Dispatch(events)

		limiter.WaitForNextFrame()
	}
	return nil
}

// FrameRender returns a render func pushing one display frame of audio
// through pump.
func FrameRender(pump *audio.Pump) func() error {
	frames := uint64(audio.SampleRate / timing.DisplayFPS)
	return func() error {
		_, err := pump.RenderFrames(frames, nil)
		return err
	}
}
