//go:build sdl2

package sdl2

import (
	"log/slog"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/go-spu/spu"
	"github.com/valerio/go-spu/spu/backend"
	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/envelope"
	"github.com/valerio/go-spu/spu/input"
	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
)

const (
	barWidth     = 24
	barGap       = 6
	barMaxHeight = 240
	margin       = 20
	panHeight    = 6

	windowWidth  = margin*2 + spu.MaxVoices*(barWidth+barGap) - barGap
	windowHeight = margin*3 + barMaxHeight + panHeight
)

// Backend implements the Backend interface using SDL2 bindings, drawing one
// envelope meter per voice.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stubbed renderer, see build tags (sdl2)
type Backend struct {
	window     *sdl.Window
	renderer   *sdl.Renderer
	running    bool
	config     backend.BackendConfig
	eventQueue []input.Event

	// Latest data, kept for snapshots
	current *debug.CompleteDebugData
}

// New creates a new SDL2 backend
func New() *Backend {
	return &Backend{}
}

// Init initializes the SDL2 backend
func (s *Backend) Init(config backend.BackendConfig) error {
	s.config = config

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return errors.Wrap(err, "failed to initialize SDL2")
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		windowWidth,
		windowHeight,
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return errors.Wrap(err, "failed to create window")
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return errors.Wrap(err, "failed to create renderer")
	}
	s.renderer = renderer
	s.running = true

	slog.Info("SDL2 backend initialized")
	return nil
}

// Update draws the voice meters and processes events
func (s *Backend) Update(data *debug.CompleteDebugData) ([]input.Event, error) {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		s.handleEvent(ev)
	}

	events := s.eventQueue
	s.eventQueue = nil
	if !s.running {
		return events, nil
	}

	s.current = data
	s.draw(data)
	return events, nil
}

// Cleanup cleans up SDL2 resources
func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 backend")

	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *Backend) handleEvent(ev sdl.Event) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		s.quit()
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN {
			s.handleKeyDown(e.Keysym.Sym, e.Repeat)
		}
	}
}

// keyNames maps SDL2 keys to key names used in default mappings
var keyNames = map[sdl.Keycode]string{
	sdl.K_SPACE:  "Space",
	sdl.K_ESCAPE: "Escape",
	sdl.K_HOME:   "Home",
	sdl.K_UP:     "Up",
	sdl.K_DOWN:   "Down",
	sdl.K_LEFT:   "Left",
	sdl.K_RIGHT:  "Right",
	sdl.K_F12:    "F12",
}

func keyName(key sdl.Keycode) string {
	if name, ok := keyNames[key]; ok {
		return name
	}
	if key >= 0x20 && key < 0x7F {
		name := string(rune(key))
		if key == sdl.K_r && sdl.GetModState()&sdl.KMOD_SHIFT != 0 {
			name = "R"
		}
		return name
	}
	return ""
}

func (s *Backend) handleKeyDown(key sdl.Keycode, repeat uint8) {
	act, ok := input.GetDefaultMapping(keyName(key))
	if !ok {
		return
	}

	typ := event.Press
	if repeat != 0 {
		typ = event.Repeat
	}

	switch act {
	case action.DebugSnapshot:
		if s.current != nil {
			debug.TakeSnapshot(s.current.Audio)
		}
	case action.PlaybackQuit:
		s.quit()
	default:
		s.eventQueue = append(s.eventQueue, input.Event{Action: act, Type: typ})
	}
}

func (s *Backend) quit() {
	if !s.running {
		return
	}
	s.running = false
	s.eventQueue = append(s.eventQueue, input.Event{Action: action.PlaybackQuit, Type: event.Press})
}

func phaseRGB(phase envelope.Phase) (r, g, b uint8) {
	switch phase {
	case envelope.Attack:
		return 0xE0, 0x40, 0x40
	case envelope.Decay:
		return 0xE0, 0xC0, 0x40
	case envelope.Sustain:
		return 0x40, 0xC0, 0x60
	case envelope.Release:
		return 0x40, 0x90, 0xC0
	default:
		return 0x50, 0x50, 0x50
	}
}

func (s *Backend) draw(data *debug.CompleteDebugData) {
	s.renderer.SetDrawColor(0x10, 0x10, 0x14, 0xFF)
	s.renderer.Clear()

	if data != nil && data.Audio != nil {
		for _, v := range data.Audio.Voices {
			s.drawVoice(v, v.Index == data.Selected)
		}
	}
	s.renderer.Present()
}

func (s *Backend) drawVoice(v debug.VoiceStatus, selected bool) {
	x := int32(margin + v.Index*(barWidth+barGap))
	bottom := int32(margin + barMaxHeight)

	s.renderer.SetDrawColor(0x28, 0x28, 0x30, 0xFF)
	s.renderer.FillRect(&sdl.Rect{X: x, Y: margin, W: barWidth, H: barMaxHeight})

	h := int32(v.LevelFraction() * barMaxHeight)
	r, g, b := phaseRGB(v.Phase)
	if v.Muted {
		r, g, b = r/3, g/3, b/3
	}
	s.renderer.SetDrawColor(r, g, b, 0xFF)
	s.renderer.FillRect(&sdl.Rect{X: x, Y: bottom - h, W: barWidth, H: h})

	if selected {
		s.renderer.SetDrawColor(0xFF, 0xFF, 0xFF, 0xFF)
		s.renderer.DrawRect(&sdl.Rect{X: x - 2, Y: margin - 2, W: barWidth + 4, H: barMaxHeight + 4})
	}

	// pan marker under the meter
	left, right := float64(max(v.Left, 0)), float64(max(v.Right, 0))
	pos := 0.5
	if left+right > 0 {
		pos = right / (left + right)
	}
	s.renderer.SetDrawColor(0xA0, 0xA0, 0xA0, 0xFF)
	s.renderer.FillRect(&sdl.Rect{X: x + int32(pos*float64(barWidth-4)), Y: bottom + margin, W: 4, H: panHeight})
}
