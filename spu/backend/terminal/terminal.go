package terminal

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"

	"github.com/valerio/go-spu/spu/backend"
	"github.com/valerio/go-spu/spu/backend/terminal/render"
	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/input"
	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
)

const (
	minTermWidth  = 60
	minTermHeight = 32

	headerHeight = 3
	meterWidth   = 20
	helpText     = "space pause  0 restart  l loop  r/R reverb  w/s wet  [/] volume  ←/→ voice  m mute  o solo  u unmute  F12 snap  q quit"
)

// Backend implements the Backend interface using tcell for terminal rendering
type Backend struct {
	screen     tcell.Screen
	running    bool
	logBuffer  *render.LogBuffer
	logLevel   slog.Level
	config     backend.BackendConfig
	eventQueue []input.Event
	signals    chan os.Signal
	installLog bool

	// Latest data, kept for snapshots
	current *debug.CompleteDebugData
}

// New creates a new terminal backend
func New() *Backend {
	return &Backend{
		logLevel:   slog.LevelInfo,
		installLog: true,
	}
}

// NewWithScreen creates a backend drawing to an existing screen, such as a
// tcell simulation screen. The default logger is left alone.
func NewWithScreen(screen tcell.Screen) *Backend {
	return &Backend{
		screen:   screen,
		logLevel: slog.LevelInfo,
	}
}

// Init initializes the terminal backend
func (t *Backend) Init(config backend.BackendConfig) error {
	t.config = config
	t.eventQueue = nil

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return errors.Wrap(err, "failed to initialize terminal")
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize terminal")
	}
	t.running = true

	t.logBuffer = render.NewLogBuffer(200)
	if t.installLog {
		slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, slog.LevelDebug)))
	}
	if config.ShowDebug {
		t.logLevel = slog.LevelDebug
	}
	slog.Info("Terminal backend initialized")

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.signals = make(chan os.Signal, 1)
	signal.Notify(t.signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	return nil
}

// LogBuffer exposes the captured log lines.
func (t *Backend) LogBuffer() *render.LogBuffer {
	return t.logBuffer
}

// Update renders the voice state and processes key events
func (t *Backend) Update(data *debug.CompleteDebugData) ([]input.Event, error) {
	select {
	case <-t.signals:
		t.quit()
	default:
	}

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.eventQueue
	t.eventQueue = nil
	for _, evt := range events {
		slog.Debug("UI event", "action", evt.Action, "type", evt.Type)
	}

	if !t.running {
		return events, nil
	}

	t.current = data
	t.render(data)
	t.screen.Show()
	return events, nil
}

// Cleanup cleans up terminal resources
func (t *Backend) Cleanup() error {
	if t.signals != nil {
		signal.Stop(t.signals)
	}
	if t.screen != nil {
		slog.Info("Cleaning up terminal backend")
		t.screen.Fini()
	}
	return nil
}

// keyNames converts tcell keys to key names used in default mappings
var keyNames = map[tcell.Key]string{
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyHome:   "Home",
	tcell.KeyEscape: "Escape",
	tcell.KeyF12:    "F12",
}

func keyName(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return "Space"
		}
		return string(ev.Rune())
	}
	return keyNames[ev.Key()]
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		t.quit()
		return
	}

	act, ok := input.GetDefaultMapping(keyName(ev))
	if !ok {
		return
	}

	// Backend-specific actions need direct access to backend state
	switch act {
	case action.DebugSnapshot:
		if t.current != nil {
			debug.TakeSnapshot(t.current.Audio)
		}
	case action.DebugLogLevelIncrease:
		t.changeLogLevel(1)
	case action.DebugLogLevelDecrease:
		t.changeLogLevel(-1)
	case action.PlaybackQuit:
		t.quit()
	default:
		t.eventQueue = append(t.eventQueue, input.Event{Action: act, Type: event.Press})
	}
}

func (t *Backend) quit() {
	if !t.running {
		return
	}
	t.running = false
	t.eventQueue = append(t.eventQueue, input.Event{Action: action.PlaybackQuit, Type: event.Press})
}

// changeLogLevel moves the displayed level; direction 1 shows more.
func (t *Backend) changeLogLevel(direction int) {
	levels := []slog.Level{slog.LevelError, slog.LevelWarn, slog.LevelInfo, slog.LevelDebug}
	idx := 0
	for i, l := range levels {
		if l == t.logLevel {
			idx = i
		}
	}
	idx = max(0, min(len(levels)-1, idx+direction))
	if levels[idx] != t.logLevel {
		t.logLevel = levels[idx]
		slog.Warn("Log level changed", "level", t.logLevel)
	}
}

func (t *Backend) render(data *debug.CompleteDebugData) {
	termWidth, termHeight := t.screen.Size()
	t.screen.Clear()

	if termWidth < minTermWidth || termHeight < minTermHeight {
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		t.drawText(0, termHeight/2, termWidth, style,
			fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight))
		return
	}

	title := t.config.Title
	if title == "" {
		title = "spu"
	}
	bold := tcell.StyleDefault.Bold(true)
	t.drawText(0, 0, termWidth, bold, title)

	if data == nil || data.Audio == nil {
		return
	}

	t.drawText(0, 1, termWidth, tcell.StyleDefault, data.Audio.Summary())
	t.drawText(0, 2, termWidth, tcell.StyleDefault.Foreground(tcell.ColorGray), transportLine(data))

	y := headerHeight
	for _, v := range data.Audio.Voices {
		t.drawVoice(y, termWidth, v, v.Index == data.Selected)
		y++
	}

	y++
	t.drawText(0, y, termWidth, tcell.StyleDefault.Foreground(tcell.ColorGray), helpText)
	t.drawLogs(0, y+2, termWidth, termHeight)
}

func transportLine(data *debug.CompleteDebugData) string {
	pos := data.Position.Truncate(100 * time.Millisecond)
	if data.Length > 0 {
		return fmt.Sprintf("%s  %s / %s", data.State, pos, data.Length.Truncate(100*time.Millisecond))
	}
	return fmt.Sprintf("%s  %s", data.State, pos)
}

func (t *Backend) drawVoice(y, width int, v debug.VoiceStatus, selected bool) {
	style := tcell.StyleDefault
	if !v.Active {
		style = style.Foreground(tcell.ColorGray)
	}
	if selected {
		style = style.Reverse(true)
	}

	line := debug.VoiceLine(v, 0)
	t.drawText(0, y, width, style, line)

	x := len([]rune(line))
	meter := tcell.StyleDefault.Foreground(render.PhaseColor(v.Phase))
	if v.Muted {
		meter = meter.Dim(true)
	}
	x = t.drawText(x, y, width, meter, debug.LevelBar(v.LevelFraction(), meterWidth))
	t.drawText(x+1, y, width, tcell.StyleDefault.Foreground(tcell.ColorGray), debug.PanMarker(v.Left, v.Right, 9))
}

func (t *Backend) drawLogs(startX, startY, width, termHeight int) {
	availableHeight := termHeight - startY
	if width <= 0 || availableHeight <= 0 {
		return
	}

	y := startY
	for _, entry := range t.logBuffer.GetRecent(0) {
		if y >= termHeight {
			break
		}
		if entry.Level < t.logLevel {
			continue
		}
		style := tcell.StyleDefault.Foreground(render.LevelColor(entry.Level))
		t.drawText(startX, y, width, style, render.FormatLogEntry(entry))
		y++
	}
}

// drawText writes s from x, clipped to width, and returns the column after
// the last cell written.
func (t *Backend) drawText(x, y, width int, style tcell.Style, s string) int {
	for _, ch := range s {
		if x >= width {
			break
		}
		t.screen.SetContent(x, y, ch, nil, style)
		x++
	}
	return x
}
