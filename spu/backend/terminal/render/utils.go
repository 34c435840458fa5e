package render

import (
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-spu/spu/envelope"
)

// PhaseColor picks the meter color for an envelope phase.
func PhaseColor(phase envelope.Phase) tcell.Color {
	switch phase {
	case envelope.Attack:
		return tcell.ColorRed
	case envelope.Decay:
		return tcell.ColorYellow
	case envelope.Sustain:
		return tcell.ColorGreen
	case envelope.Release:
		return tcell.ColorTeal
	default:
		return tcell.ColorGray
	}
}

// LevelColor picks the log line color for a level.
func LevelColor(level slog.Level) tcell.Color {
	switch {
	case level >= slog.LevelError:
		return tcell.ColorRed
	case level >= slog.LevelWarn:
		return tcell.ColorYellow
	case level >= slog.LevelInfo:
		return tcell.ColorWhite
	default:
		return tcell.ColorGray
	}
}
