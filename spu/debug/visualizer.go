package debug

import (
	"fmt"
	"strings"
)

const (
	meterFull  = '█'
	meterEmpty = '·'
)

// LevelBar draws fraction (0..1) as a bar of width cells.
func LevelBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(max(0, min(1, fraction))*float64(width) + 0.5)
	return strings.Repeat(string(meterFull), filled) + strings.Repeat(string(meterEmpty), width-filled)
}

// PanMarker draws the stereo position of a voice as a marker inside width
// cells, left to right.
func PanMarker(left, right int16, width int) string {
	if width <= 0 {
		return ""
	}
	cells := []rune(strings.Repeat("-", width))
	l, r := float64(max(left, 0)), float64(max(right, 0))
	pos := (width - 1) / 2
	if l+r > 0 {
		pos = int(r/(l+r)*float64(width-1) + 0.5)
	}
	cells[pos] = '|'
	return string(cells)
}

// VoiceLine formats one voice as a fixed-width row for text displays.
func VoiceLine(v VoiceStatus, barWidth int) string {
	flags := []byte("   ")
	if v.Muted {
		flags[0] = 'M'
	}
	if v.Reverb {
		flags[1] = 'R'
	}
	if v.Active {
		flags[2] = '*'
	}
	return fmt.Sprintf("%2d %s %-4s p%-3d %-7s %04X %s",
		v.Index, flags, v.Note, v.Program, v.Phase, v.Pitch, LevelBar(v.LevelFraction(), barWidth))
}

// Summary is the one-line global state.
func (d *AudioData) Summary() string {
	src := d.Source
	if !d.Loaded {
		src = "no library"
	}
	return fmt.Sprintf("%s | reverb %s wet %.2f | master %.2f | %d/%d voices",
		src, d.Reverb, d.WetLevel, d.MasterVolume, d.ActiveVoices, len(d.Voices))
}
