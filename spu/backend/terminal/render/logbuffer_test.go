package render

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogBufferWraps(t *testing.T) {
	lb := NewLogBuffer(3)
	assert.Nil(t, lb.GetRecent(0))

	for i, msg := range []string{"a", "b", "c", "d"} {
		lb.Add(LogEntry{Time: time.Unix(int64(i), 0), Message: msg})
	}
	assert.Equal(t, 3, lb.Len())

	var got []string
	for _, e := range lb.GetRecent(0) {
		got = append(got, e.Message)
	}
	assert.Equal(t, []string{"d", "c", "b"}, got, "newest first, oldest dropped")
	assert.Len(t, lb.GetRecent(2), 2)

	lb.Clear()
	assert.Zero(t, lb.Len())
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	var level slog.LevelVar
	level.Set(slog.LevelInfo)
	logger := slog.New(NewLogBufferHandler(lb, &level))

	logger.Debug("hidden")
	logger.Info("Loaded sample library", "instruments", 4)
	logger.With("voice", 3).WithGroup("env").Warn("Stolen", "phase", "Release")

	level.Set(slog.LevelDebug)
	logger.Debug("now visible")

	entries := lb.GetRecent(0)
	require.Len(t, entries, 3)
	assert.Equal(t, "now visible", entries[0].Message)
	assert.Equal(t, "Stolen voice=3 env.phase=Release", entries[1].Message)
	assert.Equal(t, slog.LevelWarn, entries[1].Level)
	assert.Equal(t, "Loaded sample library instruments=4", entries[2].Message)
}

func TestFormatLogEntry(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "12:30:05 [DBG] hi"},
		{slog.LevelInfo, "12:30:05 [INF] hi"},
		{slog.LevelWarn, "12:30:05 [WRN] hi"},
		{slog.LevelError, "12:30:05 [ERR] hi"},
		{slog.LevelError + 4, "12:30:05 [ERR] hi"},
	}
	at := time.Date(2024, 5, 1, 12, 30, 5, 0, time.Local)
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLogEntry(LogEntry{Time: at, Level: tt.level, Message: "hi"}))
		})
	}
}
