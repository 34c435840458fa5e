package headless

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/valerio/go-spu/spu/backend"
	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/input"
	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
)

// Backend implements the Backend interface for batch rendering. It quits
// after maxFrames updates, or when playback finishes if maxFrames is zero.
type Backend struct {
	config         backend.BackendConfig
	frameCount     int
	maxFrames      int
	snapshotConfig SnapshotConfig
	done           bool
}

// SnapshotConfig holds configuration for voice state snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N updates
	Directory string // Directory to save snapshots
	SongName  string // Song name for snapshot filenames
}

func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		maxFrames:      maxFrames,
		snapshotConfig: snapshotConfig,
	}
}

func (h *Backend) Init(config backend.BackendConfig) error {
	h.config = config
	h.frameCount = 0
	h.done = false

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

// Update handles snapshots and signals quit when the run is over
func (h *Backend) Update(data *debug.CompleteDebugData) ([]input.Event, error) {
	if h.done {
		return nil, nil
	}
	h.frameCount++

	if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval == 0 {
		h.saveSnapshot(data)
	}

	if h.frameCount%100 == 0 {
		slog.Debug("Frame progress", "completed", h.frameCount, "total", h.maxFrames)
	}

	finished := data != nil && data.State == debug.PlaybackFinished
	if (h.maxFrames > 0 && h.frameCount >= h.maxFrames) || finished {
		if h.snapshotConfig.Enabled && h.frameCount%h.snapshotConfig.Interval != 0 {
			h.saveSnapshot(data)
		}

		if h.snapshotConfig.Enabled {
			slog.Info("Headless execution completed", "frames", h.frameCount, "snapshots_saved_to", h.snapshotConfig.Directory)
		} else {
			slog.Info("Headless execution completed", "frames", h.frameCount)
		}

		h.done = true
		return []input.Event{{Action: action.PlaybackQuit, Type: event.Press}}, nil
	}

	return nil, nil
}

func (h *Backend) Cleanup() error {
	return nil
}

// Frames is the number of updates seen since Init.
func (h *Backend) Frames() int {
	return h.frameCount
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory, songPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	if directory == "" {
		tempDir, err := os.MkdirTemp("", "spu-snapshots-*")
		if err != nil {
			return config, errors.Wrap(err, "creating snapshot directory")
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return config, errors.Wrap(err, "creating snapshot directory")
		}
		config.Directory = directory
	}

	config.SongName = "demo"
	if songPath != "" {
		config.SongName = strings.TrimSuffix(filepath.Base(songPath), filepath.Ext(songPath))
	}

	return config, nil
}

func (h *Backend) saveSnapshot(data *debug.CompleteDebugData) {
	if data == nil || data.Audio == nil {
		return
	}
	baseName := fmt.Sprintf("%s_frame_%d", h.snapshotConfig.SongName, h.frameCount)
	if _, err := debug.SaveSnapshotToDir(data.Audio, baseName, h.snapshotConfig.Directory); err != nil {
		slog.Error("Failed to save snapshot", "frame", h.frameCount, "error", err)
	}
}
