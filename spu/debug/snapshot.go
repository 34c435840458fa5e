package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

const snapshotBarWidth = 16

// TakeSnapshot handles the snapshot key for backends
func TakeSnapshot(data *AudioData) {
	if data == nil {
		slog.Warn("No audio data available for snapshot")
		return
	}
	if _, err := SaveSnapshotToDir(data, "spu_snapshot", ""); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}

// WriteSnapshot writes a text dump of data.
func WriteSnapshot(w io.Writer, data *AudioData) error {
	if _, err := fmt.Fprintf(w, "frame %d (%s)\n%s\n\n", data.Frames, frameTime(data), data.Summary()); err != nil {
		return errors.WithStack(err)
	}
	for _, v := range data.Voices {
		if _, err := fmt.Fprintln(w, VoiceLine(v, snapshotBarWidth)); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// SaveSnapshotToDir saves a text dump with a timestamped name to directory,
// or the working directory when empty. It returns the file path.
func SaveSnapshotToDir(data *AudioData, baseName, directory string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.txt", baseName, timestamp)

	outputDir := directory
	if outputDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "getting current directory")
		}
		outputDir = cwd
	}

	filePath := filepath.Join(outputDir, filename)
	file, err := os.Create(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", filePath)
	}
	defer file.Close()

	if err := WriteSnapshot(file, data); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", filePath, "voices", data.ActiveVoices)
	return filePath, nil
}

func frameTime(data *AudioData) time.Duration {
	if data.SampleRate <= 0 {
		return 0
	}
	return time.Duration(data.Frames) * time.Second / time.Duration(data.SampleRate)
}
