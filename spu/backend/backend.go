package backend

import (
	"github.com/valerio/go-spu/spu/debug"
	"github.com/valerio/go-spu/spu/input"
)

// Backend represents a display and input platform for the player.
// Backends are responsible for:
// - Rendering the voice and mixer state to their output (terminal, SDL window, etc.)
// - Translating platform-specific key events to input events
// - Handling backend-specific features (snapshots, log level)
type Backend interface {
	// Init configures the backend with the provided configuration.
	// This is a required step before calling Update.
	Init(config BackendConfig) error

	// Update draws the debug data and returns the input events collected
	// since the previous call.
	Update(data *debug.CompleteDebugData) ([]input.Event, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// BackendConfig holds configuration for backends
type BackendConfig struct {
	Title     string
	ShowDebug bool // Backends may ignore unsupported features
}
