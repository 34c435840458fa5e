package input

import "github.com/valerio/go-spu/spu/input/action"

// DefaultKeyMap provides default key mappings that work across backends.
// Backends translate their key codes to these names.
var DefaultKeyMap = map[string]action.Action{
	// Transport
	"Space":  action.PlaybackPauseToggle,
	"p":      action.PlaybackPauseToggle, // Alternative key
	"Home":   action.PlaybackRestart,
	"0":      action.PlaybackRestart,
	"l":      action.PlaybackLoopToggle,
	"Escape": action.PlaybackQuit,
	"q":      action.PlaybackQuit,

	// Mixer
	"r":    action.ReverbNext,
	"R":    action.ReverbPrev,
	"w":    action.WetLevelUp,
	"s":    action.WetLevelDown,
	"Up":   action.MasterVolumeUp,
	"Down": action.MasterVolumeDown,
	"]":    action.MasterVolumeUp,
	"[":    action.MasterVolumeDown,

	// Voice debugging
	"Right": action.VoiceSelectNext,
	"Left":  action.VoiceSelectPrev,
	"j":     action.VoiceSelectNext,
	"k":     action.VoiceSelectPrev,
	"m":     action.VoiceToggle,
	"o":     action.VoiceSolo,
	"u":     action.VoiceUnmuteAll,

	// Debug controls
	"F12": action.DebugSnapshot,
	"+":   action.DebugLogLevelIncrease,
	"=":   action.DebugLogLevelIncrease, // Alternative without shift
	"-":   action.DebugLogLevelDecrease,
	"_":   action.DebugLogLevelDecrease, // Alternative with shift
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}
