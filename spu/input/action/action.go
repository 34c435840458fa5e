package action

// Action represents input actions that can be performed on the player
type Action int

const (
	// Transport
	PlaybackPauseToggle Action = iota
	PlaybackRestart
	PlaybackLoopToggle
	PlaybackQuit

	// Mixer
	ReverbNext
	ReverbPrev
	WetLevelUp
	WetLevelDown
	MasterVolumeUp
	MasterVolumeDown

	// Voice debugging, acting on the selected voice
	VoiceSelectNext
	VoiceSelectPrev
	VoiceToggle
	VoiceSolo
	VoiceUnmuteAll

	// Backend features
	DebugSnapshot
	DebugLogLevelIncrease
	DebugLogLevelDecrease
)

var names = map[Action]string{
	PlaybackPauseToggle:   "pause",
	PlaybackRestart:       "restart",
	PlaybackLoopToggle:    "loop",
	PlaybackQuit:          "quit",
	ReverbNext:            "reverb next",
	ReverbPrev:            "reverb previous",
	WetLevelUp:            "wet up",
	WetLevelDown:          "wet down",
	MasterVolumeUp:        "volume up",
	MasterVolumeDown:      "volume down",
	VoiceSelectNext:       "select next voice",
	VoiceSelectPrev:       "select previous voice",
	VoiceToggle:           "toggle voice",
	VoiceSolo:             "solo voice",
	VoiceUnmuteAll:        "unmute all",
	DebugSnapshot:         "snapshot",
	DebugLogLevelIncrease: "log level up",
	DebugLogLevelDecrease: "log level down",
}

func (a Action) String() string {
	if n, ok := names[a]; ok {
		return n
	}
	return "unknown"
}
