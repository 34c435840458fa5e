package audio

// Provider supplies interleaved stereo samples to a pull-based output and
// exposes the voice debugging controls.
type Provider interface {
	// GetSamples renders count interleaved samples (count/2 stereo frames).
	GetSamples(count int) []int16

	// Audio debugging controls

	ToggleVoice(v int)
	SoloVoice(v int)
	UnmuteAll()
}

var _ Provider = (*Stream)(nil)
