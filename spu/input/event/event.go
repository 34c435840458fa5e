package event

// Type represents the type of input event
type Type int

const (
	Press   Type = iota // Key pressed down (debounced)
	Release             // Key released (debounced)
	Repeat              // Key auto-repeat (not debounced)
)

func (t Type) String() string {
	switch t {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "repeat"
	}
}
