package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
)

// newTestManager returns a manager driven by a fake clock.
func newTestManager() (*Manager, *time.Time) {
	m := NewManager()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func TestManager_Debouncing(t *testing.T) {
	tests := []struct {
		name           string
		eventType      event.Type
		timeBetween    time.Duration
		expectDebounce bool
	}{
		{
			name:           "rapid press - should debounce",
			eventType:      event.Press,
			timeBetween:    100 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "slow press - should not debounce",
			eventType:      event.Press,
			timeBetween:    200 * time.Millisecond,
			expectDebounce: false,
		},
		{
			name:           "rapid release - should debounce",
			eventType:      event.Release,
			timeBetween:    10 * time.Millisecond,
			expectDebounce: true,
		},
		{
			name:           "repeat event type - should not debounce",
			eventType:      event.Repeat,
			timeBetween:    0,
			expectDebounce: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, now := newTestManager()
			count := 0
			m.On(action.VoiceToggle, tt.eventType, func() { count++ })

			assert.True(t, m.Trigger(action.VoiceToggle, tt.eventType), "First event should always pass")

			*now = now.Add(tt.timeBetween)
			handled := m.Trigger(action.VoiceToggle, tt.eventType)

			if tt.expectDebounce {
				assert.False(t, handled, "Second event should be debounced")
				assert.Equal(t, 1, count)
			} else {
				assert.True(t, handled, "Second event should not be debounced")
				assert.Equal(t, 2, count)
			}
		})
	}
}

func TestManager_MultipleActions(t *testing.T) {
	m, _ := newTestManager()
	var got []action.Action
	for _, act := range []action.Action{action.ReverbNext, action.DebugSnapshot} {
		m.On(act, event.Press, func() { got = append(got, act) })
	}

	// Different actions shouldn't interfere with each other
	assert.True(t, m.Trigger(action.ReverbNext, event.Press))
	assert.True(t, m.Trigger(action.DebugSnapshot, event.Press))
	assert.False(t, m.Trigger(action.ReverbNext, event.Press))

	assert.Equal(t, []action.Action{action.ReverbNext, action.DebugSnapshot}, got)
}

func TestManager_Dispatch(t *testing.T) {
	m, _ := newTestManager()
	m.SetDebounce(0)

	presses, releases := 0, 0
	m.On(action.PlaybackPauseToggle, event.Press, func() { presses++ })
	m.On(action.PlaybackPauseToggle, event.Release, func() { releases++ })
	m.On(action.PlaybackPauseToggle, event.Press, func() { presses += 10 })

	m.Dispatch([]Event{
		{Action: action.PlaybackPauseToggle, Type: event.Press},
		{Action: action.PlaybackPauseToggle, Type: event.Release},
		{Action: action.PlaybackPauseToggle, Type: event.Press},
	})
	assert.Equal(t, 22, presses, "every callback runs, in order")
	assert.Equal(t, 1, releases)

	assert.False(t, m.Trigger(action.PlaybackQuit, event.Press), "no callbacks registered")
}

func TestDefaultKeyMap(t *testing.T) {
	act, ok := GetDefaultMapping("q")
	require.True(t, ok)
	assert.Equal(t, action.PlaybackQuit, act)

	_, ok = GetDefaultMapping("not a key")
	assert.False(t, ok)

	covered := map[action.Action]bool{}
	for _, act := range DefaultKeyMap {
		covered[act] = true
	}
	for act := action.PlaybackPauseToggle; act <= action.DebugLogLevelDecrease; act++ {
		assert.True(t, covered[act], "%s has no default key", act)
		assert.NotEqual(t, "unknown", act.String())
	}
}
