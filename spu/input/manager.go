package input

import (
	"log/slog"
	"sync"
	"time"

	"github.com/valerio/go-spu/spu/input/action"
	"github.com/valerio/go-spu/spu/input/event"
)

const (
	// DefaultDebounce is the minimum time between debounced events
	DefaultDebounce = 150 * time.Millisecond
)

// Event is a backend-neutral input event.
type Event struct {
	Action action.Action
	Type   event.Type
}

// Manager handles input actions and their associated callbacks
type Manager struct {
	mu            sync.Mutex
	handlers      map[action.Action]map[event.Type][]func()
	lastTriggered map[action.Action]map[event.Type]time.Time
	debounce      time.Duration
	now           func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		handlers:      make(map[action.Action]map[event.Type][]func()),
		lastTriggered: make(map[action.Action]map[event.Type]time.Time),
		debounce:      DefaultDebounce,
		now:           time.Now,
	}
}

// SetDebounce changes the debounce window; zero disables debouncing.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger runs the callbacks registered for the action and event type.
// Press and Release events inside the debounce window are dropped. It
// reports whether the event was handled.
func (m *Manager) Trigger(act action.Action, evt event.Type) bool {
	m.mu.Lock()
	if evt == event.Press || evt == event.Release {
		now := m.now()
		if m.lastTriggered[act] == nil {
			m.lastTriggered[act] = make(map[event.Type]time.Time)
		}
		last, seen := m.lastTriggered[act][evt]
		if seen && now.Sub(last) < m.debounce {
			m.mu.Unlock()
			return false
		}
		m.lastTriggered[act][evt] = now
	}
	callbacks := m.handlers[act][evt]
	m.mu.Unlock()

	if len(callbacks) == 0 {
		slog.Debug("Unhandled input", "action", act, "type", evt)
		return false
	}
	for _, callback := range callbacks {
		callback()
	}
	return true
}

// Dispatch triggers every event in order.
func (m *Manager) Dispatch(events []Event) {
	for _, e := range events {
		m.Trigger(e.Action, e.Type)
	}
}
