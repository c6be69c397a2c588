package timer

import "sync"

// subscriber channels are buffered; slow consumers drop events rather
// than block the timer.
const subscriberBuffer = 16

// Manager owns one timer per user and fans timer events out to SSE
// subscribers. Timers live in memory only; a server restart resets them.
type Manager struct {
	mu     sync.Mutex
	timers map[int64]*Timer
	subs   map[int64]map[chan Event]struct{}
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		timers: make(map[int64]*Timer),
		subs:   make(map[int64]map[chan Event]struct{}),
	}
}

// Timer returns the user's timer, creating it on first use. The hooks are
// only bound at creation; later calls ignore them.
func (m *Manager) Timer(userID int64, canStart func() bool, onFocusDone func()) *Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.timers[userID]
	if !ok {
		t = NewTimer(canStart, onFocusDone, func(ev Event) {
			m.Publish(userID, ev)
		})
		m.timers[userID] = t
	}
	return t
}

// Publish delivers an event to all of the user's subscribers without
// blocking.
func (m *Manager) Publish(userID int64, ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ch := range m.subs[userID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers an event channel for a user. The returned release
// function removes the subscription and closes the channel; no events are
// delivered after it returns.
func (m *Manager) Subscribe(userID int64) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	m.mu.Lock()
	if m.subs[userID] == nil {
		m.subs[userID] = make(map[chan Event]struct{})
	}
	m.subs[userID][ch] = struct{}{}
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[userID][ch]; !ok {
			return
		}
		delete(m.subs[userID], ch)
		if len(m.subs[userID]) == 0 {
			delete(m.subs, userID)
		}
		close(ch)
	}
	return ch, release
}
