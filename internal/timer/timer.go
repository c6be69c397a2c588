package timer

import (
	"sync"
	"time"
)

// Phase durations in seconds.
const (
	FocusSeconds = 25 * 60
	BreakSeconds = 5 * 60
)

// Mode is the active countdown phase.
type Mode string

const (
	ModeFocus Mode = "focus"
	ModeBreak Mode = "break"
)

// Duration returns the full phase length in seconds for a mode.
func (m Mode) Duration() int {
	if m == ModeBreak {
		return BreakSeconds
	}
	return FocusSeconds
}

// EventType discriminates timer events on the stream.
type EventType string

const (
	EventTick           EventType = "tick"
	EventPhaseDone      EventType = "phase_done"
	EventState          EventType = "state"
	EventSessionCreated EventType = "session_created"
)

// Event is a snapshot of timer state published to subscribers.
type Event struct {
	Type        EventType `json:"type"`
	Mode        Mode      `json:"mode"`
	SecondsLeft int       `json:"seconds_left"`
	Running     bool      `json:"running"`
	Completed   int       `json:"completed"`
}

// Timer is a two-phase countdown. When a running focus phase reaches zero
// the completion hook fires (best-effort persistence belongs to the
// caller), the completed counter increments, the mode toggles and the
// countdown stops; the user must explicitly restart.
//
// Invariants: secondsLeft stays within [0, mode duration]; the mode only
// toggles when the countdown reaches zero; running is false immediately
// after a toggle.
type Timer struct {
	mu          sync.Mutex
	mode        Mode
	secondsLeft int
	running     bool
	completed   int
	stop        chan struct{}

	interval    time.Duration
	canStart    func() bool
	onFocusDone func()
	publish     func(Event)
}

// NewTimer creates a stopped timer in focus mode at full duration.
// canStart gates Start (the daily quota check, re-evaluated every call);
// onFocusDone fires once per completed focus phase; publish receives
// every tick and phase change. All three may be nil.
func NewTimer(canStart func() bool, onFocusDone func(), publish func(Event)) *Timer {
	return &Timer{
		mode:        ModeFocus,
		secondsLeft: FocusSeconds,
		interval:    time.Second,
		canStart:    canStart,
		onFocusDone: onFocusDone,
		publish:     publish,
	}
}

// Start begins the countdown. It reports false when the quota check
// refuses the start; starting an already running timer is a no-op.
func (t *Timer) Start() bool {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return true
	}
	if t.canStart != nil && !t.canStart() {
		t.mu.Unlock()
		return false
	}
	t.running = true
	t.stop = make(chan struct{})
	go t.run(t.stop)
	t.mu.Unlock()

	t.emit(t.Snapshot(EventState))
	return true
}

// Pause stops the countdown without resetting secondsLeft.
func (t *Timer) Pause() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
	t.mu.Unlock()

	t.emit(t.Snapshot(EventState))
}

// Reset stops the countdown and returns to focus mode at full duration.
func (t *Timer) Reset() {
	t.mu.Lock()
	if t.running {
		t.running = false
		if t.stop != nil {
			close(t.stop)
			t.stop = nil
		}
	}
	t.mode = ModeFocus
	t.secondsLeft = FocusSeconds
	t.mu.Unlock()

	t.emit(t.Snapshot(EventState))
}

// Snapshot returns the current state as an event of the given type.
func (t *Timer) Snapshot(typ EventType) Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Event{
		Type:        typ,
		Mode:        t.mode,
		SecondsLeft: t.secondsLeft,
		Running:     t.running,
		Completed:   t.completed,
	}
}

func (t *Timer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if done := t.tick(); done {
				return
			}
		case <-stop:
			return
		}
	}
}

// tick applies exactly one one-second decrement. It returns true when the
// run loop should exit (phase finished or timer no longer running).
func (t *Timer) tick() bool {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return true
	}
	if t.secondsLeft > 0 {
		t.secondsLeft--
	}
	if t.secondsLeft > 0 {
		ev := Event{Type: EventTick, Mode: t.mode, SecondsLeft: t.secondsLeft, Running: true, Completed: t.completed}
		t.mu.Unlock()
		t.emit(ev)
		return false
	}

	// Phase finished: toggle mode, reset to the new duration, stop.
	finished := t.mode
	if finished == ModeFocus {
		t.completed++
		t.mode = ModeBreak
	} else {
		t.mode = ModeFocus
	}
	t.secondsLeft = t.mode.Duration()
	t.running = false
	t.stop = nil
	ev := Event{Type: EventPhaseDone, Mode: t.mode, SecondsLeft: t.secondsLeft, Running: false, Completed: t.completed}
	t.mu.Unlock()

	if finished == ModeFocus && t.onFocusDone != nil {
		t.onFocusDone()
	}
	t.emit(ev)
	return true
}

func (t *Timer) emit(ev Event) {
	if t.publish != nil {
		t.publish(ev)
	}
}
