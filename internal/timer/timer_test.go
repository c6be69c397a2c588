package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive advances a timer n ticks without waiting for wall-clock seconds.
func drive(t *Timer, n int) {
	for range n {
		t.tick()
	}
}

func startedTimer(t *testing.T, tm *Timer) {
	t.Helper()
	require.True(t, tm.Start())
	// The run loop goroutine is irrelevant here; tests drive ticks
	// directly. Detach it so it cannot race the driven ticks.
	tm.Pause()
	tm.mu.Lock()
	tm.running = true
	tm.mu.Unlock()
}

func TestFocusPhaseCompletes(t *testing.T) {
	persisted := 0
	tm := NewTimer(nil, func() { persisted++ }, nil)
	startedTimer(t, tm)

	drive(tm, FocusSeconds)

	st := tm.Snapshot(EventState)
	assert.Equal(t, ModeBreak, st.Mode, "mode must toggle exactly once")
	assert.Equal(t, BreakSeconds, st.SecondsLeft, "resets to the other mode's duration")
	assert.False(t, st.Running, "explicit restart required after a phase")
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 1, persisted, "one focus session persisted")
}

func TestBreakPhaseCompletesWithoutPersisting(t *testing.T) {
	persisted := 0
	tm := NewTimer(nil, func() { persisted++ }, nil)
	startedTimer(t, tm)
	drive(tm, FocusSeconds)

	startedTimer(t, tm)
	drive(tm, BreakSeconds)

	st := tm.Snapshot(EventState)
	assert.Equal(t, ModeFocus, st.Mode)
	assert.Equal(t, FocusSeconds, st.SecondsLeft)
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Completed, "break completion does not count")
	assert.Equal(t, 1, persisted, "break completion is not persisted")
}

func TestSecondsLeftNeverNegative(t *testing.T) {
	tm := NewTimer(nil, nil, nil)
	startedTimer(t, tm)

	// Drive well past the phase boundary; extra ticks are no-ops because
	// running is forced false at the toggle.
	drive(tm, FocusSeconds+100)

	st := tm.Snapshot(EventState)
	assert.GreaterOrEqual(t, st.SecondsLeft, 0)
	assert.Equal(t, BreakSeconds, st.SecondsLeft)
	assert.Equal(t, 1, st.Completed, "only one transition")
}

func TestPausePreservesSecondsLeft(t *testing.T) {
	tm := NewTimer(nil, nil, nil)
	startedTimer(t, tm)
	drive(tm, 10)

	tm.Pause()
	st := tm.Snapshot(EventState)
	assert.False(t, st.Running)
	assert.Equal(t, FocusSeconds-10, st.SecondsLeft)

	// Ticks while paused must not decrement
	drive(tm, 5)
	assert.Equal(t, FocusSeconds-10, tm.Snapshot(EventState).SecondsLeft)
}

func TestResetReturnsToFocusFullDuration(t *testing.T) {
	tm := NewTimer(nil, nil, nil)
	startedTimer(t, tm)
	drive(tm, FocusSeconds) // now in break mode
	startedTimer(t, tm)
	drive(tm, 20)

	tm.Reset()
	st := tm.Snapshot(EventState)
	assert.Equal(t, ModeFocus, st.Mode)
	assert.Equal(t, FocusSeconds, st.SecondsLeft)
	assert.False(t, st.Running)
}

func TestStartRespectsQuota(t *testing.T) {
	allowed := false
	tm := NewTimer(func() bool { return allowed }, nil, nil)

	assert.False(t, tm.Start(), "start must be refused at the quota")
	assert.False(t, tm.Snapshot(EventState).Running)

	allowed = true
	assert.True(t, tm.Start(), "start must succeed below the quota")
	assert.True(t, tm.Snapshot(EventState).Running)
	tm.Pause()
}

func TestQuotaCheckedFreshlyOnEveryStart(t *testing.T) {
	calls := 0
	tm := NewTimer(func() bool { calls++; return false }, nil, nil)

	tm.Start()
	tm.Start()
	assert.Equal(t, 2, calls)
}

func TestStartWhileRunningIsNoOp(t *testing.T) {
	tm := NewTimer(nil, nil, nil)
	startedTimer(t, tm)
	drive(tm, 3)

	assert.True(t, tm.Start())
	assert.Equal(t, FocusSeconds-3, tm.Snapshot(EventState).SecondsLeft)
}

func TestRunLoopTicksInRealTime(t *testing.T) {
	tm := NewTimer(nil, nil, nil)
	tm.interval = time.Millisecond
	require.True(t, tm.Start())
	defer tm.Pause()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if tm.Snapshot(EventState).SecondsLeft < FocusSeconds {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run loop never ticked")
}

func TestManagerPublishAndSubscribe(t *testing.T) {
	m := NewManager()

	ch, release := m.Subscribe(7)
	m.Publish(7, Event{Type: EventSessionCreated})

	select {
	case ev := <-ch:
		assert.Equal(t, EventSessionCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	// Events for other users are not delivered
	m.Publish(8, Event{Type: EventTick})
	select {
	case ev, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
	}

	release()
	m.Publish(7, Event{Type: EventTick})
	_, ok := <-ch
	assert.False(t, ok, "channel closed after release; no further delivery")

	// Releasing twice is safe
	release()
}

func TestManagerTimerPerUser(t *testing.T) {
	m := NewManager()

	a := m.Timer(1, nil, nil)
	b := m.Timer(2, nil, nil)
	assert.NotSame(t, a, b)
	assert.Same(t, a, m.Timer(1, nil, nil), "one timer per user")
}

func TestTimerPublishesThroughManager(t *testing.T) {
	m := NewManager()
	ch, release := m.Subscribe(3)
	defer release()

	tm := m.Timer(3, nil, nil)
	startedTimer(t, tm)
	drive(tm, 1)

	found := false
	for !found {
		select {
		case ev := <-ch:
			if ev.Type == EventTick {
				assert.Equal(t, FocusSeconds-1, ev.SecondsLeft)
				found = true
			}
		case <-time.After(time.Second):
			t.Fatal("tick event never published")
		}
	}
}
