package handlers

import (
	"log"
	"net/http"
	"time"

	"focusflow/internal/models"
	"focusflow/internal/timer"
)

// TimerViewModel is the data passed to the timer fragment.
type TimerViewModel struct {
	Mode         timer.Mode
	Minutes      int
	Seconds      int
	Running      bool
	Completed    int
	TodayCount   int
	DailyLimit   int
	QuotaReached bool
	IsPro        bool
}

// userTimer returns the caller's timer, binding the quota check and the
// persistence hook on first use. The quota count is queried freshly on
// every start attempt.
func (h *Handlers) userTimer(user *models.User) *timer.Timer {
	userID := user.ID
	return h.timers.Timer(userID,
		func() bool { return h.allowStart(userID) },
		func() {
			// Fire-and-forget: a failed insert never disturbs the countdown.
			if err := h.db.CreateFocusSession(userID, time.Now()); err != nil {
				log.Printf("CreateFocusSession error for user %d: %v", userID, err)
			}
		},
	)
}

// allowStart applies the daily quota: free-tier users may complete at most
// DailyLimit focus sessions per calendar day; pro users are uncapped.
func (h *Handlers) allowStart(userID int64) bool {
	role, err := h.db.GetProfileRole(userID)
	if err != nil {
		log.Printf("GetProfileRole error: %v", err)
		return false
	}
	if role == models.RolePro {
		return true
	}

	count, err := h.db.CountFocusSessionsToday(userID)
	if err != nil {
		log.Printf("CountFocusSessionsToday error: %v", err)
		return false
	}
	return count < h.cfg.DailyLimit
}

// StartTimer starts the countdown, unless the daily quota is reached, in
// which case the fragment re-renders in its blocked state with the
// upgrade affordance. Quota-reached is a state, not an error.
func (h *Handlers) StartTimer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.userTimer(user).Start()
	h.renderTimer(w, user)
}

// TimerFragment renders the current timer card without changing state.
// The page script requests it after a phase completes so the controls
// match what the server now believes.
func (h *Handlers) TimerFragment(w http.ResponseWriter, r *http.Request) {
	h.renderTimer(w, GetUserFromContext(r))
}

// PauseTimer pauses the countdown without resetting it.
func (h *Handlers) PauseTimer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.userTimer(user).Pause()
	h.renderTimer(w, user)
}

// ResetTimer returns the countdown to a stopped focus phase at full
// duration.
func (h *Handlers) ResetTimer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.userTimer(user).Reset()
	h.renderTimer(w, user)
}

func (h *Handlers) renderTimer(w http.ResponseWriter, user *models.User) {
	h.renderPartial(w, "timer.html", "timer", h.timerView(user))
}

func (h *Handlers) timerView(user *models.User) TimerViewModel {
	st := h.userTimer(user).Snapshot(timer.EventState)
	todayCount, role := h.quotaState(user.ID)

	return TimerViewModel{
		Mode:         st.Mode,
		Minutes:      st.SecondsLeft / 60,
		Seconds:      st.SecondsLeft % 60,
		Running:      st.Running,
		Completed:    st.Completed,
		TodayCount:   todayCount,
		DailyLimit:   h.cfg.DailyLimit,
		QuotaReached: role != models.RolePro && todayCount >= h.cfg.DailyLimit,
		IsPro:        role == models.RolePro,
	}
}
