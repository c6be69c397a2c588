package handlers

import (
	"log"
	"net/http"
	"time"

	"focusflow/internal/models"
)

// DashboardViewModel is the data passed to the dashboard template.
type DashboardViewModel struct {
	Email        string
	Name         string
	UserID       int64
	Posts        []PostItem
	Streak       []DayCount
	MaxCount     int
	TodayCount   int
	DailyLimit   int
	QuotaReached bool
	IsPro        bool
}

// Dashboard renders the signed-in overview: recent posts, the weekly
// streak chart and the subscription card.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	posts, err := h.db.ListPostsByUser(user.ID)
	if err != nil {
		log.Printf("ListPostsByUser error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	streak, err := h.weeklyStreak(user.ID, time.Now())
	if err != nil {
		log.Printf("weeklyStreak error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	todayCount, role := h.quotaState(user.ID)

	maxCount := 1
	for _, d := range streak {
		if d.Count > maxCount {
			maxCount = d.Count
		}
	}

	h.render(w, r, "dashboard.html", DashboardViewModel{
		Email:        user.Email,
		Name:         displayName(user.Email),
		UserID:       user.ID,
		Posts:        postItems(posts),
		Streak:       streak,
		MaxCount:     maxCount,
		TodayCount:   todayCount,
		DailyLimit:   h.cfg.DailyLimit,
		QuotaReached: role != models.RolePro && todayCount >= h.cfg.DailyLimit,
		IsPro:        role == models.RolePro,
	})
}

// HabitViewModel is the data passed to the focus timer template.
type HabitViewModel struct {
	Email string
	Timer TimerViewModel
}

// Habit renders the focus timer screen.
func (h *Handlers) Habit(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.render(w, r, "habit.html", HabitViewModel{
		Email: user.Email,
		Timer: h.timerView(user),
	})
}

// PlaceholderViewModel is the data passed to placeholder screens.
type PlaceholderViewModel struct {
	Email string
	Title string
}

// Analytics is a placeholder screen.
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.render(w, r, "placeholder.html", PlaceholderViewModel{Email: user.Email, Title: "Analytics"})
}

// Settings is a placeholder screen.
func (h *Handlers) Settings(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	h.render(w, r, "placeholder.html", PlaceholderViewModel{Email: user.Email, Title: "Settings"})
}

// quotaState returns today's completed focus-session count and the user's
// subscription role, degrading to safe defaults on error.
func (h *Handlers) quotaState(userID int64) (int, string) {
	todayCount, err := h.db.CountFocusSessionsToday(userID)
	if err != nil {
		log.Printf("CountFocusSessionsToday error: %v", err)
	}
	role, err := h.db.GetProfileRole(userID)
	if err != nil {
		log.Printf("GetProfileRole error: %v", err)
		role = models.RoleFree
	}
	return todayCount, role
}
