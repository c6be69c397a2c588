package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"focusflow/internal/models"
)

// DayCount is one bucket of the weekly streak series.
type DayCount struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// WeeklyCounts buckets session records into a fixed 7-day series, oldest
// first, inclusive of now's calendar day. Buckets are keyed by ISO date;
// records outside the window are ignored; empty days stay at zero. The
// output is rebuilt from scratch on every call, so identical input always
// yields an identical series.
func WeeklyCounts(sessions []models.FocusSession, now time.Time) []DayCount {
	buckets := make([]DayCount, 0, 7)
	index := make(map[string]int, 7)

	for i := 6; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		key := d.Format("2006-01-02")
		index[key] = len(buckets)
		buckets = append(buckets, DayCount{Date: key, Label: d.Format("Mon")})
	}

	for _, s := range sessions {
		if i, ok := index[s.CompletedAt.Format("2006-01-02")]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

func (h *Handlers) weeklyStreak(userID int64, now time.Time) ([]DayCount, error) {
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -6)
	sessions, err := h.db.ListFocusSessionsSince(userID, since)
	if err != nil {
		return nil, err
	}
	return WeeklyCounts(sessions, now), nil
}

// Streak serves the weekly streak series as JSON. The dashboard re-fetches
// it when a session_created event arrives on the event stream.
func (h *Handlers) Streak(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	streak, err := h.weeklyStreak(user.ID, time.Now())
	if err != nil {
		log.Printf("weeklyStreak error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(streak); err != nil {
		log.Printf("Streak encode error: %v", err)
	}
}
