package handlers

import (
	"encoding/json"
	"net/http"

	"focusflow/internal/timer"
)

// Events streams the caller's timer events over SSE: ticks, phase changes
// and session_created notifications that trigger a streak re-fetch. The
// subscription is released when the client disconnects; no events are
// delivered after that.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, release := h.timers.Subscribe(user.ID)
	defer release()

	writeEvent := func(ev timer.Event) {
		data, _ := json.Marshal(ev)
		w.Write([]byte("data: "))
		w.Write(data)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	// Initial state so a fresh page paints without waiting for a tick.
	writeEvent(h.userTimer(user).Snapshot(timer.EventState))

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeEvent(ev)

		case <-r.Context().Done():
			return
		}
	}
}
