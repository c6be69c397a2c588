package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"focusflow/internal/auth"
	"focusflow/internal/handlers"
	"focusflow/internal/storage"
	"focusflow/internal/timer"
)

func main() {
	port := envOr("PORT", "8080")
	dbPath := envOr("DB_PATH", "focusflow.db")
	templateDir := envOr("TEMPLATE_DIR", "web/templates")
	staticDir := envOr("STATIC_DIR", "web/static")

	dailyLimit := handlers.DefaultDailyLimit
	if v := os.Getenv("DAILY_SESSION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			dailyLimit = n
		}
	}

	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	seedAdmin(db)

	timers := timer.NewManager()
	// Push-triggered re-pull: every persisted focus session notifies the
	// owner's event stream so open dashboards re-fetch their streak.
	db.OnFocusSessionInsert(func(userID int64) {
		timers.Publish(userID, timer.Event{Type: timer.EventSessionCreated})
	})

	h := handlers.NewHandlers(db, timers, handlers.Config{
		TemplateDir:   templateDir,
		SecureCookie:  os.Getenv("SECURE_COOKIES") == "true",
		DailyLimit:    dailyLimit,
		StripeKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePriceID: os.Getenv("STRIPE_PRICE_ID"),
		BaseURL:       envOr("BASE_URL", "http://localhost:"+port),
	})

	go cleanupSessions(db)

	mux := setupRouter(h, staticDir)

	log.Printf("Listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	// Public routes
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.Register)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /blog/{userID}", h.Blog)
	mux.HandleFunc("GET /post/{slug}", h.PostView)

	// Authenticated routes
	protected := func(fn http.HandlerFunc) http.Handler {
		return h.AuthMiddleware(fn)
	}
	mux.Handle("GET /dashboard", protected(h.Dashboard))
	mux.Handle("GET /habit", protected(h.Habit))
	mux.Handle("GET /create", protected(h.CreatePostForm))
	mux.Handle("POST /create", protected(h.CreatePost))
	mux.Handle("GET /projects", protected(h.Projects))
	mux.Handle("DELETE /posts/{id}", protected(h.DeletePost))
	mux.Handle("GET /analytics", protected(h.Analytics))
	mux.Handle("GET /settings", protected(h.Settings))
	mux.Handle("GET /timer", protected(h.TimerFragment))
	mux.Handle("POST /timer/start", protected(h.StartTimer))
	mux.Handle("POST /timer/pause", protected(h.PauseTimer))
	mux.Handle("POST /timer/reset", protected(h.ResetTimer))
	mux.Handle("GET /api/streak", protected(h.Streak))
	mux.Handle("GET /events", protected(h.Events))
	mux.Handle("POST /upgrade", protected(h.Upgrade))

	return mux
}

// seedAdmin creates an initial account from the environment on an empty
// database, so fresh deployments (and e2e runs) can sign in.
func seedAdmin(db *storage.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	count, err := db.UserCount()
	if err != nil {
		log.Printf("Failed to count users: %v", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}
	if _, err := db.CreateUser(email, hash); err != nil {
		log.Printf("Failed to seed admin user: %v", err)
		return
	}
	log.Printf("Seeded admin user %s", email)
}

func cleanupSessions(db *storage.DB) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		if err := db.CleanExpiredSessions(); err != nil {
			log.Printf("Failed to clean expired sessions: %v", err)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
