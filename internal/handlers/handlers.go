package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"focusflow/internal/auth"
	"focusflow/internal/models"
	"focusflow/internal/storage"
	"focusflow/internal/timer"

	stripe "github.com/stripe/stripe-go/v82"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the authenticated user.
	UserContextKey contextKey = "user"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
	// SessionDuration is how long sessions last (30 days).
	SessionDuration = 30 * 24 * time.Hour
	// DefaultDailyLimit caps free-tier focus sessions per calendar day.
	DefaultDailyLimit = 5
)

// Config holds handler settings read from the environment in main.
type Config struct {
	TemplateDir   string
	SecureCookie  bool
	DailyLimit    int
	StripeKey     string
	StripePriceID string
	BaseURL       string
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db     *storage.DB
	timers *timer.Manager
	cfg    Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, timers *timer.Manager, cfg Config) *Handlers {
	if cfg.DailyLimit <= 0 {
		cfg.DailyLimit = DefaultDailyLimit
	}
	if cfg.StripeKey != "" {
		stripe.Key = cfg.StripeKey
	}
	return &Handlers{db: db, timers: timers, cfg: cfg}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require authentication. The session is
// re-validated against the database on every request; protected content is
// never written before the check passes. It also implements rolling
// sessions: if a session is past the halfway point of its lifetime, it
// automatically renews the session.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		sessionInfo, err := h.db.ValidateSessionWithInfo(cookie.Value)
		if err != nil {
			// Invalid or expired session, clear the cookie
			h.clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		// Rolling session: renew if past halfway point
		// This keeps active users logged in while still expiring inactive sessions
		now := time.Now()
		timeUntilExpiry := sessionInfo.ExpiresAt.Sub(now)
		halfSessionDuration := SessionDuration / 2

		if timeUntilExpiry < halfSessionDuration {
			// Session is in the second half of its lifetime, renew it
			newExpiresAt := now.Add(SessionDuration)
			if err := h.db.RenewSession(cookie.Value, newExpiresAt); err == nil {
				h.setSessionCookie(w, cookie.Value)
			}
			// If renewal fails, just continue with the current session
		}

		// Add user to context
		ctx := context.WithValue(r.Context(), UserContextKey, sessionInfo.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Home redirects to the dashboard for signed-in users, otherwise to login.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

// AuthViewModel holds data for the login and register pages.
type AuthViewModel struct {
	Email string
	Error string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to the dashboard
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := h.db.ValidateSession(cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
	}
	h.render(w, r, "login.html", AuthViewModel{})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.render(w, r, "login.html", AuthViewModel{Email: email, Error: "Email and password are required"})
		return
	}

	user, err := h.db.GetUserByEmail(email)
	if err != nil || !auth.CheckPassword(password, user.PasswordHash) {
		h.render(w, r, "login.html", AuthViewModel{Email: email, Error: "Invalid email or password"})
		return
	}

	if err := h.startSession(w, user.ID); err != nil {
		log.Printf("Failed to start session: %v", err)
		h.render(w, r, "login.html", AuthViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// RegisterForm renders the registration page.
func (h *Handlers) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "register.html", AuthViewModel{})
}

// Register handles the sign-up form submission and signs the new user in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "register.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	password := r.FormValue("password")

	if email == "" || !strings.Contains(email, "@") {
		h.render(w, r, "register.html", AuthViewModel{Email: email, Error: "A valid email is required"})
		return
	}
	if len(password) < 8 {
		h.render(w, r, "register.html", AuthViewModel{Email: email, Error: "Password must be at least 8 characters"})
		return
	}

	if existing, err := h.db.GetUserByEmail(email); err == nil && existing != nil {
		h.render(w, r, "register.html", AuthViewModel{Email: email, Error: "An account with this email already exists"})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		h.render(w, r, "register.html", AuthViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	user, err := h.db.CreateUser(email, hash)
	if err != nil {
		log.Printf("Failed to create user: %v", err)
		h.render(w, r, "register.html", AuthViewModel{Email: email, Error: "An error occurred. Please try again."})
		return
	}

	if err := h.startSession(w, user.ID); err != nil {
		log.Printf("Failed to start session: %v", err)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.db.DeleteSession(cookie.Value); err != nil {
			log.Printf("Failed to delete session: %v", err)
		}
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) startSession(w http.ResponseWriter, userID int64) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(SessionDuration)
	if err := h.db.CreateSession(token, userID, expiresAt); err != nil {
		return err
	}

	h.setSessionCookie(w, token)
	return nil
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(SessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.ParseFiles(
		filepath.Join(h.cfg.TemplateDir, "base.html"),
		filepath.Join(h.cfg.TemplateDir, "nav.html"),
		filepath.Join(h.cfg.TemplateDir, "timer.html"),
		filepath.Join(h.cfg.TemplateDir, viewName),
	)
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}

// renderPartial executes a single named template from a partial file,
// used for HTMX fragment swaps.
func (h *Handlers) renderPartial(w http.ResponseWriter, viewName, name string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.cfg.TemplateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}
