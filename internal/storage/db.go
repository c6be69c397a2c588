package storage

import (
	"database/sql"
	"time"

	"focusflow/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB

	// onFocusSessionInsert, when set, is called after every successful
	// focus session insert. Used to trigger realtime re-fetches.
	onFocusSessionInsert func(userID int64)
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL,
			last_activity DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id INTEGER PRIMARY KEY,
			role TEXT NOT NULL DEFAULT 'free',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			slug TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS focus_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			completed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_focus_sessions_user_completed
			ON focus_sessions(user_id, completed_at)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// OnFocusSessionInsert registers a callback invoked after each successful
// focus session insert. Must be set before the server starts handling
// requests.
func (db *DB) OnFocusSessionInsert(fn func(userID int64)) {
	db.onFocusSessionInsert = fn
}

// CreateUser creates a new user with the given email and password hash,
// along with its free-tier profile row.
func (db *DB) CreateUser(email, passwordHash string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (email, password_hash) VALUES (?, ?)",
		email, passwordHash,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	if _, err := db.conn.Exec(
		"INSERT INTO profiles (user_id, role) VALUES (?, ?)",
		id, models.RoleFree,
	); err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, created_at FROM users WHERE id = ?",
		id,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// GetProfileRole returns the subscription role for a user. Users without a
// profile row are treated as free tier.
func (db *DB) GetProfileRole(userID int64) (string, error) {
	var role string
	err := db.conn.QueryRow(
		"SELECT role FROM profiles WHERE user_id = ?", userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return models.RoleFree, nil
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// SetProfileRole sets the subscription role for a user. The write is a
// value-set, so reapplying the same role is safe.
func (db *DB) SetProfileRole(userID int64, role string) error {
	_, err := db.conn.Exec(`
		INSERT INTO profiles (user_id, role) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET role = excluded.role
	`, userID, role)
	return err
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, expiresAt, now,
	)
	return err
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	LastActivity time.Time
	ExpiresAt    time.Time
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.email, u.password_hash, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP
	`, token)

	var u models.User
	var lastActivity, expiresAt time.Time
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &lastActivity, &expiresAt); err != nil {
		return nil, err
	}
	return &SessionInfo{
		User:         &u,
		LastActivity: lastActivity,
		ExpiresAt:    expiresAt,
	}, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	now := time.Now()
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		now, newExpiresAt, token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions.
func (db *DB) CleanExpiredSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}

// CreatePost inserts a new post owned by the given user.
func (db *DB) CreatePost(userID int64, title, content, status, slug string) (*models.Post, error) {
	result, err := db.conn.Exec(
		"INSERT INTO posts (user_id, title, content, status, slug) VALUES (?, ?, ?, ?, ?)",
		userID, title, content, status, slug,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.getPost(id)
}

func (db *DB) getPost(id int64) (*models.Post, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, title, content, status, slug, created_at FROM posts WHERE id = ?",
		id,
	)

	var p models.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Status, &p.Slug, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPostsByUser retrieves all posts owned by a user, newest first.
func (db *DB) ListPostsByUser(userID int64) ([]models.Post, error) {
	return db.queryPosts(
		"SELECT id, user_id, title, content, status, slug, created_at FROM posts WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
}

// ListPublishedPostsByUser retrieves a user's published posts, newest first.
func (db *DB) ListPublishedPostsByUser(userID int64) ([]models.Post, error) {
	return db.queryPosts(
		"SELECT id, user_id, title, content, status, slug, created_at FROM posts WHERE user_id = ? AND status = ? ORDER BY created_at DESC, id DESC",
		userID, models.StatusPublished,
	)
}

func (db *DB) queryPosts(query string, args ...any) ([]models.Post, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Status, &p.Slug, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPostBySlug retrieves a single post by its slug.
func (db *DB) GetPostBySlug(slug string) (*models.Post, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, title, content, status, slug, created_at FROM posts WHERE slug = ?",
		slug,
	)

	var p models.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.Status, &p.Slug, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost removes a post by id, scoped to its owner. The user id is
// always part of the delete condition; the id alone is never trusted.
func (db *DB) DeletePost(id, userID int64) error {
	result, err := db.conn.Exec(
		"DELETE FROM posts WHERE id = ? AND user_id = ?",
		id, userID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CreateFocusSession records one completed focus phase for a user.
func (db *DB) CreateFocusSession(userID int64, completedAt time.Time) error {
	if completedAt.IsZero() {
		completedAt = time.Now()
	}
	_, err := db.conn.Exec(
		"INSERT INTO focus_sessions (user_id, completed_at) VALUES (?, ?)",
		userID, completedAt,
	)
	if err != nil {
		return err
	}
	if db.onFocusSessionInsert != nil {
		db.onFocusSessionInsert(userID)
	}
	return nil
}

// CountFocusSessionsSince counts a user's focus sessions completed at or
// after the given time.
func (db *DB) CountFocusSessionsSince(userID int64, since time.Time) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM focus_sessions WHERE user_id = ? AND completed_at >= ?",
		userID, since,
	).Scan(&count)
	return count, err
}

// CountFocusSessionsToday counts a user's focus sessions completed today
// (local calendar day).
func (db *DB) CountFocusSessionsToday(userID int64) (int, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return db.CountFocusSessionsSince(userID, startOfDay)
}

// ListFocusSessionsSince retrieves a user's focus sessions completed at or
// after the given time, oldest first.
func (db *DB) ListFocusSessionsSince(userID int64, since time.Time) ([]models.FocusSession, error) {
	rows, err := db.conn.Query(
		"SELECT id, user_id, completed_at FROM focus_sessions WHERE user_id = ? AND completed_at >= ? ORDER BY completed_at ASC, id ASC",
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.FocusSession
	for rows.Next() {
		var s models.FocusSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
