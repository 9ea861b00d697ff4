package auth

import (
	"context"
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/entities"
)

// Session data keys
const (
	SessionKeyUserID  = "user_id"
	SessionKeyEmail   = "email"
	SessionKeyLoginAt = "login_at"

	sessionKeyFlashErrors = "flash_errors"
	sessionKeyFlashInput  = "flash_input"
	sessionKeyFlashNotice = "flash_notice"
)

func init() {
	gob.Register(time.Time{})
	gob.Register(map[string]string{})
}

// SessionManager wraps scs.SessionManager with application-specific methods.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager. With a *sql.DB the
// sessions live in SQLite next to the application data; with nil they are
// kept in memory (the postgres driver, tests).
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	sm := scs.New()

	if sqlDB != nil {
		_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
		if err != nil {
			return nil, err
		}
		sm.Store = sqlite3store.New(sqlDB)
	} else {
		sm.Store = memstore.New()
	}

	lifetime := cfg.SessionLifetime
	if lifetime <= 0 {
		lifetime = 30 * 24 * time.Hour
	}
	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateSession stores the user in a fresh session token.
func (sm *SessionManager) CreateSession(r *http.Request, user *entities.User) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyUserID, int(user.ID))
	sm.Put(r.Context(), SessionKeyEmail, user.Email)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

// GetUserID retrieves the user ID from the session. Returns 0 if not authenticated.
func (sm *SessionManager) GetUserID(r *http.Request) uint {
	return uint(sm.GetInt(r.Context(), SessionKeyUserID))
}

// IsAuthenticated returns true if the request has a valid session.
func (sm *SessionManager) IsAuthenticated(r *http.Request) bool {
	return sm.GetUserID(r) != 0
}

// Flash is one-shot form state carried across a redirect.
type Flash struct {
	Errors map[string]string
	Input  map[string]string
	Notice string
}

// HasErrors reports whether the flash carries field errors.
func (f Flash) HasErrors() bool {
	return len(f.Errors) > 0
}

// PutFlash stores form errors and old input for the next request.
func (sm *SessionManager) PutFlash(ctx context.Context, f Flash) {
	if len(f.Errors) > 0 {
		sm.Put(ctx, sessionKeyFlashErrors, f.Errors)
	}
	if len(f.Input) > 0 {
		sm.Put(ctx, sessionKeyFlashInput, f.Input)
	}
	if f.Notice != "" {
		sm.Put(ctx, sessionKeyFlashNotice, f.Notice)
	}
}

// PopFlash returns and clears the stored flash.
func (sm *SessionManager) PopFlash(ctx context.Context) Flash {
	var f Flash
	if m, ok := sm.Pop(ctx, sessionKeyFlashErrors).(map[string]string); ok {
		f.Errors = m
	}
	if m, ok := sm.Pop(ctx, sessionKeyFlashInput).(map[string]string); ok {
		f.Input = m
	}
	f.Notice = sm.PopString(ctx, sessionKeyFlashNotice)
	return f
}
