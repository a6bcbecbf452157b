package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName    = "portfolio_session"
	sessionDuration      = 24 * time.Hour
	sessionCleanupPeriod = time.Hour
	repoTimeout          = 5 * time.Second
)

// Session represents an authenticated admin session
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"` // admin email
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoredSession is the persisted form of a session
type StoredSession struct {
	ID        string
	Subject   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionRepository persists sessions across restarts
type SessionRepository interface {
	Save(ctx context.Context, s StoredSession) error
	Get(ctx context.Context, sessionID string) (*StoredSession, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionManager handles session creation and validation
type SessionManager struct {
	secret       []byte
	sessions     map[string]*Session
	mu           sync.RWMutex
	repo         SessionRepository
	secureCookie bool
	stop         chan struct{}
	stopOnce     sync.Once
}

// SessionOption configures a SessionManager
type SessionOption func(*SessionManager)

// WithSecureCookie marks the session cookie Secure (HTTPS only).
func WithSecureCookie(secure bool) SessionOption {
	return func(sm *SessionManager) { sm.secureCookie = secure }
}

// NewSessionManager creates a new session manager. repo may be nil, in which
// case sessions live only in memory.
func NewSessionManager(secret string, repo SessionRepository, opts ...SessionOption) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "portfolio-dev-secret-change-in-production"
	}
	sm := &SessionManager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
		repo:     repo,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(sm)
	}
	go sm.cleanupLoop()
	return sm
}

// Stop ends the background cleanup goroutine
func (sm *SessionManager) Stop() {
	sm.stopOnce.Do(func() { close(sm.stop) })
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-sm.stop:
			return
		case <-ticker.C:
			sm.cleanupExpired()
		}
	}
}

func (sm *SessionManager) cleanupExpired() {
	now := time.Now()
	sm.mu.Lock()
	for id, s := range sm.sessions {
		if now.After(s.ExpiresAt) {
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	if sm.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()
	n, err := sm.repo.DeleteExpired(ctx)
	if err != nil {
		slog.Warn("failed to delete expired sessions", "error", err)
		return
	}
	if n > 0 {
		slog.Info("deleted expired sessions", "count", n)
	}
}

// CreateSession creates a new session for subject
func (sm *SessionManager) CreateSession(subject string) (*Session, error) {
	// Generate session ID
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}
	sessionID := base64.RawURLEncoding.EncodeToString(idBytes)

	now := time.Now()
	session := &Session{
		ID:        sessionID,
		Subject:   subject,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionDuration),
	}

	if sm.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
		defer cancel()
		err := sm.repo.Save(ctx, StoredSession{
			ID:        session.ID,
			Subject:   session.Subject,
			CreatedAt: session.CreatedAt,
			ExpiresAt: session.ExpiresAt,
		})
		if err != nil {
			return nil, err
		}
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = session
	sm.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by ID, falling back to the repository
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	session, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()

	if ok {
		if time.Now().After(session.ExpiresAt) {
			sm.DeleteSession(sessionID)
			return nil
		}
		return session
	}

	if sm.repo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
	defer cancel()
	stored, err := sm.repo.Get(ctx, sessionID)
	if err != nil {
		slog.Warn("failed to load session", "error", err)
		return nil
	}
	if stored == nil || time.Now().After(stored.ExpiresAt) {
		return nil
	}

	session = &Session{
		ID:        stored.ID,
		Subject:   stored.Subject,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}
	sm.mu.Lock()
	sm.sessions[sessionID] = session
	sm.mu.Unlock()

	return session
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if sm.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), repoTimeout)
		defer cancel()
		if err := sm.repo.Delete(ctx, sessionID); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	// Sign the session ID
	signature := sm.signData(session.ID)
	cookieValue := session.ID + "." + signature

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    cookieValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secureCookie,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a signed cookie or a
// bearer session id
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	// Try cookie first
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if sessionID, signature, ok := strings.Cut(cookie.Value, "."); ok {
			if sm.verifySignature(sessionID, signature) {
				if session := sm.GetSession(sessionID); session != nil {
					return session
				}
			}
		}
	}

	// Try Authorization header
	authHeader := r.Header.Get("Authorization")
	if sessionID, ok := strings.CutPrefix(authHeader, "Bearer "); ok && sessionID != "" {
		if session := sm.GetSession(sessionID); session != nil {
			return session
		}
	}

	return nil
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// SessionData is a helper struct for JSON responses
type SessionData struct {
	SessionID string `json:"session_id"`
	Subject   string `json:"subject"`
	ExpiresAt string `json:"expires_at"`
}

// ToJSON returns the session data for JSON response
func (s *Session) ToJSON() SessionData {
	return SessionData{
		SessionID: s.ID,
		Subject:   s.Subject,
		ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
	}
}

// MarshalJSON implements json.Marshaler
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ToJSON())
}
