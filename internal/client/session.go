package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// SavedSession is the CLI's persisted login
type SavedSession struct {
	Server    string    `json:"server"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Valid reports whether the session belongs to server and has not expired.
func (s *SavedSession) Valid(server string, now time.Time) bool {
	return s != nil && s.SessionID != "" && s.Server == server &&
		(s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt))
}

// DefaultSessionPath is $XDG_CONFIG_HOME/portfolio/session.json or the
// platform equivalent.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "portfolio", "session.json"), nil
}

// LoadSession reads a saved session. A missing file yields nil without error.
func LoadSession(path string) (*SavedSession, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the CLI's own session file
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s SavedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &s, nil
}

// SaveSession writes s with owner-only permissions.
func SaveSession(path string, s SavedSession) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// RemoveSession deletes the saved session, if any.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
