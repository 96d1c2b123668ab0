package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/filex"
)

// Session is what the CLI remembers between invocations.
type Session struct {
	ServerURL        string    `json:"server_url"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Apply copies a fresh token pair into s.
func (s *Session) Apply(t *Tokens) {
	s.AccessToken = t.AccessToken
	s.RefreshToken = t.RefreshToken
	s.ExpiresAt = t.ExpiresAt
	s.RefreshExpiresAt = t.RefreshExpiresAt
	if t.UserID != "" {
		s.UserID = t.UserID
	}
	if t.Username != "" {
		s.Username = t.Username
	}
}

// SessionStore keeps a Session in a JSON file readable only by its owner.
type SessionStore struct {
	path string
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

func (s *SessionStore) Path() string { return s.path }

// Load returns ErrNotLoggedIn when no session file exists.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", s.path, err)
	}
	if sess.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}
	return &sess, nil
}

// Save writes the session atomically with mode 0600.
func (s *SessionStore) Save(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
