package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// SessionData is what a session persists.
type SessionData struct {
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
	User         *User  `yaml:"user,omitempty"`
}

// SessionStore persists session data between runs.
type SessionStore interface {
	Load() (SessionData, error)
	Save(SessionData) error
	Clear() error
}

// Session holds the tokens and the signed-in user. Reads are served from
// memory; writes update memory at once and reach the store in the
// background, in the order the memory updates happened.
type Session struct {
	mu    sync.RWMutex
	data  SessionData
	store SessionStore

	// closed once the most recent write has reached the store; guarded by mu
	lastWrite chan struct{}
}

// NewSession creates a session backed by store and loads what it holds.
// A nil store keeps the session in memory only.
func NewSession(store SessionStore) (*Session, error) {
	s := &Session{store: store}
	if store == nil {
		return s, nil
	}
	data, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	s.data = data
	return s, nil
}

// AccessToken returns the current access token, empty when signed out.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.AccessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.RefreshToken
}

// User returns a copy of the signed-in user, nil when signed out.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data.User == nil {
		return nil
	}
	u := *s.data.User
	return &u
}

// SignedIn reports whether an access token is present.
func (s *Session) SignedIn() bool {
	return s.AccessToken() != ""
}

// Set replaces the session. The returned channel yields the persistence
// result once and is then closed.
func (s *Session) Set(data SessionData) <-chan error {
	return s.update(data, func(store SessionStore) error { return store.Save(data) })
}

// Clear signs the session out.
func (s *Session) Clear() <-chan error {
	return s.update(SessionData{}, func(store SessionStore) error { return store.Clear() })
}

// update swaps the in-memory data and queues write behind the previous one
// under the same lock, so the store always ends with the latest data.
func (s *Session) update(data SessionData, write func(SessionStore) error) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	s.data = data
	if s.store == nil {
		s.mu.Unlock()
		done <- nil
		close(done)
		return done
	}
	prev := s.lastWrite
	finished := make(chan struct{})
	s.lastWrite = finished
	s.mu.Unlock()

	go func() {
		defer close(finished)
		if prev != nil {
			<-prev
		}
		done <- write(s.store)
		close(done)
	}()
	return done
}

// FileStore keeps the session as a YAML file readable only by its owner.
type FileStore struct {
	Path string
}

// Load reads the session file. A missing file is an empty session.
func (f FileStore) Load() (SessionData, error) {
	var data SessionData
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return data, err
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return SessionData{}, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	return data, nil
}

// Save writes the session file atomically.
func (f FileStore) Save(data SessionData) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

// Clear removes the session file.
func (f FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
