// Package session maps chat identities to backend credentials. A session
// exists exactly between a successful login and an explicit logout; there is
// no TTL, a 401 from the backend forces removal instead.
package session

import (
	"errors"
	"sync"

	"github.com/ledgerbot/ledgerbot-go/internal/api"
	"github.com/ledgerbot/ledgerbot-go/internal/model"
)

var ErrNoSession = errors.New("no active session")

// Session binds one chat identity to a backend token, the user profile it
// was issued for, and an API client pre-loaded with the token.
type Session struct {
	Token  string
	User   model.User
	Client *api.Client
}

// Store holds all sessions of the process. Safe for concurrent use across
// identities; same-identity event ordering is the dispatcher's job.
type Store struct {
	baseURL  string
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewStore(baseURL string) *Store {
	return &Store{
		baseURL:  baseURL,
		sessions: make(map[int64]*Session),
	}
}

// Create stores a session for identity, overwriting any existing one, and
// binds a fresh API client carrying the token.
func (s *Store) Create(identity int64, token string, user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[identity] = &Session{
		Token:  token,
		User:   user,
		Client: api.NewWithToken(s.baseURL, token),
	}
}

// Client returns the API client bound to identity's session.
func (s *Store) Client(identity int64) (*api.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[identity]
	if !ok {
		return nil, ErrNoSession
	}
	return sess.Client, nil
}

// Profile returns the user record captured at login.
func (s *Store) Profile(identity int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[identity]
	if !ok {
		return model.User{}, ErrNoSession
	}
	return sess.User, nil
}

func (s *Store) IsLoggedIn(identity int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[identity]
	return ok
}

// Delete removes identity's session. Idempotent; deleting an absent session
// is a no-op.
func (s *Store) Delete(identity int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, identity)
}
