// Package session holds the signed-in member's credentials and tells the rest
// of the console when they change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"offertory/internal/core"
	"offertory/internal/log"
)

var (
	// ErrNoCredentials is returned by a Store that has nothing persisted.
	ErrNoCredentials    = errors.New("session: no stored credentials")
	ErrNotAuthenticated = errors.New("session: not signed in")
)

// Authenticator is the backend's auth surface.
type Authenticator interface {
	Login(ctx context.Context, phone string) (core.Credentials, error)
	VerifyToken(ctx context.Context, token string) (core.TokenStatus, error)
	CurrentUser(ctx context.Context, token string) (core.User, error)
	Logout(ctx context.Context, token string) error
}

// Store persists credentials between runs.
type Store interface {
	Load(ctx context.Context) (core.Credentials, error)
	Save(ctx context.Context, creds core.Credentials) error
	Clear(ctx context.Context) error
}

// State is handed to subscribers after every change.
type State struct {
	Authenticated bool
	User          core.User
}

type Session struct {
	auth   Authenticator
	store  Store
	logger *log.Logger

	mu    sync.RWMutex
	creds core.Credentials

	subMu  sync.Mutex
	subs   map[int]func(State)
	nextID int
}

func New(auth Authenticator, store Store, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Discard()
	}
	return &Session{
		auth:   auth,
		store:  store,
		logger: logger.WithComponent(log.ComponentSession),
		subs:   make(map[int]func(State)),
	}
}

// Restore loads persisted credentials and re-validates the token. An invalid
// or unverifiable token leaves the session signed out; only store failures
// are returned.
func (s *Session) Restore(ctx context.Context) error {
	creds, err := s.store.Load(ctx)
	if errors.Is(err, ErrNoCredentials) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}
	if creds.Token == "" {
		return s.clear(ctx)
	}

	status, err := s.auth.VerifyToken(ctx, creds.Token)
	if err != nil {
		s.logger.WarnContext(ctx, "Token verification failed", log.FieldError, err, log.FieldOperation, log.OpRestore)
		return s.clear(ctx)
	}
	if !status.Valid {
		s.logger.InfoContext(ctx, "Stored token no longer valid", log.FieldOperation, log.OpRestore)
		return s.clear(ctx)
	}

	creds.User = status.User
	if err := s.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	s.set(creds)
	s.logger.InfoContext(ctx, "Session restored", log.FieldUserID, creds.User.ID)
	return nil
}

// Login signs in with a member phone number.
func (s *Session) Login(ctx context.Context, phone string) (core.User, error) {
	normalized, err := core.NormalizePhone(phone)
	if err != nil {
		return core.User{}, err
	}
	creds, err := s.auth.Login(ctx, normalized)
	if err != nil {
		s.logger.ErrorContext(ctx, "Login failed", log.FieldError, err, log.FieldOperation, log.OpLogin)
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	if err := s.store.Save(ctx, creds); err != nil {
		return core.User{}, fmt.Errorf("save credentials: %w", err)
	}
	s.set(creds)
	s.logger.InfoContext(ctx, "Signed in", log.FieldUserID, creds.User.ID, "role", string(creds.User.Role))
	return creds.User, nil
}

// Logout tells the backend on a best-effort basis and always drops local state.
func (s *Session) Logout(ctx context.Context) error {
	if token := s.Token(); token != "" {
		if err := s.auth.Logout(ctx, token); err != nil {
			s.logger.WarnContext(ctx, "Remote logout failed", log.FieldError, err, log.FieldOperation, log.OpLogout)
		}
	}
	return s.clear(ctx)
}

// Refresh reloads the current user. Any failure signs the session out.
func (s *Session) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	user, err := s.auth.CurrentUser(ctx, token)
	if err != nil {
		s.logger.WarnContext(ctx, "Refresh user failed, signing out", log.FieldError, err, log.FieldOperation, log.OpRefresh)
		if cerr := s.clear(ctx); cerr != nil {
			return cerr
		}
		return fmt.Errorf("refresh user: %w", err)
	}
	creds := core.Credentials{Token: token, User: user}
	if err := s.store.Save(ctx, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	s.set(creds)
	return nil
}

// Token returns the bearer token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Token
}

func (s *Session) User() (core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.User, s.authenticated()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated()
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated() && s.creds.User.IsAdmin()
}

func (s *Session) authenticated() bool {
	return s.creds.Token != "" && s.creds.User.ID != ""
}

// Subscribe registers fn for state changes and returns a function that
// removes it. fn runs synchronously on the goroutine that changed the state.
func (s *Session) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) clear(ctx context.Context) error {
	err := s.store.Clear(ctx)
	s.set(core.Credentials{})
	if err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *Session) set(creds core.Credentials) {
	s.mu.Lock()
	s.creds = creds
	state := State{Authenticated: s.authenticated(), User: creds.User}
	s.mu.Unlock()

	s.subMu.Lock()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}
