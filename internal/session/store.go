// Package session is the client's single source of truth for who is logged in.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rentoo/internal/apiclient"
	"rentoo/internal/domain"
	"rentoo/internal/logger"
)

// LoginRoute is where the unauthorized policy sends the user.
const LoginRoute = "/login"

// Authenticator is the slice of the auth API the store needs.
type Authenticator interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.LoginResponse, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*domain.User, error)
	Me(ctx context.Context) (*domain.User, error)
}

// Navigator is the client's location.
type Navigator interface {
	Current() string
	Navigate(path string)
}

// Store holds the current principal and credential pair.
type Store struct {
	tokens TokenStore
	auth   Authenticator
	nav    Navigator

	mu      sync.RWMutex
	access  string
	refresh string
	user    *domain.User
	loading bool

	ready     chan struct{}
	readyOnce sync.Once

	subMu   sync.Mutex
	subs    map[int]func(*domain.User)
	nextSub int
}

// New creates a store in the loading state; call Init before deciding
// anything based on authentication.
func New(tokens TokenStore, auth Authenticator, nav Navigator) *Store {
	return &Store{
		tokens:  tokens,
		auth:    auth,
		nav:     nav,
		loading: true,
		ready:   make(chan struct{}),
		subs:    make(map[int]func(*domain.User)),
	}
}

// Init restores a persisted session. A persisted access token is validated
// against the backend; any failure clears both tokens.
func (s *Store) Init(ctx context.Context) error {
	defer s.markReady()

	t, err := s.tokens.Load()
	if err != nil {
		s.reset()
		return fmt.Errorf("restore session: %w", err)
	}
	if t.Access == "" {
		s.reset()
		return nil
	}

	s.mu.Lock()
	s.access, s.refresh = t.Access, t.Refresh
	s.mu.Unlock()

	user, err := s.auth.Me(ctx)
	if err != nil {
		logger.Info("Persisted session rejected, logging out", "error", err)
		if clearErr := s.tokens.Clear(); clearErr != nil {
			logger.Warn("Failed to clear persisted tokens", "error", clearErr)
		}
		s.reset()
		return nil
	}

	s.set(t.Access, t.Refresh, user)
	return nil
}

// Login exchanges credentials for a token pair and persists both tokens.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	resp, err := s.auth.Login(ctx, apiclient.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, errors.New("login response missing token or user")
	}

	if err := s.tokens.Save(Tokens{Access: resp.AccessToken, Refresh: resp.RefreshToken}); err != nil {
		return nil, err
	}
	s.set(resp.AccessToken, resp.RefreshToken, resp.User)
	logger.Info("Logged in", "user_id", resp.User.ID)
	return resp.User, nil
}

// Register creates the account and then logs in with the same credentials.
func (s *Store) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	if _, err := s.auth.Register(ctx, apiclient.RegisterRequest{Email: email, Name: name, Password: password}); err != nil {
		return nil, err
	}
	return s.Login(ctx, email, password)
}

// Logout forgets the session locally. There is no server-side revocation.
func (s *Store) Logout() error {
	err := s.tokens.Clear()
	s.reset()
	return err
}

// HandleUnauthorized is the process-wide reaction to a 401: drop both tokens
// and go to the login screen unless already on a public auth page. A rejected
// login still drops the tokens but never navigates.
func (s *Store) HandleUnauthorized(endpoint string) {
	logger.Warn("Session rejected by API", "endpoint", endpoint)
	if err := s.tokens.Clear(); err != nil {
		logger.Warn("Failed to clear persisted tokens", "error", err)
	}
	s.reset()

	if s.nav == nil || endpoint == apiclient.LoginPath {
		return
	}
	switch s.nav.Current() {
	case LoginRoute, "/register":
		return
	}
	s.nav.Navigate(LoginRoute)
}

// AccessToken returns the bearer credential, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.access
}

// RefreshToken is stored alongside the access token but never exchanged.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

func (s *Store) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.access != ""
}

// Loading is true until Init has finished.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once Init has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Snapshot returns the session as a value.
func (s *Store) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := domain.Session{AccessToken: s.access, RefreshToken: s.refresh}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// TokenExpiry reads the exp claim of the access token without verifying the
// signature. For display only.
func (s *Store) TokenExpiry() (time.Time, bool) {
	token := s.AccessToken()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Subscribe registers fn to be called with the new user (nil when logged
// out) on every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(*domain.User)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// Close drops subscribers and releases the token store.
func (s *Store) Close() error {
	s.subMu.Lock()
	s.subs = make(map[int]func(*domain.User))
	s.subMu.Unlock()

	if c, ok := s.tokens.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) set(access, refresh string, user *domain.User) {
	s.mu.Lock()
	s.access, s.refresh = access, refresh
	s.user = user
	s.loading = false
	s.mu.Unlock()
	s.notify(user)
}

func (s *Store) reset() {
	s.mu.Lock()
	wasLoggedIn := s.user != nil
	s.access, s.refresh = "", ""
	s.user = nil
	s.loading = false
	s.mu.Unlock()
	if wasLoggedIn {
		s.notify(nil)
	}
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) notify(user *domain.User) {
	s.subMu.Lock()
	fns := make([]func(*domain.User), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		var u *domain.User
		if user != nil {
			copied := *user
			u = &copied
		}
		fn(u)
	}
}
