package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentoo/internal/apiclient"
	"rentoo/internal/domain"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*apiclient.LoginResponse), args.Error(1)
}

func (m *MockAuthenticator) Register(ctx context.Context, req apiclient.RegisterRequest) (*domain.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthenticator) Me(ctx context.Context) (*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type fakeNav struct {
	path    string
	visited []string
}

func (f *fakeNav) Current() string { return f.path }

func (f *fakeNav) Navigate(path string) {
	f.path = path
	f.visited = append(f.visited, path)
}

var alice = &domain.User{ID: "u1", Email: "alice@example.com", Name: "Alice"}

func TestStore_InitWithoutToken(t *testing.T) {
	auth := new(MockAuthenticator)
	s := New(NewMemoryTokenStore(), auth, &fakeNav{path: "/"})
	assert.True(t, s.Loading())

	require.NoError(t, s.Init(context.Background()))

	assert.False(t, s.Loading())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.CurrentUser())
	select {
	case <-s.Ready():
	default:
		t.Fatal("store not ready after Init")
	}
	auth.AssertNotCalled(t, "Me", mock.Anything)
}

func TestStore_InitRestoresSession(t *testing.T) {
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(Tokens{Access: "a1", Refresh: "r1"}))

	auth := new(MockAuthenticator)
	auth.On("Me", mock.Anything).Return(alice, nil)

	s := New(tokens, auth, &fakeNav{path: "/"})
	require.NoError(t, s.Init(context.Background()))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "u1", s.CurrentUser().ID)
	assert.Equal(t, "a1", s.AccessToken())
	assert.Equal(t, "r1", s.RefreshToken())
	auth.AssertExpectations(t)
}

func TestStore_InitRejectedTokenClearsBoth(t *testing.T) {
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(Tokens{Access: "stale", Refresh: "r1"}))

	auth := new(MockAuthenticator)
	auth.On("Me", mock.Anything).Return(nil, errors.New("boom"))

	s := New(tokens, auth, &fakeNav{path: "/"})
	require.NoError(t, s.Init(context.Background()))

	assert.False(t, s.IsAuthenticated())
	stored, _ := tokens.Load()
	assert.True(t, stored.Empty())
}

func TestStore_LoginPersistsBothTokens(t *testing.T) {
	tokens := NewMemoryTokenStore()
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, apiclient.LoginRequest{Email: "alice@example.com", Password: "pw"}).
		Return(&apiclient.LoginResponse{AccessToken: "a", RefreshToken: "r", TokenType: "bearer", User: alice}, nil)

	s := New(tokens, auth, &fakeNav{path: "/login"})
	var seen []*domain.User
	s.Subscribe(func(u *domain.User) { seen = append(seen, u) })

	user, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.True(t, s.IsAuthenticated())

	stored, _ := tokens.Load()
	assert.Equal(t, Tokens{Access: "a", Refresh: "r"}, stored)
	require.Len(t, seen, 1)
	assert.Equal(t, "u1", seen[0].ID)
}

func TestStore_LoginFailureStaysLoggedOut(t *testing.T) {
	tokens := NewMemoryTokenStore()
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, mock.Anything).
		Return(nil, &apiclient.APIError{StatusCode: http.StatusUnauthorized, Detail: "Incorrect email or password"})

	nav := &fakeNav{path: "/login"}
	s := New(tokens, auth, nav)
	_, err := s.Login(context.Background(), "alice@example.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", apiclient.UserMessage(err))
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, nav.visited)
	stored, _ := tokens.Load()
	assert.True(t, stored.Empty())
}

func TestStore_RegisterThenLogin(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, apiclient.RegisterRequest{Email: "alice@example.com", Name: "Alice", Password: "pw"}).
		Return(alice, nil)
	auth.On("Login", mock.Anything, apiclient.LoginRequest{Email: "alice@example.com", Password: "pw"}).
		Return(&apiclient.LoginResponse{AccessToken: "a", RefreshToken: "r", User: alice}, nil)

	s := New(NewMemoryTokenStore(), auth, nil)
	_, err := s.Register(context.Background(), "alice@example.com", "Alice", "pw")
	require.NoError(t, err)
	assert.True(t, s.IsAuthenticated())
	auth.AssertExpectations(t)
}

func TestStore_RegisterFailureSkipsLogin(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Register", mock.Anything, mock.Anything).
		Return(nil, &apiclient.APIError{StatusCode: http.StatusBadRequest, Detail: "Email already registered"})

	s := New(NewMemoryTokenStore(), auth, nil)
	_, err := s.Register(context.Background(), "alice@example.com", "Alice", "pw")
	require.Error(t, err)
	auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestStore_Logout(t *testing.T) {
	tokens := NewMemoryTokenStore()
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&apiclient.LoginResponse{AccessToken: "a", RefreshToken: "r", User: alice}, nil)

	s := New(tokens, auth, nil)
	_, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	last := alice
	unsubscribe := s.Subscribe(func(u *domain.User) { last = u })
	defer unsubscribe()

	require.NoError(t, s.Logout())
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, last)
	stored, _ := tokens.Load()
	assert.True(t, stored.Empty())
}

func TestStore_HandleUnauthorized(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		wantPath string
	}{
		{"protected page redirects", "/rentals", "/login"},
		{"home redirects", "/", "/login"},
		{"login page stays", "/login", "/login"},
		{"register page stays", "/register", "/register"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := NewMemoryTokenStore()
			require.NoError(t, tokens.Save(Tokens{Access: "a", Refresh: "r"}))
			nav := &fakeNav{path: tt.current}
			s := New(tokens, new(MockAuthenticator), nav)

			s.HandleUnauthorized("/api/rentals")

			assert.Equal(t, tt.wantPath, nav.Current())
			stored, _ := tokens.Load()
			assert.True(t, stored.Empty())
			assert.Empty(t, s.AccessToken())
		})
	}
}

func TestStore_HandleUnauthorized_FailedLoginClearsWithoutNavigating(t *testing.T) {
	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(Tokens{Access: "a", Refresh: "r"}))
	nav := &fakeNav{path: "/items/42"}
	s := New(tokens, new(MockAuthenticator), nav)

	s.HandleUnauthorized(apiclient.LoginPath)

	assert.Equal(t, "/items/42", nav.Current())
	stored, err := tokens.Load()
	require.NoError(t, err)
	assert.True(t, stored.Empty())
	assert.Empty(t, s.AccessToken())
	assert.False(t, s.IsAuthenticated())
}

func TestStore_SubscribeUnsubscribe(t *testing.T) {
	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&apiclient.LoginResponse{AccessToken: "a", RefreshToken: "r", User: alice}, nil)

	s := New(NewMemoryTokenStore(), auth, nil)
	calls := 0
	unsubscribe := s.Subscribe(func(*domain.User) { calls++ })
	unsubscribe()

	_, err := s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestStore_TokenExpiry(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	auth := new(MockAuthenticator)
	auth.On("Login", mock.Anything, mock.Anything).
		Return(&apiclient.LoginResponse{AccessToken: signed, RefreshToken: "r", User: alice}, nil)

	s := New(NewMemoryTokenStore(), auth, nil)
	_, ok := s.TokenExpiry()
	assert.False(t, ok)

	_, err = s.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	got, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.True(t, exp.Equal(got))
}

// The store is the pipeline's token source and 401 handler.
func TestStore_WiredIntoPipeline(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Could not validate credentials"}`)
	}))
	defer srv.Close()

	client, err := apiclient.New(srv.URL)
	require.NoError(t, err)

	tokens := NewMemoryTokenStore()
	require.NoError(t, tokens.Save(Tokens{Access: "expired", Refresh: "r"}))
	nav := &fakeNav{path: "/profile"}
	s := New(tokens, client.Auth, nav)
	client.Pipeline.Bind(s, s)

	require.NoError(t, s.Init(context.Background()))

	assert.Equal(t, "Bearer expired", gotAuth)
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, "/login", nav.Current())
	stored, _ := tokens.Load()
	assert.True(t, stored.Empty())
}

func TestBoltTokenStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	store, err := OpenBoltTokenStore(path)
	require.NoError(t, err)
	empty, err := store.Load()
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	require.NoError(t, store.Save(Tokens{Access: "a", Refresh: "r"}))
	require.NoError(t, store.Close())

	reopened, err := OpenBoltTokenStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, Tokens{Access: "a", Refresh: "r"}, got)

	require.NoError(t, reopened.Clear())
	got, err = reopened.Load()
	require.NoError(t, err)
	assert.True(t, got.Empty())
}
