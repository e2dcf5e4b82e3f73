package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentoo/internal/repository/memory"
	"rentoo/internal/security"
)

func newAuth() (AuthService, security.TokenManager) {
	tokens := security.NewTokenManager("a-secret-that-is-at-least-32-chars!!", 30*time.Minute, time.Hour)
	return NewAuthService(memory.NewStore().Users, tokens), tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth, tokens := newAuth()

	user, err := auth.Register(ctx, " alice@example.com ", "Alice", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	res, err := auth.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)

	claims, err := tokens.ValidateToken(res.AccessToken, security.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	_, err = tokens.ValidateToken(res.RefreshToken, security.TokenTypeRefresh)
	require.NoError(t, err)

	me, err := auth.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.Name)
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()

	_, err := auth.Register(ctx, "bob@example.com", "Bob", "secret1")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "BOB@example.com", "Bobby", "secret2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Email already registered")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	auth, _ := newAuth()

	_, err := auth.Register(context.Background(), "not-an-email", "", "123")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"email", "name", "password"}, fields)
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	auth, _ := newAuth()
	_, err := auth.Register(ctx, "carol@example.com", "Carol", "secret1")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "carol@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "Incorrect email or password")

	_, err = auth.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "Incorrect email or password")
}

func TestAuthService_AuthenticateRejects(t *testing.T) {
	ctx := context.Background()
	auth, tokens := newAuth()

	_, err := auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	refresh, err := tokens.GenerateRefreshToken("u1", "x@example.com")
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, refresh)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// a valid token for a user that no longer exists
	access, err := tokens.GenerateAccessToken("ghost", "ghost@example.com")
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, access)
	assert.EqualError(t, err, "Could not validate credentials")
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	auth := NewAuthService(store.Users, security.NewTokenManager("a-secret-that-is-at-least-32-chars!!", time.Minute, time.Hour))
	users := NewUserService(store.Users)

	alice, err := auth.Register(ctx, "alice@example.com", "Alice", "secret1")
	require.NoError(t, err)
	bob, err := auth.Register(ctx, "bob@example.com", "Bob", "secret1")
	require.NoError(t, err)

	name := "Alice Cooper"
	updated, err := users.Update(ctx, alice.ID, alice.ID, UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", updated.Name)

	got, err := users.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", got.Name)

	_, err = users.Update(ctx, bob.ID, alice.ID, UserUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.EqualError(t, err, "Not enough permissions")

	blank := "  "
	_, err = users.Update(ctx, alice.ID, alice.ID, UserUpdate{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = users.Get(ctx, "missing")
	assert.EqualError(t, err, "User not found")
}

func TestCategoryService_Seed(t *testing.T) {
	ctx := context.Background()
	categories := NewCategoryService(memory.NewStore().Categories)

	created, err := categories.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCategories), created)

	created, err = categories.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, created)

	list, err := categories.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(DefaultCategories))
}
