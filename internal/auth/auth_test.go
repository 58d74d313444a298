package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cardlink/internal/domain"
	"cardlink/internal/hub"
	"cardlink/internal/store"
)

func newTestManager() (*Manager, *store.MemoryStores) {
	logger := zap.NewNop()
	mem := store.NewMemoryStores()
	return NewManager(mem, NewMemorySessionStore(), hub.NewHub(logger), time.Hour, logger), mem
}

func TestSignUpAndSignIn(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	profile, token, err := m.SignUp(ctx, &domain.SignUpRequest{
		Email:       "  Aruzhan@Example.com ",
		Password:    "correct horse battery",
		DisplayName: "Aruzhan",
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, "aruzhan@example.com", profile.Email, "email is normalized")
	assert.Equal(t, "customer", profile.Role)
	assert.NotEqual(t, "correct horse battery", profile.Password, "password is stored hashed")

	again, token2, err := m.SignIn(ctx, &domain.SignInRequest{
		Email:    "aruzhan@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
	assert.NotEqual(t, token, token2, "each sign-in opens a fresh session")
}

func TestSignUpValidation(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	_, _, err := m.SignUp(ctx, &domain.SignUpRequest{Email: "not-an-email", Password: "long enough"})
	assert.Error(t, err)

	_, _, err = m.SignUp(ctx, &domain.SignUpRequest{Email: "a@b.c", Password: "short"})
	assert.Error(t, err)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	_, _, err := m.SignUp(ctx, &domain.SignUpRequest{Email: "a@b.c", Password: "long enough"})
	require.NoError(t, err)

	_, _, err = m.SignUp(ctx, &domain.SignUpRequest{Email: "A@B.C", Password: "long enough"})
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestSignInWrongPassword(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	_, _, err := m.SignUp(ctx, &domain.SignUpRequest{Email: "a@b.c", Password: "long enough"})
	require.NoError(t, err)

	_, _, err = m.SignIn(ctx, &domain.SignInRequest{Email: "a@b.c", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = m.SignIn(ctx, &domain.SignInRequest{Email: "nobody@b.c", Password: "long enough"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserFromRequest(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	profile, token, err := m.SignUp(ctx, &domain.SignUpRequest{Email: "a@b.c", Password: "long enough"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	got, err := m.UserFromRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, got.ID)

	// no header
	bare := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	_, err = m.UserFromRequest(ctx, bare)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// stale token
	stale := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	stale.Header.Set("Authorization", "Bearer "+token+"x")
	_, err = m.UserFromRequest(ctx, stale)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignOutInvalidatesSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	_, token, err := m.SignUp(ctx, &domain.SignUpRequest{Email: "a@b.c", Password: "long enough"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	require.NoError(t, m.SignOut(ctx, req))

	_, err = m.UserFromRequest(ctx, req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// signing out again is a no-op
	require.NoError(t, m.SignOut(ctx, req))
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	s := NewMemorySessionStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "tok", "user-1", -time.Second))
	_, err := s.Get(ctx, "tok")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSeedDemoProfile(t *testing.T) {
	mem := store.NewMemoryStores()
	ctx := context.Background()

	profile, err := SeedDemoProfile(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, "demo@cardlink.local", profile.Email)

	m := NewManager(mem, NewMemorySessionStore(), hub.NewHub(zap.NewNop()), time.Hour, zap.NewNop())
	_, _, err = m.SignIn(ctx, &domain.SignInRequest{Email: "demo@cardlink.local", Password: "demo-mode"})
	assert.NoError(t, err)
}
