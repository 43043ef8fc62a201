package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-room-server/auth"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/token"
	"github.com/jrsteele09/go-room-server/users"
	fakeuserrepo "github.com/jrsteele09/go-room-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "jane.doe@example.com"
	testPassword = "Password123"
	testName     = "Jane"
)

type testFixture struct {
	ctx      context.Context
	userRepo users.UserRepo
	tokens   *token.Manager
	service  *auth.Service
	deny     *token.InMemoryRevokedTokenCache
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		ctx:      context.Background(),
		userRepo: fakeuserrepo.NewFakeUserRepo(),
		deny:     token.NewInMemoryRevokedTokenCache(),
	}

	tokens, err := token.NewManager("session-secret", "room-secret", token.WithRevokedTokenCache(f.deny))
	require.NoError(t, err)
	f.tokens = tokens

	service, err := auth.NewService(f.userRepo, tokens)
	require.NoError(t, err)
	f.service = service
	return f
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)

	res, err := f.service.Register(f.ctx, "  Jane.Doe@Example.com ", testPassword, testName)
	require.NoError(t, err)
	require.Equal(t, testEmail, res.User.Email)
	require.Equal(t, testName, res.User.Name)
	require.NotEmpty(t, res.User.ID)
	require.NotEmpty(t, res.Credential.Token)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), res.Credential.ExpiresAt, time.Minute)

	claims, err := f.tokens.VerifySession(f.ctx, res.Credential.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)
	require.Equal(t, testEmail, claims.Email)
	require.Equal(t, testName, claims.Name)

	stored, err := f.userRepo.GetByEmail(f.ctx, testEmail)
	require.NoError(t, err)
	require.NotEqual(t, testPassword, stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Register(f.ctx, testEmail, testPassword, testName)
	require.NoError(t, err)

	_, err = f.service.Register(f.ctx, "JANE.DOE@example.com", testPassword, "Other")
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestRegister_DisplayNameCannotDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.service.Register(f.ctx, testEmail, testPassword, testName)
	require.NoError(t, err)

	_, err = f.service.Register(f.ctx, "Mallory <"+testEmail+">", testPassword, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidRequest)

	_, err = f.userRepo.GetByEmail(f.ctx, "mallory <"+testEmail+">")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRegister_Validation(t *testing.T) {
	f := setupTestFixture(t)
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"bad email", "not-an-email", testPassword},
		{"display name", "Mallory <mallory@example.com>", testPassword},
		{"angle brackets", "<mallory@example.com>", testPassword},
		{"weak password", testEmail, "password"},
		{"too long", testEmail, "Aa1" + string(make([]byte, 80))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(f.ctx, tt.email, tt.password, testName)
			require.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		})
	}
}

func TestRegister_DefaultName(t *testing.T) {
	f := setupTestFixture(t)
	res, err := f.service.Register(f.ctx, testEmail, testPassword, "  ")
	require.NoError(t, err)
	require.Equal(t, "jane.doe", res.User.Name)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	registered, err := f.service.Register(f.ctx, testEmail, testPassword, testName)
	require.NoError(t, err)

	res, err := f.service.Login(f.ctx, "Jane.Doe@example.com", testPassword)
	require.NoError(t, err)
	require.Equal(t, registered.User, res.User)

	_, err = f.service.Login(f.ctx, testEmail, "Wrong123")
	require.ErrorIs(t, err, apperrors.ErrInvalidLogin)

	_, err = f.service.Login(f.ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, apperrors.ErrInvalidLogin)
}

func TestRefreshAndProfile(t *testing.T) {
	f := setupTestFixture(t)
	registered, err := f.service.Register(f.ctx, testEmail, testPassword, testName)
	require.NoError(t, err)
	claims, err := f.tokens.VerifySession(f.ctx, registered.Credential.Token)
	require.NoError(t, err)

	refreshed, err := f.service.Refresh(f.ctx, claims)
	require.NoError(t, err)
	require.NotEqual(t, registered.Credential.JTI, refreshed.Credential.JTI)

	profile, err := f.service.Profile(f.ctx, claims)
	require.NoError(t, err)
	require.Equal(t, registered.User, *profile)

	_, err = f.service.Profile(f.ctx, &token.SessionClaims{UserID: "gone"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLogout_RevokesWhenEnabled(t *testing.T) {
	f := setupTestFixture(t)
	res, err := f.service.Register(f.ctx, testEmail, testPassword, testName)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(f.ctx, res.Credential.Token))
	_, err = f.tokens.VerifySession(f.ctx, res.Credential.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)

	require.NoError(t, f.service.Logout(f.ctx, "garbage"))
	require.NoError(t, f.service.Logout(f.ctx, ""))
}
