package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-room-server/auth"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/token"
	"github.com/stretchr/testify/require"
)

func newGuard(t *testing.T) (*auth.Guard, *token.Manager) {
	t.Helper()
	tokens, err := token.NewManager("session-secret", "room-secret")
	require.NoError(t, err)
	return auth.NewGuard(tokens, "token"), tokens
}

func issue(t *testing.T, tokens *token.Manager, id string) string {
	t.Helper()
	cred, err := tokens.IssueSession(token.Subject{ID: id, Email: id + "@example.com", Name: id})
	require.NoError(t, err)
	return cred.Token
}

func TestGuard_HeaderPreferredOverCookie(t *testing.T) {
	guard, tokens := newGuard(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+issue(t, tokens, "header-user"))
	r.AddCookie(&http.Cookie{Name: "token", Value: issue(t, tokens, "cookie-user")})

	claims, source, err := guard.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, auth.SourceHeader, source)
	require.Equal(t, "header-user", claims.UserID)
}

func TestGuard_CookieFallback(t *testing.T) {
	guard, tokens := newGuard(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Basic abc")
	r.AddCookie(&http.Cookie{Name: "token", Value: issue(t, tokens, "cookie-user")})

	claims, source, err := guard.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, auth.SourceCookie, source)
	require.Equal(t, "cookie-user", claims.UserID)
}

func TestGuard_NoCredential(t *testing.T) {
	guard, _ := newGuard(t)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	_, source, err := guard.Authenticate(r)
	require.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
	require.Equal(t, auth.SourceNone, source)
}

func TestGuard_ExpiredCredential(t *testing.T) {
	guard, _ := newGuard(t)
	past, err := token.NewManager("session-secret", "room-secret",
		token.WithNowFunc(func() time.Time { return time.Now().Add(-48 * time.Hour) }))
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: issue(t, past, "u1")})

	_, source, err := guard.Authenticate(r)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
	require.Equal(t, auth.SourceCookie, source)
}

func TestClaimsContext(t *testing.T) {
	_, ok := auth.ClaimsFromContext(context.Background())
	require.False(t, ok)

	ctx := auth.WithClaims(context.Background(), &token.SessionClaims{UserID: "u1"})
	claims, ok := auth.ClaimsFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u1", claims.UserID)
}
