package token_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/jrsteele09/go-room-server/token"
	"github.com/stretchr/testify/require"
)

const (
	sessionSecret = "session-secret-1234"
	roomSecret    = "room-secret-5678"
	ownerID       = "owner-1"
	guestID       = "guest-1"
	testRoomID    = "a1b2c3d4e5f6a1b2c3d4e5f6"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newManager(t *testing.T, opts ...token.ManagerOption) (*token.Manager, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]token.ManagerOption{token.WithNowFunc(c.Now), token.WithIssuer("test")}, opts...)
	m, err := token.NewManager(sessionSecret, roomSecret, opts...)
	require.NoError(t, err)
	return m, c
}

func TestNewManager_MissingSecret(t *testing.T) {
	_, err := token.NewManager("", roomSecret)
	require.ErrorIs(t, err, apperrors.ErrConfiguration)

	_, err = token.NewManager(sessionSecret, "")
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
}

func TestSession_RoundTrip(t *testing.T) {
	m, c := newManager(t)
	subjects := []token.Subject{
		{ID: "u-1", Email: "jane@example.com", Name: "Jane"},
		{ID: "u-2", Email: "bob@example.com", Name: ""},
		{ID: "ü-3", Email: "x@y.z", Name: "Zoë"},
	}

	for _, s := range subjects {
		cred, err := m.IssueSession(s)
		require.NoError(t, err)
		require.Equal(t, c.now.Add(24*time.Hour), cred.ExpiresAt)

		claims, err := m.VerifySession(context.Background(), cred.Token)
		require.NoError(t, err)
		require.Equal(t, s.ID, claims.UserID)
		require.Equal(t, s.Email, claims.Email)
		require.Equal(t, s.Name, claims.Name)
		require.Equal(t, s.ID, claims.Subject)
		require.LessOrEqual(t, claims.ExpiresAt.Sub(claims.IssuedAt.Time), 24*time.Hour)
	}
}

func TestSession_ExpiryClampedTo24h(t *testing.T) {
	m, c := newManager(t, token.WithSessionExpiry(7*24*time.Hour))
	cred, err := m.IssueSession(token.Subject{ID: "u-1"})
	require.NoError(t, err)
	require.Equal(t, c.now.Add(24*time.Hour), cred.ExpiresAt)
}

func TestVerifySession_Expired(t *testing.T) {
	m, c := newManager(t)
	cred, err := m.IssueSession(token.Subject{ID: "u-1"})
	require.NoError(t, err)

	c.now = c.now.Add(24*time.Hour + time.Second)
	_, err = m.VerifySession(context.Background(), cred.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestVerifySession_Malformed(t *testing.T) {
	m, _ := newManager(t)
	inputs := []string{"", "garbage", "a.b.c", strings.Repeat("x", 4096), "eyJhbGciOiJub25lIn0.e30."}
	for _, in := range inputs {
		require.NotPanics(t, func() {
			_, err := m.VerifySession(context.Background(), in)
			require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
		})
	}
}

func TestVerifySession_WrongSecret(t *testing.T) {
	m, _ := newManager(t)
	other, err := token.NewManager("another-secret", roomSecret)
	require.NoError(t, err)

	cred, err := other.IssueSession(token.Subject{ID: "u-1"})
	require.NoError(t, err)

	_, err = m.VerifySession(context.Background(), cred.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestVerifySession_RejectsRoomAccessToken(t *testing.T) {
	m, _ := newManager(t)
	cred, err := m.IssueRoomAccess(ownerID, token.RoomScope{RoomID: testRoomID, OwnerID: ownerID}, token.RoleHost)
	require.NoError(t, err)

	_, err = m.VerifySession(context.Background(), cred.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestVerifySession_RejectsAlgNone(t *testing.T) {
	m, c := newManager(t)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, token.SessionClaims{
		UserID: "u-1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(c.now),
			ExpiresAt: jwt.NewNumericDate(c.now.Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.VerifySession(context.Background(), raw)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestRevoke_DenyList(t *testing.T) {
	cache := token.NewInMemoryRevokedTokenCache()
	m, _ := newManager(t, token.WithRevokedTokenCache(cache))
	require.True(t, m.RevocationEnabled())

	cred, err := m.IssueSession(token.Subject{ID: "u-1"})
	require.NoError(t, err)
	require.NoError(t, m.Revoke(context.Background(), cred.Token))
	require.Equal(t, 1, cache.Len())

	_, err = m.VerifySession(context.Background(), cred.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestRevoke_NoDenyListIsNoop(t *testing.T) {
	m, _ := newManager(t)
	require.False(t, m.RevocationEnabled())

	cred, err := m.IssueSession(token.Subject{ID: "u-1"})
	require.NoError(t, err)
	require.NoError(t, m.Revoke(context.Background(), cred.Token))

	_, err = m.VerifySession(context.Background(), cred.Token)
	require.NoError(t, err)
}

func TestIssueRoomAccess_RoleDerivation(t *testing.T) {
	m, _ := newManager(t)
	room := token.RoomScope{RoomID: testRoomID, OwnerID: ownerID}

	tests := []struct {
		name      string
		identity  string
		requested token.Role
		want      token.Role
	}{
		{"owner asks host", ownerID, token.RoleHost, token.RoleHost},
		{"owner asks guest", ownerID, token.RoleGuest, token.RoleHost},
		{"owner asks unknown", ownerID, token.Role("admin"), token.RoleHost},
		{"guest asks host", guestID, token.RoleHost, token.RoleGuest},
		{"guest asks guest", guestID, token.RoleGuest, token.RoleGuest},
		{"guest asks empty", guestID, "", token.RoleGuest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := m.IssueRoomAccess(tt.identity, room, tt.requested)
			require.NoError(t, err)
			require.Equal(t, tt.want, cred.Role)

			claims, err := m.VerifyRoomAccess(cred.Token)
			require.NoError(t, err)
			require.Equal(t, tt.want, claims.Role)
			require.Equal(t, testRoomID, claims.RoomID)
			require.Equal(t, tt.identity, claims.UserID)
			require.LessOrEqual(t, claims.ExpiresAt.Sub(claims.IssuedAt.Time), 24*time.Hour)
		})
	}
}

func TestIssueRoomAccess_UniqueNonce(t *testing.T) {
	m, _ := newManager(t)
	room := token.RoomScope{RoomID: testRoomID, OwnerID: ownerID}

	first, err := m.IssueRoomAccess(guestID, room, token.RoleGuest)
	require.NoError(t, err)
	second, err := m.IssueRoomAccess(guestID, room, token.RoleGuest)
	require.NoError(t, err)

	require.NotEqual(t, first.JTI, second.JTI)
	require.NotEqual(t, first.Token, second.Token)
}

func TestIssueRoomAccess_EmptyOwnerNeverElevates(t *testing.T) {
	require.Equal(t, token.RoleGuest, token.DeriveRole("", token.RoomScope{RoomID: testRoomID}, token.RoleHost))
}

func TestVerifyRoomAccess_RejectsSessionToken(t *testing.T) {
	m, _ := newManager(t)
	cred, err := m.IssueSession(token.Subject{ID: "u-1"})
	require.NoError(t, err)

	_, err = m.VerifyRoomAccess(cred.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidCredential)
}

func TestParseRole(t *testing.T) {
	require.Equal(t, token.RoleHost, token.ParseRole("host"))
	require.Equal(t, token.RoleGuest, token.ParseRole("guest"))
	require.Equal(t, token.RoleGuest, token.ParseRole("root"))
}
