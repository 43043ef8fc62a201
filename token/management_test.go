package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestManagementTokenSource_Token(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	src, err := newManagementTokenSource("access-key", "mgmt-secret", 5*time.Minute, func() time.Time { return now })
	require.NoError(t, err)

	tok, err := src.Token()
	require.NoError(t, err)
	require.Equal(t, "Bearer", tok.TokenType)
	require.Equal(t, now.Add(5*time.Minute), tok.Expiry)

	claims := &ManagementClaims{}
	_, err = jwt.NewParser(jwt.WithTimeFunc(func() time.Time { return now })).
		ParseWithClaims(tok.AccessToken, claims, func(*jwt.Token) (any, error) { return []byte("mgmt-secret"), nil })
	require.NoError(t, err)
	require.Equal(t, "access-key", claims.AccessKey)
	require.Equal(t, managementTokenType, claims.Type)
}

func TestNewManagementTokenSource_RequiresSecret(t *testing.T) {
	_, err := NewManagementTokenSource("key", "", time.Minute)
	require.Error(t, err)
}
