package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-room-server/internal/config"
	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidate_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ROOM_TOKEN_SECRET", "room")

	err := config.Validate(config.New())
	require.ErrorIs(t, err, apperrors.ErrConfiguration)
	require.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_ProviderNeedsCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ROOM_TOKEN_SECRET", "room")
	t.Setenv("MEDIA_PROVIDER_URL", "https://media.example.com")
	t.Setenv("MEDIA_PROVIDER_ACCESS_KEY", "")
	t.Setenv("MEDIA_PROVIDER_SECRET", "")

	require.ErrorIs(t, config.Validate(config.New()), apperrors.ErrConfiguration)
}

func TestValidate_OK(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ROOM_TOKEN_SECRET", "")
	t.Setenv("MEDIA_PROVIDER_URL", "https://media.example.com")
	t.Setenv("MEDIA_PROVIDER_ACCESS_KEY", "key")
	t.Setenv("MEDIA_PROVIDER_SECRET", "provider-secret")

	c := config.New()
	require.NoError(t, config.Validate(c))
	require.Equal(t, "provider-secret", c.GetRoomTokenSecret())
}

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	c := config.New()
	require.Equal(t, ":5000", c.GetPort())
	require.True(t, c.IsDev())
	require.Equal(t, 24*time.Hour, c.GetSessionExpiry())
	require.Equal(t, 24*time.Hour, c.GetRoomAccessExpiry())
	require.Equal(t, "token", c.GetSessionCookieName())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://b.test"))
	require.False(t, c.GetAllowedOrigins().IsAllowedOrigin("http://c.test"))
}
