package config

import (
	"strconv"
	"time"
)

const (
	jwtSecretEnvVar       = "JWT_SECRET"
	roomSecretEnvVar      = "ROOM_TOKEN_SECRET"
	tokenIssuerEnvVar     = "TOKEN_ISSUER"
	revokeOnLogoutEnvVar  = "REVOKE_ON_LOGOUT"
	sessionCookieName     = "token"
	sessionTTL            = 24 * time.Hour
	roomAccessTTL         = 24 * time.Hour
	managementTokenExpiry = 10 * time.Minute
)

type TokenConfig interface {
	GetJWTSecret() string
	GetRoomTokenSecret() string
	GetTokenIssuer() string
	GetSessionExpiry() time.Duration
	GetRoomAccessExpiry() time.Duration
	GetManagementTokenExpiry() time.Duration
	GetSessionCookieName() string
	GetRevokeOnLogout() bool
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

func (Tokens) GetJWTSecret() string {
	return GetEnv(jwtSecretEnvVar, "")
}

// GetRoomTokenSecret is the app secret shared with the media provider. It
// falls back to the provider management secret when not set explicitly.
func (Tokens) GetRoomTokenSecret() string {
	return GetEnv(roomSecretEnvVar, GetEnv(providerSecretEnvVar, ""))
}

func (Tokens) GetTokenIssuer() string {
	return GetEnv(tokenIssuerEnvVar, "go-room-server")
}

func (Tokens) GetSessionExpiry() time.Duration {
	return sessionTTL
}

func (Tokens) GetRoomAccessExpiry() time.Duration {
	return roomAccessTTL
}

func (Tokens) GetManagementTokenExpiry() time.Duration {
	return managementTokenExpiry
}

func (Tokens) GetSessionCookieName() string {
	return sessionCookieName
}

func (Tokens) GetRevokeOnLogout() bool {
	v, err := strconv.ParseBool(GetEnv(revokeOnLogoutEnvVar, "false"))
	return err == nil && v
}
