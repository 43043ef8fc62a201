package config

import (
	"fmt"

	apperrors "github.com/jrsteele09/go-room-server/internal/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	StorageConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Storage
	Provider
}

func New() Config {
	return mainConfig{}
}

// Validate checks the settings the process cannot run without. It is called
// once at startup so a misconfigured server never accepts traffic.
func Validate(c Config) error {
	if c.GetJWTSecret() == "" {
		return fmt.Errorf("%w: %s is not set", apperrors.ErrConfiguration, jwtSecretEnvVar)
	}
	if c.GetRoomTokenSecret() == "" {
		return fmt.Errorf("%w: %s is not set", apperrors.ErrConfiguration, roomSecretEnvVar)
	}
	if c.GetProviderURL() != "" {
		if c.GetProviderAccessKey() == "" || c.GetProviderSecret() == "" {
			return fmt.Errorf("%w: %s and %s are required when %s is set",
				apperrors.ErrConfiguration, providerKeyEnvVar, providerSecretEnvVar, providerURLEnvVar)
		}
	}
	return nil
}
