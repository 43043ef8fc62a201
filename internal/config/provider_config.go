package config

import "time"

const (
	providerURLEnvVar     = "MEDIA_PROVIDER_URL"
	providerKeyEnvVar     = "MEDIA_PROVIDER_ACCESS_KEY"
	providerSecretEnvVar  = "MEDIA_PROVIDER_SECRET"
	providerTemplateVar   = "MEDIA_PROVIDER_TEMPLATE_ID"
	providerTimeoutEnvVar = "MEDIA_PROVIDER_TIMEOUT"
)

type ProviderConfig interface {
	GetProviderURL() string
	GetProviderAccessKey() string
	GetProviderSecret() string
	GetProviderTemplateID() string
	GetProviderTimeout() time.Duration
}

type Provider struct{}

var _ ProviderConfig = Provider{}

// GetProviderURL is the media provider API base URL. When empty the server
// runs against the in-process fake provider.
func (Provider) GetProviderURL() string {
	return GetEnv(providerURLEnvVar, "")
}

func (Provider) GetProviderAccessKey() string {
	return GetEnv(providerKeyEnvVar, "")
}

func (Provider) GetProviderSecret() string {
	return GetEnv(providerSecretEnvVar, "")
}

func (Provider) GetProviderTemplateID() string {
	return GetEnv(providerTemplateVar, "")
}

func (Provider) GetProviderTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(providerTimeoutEnvVar, "10s"))
	if err != nil {
		return 10 * time.Second
	}
	return d
}
