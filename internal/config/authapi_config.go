package config

import "time"

type AuthAPI struct{}

var _ AuthAPIConfig = AuthAPI{}

// GetAuthIssuer is used for OIDC discovery when no token URL is configured.
func (AuthAPI) GetAuthIssuer() string {
	return GetEnv("AUTH_ISSUER", "")
}

func (AuthAPI) GetAuthTokenURL() string {
	return GetEnv("AUTH_TOKEN_URL", "http://localhost:8081/oauth2/token")
}

func (AuthAPI) GetAuthClientID() string {
	return GetEnv("AUTH_CLIENT_ID", "career-link-web")
}

func (AuthAPI) GetAuthClientSecret() string {
	return GetEnv("AUTH_CLIENT_SECRET", "")
}

func (AuthAPI) GetDefaultTokenTTL() time.Duration {
	return GetDurationEnv("DEFAULT_TOKEN_TTL", 1*time.Hour)
}
