package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	GateConfig
	AuthAPIConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

// GateConfig describes the protected path space and where the gate sends
// requests it refuses.
type GateConfig interface {
	GetProtectedPrefix() string
	GetLoginPath() string
	GetForbiddenPath() string
}

// AuthAPIConfig locates the external identity service that issues bearer tokens.
type AuthAPIConfig interface {
	GetAuthIssuer() string
	GetAuthTokenURL() string
	GetAuthClientID() string
	GetAuthClientSecret() string
	GetDefaultTokenTTL() time.Duration
}

type SessionConfig interface {
	GetExpiryThreshold() time.Duration
	GetCountdownInterval() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Gate
	AuthAPI
	Session
}

func New() Config {
	return mainConfig{}
}
