package config

import "strings"

type Gate struct{}

var _ GateConfig = Gate{}

// GetProtectedPrefix returns the members-area root, always without a trailing slash.
func (Gate) GetProtectedPrefix() string {
	prefix := strings.TrimRight(GetEnv("PROTECTED_PREFIX", "/members"), "/")
	if prefix == "" {
		return "/members"
	}
	return prefix
}

func (Gate) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/login")
}

func (Gate) GetForbiddenPath() string {
	return GetEnv("FORBIDDEN_PATH", "/forbidden")
}
