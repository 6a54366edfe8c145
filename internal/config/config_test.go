package config_test

import (
	"testing"
	"time"

	"github.com/careerlink/session-gate/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars_GetPort(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv("PORT", "")
		require.Equal(t, ":8080", config.EnvVars{}.GetPort())
	})

	t.Run("already prefixed", func(t *testing.T) {
		t.Setenv("PORT", ":9000")
		require.Equal(t, ":9000", config.EnvVars{}.GetPort())
	})

	t.Run("bare number", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		require.Equal(t, ":9000", config.EnvVars{}.GetPort())
	})
}

func TestGate_GetProtectedPrefix(t *testing.T) {
	t.Setenv("PROTECTED_PREFIX", "/area/")
	require.Equal(t, "/area", config.Gate{}.GetProtectedPrefix())

	t.Setenv("PROTECTED_PREFIX", "/")
	require.Equal(t, "/members", config.Gate{}.GetProtectedPrefix())
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("EXPIRY_THRESHOLD", "90s")
	require.Equal(t, 90*time.Second, config.Session{}.GetExpiryThreshold())

	t.Setenv("EXPIRY_THRESHOLD", "soon")
	require.Equal(t, 2*time.Minute, config.Session{}.GetExpiryThreshold())

	t.Setenv("EXPIRY_THRESHOLD", "-5s")
	require.Equal(t, 2*time.Minute, config.Session{}.GetExpiryThreshold())
}

func TestParseAllowedOrigins(t *testing.T) {
	origins := config.ParseAllowedOrigins("https://a.example, ,https://b.example")
	require.True(t, origins.IsAllowedOrigin("https://a.example"))
	require.True(t, origins.IsAllowedOrigin("https://b.example"))
	require.False(t, origins.IsAllowedOrigin(""))
	require.Len(t, origins, 2)
}
