package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_AuthenticationEnabledByDefault(t *testing.T) {
	t.Run("default config should have authentication enabled", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		// CRITICAL: Authentication must be enabled by default for security
		assert.True(t, cfg.Security.EnableAuth, "Authentication should be enabled by default")
		assert.NotEmpty(t, cfg.Security.APIKey, "Default API key should be generated")
	})
}

func TestConfig_APIKeyGeneration(t *testing.T) {
	t.Run("should generate strong API key when none provided", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		if cfg.Security.APIKey == "" {
			t.Errorf("API key should be auto-generated when not provided")
		}

		// API key should be at least 32 characters for security
		assert.GreaterOrEqual(t, len(cfg.Security.APIKey), 32, "API key should be at least 32 characters")

		// Should contain alphanumeric characters
		for _, char := range cfg.Security.APIKey {
			assert.True(t,
				(char >= 'a' && char <= 'z') ||
					(char >= 'A' && char <= 'Z') ||
					(char >= '0' && char <= '9'),
				"API key should contain only alphanumeric characters")
		}
	})

	t.Run("should use provided API key from environment", func(t *testing.T) {
		// A key supplied through VIDEOCRAFT_SECURITY_API_KEY is loaded as is
		// and is not replaced by an auto-generated one.
		t.Setenv("VIDEOCRAFT_SECURITY_API_KEY", "custom-api-key-123")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "custom-api-key-123", cfg.Security.APIKey)
		assert.True(t, cfg.Security.EnableAuth)
	})
}

func TestConfig_SecurityDefaults(t *testing.T) {
	t.Run("security defaults should be secure", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		// Authentication should be enabled by default
		assert.True(t, cfg.Security.EnableAuth, "Authentication should be enabled by default")

		// Rate limiting should be enabled with reasonable default
		assert.Greater(t, cfg.Security.RateLimit, 0, "Rate limiting should be enabled")
		assert.LessOrEqual(t, cfg.Security.RateLimit, 1000, "Rate limit should be reasonable")
	})
}
