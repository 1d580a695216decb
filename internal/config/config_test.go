package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/reelfeed")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "reelfeed", cfg.S3Bucket)
	assert.Equal(t, int64(200*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.RedisAddr)
	assert.Nil(t, cfg.CORSOrigins)
	assert.False(t, cfg.APIDocsEnabled)
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("API_DOCS_ENABLED", "true")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.APIDocsEnabled)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")

	cfg, err := Load([]string{"--port", "7070", "--redis-addr", "localhost:6379"})
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoad_RequiresDatabaseAndSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestLoad_RejectsInvalidPort(t *testing.T) {
	setRequired(t)

	_, err := Load([]string{"--port", "0"})
	assert.ErrorContains(t, err, "PORT must be between 1 and 65535")
}

func TestLoad_UnknownFlag(t *testing.T) {
	setRequired(t)

	_, err := Load([]string{"--nope"})
	assert.ErrorContains(t, err, "parse flags")
}
