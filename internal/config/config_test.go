package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithMemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 15*time.Minute, cfg.State.TTL)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("STORAGE_DSN", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
  log_level: warn
storage:
  driver: memory
providers:
  youtube:
    client_id: file-id
    client_secret: file-secret
    redirect_uri: https://svc.example/auth/youtube/callback
`), 0o600))

	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "env-secret")
	t.Setenv("STATE_TTL", "5m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "file-id", cfg.Providers.YouTube.ClientID)
	assert.Equal(t, "env-secret", cfg.Providers.YouTube.ClientSecret)
	assert.Equal(t, 5*time.Minute, cfg.State.TTL)
	assert.True(t, cfg.Providers.YouTube.Configured())
	assert.False(t, cfg.Providers.X.Configured())
}
