package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "https://api.deezer.com", cfg.DeezerAPIURL)
	assert.Equal(t, 10*time.Second, cfg.DeezerTimeout)
	assert.Equal(t, time.Hour, cfg.DeezerCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.DeezerGenreCacheTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DEEZER_TIMEOUT", "3s")
	t.Setenv("RADIO_WORKERS", "7")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("LOCK_BACKEND", "redis")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.DeezerTimeout)
	assert.Equal(t, 7, cfg.RadioWorkers)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, "redis", cfg.LockBackend)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("RADIO_WORKERS", "many")
	t.Setenv("LOCK_TTL", "soon")

	cfg := Load()
	assert.Equal(t, 2, cfg.RadioWorkers)
	assert.Equal(t, 10*time.Second, cfg.LockTTL)
}
