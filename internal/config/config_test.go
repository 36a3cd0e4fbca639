package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000*time.Millisecond, cfg.IdleDuration)
	assert.True(t, cfg.PersistFlushes)
	assert.Equal(t, 100, cfg.RevisionsKept)
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IDLE_DURATION_MS", "1500")
	t.Setenv("PERSIST_FLUSHES", "false")
	t.Setenv("API_URL", "https://api.example.com")
	t.Setenv("DB_NAME", "docs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.IdleDuration)
	assert.False(t, cfg.PersistFlushes)
	assert.Equal(t, "https://api.example.com", cfg.APIURL)
	assert.Contains(t, cfg.DatabaseURL(), "dbname=docs")
}

func TestLoadRejectsNonPositiveIdleDuration(t *testing.T) {
	t.Setenv("IDLE_DURATION_MS", "-5")

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedNumbersFallBackToDefault(t *testing.T) {
	t.Setenv("IDLE_DURATION_MS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000*time.Millisecond, cfg.IdleDuration)
}
