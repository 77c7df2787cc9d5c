package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Dialogue.MaxRetries)
	assert.Equal(t, 24*time.Hour, cfg.Session.Retention)
	assert.Equal(t, "ur-PK-UzmaNeural", cfg.Speech.Voice)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoader_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxsurvey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
dialogue:
  max_retries: 5
  prompts:
    greeting: "Hello {{.Name}}"
token:
  ttl: 30m
`), 0o600))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Dialogue.MaxRetries)
	assert.Equal(t, "Hello {{.Name}}", cfg.Dialogue.Prompts["greeting"])
	assert.Equal(t, 30*time.Minute, cfg.Token.TTL)
	// Unset keys keep their defaults.
	assert.Equal(t, "http://localhost:8001", cfg.Speech.WhisperURL)
}

func TestLoader_EnvironmentOverride(t *testing.T) {
	t.Setenv("VOXSURVEY_SERVER_ADDR", ":7777")

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr)
}
