package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PGPASSWORD", "test-password")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "8088", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "http://localhost:8088", cfg.BaseURL)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, int32(25), cfg.Database.MaxConnections)
	assert.Equal(t, 720, cfg.Auth.TokenTTLMinutes)
	// Redis is off unless a host is configured.
	assert.Empty(t, cfg.Redis.Host)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PGPASSWORD", "test-password")
	t.Setenv("PORT", "9000")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("REDIS_HOST", "cache.internal")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
}

func TestLoadReadsConfigFile(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PGPASSWORD", "test-password")

	doc, err := yaml.Marshal(map[string]any{
		"port":     "9100",
		"env":      "staging",
		"ui_dir":   "/srv/dealdesk/ui",
		"auth":     map[string]any{"token_ttl_minutes": 60},
		"redis":    map[string]any{"host": "cache.internal"},
		"database": map[string]any{
			"host":     "db.internal",
			"database": "dealdesk",
		},
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), doc, 0o644))
	t.Chdir(dir)

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "staging", cfg.Env)
	assert.Equal(t, "/srv/dealdesk/ui", cfg.UIDir)
	assert.Equal(t, 60, cfg.Auth.TokenTTLMinutes)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("PGPASSWORD", "pw")
	_, err := Load("test")
	assert.ErrorContains(t, err, "SESSION_SECRET")

	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("PGPASSWORD", "")
	_, err = Load("test")
	assert.ErrorContains(t, err, "PGPASSWORD")
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "dealdesk",
		Password: "pw", Database: "dealdesk_engine", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://dealdesk:pw@localhost:5432/dealdesk_engine?sslmode=disable", d.URL())
}
