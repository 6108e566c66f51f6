package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "akinator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	if diff := cmp.Diff(Defaults(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
language: fr
theme: animals
child_mode: true
timeout: 30s
session_ttl: 5m
rate_limit: 2
rate_burst: 4
store:
  backend: redis
  redis:
    addr: localhost:6379
    db: 2
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	want := Config{
		Language:   "fr",
		Theme:      "animals",
		ChildMode:  true,
		Timeout:    30 * time.Second,
		SessionTTL: 5 * time.Minute,
		RateLimit:  2,
		RateBurst:  4,
		Store: StoreConfig{
			Backend: "redis",
			Redis:   RedisConfig{Addr: "localhost:6379", DB: 2},
		},
		Log: LogConfig{Level: "debug", Format: "json"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "language: fr\nstore:\n  backend: memory\n")

	t.Setenv("AKINATOR_LANGUAGE", "de")
	t.Setenv("AKINATOR_CHILD_MODE", "true")
	t.Setenv("AKINATOR_STORE", "file")
	t.Setenv("AKINATOR_STORE_PATH", "/tmp/akinator.json")
	t.Setenv("AKINATOR_SESSION_TTL", "90s")
	t.Setenv("AKINATOR_THEME", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "de", cfg.Language)
	assert.True(t, cfg.ChildMode)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "/tmp/akinator.json", cfg.Store.Path)
	assert.Equal(t, 90*time.Second, cfg.SessionTTL)
	assert.Equal(t, "characters", cfg.Theme, "empty env keeps the lower layer")
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("AKINATOR_TIMEOUT", "soon")
	_, err := Load("")
	assert.ErrorContains(t, err, "AKINATOR_TIMEOUT")
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeConfig(t, "langauge: fr\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "langauge")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "language", mutate: func(c *Config) { c.Language = "xx" }, want: "unknown language"},
		{name: "theme", mutate: func(c *Config) { c.Theme = "plants" }, want: "unknown theme"},
		{name: "timeout", mutate: func(c *Config) { c.Timeout = 0 }, want: "timeout"},
		{name: "ttl", mutate: func(c *Config) { c.SessionTTL = -time.Second }, want: "session_ttl"},
		{name: "rate", mutate: func(c *Config) { c.RateLimit = -1 }, want: "rate_limit"},
		{name: "burst", mutate: func(c *Config) { c.RateLimit = 1; c.RateBurst = 0 }, want: "rate_burst"},
		{name: "file path", mutate: func(c *Config) { c.Store.Backend = "file" }, want: "store.path"},
		{name: "redis addr", mutate: func(c *Config) { c.Store.Backend = "redis" }, want: "store.redis.addr"},
		{name: "backend", mutate: func(c *Config) { c.Store.Backend = "bolt" }, want: "unknown store backend"},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }, want: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	assert.NoError(t, Defaults().Validate())
}
