package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/guidecode/internal/kv"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GUIDECODE_BACKEND", "GUIDECODE_DB", "GUIDECODE_POSTGRES_DSN", "GUIDECODE_REDIS_ADDR",
		"GUIDECODE_REDIS_PASSWORD", "GUIDECODE_REDIS_DB", "GUIDECODE_MENTOR", "GUIDECODE_API_KEY",
		"GEMINI_API_KEY", "API_KEY", "GUIDECODE_MODEL", "GUIDECODE_AUTH_LATENCY", "GUIDECODE_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, kv.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, ProviderMock, cfg.MentorProvider())
	d, err := cfg.AuthLatency()
	require.NoError(t, err)
	assert.Equal(t, 800*time.Millisecond, d)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: redis
  redis:
    addr: cache:6379
    db: 2
mentor:
  model: gemini-2.5-flash
auth:
  latency: 0s
`), 0o600))

	t.Setenv("GEMINI_API_KEY", "k-123")
	t.Setenv("GUIDECODE_REDIS_DB", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, kv.BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 5, cfg.Storage.Redis.DB)
	assert.Equal(t, "guidecode:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, "gemini-2.5-flash", cfg.Mentor.Model)
	assert.Equal(t, "k-123", cfg.Mentor.APIKey)
	assert.Equal(t, ProviderGemini, cfg.MentorProvider())
	require.NoError(t, cfg.Validate())

	opts := cfg.KVOptions()
	assert.Equal(t, kv.BackendRedis, opts.Backend)
	assert.Equal(t, 5, opts.RedisDB)
}

func TestEnvOverrides_APIKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "generic")
	t.Setenv("GEMINI_API_KEY", "gemini")

	cfg := Default()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "gemini", cfg.Mentor.APIKey)

	t.Setenv("GUIDECODE_API_KEY", "own")
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "own", cfg.Mentor.APIKey)
}

func TestEnvOverrides_BadRedisDB(t *testing.T) {
	clearEnv(t)
	t.Setenv("GUIDECODE_REDIS_DB", "two")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [oops"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Storage.Backend = "floppy" }},
		{"provider", func(c *Config) { c.Mentor.Provider = "oracle" }},
		{"gemini without key", func(c *Config) { c.Mentor.Provider = ProviderGemini }},
		{"latency", func(c *Config) { c.Auth.Latency = "soon" }},
		{"negative timeout", func(c *Config) { c.Mentor.Timeout = "-1s" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Storage.Backend = kv.BackendMemory
	cfg.Logging.Dev = true
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
