// Package config loads guidecode settings from defaults, an optional YAML
// file and GUIDECODE_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/and161185/guidecode/internal/kv"
)

// Config holds all guidecode configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Mentor  MentorConfig  `yaml:"mentor"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig selects where the profile is kept.
type StorageConfig struct {
	Backend     kv.Backend  `yaml:"backend"` // memory, sqlite, postgres, redis
	Path        string      `yaml:"path"`    // sqlite file
	PostgresDSN string      `yaml:"postgres_dsn"`
	Redis       RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// MentorConfig configures the generation service.
type MentorConfig struct {
	Provider string `yaml:"provider"` // gemini, mock; empty picks gemini when a key is set
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// AuthConfig tunes the local identity provider.
type AuthConfig struct {
	Latency string `yaml:"latency"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

// Mentor providers.
const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// Dir is the per-user configuration directory.
func Dir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "guidecode")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "guidecode")
}

// DefaultPath is the config file read when no --config flag is given.
func DefaultPath() string { return filepath.Join(Dir(), "config.yaml") }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: kv.BackendSQLite,
			Path:    filepath.Join(Dir(), "profile.db"),
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "guidecode:"},
		},
		Mentor: MentorConfig{
			Model:   "gemini-3-pro-preview",
			Timeout: "2m",
		},
		Auth:    AuthConfig{Latency: "800ms"},
		Logging: LoggingConfig{Level: "warn"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	if v := os.Getenv("GUIDECODE_BACKEND"); v != "" {
		c.Storage.Backend = kv.Backend(v)
	}
	set(&c.Storage.Path, "GUIDECODE_DB")
	set(&c.Storage.PostgresDSN, "GUIDECODE_POSTGRES_DSN")
	set(&c.Storage.Redis.Addr, "GUIDECODE_REDIS_ADDR")
	set(&c.Storage.Redis.Password, "GUIDECODE_REDIS_PASSWORD")
	set(&c.Mentor.Provider, "GUIDECODE_MENTOR")
	set(&c.Mentor.APIKey, "GUIDECODE_API_KEY", "GEMINI_API_KEY", "API_KEY")
	set(&c.Mentor.Model, "GUIDECODE_MODEL")
	set(&c.Auth.Latency, "GUIDECODE_AUTH_LATENCY")
	set(&c.Logging.Level, "GUIDECODE_LOG_LEVEL")

	if v := os.Getenv("GUIDECODE_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GUIDECODE_REDIS_DB: %w", err)
		}
		c.Storage.Redis.DB = n
	}
	return nil
}

var validBackends = []kv.Backend{kv.BackendMemory, kv.BackendSQLite, kv.BackendPostgres, kv.BackendRedis}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if !slices.Contains(validBackends, c.Storage.Backend) {
		return fmt.Errorf("invalid storage backend: %s (valid: %v)", c.Storage.Backend, validBackends)
	}
	switch c.Mentor.Provider {
	case "", ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("invalid mentor provider: %s (valid: %s, %s)", c.Mentor.Provider, ProviderGemini, ProviderMock)
	}
	if c.MentorProvider() == ProviderGemini && c.Mentor.APIKey == "" {
		return fmt.Errorf("gemini API key not configured (set GEMINI_API_KEY or mentor.api_key)")
	}
	if _, err := c.AuthLatency(); err != nil {
		return err
	}
	if _, err := c.MentorTimeout(); err != nil {
		return err
	}
	return nil
}

// MentorProvider resolves the provider, falling back to the offline mentor
// when no key is configured.
func (c *Config) MentorProvider() string {
	if c.Mentor.Provider != "" {
		return c.Mentor.Provider
	}
	if c.Mentor.APIKey != "" {
		return ProviderGemini
	}
	return ProviderMock
}

// AuthLatency parses the artificial sign-in delay.
func (c *Config) AuthLatency() (time.Duration, error) {
	return parseDuration("auth.latency", c.Auth.Latency)
}

// MentorTimeout parses the per-request generation timeout. Zero means none.
func (c *Config) MentorTimeout() (time.Duration, error) {
	return parseDuration("mentor.timeout", c.Mentor.Timeout)
}

func parseDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: negative", name)
	}
	return d, nil
}

// KVOptions maps the storage section to kv.Open options.
func (c *Config) KVOptions() kv.Options {
	return kv.Options{
		Backend:       c.Storage.Backend,
		SQLitePath:    c.Storage.Path,
		PostgresDSN:   c.Storage.PostgresDSN,
		RedisAddr:     c.Storage.Redis.Addr,
		RedisPassword: c.Storage.Redis.Password,
		RedisDB:       c.Storage.Redis.DB,
		RedisPrefix:   c.Storage.Redis.Prefix,
	}
}
