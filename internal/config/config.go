// Package config loads settings for the akinator command.
//
// Values are resolved as environment > YAML file > defaults and validated as
// a whole once loaded.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/eolso/akinator"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Language   string        `yaml:"language"`
	Theme      string        `yaml:"theme"`
	BaseURL    string        `yaml:"base_url"` // overrides https://<language>.akinator.com
	ChildMode  bool          `yaml:"child_mode"`
	Timeout    time.Duration `yaml:"timeout"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	RateLimit  float64       `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst  int           `yaml:"rate_burst"`
	Store      StoreConfig   `yaml:"store"`
	Log        LogConfig     `yaml:"log"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory, file, redis or badger
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Language:   string(akinator.English),
		Theme:      akinator.ThemeCharacters.String(),
		Timeout:    2 * time.Minute,
		SessionTTL: 10 * time.Minute,
		RateBurst:  1,
		Store: StoreConfig{
			Backend: "memory",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads path (optional) and the environment on top of Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for values the client would reject.
func (c Config) Validate() error {
	var errs []error

	if _, err := akinator.ParseLanguage(c.Language); err != nil {
		errs = append(errs, err)
	}
	if _, err := akinator.ParseTheme(c.Theme); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("session_ttl must be positive, got %s", c.SessionTTL))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_burst must be at least 1 when rate_limit is set"))
	}

	switch strings.ToLower(c.Store.Backend) {
	case "memory":
	case "file", "badger":
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the %s backend", c.Store.Backend))
		}
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store.redis.addr is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
