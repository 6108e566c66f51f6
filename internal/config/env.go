package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envPrefix = "AKINATOR_"

// applyEnv overrides cfg with any AKINATOR_* variables that are set and
// non-empty.
func applyEnv(cfg *Config) error {
	var err error
	envString("LANGUAGE", &cfg.Language)
	envString("THEME", &cfg.Theme)
	envString("BASE_URL", &cfg.BaseURL)
	envString("STORE", &cfg.Store.Backend)
	envString("STORE_PATH", &cfg.Store.Path)
	envString("REDIS_ADDR", &cfg.Store.Redis.Addr)
	envString("REDIS_PASSWORD", &cfg.Store.Redis.Password)
	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)

	for _, apply := range []func() error{
		func() error { return envBool("CHILD_MODE", &cfg.ChildMode) },
		func() error { return envDuration("TIMEOUT", &cfg.Timeout) },
		func() error { return envDuration("SESSION_TTL", &cfg.SessionTTL) },
		func() error { return envFloat("RATE_LIMIT", &cfg.RateLimit) },
		func() error { return envInt("RATE_BURST", &cfg.RateBurst) },
		func() error { return envInt("REDIS_DB", &cfg.Store.Redis.DB) },
	} {
		if err = apply(); err != nil {
			return err
		}
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*dst = b
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	*dst = d
	return nil
}
