// Package store caches game session state between calls.
//
// A game is identified by an id minted when it starts. Everything needed to
// continue it (the upstream session token, signature and step index) is kept
// here under a TTL, so the id is all a caller has to hold on to.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Get when the id is unknown or expired.
var ErrNotFound = errors.New("store: session not found")

// DefaultTTL matches how long the service keeps an idle session alive.
const DefaultTTL = 10 * time.Minute

// State is the persisted progress of one game.
type State struct {
	Session             string `json:"session"`
	Signature           string `json:"signature"`
	Step                int    `json:"step"`
	Progression         string `json:"progress"`
	Question            string `json:"question,omitempty"`
	StepLastProposition string `json:"step_last_proposition,omitempty"`
	Language            string `json:"language,omitempty"`
	Theme               int    `json:"theme,omitempty"`
	ChildMode           bool   `json:"child_mode,omitempty"`
}

// Store persists State by game id.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Set(ctx context.Context, id string, state State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend for Open.
type Config struct {
	Backend         string // memory, file, redis or badger
	Path            string // file path for "file", directory for "badger"
	Redis           RedisConfig
	CleanupInterval time.Duration
}

// Open builds the backend named by cfg.Backend. An empty name means memory.
func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		interval := cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return NewMemory(interval), nil
	case "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file store: path is required")
		}
		return NewFile(cfg.Path)
	case "redis":
		return NewRedis(cfg.Redis, logger)
	case "badger":
		return NewBadger(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
