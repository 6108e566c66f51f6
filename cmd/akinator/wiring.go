package main

import (
	"fmt"
	"os"

	"github.com/eolso/akinator"
	"github.com/eolso/akinator/internal/config"
	"github.com/eolso/akinator/internal/httpx"
	xlog "github.com/eolso/akinator/internal/log"
	"github.com/eolso/akinator/store"
	"golang.org/x/time/rate"
)

func configureLogging(cfg config.Config) {
	xlog.Configure(xlog.Config{
		Level:   cfg.Log.Level,
		Output:  os.Stderr,
		Console: cfg.Log.Format == "console",
		Version: version,
	})
}

// buildClient wires a Client and its session store from cfg. The caller owns
// the returned store.
func buildClient(cfg config.Config) (*akinator.Client, store.Store, error) {
	lang, err := akinator.ParseLanguage(cfg.Language)
	if err != nil {
		return nil, nil, err
	}
	theme, err := akinator.ParseTheme(cfg.Theme)
	if err != nil {
		return nil, nil, err
	}

	logger := xlog.WithComponent("store")
	st, err := store.Open(store.Config{
		Backend: cfg.Store.Backend,
		Path:    cfg.Store.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		},
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	logger.Debug().Str(xlog.FieldBackend, cfg.Store.Backend).Msg("session store ready")

	opts := []akinator.Option{
		akinator.WithLanguage(lang),
		akinator.WithTheme(theme),
		akinator.WithChildMode(cfg.ChildMode),
		akinator.WithHTTPClient(httpx.NewClient(cfg.Timeout)),
		akinator.WithStore(st),
		akinator.WithSessionTTL(cfg.SessionTTL),
		akinator.WithLogger(xlog.WithComponent("client")),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, akinator.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, akinator.WithRateLimit(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}

	c, err := akinator.New(opts...)
	if err != nil {
		_ = st.Close()
		return nil, nil, err
	}
	return c, st, nil
}
