package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const gameIDKey ctxKey = "game_id"

// ContextWithGameID stores the game id in the context.
func ContextWithGameID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, gameIDKey, id)
}

// GameIDFromContext extracts the game id from context if present.
func GameIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(gameIDKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the supplied logger with correlation fields from ctx.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if id := GameIDFromContext(ctx); id != "" {
		return logger.With().Str(FieldGameID, id).Logger()
	}
	return logger
}
