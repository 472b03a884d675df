package internal

import (
	"context"
	"strconv"
	"time"
)

type ctxKey string

const ContextActorKey ctxKey = "actorID"

// ActorIDFromContext returns the acting user's id injected by the transport
// layer. Authentication itself lives in an upstream service; the core only
// consumes the resolved id.
func ActorIDFromContext(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if raw, ok := ctx.Value(ContextActorKey).(string); ok {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return id
		}
	}
	return 0
}

func ContextWithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ContextActorKey, actorID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
