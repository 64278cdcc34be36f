package internal

import (
	"context"
	"time"
)

type ctxKey string

const actorKey ctxKey = "actor"

// Actor identifies who performs a write, for audit attribution. UserID is
// empty when the operation runs outside a user session (seeder, workers);
// the audit trail then records null instead of a default user.
type Actor struct {
	UserID    string
	IPAddress string
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	if actor, ok := ctx.Value(actorKey).(Actor); ok {
		return actor, true
	}
	return Actor{}, false
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
