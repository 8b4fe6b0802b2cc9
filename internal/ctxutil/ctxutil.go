package ctxutil

import (
	"context"
	"strings"

	"github.com/heartmarshall/ndep-backend/internal/domain"
)

type ctxKey string

const (
	actorKey     ctxKey = "actor"
	requestIDKey ctxKey = "request_id"
)

// WithActor stores the acting party in the context.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromCtx extracts the acting party from the context.
// Returns false if the value is missing, has a blank ID, or has the wrong type.
func ActorFromCtx(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(domain.Actor)
	if !ok || strings.TrimSpace(actor.ID) == "" {
		return domain.Actor{}, false
	}
	return actor, true
}

// ActorIDOrSystem returns the actor ID from the context, or domain.SystemParty.
func ActorIDOrSystem(ctx context.Context) string {
	if actor, ok := ActorFromCtx(ctx); ok {
		return actor.ID
	}
	return domain.SystemParty
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
