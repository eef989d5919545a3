package httpapi

import "context"

type contextKey string

const ownerContextKey contextKey = "owner_id"

func withOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerContextKey, ownerID)
}

func ownerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerContextKey).(string)
	return ownerID, ok && ownerID != ""
}
