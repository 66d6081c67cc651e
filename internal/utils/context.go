package utils

import (
	"context"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

// WithUserID stores the authenticated user id in the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextUserIDKey, userID)
}

// GetUserIDFromContext extracts the authenticated user id placed in the
// context by the session middleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}
