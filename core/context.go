package core

import "context"

// Context keys for session options
type contextKey string

const (
	quietLoadKey contextKey = "quietLoad"
	sessionIDKey contextKey = "sessionID"
)

// WithQuietLoad marks scenario loads in this context as quiet, so they log at debug level.
// Used by machine-readable outputs and the MCP server.
func WithQuietLoad(ctx context.Context) context.Context {
	return context.WithValue(ctx, quietLoadKey, true)
}

// shouldQuietLoad returns whether scenario loads should log quietly
func shouldQuietLoad(ctx context.Context) bool {
	val := ctx.Value(quietLoadKey)
	if val == nil {
		return false // default: log loads at info level
	}
	quiet, ok := val.(bool)
	return ok && quiet
}

// withSessionID attaches the session id to the context
func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// getSessionID returns the session id from context, if any
func getSessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}
