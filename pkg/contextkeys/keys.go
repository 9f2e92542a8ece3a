// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here to prevent
// typos and make key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/nippo-hq/nippo/pkg/auth"
)

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains the authenticated auth.Identity.
	// Set by: middleware.SessionAuth (pkg/middleware/auth.go)
	// Required by: all guarded API endpoints
	IdentityKey Key = "identity"

	// RequestIDKey contains the per-request ID string (UUID).
	// Set by: middleware.RequestLogging
	// Used by: logger
	RequestIDKey Key = "request_id"
)

// WithIdentity attaches the authenticated identity to the context
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom extracts the authenticated identity from the context
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(auth.Identity)
	return identity, ok
}

// WithRequestID attaches the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFrom extracts the request ID from the context
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
