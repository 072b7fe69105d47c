// Package correlation carries the per-request correlation identifier through
// context values instead of ambient process state. The id enters at the HTTP
// boundary and is forwarded verbatim on every downstream call; a fresh
// Request-Id is generated per hop and never forwarded.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

const (
	// HeaderCorrelationID is propagated unchanged across service hops.
	HeaderCorrelationID = "X-Correlation-ID"
	// HeaderRequestID identifies a single hop and is generated fresh per request.
	HeaderRequestID = "Request-Id"
)

type ctxKey struct{}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// WithID returns a context carrying the correlation id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ID returns the correlation id carried by ctx, or "" when absent.
func ID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
