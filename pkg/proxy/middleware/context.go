package middleware

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for storing values in request context.
const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey stores the request start time for latency calculation.
	StartTimeKey contextKey = "start_time"

	// fieldsKey stores the *requestFields carrier LoggingMiddleware reads
	// back once the rest of the chain has returned.
	fieldsKey contextKey = "request_fields"
)

// requestFields carries fields that aren't known until after
// LoggingMiddleware has already logged the request start — the model
// group a request resolves to, and the endpoint the picker ends up
// choosing. Handlers further down the chain fill it in through SetGroup
// and SetEndpoint; LoggingMiddleware reads it back for the completion
// line, since by then the context value it originally installed has
// propagated through the rest of the chain and back.
type requestFields struct {
	group    string
	endpoint string
}

// withRequestFields installs an empty carrier on ctx, returning both the
// derived context and the carrier itself so the caller can read it back
// after the downstream handler has run.
func withRequestFields(ctx context.Context) (context.Context, *requestFields) {
	f := &requestFields{}
	return context.WithValue(ctx, fieldsKey, f), f
}

// SetGroup records the resolved model group name for the in-flight
// request, for the logging middleware's completion line. A no-op if
// called outside a request that went through LoggingMiddleware.
func SetGroup(ctx context.Context, group string) {
	if f, ok := ctx.Value(fieldsKey).(*requestFields); ok {
		f.group = group
	}
}

// SetEndpoint records the endpoint the picker chose for the in-flight
// request, for the logging middleware's completion line. A no-op if
// called outside a request that went through LoggingMiddleware.
func SetEndpoint(ctx context.Context, endpoint string) {
	if f, ok := ctx.Value(fieldsKey).(*requestFields); ok {
		f.endpoint = endpoint
	}
}
