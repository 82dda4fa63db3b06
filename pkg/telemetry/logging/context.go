package logging

import "context"

// Context keys for the fields every gateway log line may carry.
type contextKey string

const (
	// RequestIDKey is the context key for the per-request correlation ID.
	RequestIDKey contextKey = "request_id"

	// GroupKey is the context key for the client-addressed group name.
	GroupKey contextKey = "group"

	// EndpointKey is the context key for the endpoint the picker chose.
	EndpointKey contextKey = "endpoint"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithGroup adds the resolved group name to the context.
func WithGroup(ctx context.Context, group string) context.Context {
	return context.WithValue(ctx, GroupKey, group)
}

// GetGroup retrieves the group name from the context.
func GetGroup(ctx context.Context) string {
	if v, ok := ctx.Value(GroupKey).(string); ok {
		return v
	}
	return ""
}

// WithEndpoint adds the chosen endpoint name to the context.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, EndpointKey, endpoint)
}

// GetEndpoint retrieves the endpoint name from the context.
func GetEndpoint(ctx context.Context) string {
	if v, ok := ctx.Value(EndpointKey).(string); ok {
		return v
	}
	return ""
}

// extractContextFields extracts the request-scoped fields present on ctx
// for a log call to attach automatically.
func extractContextFields(ctx context.Context) []any {
	var fields []any
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, "request_id", v)
	}
	if v := GetGroup(ctx); v != "" {
		fields = append(fields, "group", v)
	}
	if v := GetEndpoint(ctx); v != "" {
		fields = append(fields, "endpoint", v)
	}
	return fields
}
