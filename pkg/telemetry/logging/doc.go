// Package logging provides the gateway's structured logging: a thin
// wrapper around log/slog that attaches request-scoped fields (request_id,
// group, endpoint) from context automatically and redacts credential-shaped
// values before they reach a handler.
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactPII: true})
//	ctx = logging.WithRequestID(ctx, requestID)
//	logger.InfoContext(ctx, "request handled", "status", 200)
package logging
