// Package telemetry groups the gateway's observability packages.
//
// logging provides structured, PII-redacting logging over log/slog;
// request/response metrics live in the sibling top-level pkg/metrics
// package, which wires directly into the Proxy Engine and Health Table
// rather than through this tree.
package telemetry
