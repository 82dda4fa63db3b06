package proxy

import (
	"time"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/dialect"
)

// RequestMetadata carries the fields worth logging about one proxied
// request, independent of which dialect the client spoke.
type RequestMetadata struct {
	RequestID  string
	Dialect    dialect.Name
	Group      string
	Stream     bool
	Method     string
	Path       string
	RemoteAddr string
	Timestamp  time.Time
}

// ResponseMetadata carries the fields worth logging about the proxied
// response, once an endpoint has been picked and the upstream call made.
type ResponseMetadata struct {
	RequestID  string
	Endpoint   string
	StatusCode int
	Latency    time.Duration
	Attempts   int
	Usage      canonical.Usage
	StopReason canonical.StopReason
	Err        error
	Timestamp  time.Time
}

// IsSuccess reports whether the response completed without a classified
// failure.
func (m *ResponseMetadata) IsSuccess() bool {
	return m.Err == nil && m.StatusCode >= 200 && m.StatusCode < 300
}
