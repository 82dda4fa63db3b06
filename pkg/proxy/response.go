package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"

	"modelgate/gateway/pkg/dialect"
)

// WriteJSONResponse writes a JSON response with the given status code.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		return fmt.Errorf("proxy: encode JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes err as the given dialect's error envelope at
// the given status code.
func WriteErrorResponse(w http.ResponseWriter, name dialect.Name, statusCode int, err error) error {
	return WriteJSONResponse(w, statusCode, ErrorBody(name, err))
}

// SetSSEHeaders sets the headers required for a Server-Sent Events
// response and must be called before the first byte is written.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// WriteSSEFrame writes one pre-rendered SSE frame (as produced by a
// dialect.StreamEncoder) and flushes it immediately.
func WriteSSEFrame(w http.ResponseWriter, frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("proxy: write SSE frame: %w", err)
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}
