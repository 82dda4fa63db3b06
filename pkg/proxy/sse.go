package proxy

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/jsontree"
)

// relayStream reads the upstream SSE body one event at a time, decodes each
// through the upstream dialect's decoder into canonical Events, re-encodes
// through the client dialect's encoder, and writes the result to w. It
// returns the final canonical StopReason and Usage observed, and an error
// if the stream closed before reaching a terminal event (a failure worth
// counting against the endpoint) or the client disconnected (not a
// failure).
func relayStream(w http.ResponseWriter, upstream io.Reader, upstreamDialect, clientDialect dialect.Name) (canonical.StopReason, canonical.Usage, error) {
	decoder, err := dialect.NewStreamDecoder(upstreamDialect)
	if err != nil {
		return "", canonical.Usage{}, err
	}
	encoder, err := dialect.NewStreamEncoder(clientDialect)
	if err != nil {
		return "", canonical.Usage{}, err
	}

	SetSSEHeaders(w)

	var final canonical.Usage
	var stop canonical.StopReason
	sawStop := false

	scanner := bufio.NewScanner(upstream)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var eventBuf bytes.Buffer
	flushEvent := func() error {
		defer eventBuf.Reset()
		if eventBuf.Len() == 0 {
			return nil
		}
		line := strings.TrimSpace(eventBuf.String())
		if line == "" || line == "[DONE]" {
			return nil
		}
		var chunk jsontree.M
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return &gwerrors.TranslateError{Dialect: string(upstreamDialect), Message: "malformed stream chunk", Cause: err}
		}
		for _, ev := range decoder.Feed(chunk) {
			if ev.Kind == canonical.EventMessageStop {
				sawStop = true
				stop = ev.StopReason
				if ev.FinalUsage != nil {
					final = *ev.FinalUsage
				}
			}
			if err := WriteSSEFrame(w, encoder.Encode(ev)); err != nil {
				return err
			}
		}
		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			eventBuf.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
			continue
		}
		if line == "" {
			if err := flushEvent(); err != nil {
				return stop, final, err
			}
		}
	}
	if err := flushEvent(); err != nil {
		return stop, final, err
	}
	if err := scanner.Err(); err != nil {
		return stop, final, &gwerrors.UpstreamError{Message: "stream read failed", Cause: err}
	}

	if !sawStop {
		for _, ev := range decoder.Finish(canonical.StopError) {
			stop = ev.StopReason
			if ev.FinalUsage != nil {
				final = *ev.FinalUsage
			}
			_ = WriteSSEFrame(w, encoder.Encode(ev))
		}
		return stop, final, &gwerrors.UpstreamError{Message: "stream closed before a terminal event"}
	}

	return stop, final, nil
}
