package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/health"
	"modelgate/gateway/pkg/jsontree"
	"modelgate/gateway/pkg/metrics"
	"modelgate/gateway/pkg/picker"
)

// maxRetries caps how many distinct endpoints the engine will try for one
// client request before giving up. Only failures classified by
// gwerrors.IsFailure before the first response byte reaches the client
// consume a retry; everything else is terminal.
const maxRetries = 3

// Engine is the Proxy Engine: it resolves one client request to a chosen
// endpoint via the Picker, translates and rewrites the outbound body,
// issues the upstream call, and relays or renders the response back in the
// client's dialect.
type Engine struct {
	Picker  *picker.Picker
	Health  *health.Table
	Metrics *metrics.Collector
	Client  *http.Client
	Logger  *slog.Logger
}

// New returns an Engine with a default upstream HTTP client.
func New(p *picker.Picker, h *health.Table, m *metrics.Collector, logger *slog.Logger) *Engine {
	return &Engine{
		Picker:  p,
		Health:  h,
		Metrics: m,
		Client:  &http.Client{Timeout: 0}, // per-request timeout governed by ctx
		Logger:  logger,
	}
}

// Handle proxies one client request through to an upstream endpoint and
// writes the result (or a translated error) to w. It returns metadata the
// caller logs; the returned error, if any, has already been written to w.
// forceStream overrides the canonical conversation's inferred Stream flag;
// callers set it when streaming is signaled out-of-band, as Gemini does
// through its URL action segment rather than a body field.
func (e *Engine) Handle(ctx context.Context, w http.ResponseWriter, clientDialect dialect.Name, group string, body jsontree.M, forceStream bool) (*ResponseMetadata, error) {
	meta := &ResponseMetadata{Timestamp: time.Now()}

	conv, err := dialect.ToCanonical(clientDialect, body)
	if err != nil {
		tErr := &gwerrors.TranslateError{Dialect: string(clientDialect), Message: "parsing client request", Cause: err}
		meta.Err = tErr
		_ = WriteErrorResponse(w, clientDialect, gwerrors.StatusFor(tErr), tErr)
		return meta, tErr
	}
	// Gemini's wire body carries no stream flag; the streaming/non-streaming
	// choice lives entirely in the URL action segment, so the Edge Router
	// forwards it here rather than it being inferrable from conv alone.
	if forceStream {
		conv.Stream = true
	}

	tried := map[string]bool{}
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		meta.Attempts = attempt

		handle, pickErr := e.Picker.Pick(group, body, tried)
		if pickErr != nil {
			lastErr = pickErr
			break
		}
		tried = handle.Tried
		endpoint := handle.Endpoint
		meta.Endpoint = endpoint.ModelName
		upstreamDialect := dialect.Name(endpoint.LLMParams.APIType)
		e.Metrics.RecordPick(endpoint.ModelName, group)

		outBody, err := dialect.FromCanonical(upstreamDialect, conv)
		if err != nil {
			handle.Guard.Release()
			e.Health.RecordFailure(endpoint.ModelName)
			e.Metrics.RecordFailure(endpoint.ModelName)
			lastErr = &gwerrors.TranslateError{Dialect: string(upstreamDialect), Message: "rendering upstream request", Cause: err}
			continue
		}
		outBody = applyRewriteBody(outBody, endpoint)

		path, err := UpstreamPath(upstreamDialect, endpoint.LLMParams.Model, conv.Stream)
		if err != nil {
			handle.Guard.Release()
			lastErr = err
			break
		}

		req, err := BuildUpstreamRequest(ctx, endpoint, path, outBody)
		if err != nil {
			handle.Guard.Release()
			lastErr = err
			break
		}

		resp, err := e.Client.Do(req)
		if err != nil {
			handle.Guard.Release()
			e.Health.RecordFailure(endpoint.ModelName)
			e.Metrics.RecordFailure(endpoint.ModelName)
			lastErr = &gwerrors.UpstreamError{Cause: err, Message: err.Error()}
			if ctx.Err() != nil {
				break // client disconnected or deadline hit; not worth retrying
			}
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			handle.Guard.Release()
			e.Health.RecordFailure(endpoint.ModelName)
			e.Metrics.RecordFailure(endpoint.ModelName)
			lastErr = &gwerrors.UpstreamError{StatusCode: resp.StatusCode, Message: string(data)}
			continue
		}

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			handle.Guard.Release()
			e.Health.RecordSuccess(endpoint.ModelName)
			upErr := &gwerrors.UpstreamError{StatusCode: resp.StatusCode, Message: string(data)}
			meta.Err = upErr
			meta.StatusCode = resp.StatusCode
			_ = WriteErrorResponse(w, clientDialect, resp.StatusCode, upErr)
			return meta, upErr
		}

		// The guard stays held until the response body (streamed or
		// buffered) is fully drained, so in_flight reflects calls actually
		// in progress rather than calls that have merely received headers.
		defer handle.Guard.Release()
		e.Health.RecordSuccess(endpoint.ModelName)
		meta.StatusCode = resp.StatusCode

		if conv.Stream {
			stop, usage, streamErr := relayStream(w, resp.Body, upstreamDialect, clientDialect)
			resp.Body.Close()
			meta.StopReason = stop
			meta.Usage = usage
			if streamErr != nil {
				if gwerrors.IsFailure(streamErr) {
					e.Health.RecordFailure(endpoint.ModelName)
					e.Metrics.RecordFailure(endpoint.ModelName)
				}
				meta.Err = streamErr
				return meta, streamErr
			}
			return meta, nil
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			meta.Err = err
			return meta, err
		}
		var upstreamBody jsontree.M
		if err := json.Unmarshal(data, &upstreamBody); err != nil {
			tErr := &gwerrors.TranslateError{Dialect: string(upstreamDialect), Message: "parsing upstream response", Cause: err}
			e.Health.RecordFailure(endpoint.ModelName)
			e.Metrics.RecordFailure(endpoint.ModelName)
			meta.Err = tErr
			_ = WriteErrorResponse(w, clientDialect, gwerrors.StatusFor(tErr), tErr)
			return meta, tErr
		}
		canResp, err := dialect.ToCanonicalResponse(upstreamDialect, upstreamBody)
		if err != nil {
			tErr := &gwerrors.TranslateError{Dialect: string(upstreamDialect), Message: "parsing upstream response", Cause: err}
			meta.Err = tErr
			_ = WriteErrorResponse(w, clientDialect, gwerrors.StatusFor(tErr), tErr)
			return meta, tErr
		}
		outResp, err := dialect.FromCanonicalResponse(clientDialect, canResp)
		if err != nil {
			tErr := &gwerrors.TranslateError{Dialect: string(clientDialect), Message: "rendering client response", Cause: err}
			meta.Err = tErr
			_ = WriteErrorResponse(w, clientDialect, gwerrors.StatusFor(tErr), tErr)
			return meta, tErr
		}
		meta.StopReason = canResp.StopReason
		meta.Usage = canResp.Usage
		_ = WriteJSONResponse(w, http.StatusOK, outResp)
		return meta, nil
	}

	finalErr := error(&gwerrors.RetriesExhaustedError{Group: group, Tries: meta.Attempts, Cause: lastErr})
	if _, ok := lastErr.(*gwerrors.UnknownGroupError); ok {
		finalErr = lastErr
	}
	if _, ok := lastErr.(*gwerrors.NoEligibleModelError); ok {
		finalErr = lastErr
	}
	meta.Err = finalErr
	_ = WriteErrorResponse(w, clientDialect, gwerrors.StatusFor(finalErr), finalErr)
	return meta, finalErr
}
