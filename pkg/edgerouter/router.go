package edgerouter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/metrics"
	"modelgate/gateway/pkg/proxy"
	"modelgate/gateway/pkg/proxy/middleware"
	"modelgate/gateway/pkg/telemetry/logging"
)

// RequestTimeout bounds how long one inference request may run, per the
// concurrency model's default accommodation for long completions.
const RequestTimeout = 10 * time.Minute

// Router is the Edge Router: it owns the HTTP route table, the
// authentication check per dialect, and the CORS config used for every
// surface, and delegates the actual request work to Engine.
type Router struct {
	Engine  *proxy.Engine
	Store   *config.Store
	Metrics *metrics.Collector
	Token   string
	CORS    *middleware.CORSConfig
}

// NewRouter builds a Router. An empty token disables authentication.
func NewRouter(engine *proxy.Engine, store *config.Store, m *metrics.Collector, token string) *Router {
	return &Router{
		Engine:  engine,
		Store:   store,
		Metrics: m,
		Token:   token,
		CORS:    middleware.DefaultCORSConfig(),
	}
}

// Handler builds the full HTTP handler: the route table wrapped in the
// gateway's middleware chain, innermost to outermost exactly as the chain
// is ordered for every other surface this codebase exposes.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /v1/models", rt.authenticate(dialect.OpenAI)(http.HandlerFunc(rt.handleModels)))
	mux.Handle("POST /v1/chat/completions", rt.authenticate(dialect.OpenAI)(http.HandlerFunc(rt.handleOpenAI)))
	mux.Handle("POST /v1/messages", rt.authenticate(dialect.Anthropic)(http.HandlerFunc(rt.handleAnthropic)))
	mux.Handle("POST /v1beta/models/{modelAction}", rt.authenticate(dialect.Gemini)(http.HandlerFunc(rt.handleGemini)))
	mux.Handle("GET /health", http.HandlerFunc(rt.handleHealth))
	mux.Handle("GET /ready", http.HandlerFunc(rt.handleReady))
	mux.Handle("GET /metrics", rt.Metrics.Handler())

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(RequestTimeout)(handler)
	handler = middleware.CORSMiddleware(rt.CORS)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	return handler
}

func (rt *Router) handleOpenAI(w http.ResponseWriter, r *http.Request) {
	rt.serve(w, r, dialect.OpenAI, "", false)
}

func (rt *Router) handleAnthropic(w http.ResponseWriter, r *http.Request) {
	rt.serve(w, r, dialect.Anthropic, "", false)
}

// handleGemini splits the {model}:action path segment net/http's mux
// cannot itself express, since Gemini's convention packs the action into
// the final path segment rather than a query parameter or method. The
// action also carries the streaming decision: Gemini's request body has no
// stream field, so streamGenerateContent vs generateContent is the only
// place that intent appears, and it must be forwarded to the Engine
// explicitly rather than left for conv.Stream to infer from the body.
func (rt *Router) handleGemini(w http.ResponseWriter, r *http.Request) {
	segment := r.PathValue("modelAction")
	model, action, ok := strings.Cut(segment, ":")
	if !ok || (action != "generateContent" && action != "streamGenerateContent") {
		err := &gwerrors.BadRequestError{Message: "unrecognized Gemini action path"}
		_ = proxy.WriteErrorResponse(w, dialect.Gemini, gwerrors.StatusFor(err), err)
		return
	}
	rt.serve(w, r, dialect.Gemini, model, action == "streamGenerateContent")
}

// serve reads the request body, resolves the client-addressed group —
// from the body's model field for OpenAI/Anthropic, or from pathModel for
// Gemini, whose model identifier lives in the URL rather than the body —
// and hands off to the Proxy Engine. stream forces streaming when the
// caller already knows it out-of-band (Gemini's URL action); OpenAI and
// Anthropic leave it false and let the Engine infer it from the body.
func (rt *Router) serve(w http.ResponseWriter, r *http.Request, name dialect.Name, pathModel string, stream bool) {
	body, err := proxy.ReadJSONBody(r)
	if err != nil {
		_ = proxy.WriteErrorResponse(w, name, gwerrors.StatusFor(err), err)
		return
	}

	group := pathModel
	if group == "" {
		m, _ := body["model"].(string)
		group = m
	}
	if group == "" {
		err := &gwerrors.BadRequestError{Message: "request is missing a model field"}
		_ = proxy.WriteErrorResponse(w, name, gwerrors.StatusFor(err), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), RequestTimeout)
	defer cancel()

	// request_id and group are known before dispatch; endpoint only once
	// the picker has chosen one. All three ride the context rather than
	// being passed as explicit log args, so the installed redacting
	// handler attaches them the same way for this line as for any other
	// slog call made during the request. SetGroup also feeds the
	// completion line LoggingMiddleware emits once this handler returns.
	ctx = logging.WithRequestID(ctx, middleware.GetRequestID(r.Context()))
	ctx = logging.WithGroup(ctx, group)
	middleware.SetGroup(ctx, group)

	meta, err := rt.Engine.Handle(ctx, w, name, group, body, stream)

	ctx = logging.WithEndpoint(ctx, meta.Endpoint)
	middleware.SetEndpoint(ctx, meta.Endpoint)
	slog.InfoContext(ctx, "request handled",
		"dialect", string(name),
		"attempts", meta.Attempts,
		"status", meta.StatusCode,
		"stop_reason", string(meta.StopReason),
		"error", err,
	)
}

// handleModels lists the configured groups in OpenAI's models.list shape,
// since a client-addressable group is the only "model" a client can ever
// name through this gateway.
func (rt *Router) handleModels(w http.ResponseWriter, r *http.Request) {
	snap := rt.Store.Current()
	names := snap.GroupNames()

	data := make([]map[string]any, 0, len(names))
	for _, n := range names {
		data = append(data, map[string]any{
			"id":       n,
			"object":   "model",
			"created":  0,
			"owned_by": "gateway",
		})
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

// handleHealth is a liveness probe: it is always 200 once the listener has
// bound and this handler runs at all.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleReady is a readiness probe: it succeeds only while at least one
// group has at least one member with a positive configured weight, which
// is the minimum condition for the picker to ever be able to choose
// something in that group.
func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	snap := rt.Store.Current()
	for _, g := range snap.Groups {
		for _, m := range g.Members {
			if m.Weight > 0 {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
				return
			}
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
}
