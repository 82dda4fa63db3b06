package edgerouter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/health"
	"modelgate/gateway/pkg/metrics"
	"modelgate/gateway/pkg/picker"
	"modelgate/gateway/pkg/proxy"
)

const testConfigYAML = `
model_list:
  - model_name: gpt-upstream
    llm_params:
      api_type: openai
      model: gpt-4o-mini
      api_base: https://upstream.example.com/v1
      api_key: test-key
router_settings:
  strategy: roundrobin
  model_groups:
    - name: gpt-4
      model_members:
        - name: gpt-upstream
          weight: 100
`

func newTestRouter(t *testing.T, token string) *Router {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testConfigYAML), 0o600); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	store, err := config.NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	healthTable := health.NewTable()
	collector := metrics.NewCollector(healthTable)
	p := picker.New(store, healthTable)
	engine := proxy.New(p, healthTable, collector, nil)

	return NewRouter(engine, store, collector, token)
}

// newTestGeminiRouter builds a Router whose sole group proxies to a
// Gemini-dialect upstream at apiBase, for tests that need a real server to
// relay against rather than just exercising path validation.
func newTestGeminiRouter(t *testing.T, apiBase string) *Router {
	t.Helper()
	yaml := fmt.Sprintf(`
model_list:
  - model_name: gemini-upstream
    llm_params:
      api_type: gemini
      model: gemini-pro
      api_base: %s
      api_key: test-key
router_settings:
  strategy: roundrobin
  model_groups:
    - name: gemini-pro
      model_members:
        - name: gemini-upstream
          weight: 100
`, apiBase)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write test config: %v", err)
	}
	store, err := config.NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	healthTable := health.NewTable()
	collector := metrics.NewCollector(healthTable)
	p := picker.New(store, healthTable)
	engine := proxy.New(p, healthTable, collector, nil)

	return NewRouter(engine, store, collector, "")
}

func TestHandleHealthAlwaysOK(t *testing.T) {
	rt := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleReadyWithPositiveWeightMember(t *testing.T) {
	rt := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleModelsListsGroups(t *testing.T) {
	rt := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"id":"gpt-4"`) {
		t.Fatalf("body missing group listing: %s", rec.Body.String())
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	rt := newTestRouter(t, "secret")
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateAcceptsMatchingToken(t *testing.T) {
	rt := newTestRouter(t, "secret")
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestAuthenticateDisabledWhenTokenEmpty(t *testing.T) {
	rt := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHandleGeminiRejectsUnrecognizedAction(t *testing.T) {
	rt := newTestRouter(t, "")
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-pro:explode", nil)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func geminiChunk(text, finishReason string) string {
	var fr string
	if finishReason != "" {
		fr = fmt.Sprintf(`,"finishReason":%q`, finishReason)
	}
	return fmt.Sprintf(`data: {"candidates":[{"content":{"parts":[{"text":%q}]}%s}]}`+"\n\n", text, fr)
}

// TestHandleGeminiStreamActionStreamsResponse is the regression test for
// the URL-encoded streaming convention: a :streamGenerateContent request
// must come back as an SSE relay even though Gemini's JSON body carries no
// stream flag for the Engine to infer from.
func TestHandleGeminiStreamActionStreamsResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, geminiChunk("hi", "STOP"))
		flusher.Flush()
	}))
	defer upstream.Close()

	rt := newTestGeminiRouter(t, upstream.URL)
	body := strings.NewReader(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-pro:streamGenerateContent", body)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream — :streamGenerateContent must not be downgraded to a single JSON response", ct)
	}
}

// TestHandleGeminiNonStreamActionReturnsJSON is the companion case: the
// non-streaming action on the same upstream must still render as one JSON
// object, so the fix to the streaming path doesn't force streaming onto
// every Gemini request.
func TestHandleGeminiNonStreamActionReturnsJSON(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hi"}]},"finishReason":"STOP"}]}`)
	}))
	defer upstream.Close()

	rt := newTestGeminiRouter(t, upstream.URL)
	body := strings.NewReader(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`)
	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-pro:generateContent", body)
	rec := httptest.NewRecorder()

	rt.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
