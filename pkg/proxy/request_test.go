package proxy

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/jsontree"
)

func TestReadJSONBodyParsesValidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`{"model":"gpt-4"}`))
	body, err := ReadJSONBody(req)
	if err != nil {
		t.Fatalf("ReadJSONBody: %v", err)
	}
	if jsontree.GetString(body, "model") != "gpt-4" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestReadJSONBodyRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewBufferString(`not json`))
	if _, err := ReadJSONBody(req); err == nil {
		t.Errorf("expected an error for malformed JSON")
	}
}

func TestReadJSONBodyRejectsOversizedBody(t *testing.T) {
	oversized := bytes.Repeat([]byte("a"), MaxRequestBodySize+2)
	body := append([]byte(`{"x":"`), oversized...)
	body = append(body, []byte(`"}`)...)
	req := httptest.NewRequest("POST", "/v1/chat/completions", bytes.NewReader(body))
	if _, err := ReadJSONBody(req); err == nil {
		t.Errorf("expected an error for an oversized body")
	}
}

func TestBuildUpstreamRequestOpenAIAuth(t *testing.T) {
	ep := config.Endpoint{LLMParams: config.LLMParams{APIType: config.APITypeOpenAI, APIKey: "sk-test", APIBase: "https://api.openai.com/v1"}}
	req, err := BuildUpstreamRequest(context.Background(), ep, "/chat/completions", jsontree.M{"model": "gpt-4"})
	if err != nil {
		t.Fatalf("BuildUpstreamRequest: %v", err)
	}
	if req.Header.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("expected Bearer auth header, got %q", req.Header.Get("Authorization"))
	}
	if req.URL.String() != "https://api.openai.com/v1/chat/completions" {
		t.Errorf("unexpected URL: %s", req.URL.String())
	}
}

func TestBuildUpstreamRequestAnthropicAuth(t *testing.T) {
	ep := config.Endpoint{LLMParams: config.LLMParams{APIType: config.APITypeAnthropic, APIKey: "sk-ant", APIBase: "https://api.anthropic.com"}}
	req, err := BuildUpstreamRequest(context.Background(), ep, "/v1/messages", jsontree.M{})
	if err != nil {
		t.Fatalf("BuildUpstreamRequest: %v", err)
	}
	if req.Header.Get("x-api-key") != "sk-ant" {
		t.Errorf("expected x-api-key header, got %q", req.Header.Get("x-api-key"))
	}
	if req.Header.Get("anthropic-version") != "2023-06-01" {
		t.Errorf("expected anthropic-version header set")
	}
}

func TestBuildUpstreamRequestGeminiKeyQueryParam(t *testing.T) {
	ep := config.Endpoint{LLMParams: config.LLMParams{APIType: config.APITypeGemini, APIKey: "gm-key", APIBase: "https://generativelanguage.googleapis.com/v1beta"}}
	req, err := BuildUpstreamRequest(context.Background(), ep, "/models/gemini-pro:generateContent", jsontree.M{})
	if err != nil {
		t.Fatalf("BuildUpstreamRequest: %v", err)
	}
	if req.URL.Query().Get("key") != "gm-key" {
		t.Errorf("expected key query param, got %s", req.URL.String())
	}
	if req.Header.Get("Authorization") != "" {
		t.Errorf("expected no Authorization header for Gemini")
	}
}

func TestBuildUpstreamRequestGeminiStreamingKeepsExistingQuery(t *testing.T) {
	ep := config.Endpoint{LLMParams: config.LLMParams{APIType: config.APITypeGemini, APIKey: "gm-key", APIBase: "https://generativelanguage.googleapis.com/v1beta"}}
	req, err := BuildUpstreamRequest(context.Background(), ep, "/models/gemini-pro:streamGenerateContent?alt=sse", jsontree.M{})
	if err != nil {
		t.Fatalf("BuildUpstreamRequest: %v", err)
	}
	if req.URL.Query().Get("alt") != "sse" || req.URL.Query().Get("key") != "gm-key" {
		t.Errorf("expected both alt and key query params preserved, got %s", req.URL.String())
	}
}

func TestBuildUpstreamRequestAppliesRewriteHeader(t *testing.T) {
	ep := config.Endpoint{LLMParams: config.LLMParams{
		APIType: config.APITypeOpenAI, APIKey: "sk", APIBase: "https://api.openai.com/v1",
		RewriteHeader: map[string]any{"X-Custom": "value", "Content-Type": nil},
	}}
	req, err := BuildUpstreamRequest(context.Background(), ep, "/chat/completions", jsontree.M{})
	if err != nil {
		t.Fatalf("BuildUpstreamRequest: %v", err)
	}
	if req.Header.Get("X-Custom") != "value" {
		t.Errorf("expected rewrite_header to set X-Custom")
	}
	if req.Header.Get("Content-Type") != "" {
		t.Errorf("expected a null rewrite_header entry to delete Content-Type")
	}
}

func TestBuildUpstreamRequestSerializesBody(t *testing.T) {
	ep := config.Endpoint{LLMParams: config.LLMParams{APIType: config.APITypeOpenAI, APIKey: "sk", APIBase: "https://api.openai.com/v1"}}
	req, err := BuildUpstreamRequest(context.Background(), ep, "/chat/completions", jsontree.M{"model": "gpt-4"})
	if err != nil {
		t.Fatalf("BuildUpstreamRequest: %v", err)
	}
	raw, _ := io.ReadAll(req.Body)
	if !bytes.Contains(raw, []byte(`"model":"gpt-4"`)) {
		t.Errorf("expected serialized body to contain model field, got %s", raw)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json")
	}
}
