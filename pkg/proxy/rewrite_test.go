package proxy

import (
	"testing"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/jsontree"
)

func TestUpstreamPathPerDialect(t *testing.T) {
	cases := []struct {
		name   dialect.Name
		model  string
		stream bool
		want   string
	}{
		{dialect.OpenAI, "gpt-4", false, "/chat/completions"},
		{dialect.OpenAI, "gpt-4", true, "/chat/completions"},
		{dialect.Anthropic, "claude-3", false, "/v1/messages"},
		{dialect.Gemini, "gemini-pro", false, "/models/gemini-pro:generateContent"},
		{dialect.Gemini, "gemini-pro", true, "/models/gemini-pro:streamGenerateContent?alt=sse"},
	}
	for _, c := range cases {
		got, err := UpstreamPath(c.name, c.model, c.stream)
		if err != nil {
			t.Errorf("UpstreamPath(%s): %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("UpstreamPath(%s, stream=%v) = %q, want %q", c.name, c.stream, got, c.want)
		}
	}
}

func TestUpstreamPathUnknownDialectErrors(t *testing.T) {
	if _, err := UpstreamPath(dialect.Name("cohere"), "m", false); err == nil {
		t.Errorf("expected an error for an unknown dialect")
	}
}

func TestApplyRewriteBodyNoopWhenEmpty(t *testing.T) {
	body := jsontree.M{"model": "gpt-4"}
	ep := config.Endpoint{}
	got := applyRewriteBody(body, ep)
	if got["model"] != "gpt-4" {
		t.Errorf("expected body unchanged, got %v", got)
	}
}

func TestApplyRewriteBodyMergesAndDeletes(t *testing.T) {
	body := jsontree.M{"model": "gpt-4", "temperature": 0.5}
	ep := config.Endpoint{LLMParams: config.LLMParams{
		RewriteBody: map[string]any{"temperature": nil, "max_tokens": 100},
	}}
	got := applyRewriteBody(body, ep)
	if _, ok := got["temperature"]; ok {
		t.Errorf("expected temperature deleted by null rewrite_body entry")
	}
	if got["max_tokens"] != 100 {
		t.Errorf("expected max_tokens added by rewrite_body, got %v", got["max_tokens"])
	}
	if got["model"] != "gpt-4" {
		t.Errorf("expected unrelated field preserved")
	}
}
