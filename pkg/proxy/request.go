package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/jsontree"
)

// MaxRequestBodySize is the maximum allowed client request body size.
const MaxRequestBodySize = 10 * 1024 * 1024

// ReadJSONBody reads and parses an HTTP request body as a generic JSON
// object, enforcing MaxRequestBodySize.
func ReadJSONBody(r *http.Request) (jsontree.M, error) {
	limited := io.LimitReader(r.Body, MaxRequestBodySize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, &gwerrors.BadRequestError{Message: fmt.Sprintf("failed to read request body: %v", err)}
	}
	if len(raw) > MaxRequestBodySize {
		return nil, &gwerrors.BadRequestError{Message: "request body exceeds maximum size"}
	}

	var body jsontree.M
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &gwerrors.BadRequestError{Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return body, nil
}

// BuildUpstreamRequest constructs the outbound *http.Request for one
// endpoint: it injects the endpoint's credential in the shape its api_type
// expects, layers on rewrite_header, and serializes the (already
// rewrite_body-merged) outbound body.
func BuildUpstreamRequest(ctx context.Context, endpoint config.Endpoint, path string, body jsontree.M) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("proxy: marshal upstream body: %w", err)
	}

	url := endpoint.LLMParams.APIBase + path
	if endpoint.LLMParams.APIType == config.APITypeGemini {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		url += sep + "key=" + endpoint.LLMParams.APIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("proxy: build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch endpoint.LLMParams.APIType {
	case config.APITypeOpenAI:
		req.Header.Set("Authorization", "Bearer "+endpoint.LLMParams.APIKey)
	case config.APITypeAnthropic:
		req.Header.Set("x-api-key", endpoint.LLMParams.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
	}

	for k, v := range endpoint.LLMParams.RewriteHeader {
		if v == nil {
			req.Header.Del(k)
			continue
		}
		if s, ok := v.(string); ok {
			req.Header.Set(k, s)
		}
	}

	return req, nil
}
