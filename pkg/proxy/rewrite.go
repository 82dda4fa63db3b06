package proxy

import (
	"fmt"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/jsontree"
)

// UpstreamPath returns the dialect-specific request path an endpoint is
// called at, given its own upstream model identifier and whether the
// request streams. Exported for the CLI's --check probe mode, which needs
// to address each configured endpoint without going through the Engine.
func UpstreamPath(name dialect.Name, model string, stream bool) (string, error) {
	switch name {
	case dialect.OpenAI:
		return "/chat/completions", nil
	case dialect.Anthropic:
		return "/v1/messages", nil
	case dialect.Gemini:
		if stream {
			return fmt.Sprintf("/models/%s:streamGenerateContent?alt=sse", model), nil
		}
		return fmt.Sprintf("/models/%s:generateContent", model), nil
	default:
		return "", fmt.Errorf("proxy: unknown upstream dialect %q", name)
	}
}

// applyRewriteBody deep-merges the endpoint's configured rewrite_body rules
// into an outbound request body, per the gateway's null-deletes-key merge
// semantics.
func applyRewriteBody(body jsontree.M, endpoint config.Endpoint) jsontree.M {
	if len(endpoint.LLMParams.RewriteBody) == 0 {
		return body
	}
	return jsontree.DeepMerge(body, jsontree.M(endpoint.LLMParams.RewriteBody))
}
