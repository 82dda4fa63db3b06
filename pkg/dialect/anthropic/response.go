package anthropic

import (
	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

var stopReasonFromAnthropic = map[string]canonical.StopReason{
	"end_turn":      canonical.StopNormal,
	"max_tokens":    canonical.StopMaxTokens,
	"tool_use":      canonical.StopToolUse,
	"stop_sequence": canonical.StopNormal,
}

var stopReasonToAnthropic = map[canonical.StopReason]string{
	canonical.StopNormal:    "end_turn",
	canonical.StopMaxTokens: "max_tokens",
	canonical.StopToolUse:   "tool_use",
	canonical.StopError:     "end_turn",
}

// ToCanonicalResponse parses a single, non-streaming Anthropic message
// response into the canonical Response.
func ToCanonicalResponse(body jsontree.M) (*canonical.Response, error) {
	resp := &canonical.Response{StopReason: canonical.StopNormal}
	resp.Blocks = blocksFromContent(jsontree.Get(body, "content"))
	if sr := jsontree.GetString(body, "stop_reason"); sr != "" {
		if mapped, ok := stopReasonFromAnthropic[sr]; ok {
			resp.StopReason = mapped
		}
	}
	usage := jsontree.GetMap(body, "usage")
	resp.Usage.PromptTokens = jsontree.GetInt(usage, "input_tokens", 0)
	resp.Usage.CompletionTokens = jsontree.GetInt(usage, "output_tokens", 0)
	return resp, nil
}

// FromCanonicalResponse renders a canonical Response as a single Anthropic
// message response object.
func FromCanonicalResponse(resp *canonical.Response) jsontree.M {
	sr := stopReasonToAnthropic[resp.StopReason]
	if sr == "" {
		sr = "end_turn"
	}
	return jsontree.M{
		"type":        "message",
		"role":        "assistant",
		"content":     contentFromBlocks(resp.Blocks),
		"stop_reason": sr,
		"usage": jsontree.M{
			"input_tokens":  resp.Usage.PromptTokens,
			"output_tokens": resp.Usage.CompletionTokens,
		},
	}
}
