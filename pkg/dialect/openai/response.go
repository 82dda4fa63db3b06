package openai

import (
	"encoding/json"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

var stopReasonFromOpenAI = map[string]canonical.StopReason{
	"stop":           canonical.StopNormal,
	"length":         canonical.StopMaxTokens,
	"tool_calls":     canonical.StopToolUse,
	"content_filter": canonical.StopNormal,
}

var stopReasonToOpenAI = map[canonical.StopReason]string{
	canonical.StopNormal:    "stop",
	canonical.StopMaxTokens: "length",
	canonical.StopToolUse:   "tool_calls",
	canonical.StopError:     "stop",
}

// ToCanonicalResponse parses a single, non-streaming OpenAI chat-completion
// response object into the canonical Response.
func ToCanonicalResponse(body jsontree.M) (*canonical.Response, error) {
	choices := jsontree.GetSlice(body, "choices")
	resp := &canonical.Response{StopReason: canonical.StopNormal}
	if len(choices) > 0 {
		choice, _ := jsontree.AsMap(choices[0])
		msg := jsontree.GetMap(choice, "message")
		if text := jsontree.GetString(msg, "content"); text != "" {
			resp.Blocks = append(resp.Blocks, canonical.Block{Kind: canonical.BlockText, Text: text})
		}
		for _, rawTC := range jsontree.GetSlice(msg, "tool_calls") {
			tc, ok := jsontree.AsMap(rawTC)
			if !ok {
				continue
			}
			fn := jsontree.GetMap(tc, "function")
			resp.Blocks = append(resp.Blocks, canonical.Block{
				Kind: canonical.BlockToolCall,
				ID:   jsontree.GetString(tc, "id"),
				Name: jsontree.GetString(fn, "name"),
				Args: json.RawMessage(jsontree.GetString(fn, "arguments")),
			})
		}
		if fr := jsontree.GetString(choice, "finish_reason"); fr != "" {
			if sr, ok := stopReasonFromOpenAI[fr]; ok {
				resp.StopReason = sr
			}
		}
	}
	usage := jsontree.GetMap(body, "usage")
	resp.Usage.PromptTokens = jsontree.GetInt(usage, "prompt_tokens", 0)
	resp.Usage.CompletionTokens = jsontree.GetInt(usage, "completion_tokens", 0)
	return resp, nil
}

// FromCanonicalResponse renders a canonical Response as a single OpenAI
// chat-completion response object.
func FromCanonicalResponse(resp *canonical.Response) jsontree.M {
	var text string
	var toolCalls []any
	for _, b := range resp.Blocks {
		switch b.Kind {
		case canonical.BlockText:
			text += b.Text
		case canonical.BlockToolCall:
			toolCalls = append(toolCalls, jsontree.M{
				"id":   b.ID,
				"type": "function",
				"function": jsontree.M{
					"name":      b.Name,
					"arguments": string(b.Args),
				},
			})
		}
	}

	msg := jsontree.M{"role": "assistant", "content": text}
	if toolCalls != nil {
		msg["tool_calls"] = toolCalls
		msg["content"] = nil
	}

	finish := stopReasonToOpenAI[resp.StopReason]
	if finish == "" {
		finish = "stop"
	}

	return jsontree.M{
		"object": "chat.completion",
		"choices": []any{
			jsontree.M{
				"index":         0,
				"message":       msg,
				"finish_reason": finish,
			},
		},
		"usage": jsontree.M{
			"prompt_tokens":     resp.Usage.PromptTokens,
			"completion_tokens": resp.Usage.CompletionTokens,
			"total_tokens":      resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
		},
	}
}
