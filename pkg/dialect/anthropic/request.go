// Package anthropic translates between the Anthropic-compatible wire
// dialect and the gateway's canonical intermediate form.
package anthropic

import (
	"encoding/json"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

const AnthropicVersion = "2023-06-01"

// ToCanonical parses an Anthropic /v1/messages request body into the
// canonical Conversation. Anthropic's system prompt is a distinguished
// top-level field rather than a message with role "system".
func ToCanonical(body jsontree.M) (*canonical.Conversation, error) {
	stream, _ := jsontree.AsBool(jsontree.Get(body, "stream"))
	conv := &canonical.Conversation{Stream: stream, System: systemText(jsontree.Get(body, "system"))}

	if mt, ok := jsontree.GetFloat(body, "max_tokens"); ok {
		conv.MaxTokens = int(mt)
	}
	if t, ok := jsontree.GetFloat(body, "temperature"); ok {
		conv.Temperature = &t
	}
	if tp, ok := jsontree.GetFloat(body, "top_p"); ok {
		conv.TopP = &tp
	}
	for _, s := range jsontree.GetSlice(body, "stop_sequences") {
		if str, ok := jsontree.AsString(s); ok {
			conv.Stop = append(conv.Stop, str)
		}
	}

	for _, raw := range jsontree.GetSlice(body, "messages") {
		m, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		role := canonical.RoleUser
		if jsontree.GetString(m, "role") == "assistant" {
			role = canonical.RoleAssistant
		}
		conv.Messages = append(conv.Messages, canonical.Message{Role: role, Blocks: blocksFromContent(jsontree.Get(m, "content"))})
	}

	for _, rawTool := range jsontree.GetSlice(body, "tools") {
		t, ok := jsontree.AsMap(rawTool)
		if !ok {
			continue
		}
		params, _ := json.Marshal(jsontree.Get(t, "input_schema"))
		conv.Tools = append(conv.Tools, canonical.Tool{
			Name:        jsontree.GetString(t, "name"),
			Description: jsontree.GetString(t, "description"),
			Parameters:  params,
		})
	}

	return conv, nil
}

func systemText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	parts, ok := v.([]any)
	if !ok {
		return ""
	}
	var out string
	for _, raw := range parts {
		p, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		out += jsontree.GetString(p, "text")
	}
	return out
}

func blocksFromContent(content any) []canonical.Block {
	if s, ok := content.(string); ok {
		if s == "" {
			return nil
		}
		return []canonical.Block{{Kind: canonical.BlockText, Text: s}}
	}
	parts, ok := content.([]any)
	if !ok {
		return nil
	}
	var blocks []canonical.Block
	for _, raw := range parts {
		p, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		switch jsontree.GetString(p, "type") {
		case "text":
			blocks = append(blocks, canonical.Block{Kind: canonical.BlockText, Text: jsontree.GetString(p, "text")})
		case "tool_use":
			input, _ := json.Marshal(jsontree.Get(p, "input"))
			blocks = append(blocks, canonical.Block{
				Kind: canonical.BlockToolCall,
				ID:   jsontree.GetString(p, "id"),
				Name: jsontree.GetString(p, "name"),
				Args: input,
			})
		case "tool_result":
			blocks = append(blocks, canonical.Block{
				Kind:         canonical.BlockToolResult,
				ToolResultID: jsontree.GetString(p, "tool_use_id"),
				Content:      textOfToolResult(jsontree.Get(p, "content")),
			})
		}
	}
	return blocks
}

func textOfToolResult(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	parts, ok := content.([]any)
	if !ok {
		return ""
	}
	var out string
	for _, raw := range parts {
		p, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		out += jsontree.GetString(p, "text")
	}
	return out
}

// FromCanonical renders a canonical Conversation as an Anthropic request
// body, coalescing consecutive same-role messages (Anthropic forbids role
// repetition) by concatenating their content blocks in order.
func FromCanonical(conv *canonical.Conversation) jsontree.M {
	body := jsontree.M{}
	if conv.System != "" {
		body["system"] = conv.System
	}

	maxTokens := conv.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	body["max_tokens"] = maxTokens

	if conv.Temperature != nil {
		body["temperature"] = *conv.Temperature
	}
	if conv.TopP != nil {
		body["top_p"] = *conv.TopP
	}
	if len(conv.Stop) > 0 {
		body["stop_sequences"] = conv.Stop
	}
	if conv.Stream {
		body["stream"] = true
	}

	var messages []any
	var curRole canonical.Role
	var curBlocks []canonical.Block
	flush := func() {
		if curBlocks == nil {
			return
		}
		messages = append(messages, jsontree.M{"role": string(curRole), "content": contentFromBlocks(curBlocks)})
		curBlocks = nil
	}
	for _, m := range conv.Messages {
		if curBlocks != nil && m.Role == curRole {
			curBlocks = append(curBlocks, m.Blocks...)
			continue
		}
		flush()
		curRole = m.Role
		curBlocks = append([]canonical.Block{}, m.Blocks...)
	}
	flush()
	body["messages"] = messages

	if len(conv.Tools) > 0 {
		var tools []any
		for _, t := range conv.Tools {
			var schema any
			_ = json.Unmarshal(t.Parameters, &schema)
			tools = append(tools, jsontree.M{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": schema,
			})
		}
		body["tools"] = tools
	}

	return body
}

func contentFromBlocks(blocks []canonical.Block) []any {
	var content []any
	for _, b := range blocks {
		switch b.Kind {
		case canonical.BlockText:
			content = append(content, jsontree.M{"type": "text", "text": b.Text})
		case canonical.BlockToolCall:
			var input any
			_ = json.Unmarshal(b.Args, &input)
			content = append(content, jsontree.M{"type": "tool_use", "id": b.ID, "name": b.Name, "input": input})
		case canonical.BlockToolResult:
			content = append(content, jsontree.M{"type": "tool_result", "tool_use_id": b.ToolResultID, "content": b.Content})
		}
	}
	return content
}
