// Package openai translates between the OpenAI-compatible wire dialect and
// the gateway's canonical intermediate form.
package openai

import (
	"encoding/json"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

// ToCanonical parses an OpenAI /v1/chat/completions request body into the
// canonical Conversation.
func ToCanonical(body jsontree.M) (*canonical.Conversation, error) {
	stream, _ := jsontree.AsBool(jsontree.Get(body, "stream"))
	conv := &canonical.Conversation{Stream: stream}

	if mt, ok := jsontree.GetFloat(body, "max_tokens"); ok {
		conv.MaxTokens = int(mt)
	}
	if t, ok := jsontree.GetFloat(body, "temperature"); ok {
		conv.Temperature = &t
	}
	if tp, ok := jsontree.GetFloat(body, "top_p"); ok {
		conv.TopP = &tp
	}
	switch v := jsontree.Get(body, "stop").(type) {
	case string:
		conv.Stop = []string{v}
	case []any:
		for _, s := range v {
			if str, ok := jsontree.AsString(s); ok {
				conv.Stop = append(conv.Stop, str)
			}
		}
	}

	for _, raw := range jsontree.GetSlice(body, "messages") {
		m, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		role := jsontree.GetString(m, "role")

		if role == "system" {
			conv.System += textOf(jsontree.Get(m, "content"))
			continue
		}

		if role == "tool" {
			conv.Messages = append(conv.Messages, canonical.Message{
				Role: canonical.RoleUser,
				Blocks: []canonical.Block{{
					Kind:         canonical.BlockToolResult,
					ToolResultID: jsontree.GetString(m, "tool_call_id"),
					Content:      textOf(jsontree.Get(m, "content")),
				}},
			})
			continue
		}

		cr := canonical.RoleUser
		if role == "assistant" {
			cr = canonical.RoleAssistant
		}

		var blocks []canonical.Block
		if content := jsontree.Get(m, "content"); content != nil {
			if text := textOf(content); text != "" {
				blocks = append(blocks, canonical.Block{Kind: canonical.BlockText, Text: text})
			}
		}
		for _, rawTC := range jsontree.GetSlice(m, "tool_calls") {
			tc, ok := jsontree.AsMap(rawTC)
			if !ok {
				continue
			}
			fn := jsontree.GetMap(tc, "function")
			blocks = append(blocks, canonical.Block{
				Kind: canonical.BlockToolCall,
				ID:   jsontree.GetString(tc, "id"),
				Name: jsontree.GetString(fn, "name"),
				Args: json.RawMessage(jsontree.GetString(fn, "arguments")),
			})
		}
		conv.Messages = append(conv.Messages, canonical.Message{Role: cr, Blocks: blocks})
	}

	for _, rawTool := range jsontree.GetSlice(body, "tools") {
		t, ok := jsontree.AsMap(rawTool)
		if !ok {
			continue
		}
		fn := jsontree.GetMap(t, "function")
		params, _ := json.Marshal(jsontree.Get(fn, "parameters"))
		conv.Tools = append(conv.Tools, canonical.Tool{
			Name:        jsontree.GetString(fn, "name"),
			Description: jsontree.GetString(fn, "description"),
			Parameters:  params,
		})
	}

	return conv, nil
}

// textOf flattens OpenAI's permissive content shape (a bare string, or an
// array of {type:"text", text} parts) into one string.
func textOf(content any) string {
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
		if jsontree.GetString(p, "type") == "text" {
			out += jsontree.GetString(p, "text")
		}
	}
	return out
}

// FromCanonical renders a canonical Conversation as an OpenAI request body.
func FromCanonical(conv *canonical.Conversation) jsontree.M {
	body := jsontree.M{}

	var messages []any
	if conv.System != "" {
		messages = append(messages, jsontree.M{"role": "system", "content": conv.System})
	}
	for _, m := range conv.Messages {
		role := string(m.Role)
		var text string
		var toolCalls []any
		for _, b := range m.Blocks {
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
			case canonical.BlockToolResult:
				messages = append(messages, jsontree.M{
					"role":         "tool",
					"tool_call_id": b.ToolResultID,
					"content":      b.Content,
				})
			}
		}
		if text == "" && toolCalls == nil {
			continue
		}
		msg := jsontree.M{"role": role}
		if text != "" {
			msg["content"] = text
		} else {
			msg["content"] = nil
		}
		if toolCalls != nil {
			msg["tool_calls"] = toolCalls
		}
		messages = append(messages, msg)
	}
	body["messages"] = messages

	if conv.MaxTokens > 0 {
		body["max_tokens"] = conv.MaxTokens
	}
	if conv.Temperature != nil {
		body["temperature"] = *conv.Temperature
	}
	if conv.TopP != nil {
		body["top_p"] = *conv.TopP
	}
	if len(conv.Stop) > 0 {
		body["stop"] = conv.Stop
	}
	if conv.Stream {
		body["stream"] = true
	}
	if len(conv.Tools) > 0 {
		var tools []any
		for _, t := range conv.Tools {
			var params any
			_ = json.Unmarshal(t.Parameters, &params)
			tools = append(tools, jsontree.M{
				"type": "function",
				"function": jsontree.M{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  params,
				},
			})
		}
		body["tools"] = tools
	}

	return body
}
