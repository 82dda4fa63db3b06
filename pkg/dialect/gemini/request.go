// Package gemini translates between the Gemini-compatible wire dialect and
// the gateway's canonical intermediate form. Gemini has no notion of a
// tool-call id, so ToCanonical synthesizes one per functionCall in
// declaration order and matches functionResponse parts to the earliest
// still-unmatched call sharing the same name; FromCanonical drops ids since
// nothing downstream of Gemini needs them back.
package gemini

import (
	"encoding/json"
	"fmt"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

// ToCanonical parses a Gemini generateContent request body into the
// canonical Conversation.
func ToCanonical(body jsontree.M) (*canonical.Conversation, error) {
	conv := &canonical.Conversation{System: systemText(jsontree.Get(body, "systemInstruction"))}

	gc := jsontree.GetMap(body, "generationConfig")
	if mt, ok := jsontree.GetFloat(gc, "maxOutputTokens"); ok {
		conv.MaxTokens = int(mt)
	}
	if t, ok := jsontree.GetFloat(gc, "temperature"); ok {
		conv.Temperature = &t
	}
	if tp, ok := jsontree.GetFloat(gc, "topP"); ok {
		conv.TopP = &tp
	}
	for _, s := range jsontree.GetSlice(gc, "stopSequences") {
		if str, ok := jsontree.AsString(s); ok {
			conv.Stop = append(conv.Stop, str)
		}
	}

	pending := map[string][]string{} // name -> queue of synthetic call ids awaiting a response
	callCounter := 0

	for _, raw := range jsontree.GetSlice(body, "contents") {
		c, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		role := canonical.RoleUser
		if jsontree.GetString(c, "role") == "model" {
			role = canonical.RoleAssistant
		}

		var blocks []canonical.Block
		for _, rawPart := range jsontree.GetSlice(c, "parts") {
			part, ok := jsontree.AsMap(rawPart)
			if !ok {
				continue
			}
			if text := jsontree.GetString(part, "text"); text != "" {
				blocks = append(blocks, canonical.Block{Kind: canonical.BlockText, Text: text})
				continue
			}
			if fc := jsontree.GetMap(part, "functionCall"); fc != nil {
				name := jsontree.GetString(fc, "name")
				callCounter++
				id := fmt.Sprintf("gemini-call-%d", callCounter)
				pending[name] = append(pending[name], id)
				args, _ := json.Marshal(jsontree.Get(fc, "args"))
				blocks = append(blocks, canonical.Block{Kind: canonical.BlockToolCall, ID: id, Name: name, Args: args})
				continue
			}
			if fr := jsontree.GetMap(part, "functionResponse"); fr != nil {
				name := jsontree.GetString(fr, "name")
				id := ""
				if q := pending[name]; len(q) > 0 {
					id = q[0]
					pending[name] = q[1:]
				}
				respJSON, _ := json.Marshal(jsontree.Get(fr, "response"))
				blocks = append(blocks, canonical.Block{Kind: canonical.BlockToolResult, ToolResultID: id, Content: string(respJSON)})
			}
		}
		conv.Messages = append(conv.Messages, canonical.Message{Role: role, Blocks: blocks})
	}

	for _, rawTool := range jsontree.GetSlice(body, "tools") {
		t, ok := jsontree.AsMap(rawTool)
		if !ok {
			continue
		}
		for _, rawDecl := range jsontree.GetSlice(t, "functionDeclarations") {
			decl, ok := jsontree.AsMap(rawDecl)
			if !ok {
				continue
			}
			params, _ := json.Marshal(jsontree.Get(decl, "parameters"))
			conv.Tools = append(conv.Tools, canonical.Tool{
				Name:        jsontree.GetString(decl, "name"),
				Description: jsontree.GetString(decl, "description"),
				Parameters:  params,
			})
		}
	}

	return conv, nil
}

func systemText(v any) string {
	m, ok := v.(jsontree.M)
	if !ok {
		return ""
	}
	var out string
	for _, raw := range jsontree.GetSlice(m, "parts") {
		p, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		out += jsontree.GetString(p, "text")
	}
	return out
}

// FromCanonical renders a canonical Conversation as a Gemini
// generateContent request body.
func FromCanonical(conv *canonical.Conversation) jsontree.M {
	body := jsontree.M{}
	if conv.System != "" {
		body["systemInstruction"] = jsontree.M{"parts": []any{jsontree.M{"text": conv.System}}}
	}

	gc := jsontree.M{}
	if conv.MaxTokens > 0 {
		gc["maxOutputTokens"] = conv.MaxTokens
	}
	if conv.Temperature != nil {
		gc["temperature"] = *conv.Temperature
	}
	if conv.TopP != nil {
		gc["topP"] = *conv.TopP
	}
	if len(conv.Stop) > 0 {
		gc["stopSequences"] = conv.Stop
	}
	if len(gc) > 0 {
		body["generationConfig"] = gc
	}

	var contents []any
	for _, m := range conv.Messages {
		role := "user"
		if m.Role == canonical.RoleAssistant {
			role = "model"
		}
		var parts []any
		for _, b := range m.Blocks {
			switch b.Kind {
			case canonical.BlockText:
				parts = append(parts, jsontree.M{"text": b.Text})
			case canonical.BlockToolCall:
				var args any
				_ = json.Unmarshal(b.Args, &args)
				parts = append(parts, jsontree.M{"functionCall": jsontree.M{"name": b.Name, "args": args}})
			case canonical.BlockToolResult:
				var response any
				if err := json.Unmarshal([]byte(b.Content), &response); err != nil {
					response = jsontree.M{"result": b.Content}
				}
				parts = append(parts, jsontree.M{"functionResponse": jsontree.M{"name": toolNameFor(conv, b.ToolResultID), "response": response}})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, jsontree.M{"role": role, "parts": parts})
	}
	body["contents"] = contents

	if len(conv.Tools) > 0 {
		var decls []any
		for _, t := range conv.Tools {
			var params any
			_ = json.Unmarshal(t.Parameters, &params)
			decls = append(decls, jsontree.M{"name": t.Name, "description": t.Description, "parameters": params})
		}
		body["tools"] = []any{jsontree.M{"functionDeclarations": decls}}
	}

	return body
}

// toolNameFor recovers the function name a tool result answers by scanning
// back through the conversation for the matching call id, since Gemini's
// functionResponse part is keyed by name rather than id.
func toolNameFor(conv *canonical.Conversation, id string) string {
	for _, m := range conv.Messages {
		for _, b := range m.Blocks {
			if b.Kind == canonical.BlockToolCall && b.ID == id {
				return b.Name
			}
		}
	}
	return ""
}
