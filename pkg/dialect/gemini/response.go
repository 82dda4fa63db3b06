package gemini

import (
	"encoding/json"
	"fmt"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

var finishReasonFromGemini = map[string]canonical.StopReason{
	"STOP":       canonical.StopNormal,
	"MAX_TOKENS": canonical.StopMaxTokens,
	"SAFETY":     canonical.StopError,
	"RECITATION": canonical.StopError,
	"OTHER":      canonical.StopError,
}

var finishReasonToGemini = map[canonical.StopReason]string{
	canonical.StopNormal:    "STOP",
	canonical.StopMaxTokens: "MAX_TOKENS",
	canonical.StopToolUse:   "STOP",
	canonical.StopError:     "OTHER",
}

// ToCanonicalResponse parses a single, non-streaming GenerateContentResponse
// body into the canonical Response.
func ToCanonicalResponse(body jsontree.M) (*canonical.Response, error) {
	resp := &canonical.Response{StopReason: canonical.StopNormal}

	candidates := jsontree.GetSlice(body, "candidates")
	if len(candidates) > 0 {
		cand, _ := jsontree.AsMap(candidates[0])
		content := jsontree.GetMap(cand, "content")
		resp.Blocks = blocksFromParts(jsontree.GetSlice(content, "parts"))
		if fr := jsontree.GetString(cand, "finishReason"); fr != "" {
			if mapped, ok := finishReasonFromGemini[fr]; ok {
				resp.StopReason = mapped
			}
		}
		for _, b := range resp.Blocks {
			if b.Kind == canonical.BlockToolCall {
				resp.StopReason = canonical.StopToolUse
				break
			}
		}
	}

	usage := jsontree.GetMap(body, "usageMetadata")
	resp.Usage.PromptTokens = jsontree.GetInt(usage, "promptTokenCount", 0)
	resp.Usage.CompletionTokens = jsontree.GetInt(usage, "candidatesTokenCount", 0)
	return resp, nil
}

// blocksFromParts converts a Gemini parts array into canonical blocks,
// synthesizing a fresh tool-call id for every functionCall part in order.
func blocksFromParts(parts []any) []canonical.Block {
	var blocks []canonical.Block
	callCounter := 0
	for _, raw := range parts {
		p, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		if text := jsontree.GetString(p, "text"); text != "" {
			blocks = append(blocks, canonical.Block{Kind: canonical.BlockText, Text: text})
			continue
		}
		if fc := jsontree.GetMap(p, "functionCall"); fc != nil {
			callCounter++
			args, _ := json.Marshal(jsontree.Get(fc, "args"))
			blocks = append(blocks, canonical.Block{
				Kind: canonical.BlockToolCall,
				ID:   fmt.Sprintf("gemini-call-%d", callCounter),
				Name: jsontree.GetString(fc, "name"),
				Args: args,
			})
		}
	}
	return blocks
}

// FromCanonicalResponse renders a canonical Response as a single
// GenerateContentResponse object.
func FromCanonicalResponse(resp *canonical.Response) jsontree.M {
	fr := finishReasonToGemini[resp.StopReason]
	if fr == "" {
		fr = "STOP"
	}
	return jsontree.M{
		"candidates": []any{jsontree.M{
			"content":      jsontree.M{"role": "model", "parts": partsFromBlocks(resp.Blocks)},
			"finishReason": fr,
			"index":        0,
		}},
		"usageMetadata": jsontree.M{
			"promptTokenCount":     resp.Usage.PromptTokens,
			"candidatesTokenCount": resp.Usage.CompletionTokens,
			"totalTokenCount":      resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
		},
	}
}

func partsFromBlocks(blocks []canonical.Block) []any {
	var parts []any
	for _, b := range blocks {
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
			parts = append(parts, jsontree.M{"functionResponse": jsontree.M{"name": b.Name, "response": response}})
		}
	}
	return parts
}
