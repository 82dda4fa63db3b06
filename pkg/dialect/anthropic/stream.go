package anthropic

import (
	"encoding/json"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

// Decoder turns a sequence of Anthropic typed SSE event bodies into
// canonical streaming Events. Anthropic's content_block_start/_delta/_stop
// events carry an explicit index, which the decoder passes through
// unchanged; input_json_delta fragments are passed through as
// ToolArgsDelta for the caller's state machine to accumulate and parse
// only once the block closes.
type Decoder struct {
	usage canonical.Usage
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed processes one decoded Anthropic SSE event object.
func (d *Decoder) Feed(chunk jsontree.M) []canonical.Event {
	switch jsontree.GetString(chunk, "type") {
	case "message_start":
		msg := jsontree.GetMap(chunk, "message")
		usage := jsontree.GetMap(msg, "usage")
		d.usage.PromptTokens = jsontree.GetInt(usage, "input_tokens", 0)
		return []canonical.Event{{Kind: canonical.EventMessageStart, Usage: &canonical.Usage{PromptTokens: d.usage.PromptTokens}}}

	case "content_block_start":
		idx := jsontree.GetInt(chunk, "index", 0)
		block := jsontree.GetMap(chunk, "content_block")
		if jsontree.GetString(block, "type") == "tool_use" {
			return []canonical.Event{{
				Kind:      canonical.EventBlockStart,
				Index:     idx,
				BlockKind: canonical.OpenToolUse,
				ToolID:    jsontree.GetString(block, "id"),
				ToolName:  jsontree.GetString(block, "name"),
			}}
		}
		return []canonical.Event{{Kind: canonical.EventBlockStart, Index: idx, BlockKind: canonical.OpenText}}

	case "content_block_delta":
		idx := jsontree.GetInt(chunk, "index", 0)
		delta := jsontree.GetMap(chunk, "delta")
		switch jsontree.GetString(delta, "type") {
		case "text_delta":
			return []canonical.Event{{Kind: canonical.EventTextDelta, Index: idx, Text: jsontree.GetString(delta, "text")}}
		case "input_json_delta":
			return []canonical.Event{{Kind: canonical.EventToolArgsDelta, Index: idx, JSONFragment: jsontree.GetString(delta, "partial_json")}}
		}
		return nil

	case "content_block_stop":
		return []canonical.Event{{Kind: canonical.EventBlockStop, Index: jsontree.GetInt(chunk, "index", 0)}}

	case "message_delta":
		usage := jsontree.GetMap(chunk, "usage")
		if v, ok := jsontree.GetFloat(usage, "output_tokens"); ok {
			d.usage.CompletionTokens = int(v)
		}
		return nil

	case "message_stop":
		return []canonical.Event{{Kind: canonical.EventMessageStop, StopReason: canonical.StopNormal, FinalUsage: &d.usage}}

	default: // ping and anything unrecognized
		return nil
	}
}

// Finish emits a terminal MessageStop when the upstream closes before a
// message_stop event arrives.
func (d *Decoder) Finish(stop canonical.StopReason) []canonical.Event {
	if stop == "" {
		stop = canonical.StopError
	}
	return []canonical.Event{{Kind: canonical.EventMessageStop, StopReason: stop, FinalUsage: &d.usage}}
}

// Encoder renders canonical Events as Anthropic typed SSE frames.
type Encoder struct {
	sawMessageStart bool
	pendingStop     canonical.StopReason
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func anthropicFrame(eventType string, v any) []byte {
	b, _ := json.Marshal(v)
	out := append([]byte("event: "+eventType+"\ndata: "), b...)
	return append(out, '\n', '\n')
}

// Encode returns zero or more SSE frames for one canonical event.
func (e *Encoder) Encode(ev canonical.Event) []byte {
	switch ev.Kind {
	case canonical.EventMessageStart:
		e.sawMessageStart = true
		usage := jsontree.M{"input_tokens": 0, "output_tokens": 0}
		if ev.Usage != nil {
			usage["input_tokens"] = ev.Usage.PromptTokens
		}
		return anthropicFrame("message_start", jsontree.M{
			"type": "message_start",
			"message": jsontree.M{
				"id":      "msg_stream",
				"type":    "message",
				"role":    "assistant",
				"content": []any{},
				"usage":   usage,
			},
		})
	case canonical.EventBlockStart:
		block := jsontree.M{"type": "text", "text": ""}
		if ev.BlockKind == canonical.OpenToolUse {
			block = jsontree.M{"type": "tool_use", "id": ev.ToolID, "name": ev.ToolName, "input": jsontree.M{}}
		}
		return anthropicFrame("content_block_start", jsontree.M{
			"type": "content_block_start", "index": ev.Index, "content_block": block,
		})
	case canonical.EventTextDelta:
		return anthropicFrame("content_block_delta", jsontree.M{
			"type": "content_block_delta", "index": ev.Index,
			"delta": jsontree.M{"type": "text_delta", "text": ev.Text},
		})
	case canonical.EventToolArgsDelta:
		return anthropicFrame("content_block_delta", jsontree.M{
			"type": "content_block_delta", "index": ev.Index,
			"delta": jsontree.M{"type": "input_json_delta", "partial_json": ev.JSONFragment},
		})
	case canonical.EventBlockStop:
		return anthropicFrame("content_block_stop", jsontree.M{"type": "content_block_stop", "index": ev.Index})
	case canonical.EventMessageStop:
		sr := stopReasonToAnthropic[ev.StopReason]
		if sr == "" {
			sr = "end_turn"
		}
		outputTokens := 0
		if ev.FinalUsage != nil {
			outputTokens = ev.FinalUsage.CompletionTokens
		}
		delta := anthropicFrame("message_delta", jsontree.M{
			"type":  "message_delta",
			"delta": jsontree.M{"stop_reason": sr},
			"usage": jsontree.M{"output_tokens": outputTokens},
		})
		stop := anthropicFrame("message_stop", jsontree.M{"type": "message_stop"})
		return append(delta, stop...)
	}
	return nil
}
