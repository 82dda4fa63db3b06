package openai

import (
	"encoding/json"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

// Decoder turns a sequence of OpenAI chat-completion-chunk objects into
// canonical streaming Events. OpenAI has no explicit message-start or
// block-open events, so the decoder synthesizes them on first observation:
// text always occupies canonical index 0; each tool_calls[].index is offset
// by 1 to keep it distinct from the text block.
type Decoder struct {
	started    bool
	textOpen   bool
	toolOpen   map[int]bool
	usage      canonical.Usage
}

func NewDecoder() *Decoder {
	return &Decoder{toolOpen: make(map[int]bool)}
}

// Feed processes one decoded chunk object and returns the canonical events
// it implies.
func (d *Decoder) Feed(chunk jsontree.M) []canonical.Event {
	var events []canonical.Event
	if !d.started {
		d.started = true
		events = append(events, canonical.Event{Kind: canonical.EventMessageStart})
	}

	if u := jsontree.GetMap(chunk, "usage"); u != nil {
		d.usage.PromptTokens = jsontree.GetInt(u, "prompt_tokens", d.usage.PromptTokens)
		d.usage.CompletionTokens = jsontree.GetInt(u, "completion_tokens", d.usage.CompletionTokens)
	}

	choices := jsontree.GetSlice(chunk, "choices")
	if len(choices) == 0 {
		return events
	}
	choice, _ := jsontree.AsMap(choices[0])
	delta := jsontree.GetMap(choice, "delta")

	if text := jsontree.GetString(delta, "content"); text != "" {
		if !d.textOpen {
			d.textOpen = true
			events = append(events, canonical.Event{Kind: canonical.EventBlockStart, Index: 0, BlockKind: canonical.OpenText})
		}
		events = append(events, canonical.Event{Kind: canonical.EventTextDelta, Index: 0, Text: text})
	}

	for _, rawTC := range jsontree.GetSlice(delta, "tool_calls") {
		tc, ok := jsontree.AsMap(rawTC)
		if !ok {
			continue
		}
		idx := jsontree.GetInt(tc, "index", 0) + 1
		fn := jsontree.GetMap(tc, "function")
		if !d.toolOpen[idx] {
			d.toolOpen[idx] = true
			events = append(events, canonical.Event{
				Kind:      canonical.EventBlockStart,
				Index:     idx,
				BlockKind: canonical.OpenToolUse,
				ToolID:    jsontree.GetString(tc, "id"),
				ToolName:  jsontree.GetString(fn, "name"),
			})
		}
		if args := jsontree.GetString(fn, "arguments"); args != "" {
			events = append(events, canonical.Event{Kind: canonical.EventToolArgsDelta, Index: idx, JSONFragment: args})
		}
	}

	if fr := jsontree.GetString(choice, "finish_reason"); fr != "" {
		events = append(events, d.finish(stopReasonFromOpenAI[fr])...)
	}

	return events
}

func (d *Decoder) finish(stop canonical.StopReason) []canonical.Event {
	var events []canonical.Event
	if d.textOpen {
		events = append(events, canonical.Event{Kind: canonical.EventBlockStop, Index: 0})
		d.textOpen = false
	}
	for idx := range d.toolOpen {
		events = append(events, canonical.Event{Kind: canonical.EventBlockStop, Index: idx})
	}
	d.toolOpen = make(map[int]bool)
	if stop == "" {
		stop = canonical.StopNormal
	}
	events = append(events, canonical.Event{Kind: canonical.EventMessageStop, StopReason: stop, FinalUsage: &d.usage})
	return events
}

// Finish closes any still-open blocks and emits a terminal MessageStop,
// used when the upstream stream ends without a finish_reason (premature
// close, including a bare [DONE] with no finish_reason before it).
func (d *Decoder) Finish(stop canonical.StopReason) []canonical.Event {
	if !d.started {
		return nil
	}
	return d.finish(stop)
}

// Encoder renders canonical Events as OpenAI SSE "data: ..." frames.
type Encoder struct {
	toolIndex map[int]int
	nextIndex int
}

func NewEncoder() *Encoder {
	return &Encoder{toolIndex: make(map[int]int)}
}

func sseFrame(v any) []byte {
	b, _ := json.Marshal(v)
	return append(append([]byte("data: "), b...), '\n', '\n')
}

// Encode returns zero or more SSE frames for one canonical event. The
// MessageStop frame is followed by the [DONE] sentinel in the same output.
func (e *Encoder) Encode(ev canonical.Event) []byte {
	switch ev.Kind {
	case canonical.EventMessageStart:
		return nil
	case canonical.EventBlockStart:
		if ev.BlockKind == canonical.OpenToolUse {
			e.toolIndex[ev.Index] = e.nextIndex
			e.nextIndex++
			return sseFrame(jsontree.M{
				"choices": []any{jsontree.M{"index": 0, "delta": jsontree.M{
					"tool_calls": []any{jsontree.M{
						"index": e.toolIndex[ev.Index],
						"id":    ev.ToolID,
						"type":  "function",
						"function": jsontree.M{
							"name":      ev.ToolName,
							"arguments": "",
						},
					}},
				}},
			}})
		}
		return nil
	case canonical.EventTextDelta:
		return sseFrame(jsontree.M{
			"choices": []any{jsontree.M{"index": 0, "delta": jsontree.M{"content": ev.Text}}},
		})
	case canonical.EventToolArgsDelta:
		return sseFrame(jsontree.M{
			"choices": []any{jsontree.M{"index": 0, "delta": jsontree.M{
				"tool_calls": []any{jsontree.M{
					"index":    e.toolIndex[ev.Index],
					"function": jsontree.M{"arguments": ev.JSONFragment},
				}},
			}}},
		})
	case canonical.EventBlockStop:
		return nil
	case canonical.EventMessageStop:
		finish := stopReasonToOpenAI[ev.StopReason]
		if finish == "" {
			finish = "stop"
		}
		frame := sseFrame(jsontree.M{
			"choices": []any{jsontree.M{"index": 0, "delta": jsontree.M{}, "finish_reason": finish}},
		})
		return append(frame, []byte("data: [DONE]\n\n")...)
	}
	return nil
}
