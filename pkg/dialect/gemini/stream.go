package gemini

import (
	"encoding/json"
	"fmt"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/jsontree"
)

// Decoder turns a sequence of streamGenerateContent response objects into
// canonical streaming Events. Gemini has no explicit message or block
// open/close markers: a text part simply reappears across chunks with more
// characters appended, and a functionCall part arrives fully formed in a
// single chunk rather than as incremental JSON fragments. The decoder
// synthesizes the canonical open/delta/close sequence accordingly.
type Decoder struct {
	started     bool
	textOpen    bool
	callCounter int
	usage       canonical.Usage
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed processes one decoded GenerateContentResponse chunk.
func (d *Decoder) Feed(chunk jsontree.M) []canonical.Event {
	var events []canonical.Event
	if !d.started {
		d.started = true
		events = append(events, canonical.Event{Kind: canonical.EventMessageStart})
	}

	if u := jsontree.GetMap(chunk, "usageMetadata"); u != nil {
		d.usage.PromptTokens = jsontree.GetInt(u, "promptTokenCount", d.usage.PromptTokens)
		d.usage.CompletionTokens = jsontree.GetInt(u, "candidatesTokenCount", d.usage.CompletionTokens)
	}

	candidates := jsontree.GetSlice(chunk, "candidates")
	if len(candidates) == 0 {
		return events
	}
	cand, _ := jsontree.AsMap(candidates[0])
	content := jsontree.GetMap(cand, "content")

	for _, raw := range jsontree.GetSlice(content, "parts") {
		part, ok := jsontree.AsMap(raw)
		if !ok {
			continue
		}
		if text := jsontree.GetString(part, "text"); text != "" {
			if !d.textOpen {
				d.textOpen = true
				events = append(events, canonical.Event{Kind: canonical.EventBlockStart, Index: 0, BlockKind: canonical.OpenText})
			}
			events = append(events, canonical.Event{Kind: canonical.EventTextDelta, Index: 0, Text: text})
			continue
		}
		if fc := jsontree.GetMap(part, "functionCall"); fc != nil {
			d.callCounter++
			idx := d.callCounter
			args, _ := json.Marshal(jsontree.Get(fc, "args"))
			events = append(events,
				canonical.Event{Kind: canonical.EventBlockStart, Index: idx, BlockKind: canonical.OpenToolUse, ToolID: fmt.Sprintf("gemini-call-%d", idx), ToolName: jsontree.GetString(fc, "name")},
				canonical.Event{Kind: canonical.EventToolArgsDelta, Index: idx, JSONFragment: string(args)},
				canonical.Event{Kind: canonical.EventBlockStop, Index: idx},
			)
		}
	}

	if fr := jsontree.GetString(cand, "finishReason"); fr != "" {
		events = append(events, d.finish(finishReasonFromGemini[fr])...)
	}
	return events
}

func (d *Decoder) finish(stop canonical.StopReason) []canonical.Event {
	var events []canonical.Event
	if d.textOpen {
		events = append(events, canonical.Event{Kind: canonical.EventBlockStop, Index: 0})
		d.textOpen = false
	}
	if stop == "" {
		stop = canonical.StopNormal
	}
	events = append(events, canonical.Event{Kind: canonical.EventMessageStop, StopReason: stop, FinalUsage: &d.usage})
	return events
}

// Finish closes the open text block, if any, and emits a terminal
// MessageStop when the upstream closes before a finishReason arrives.
func (d *Decoder) Finish(stop canonical.StopReason) []canonical.Event {
	if !d.started {
		return nil
	}
	return d.finish(stop)
}

// Encoder renders canonical Events as streamGenerateContent response
// chunks. Tool call argument fragments are buffered and only flushed as a
// complete functionCall part on BlockStop, since Gemini's wire format has
// no notion of a partial function call.
type Encoder struct {
	toolName map[int]string
	toolID   map[int]string
	toolArgs map[int]string
}

func NewEncoder() *Encoder {
	return &Encoder{toolName: map[int]string{}, toolID: map[int]string{}, toolArgs: map[int]string{}}
}

func geminiFrame(v any) []byte {
	b, _ := json.Marshal(v)
	return append(append([]byte("data: "), b...), '\n', '\n')
}

// Encode returns zero or more SSE frames for one canonical event.
func (e *Encoder) Encode(ev canonical.Event) []byte {
	switch ev.Kind {
	case canonical.EventMessageStart:
		return nil
	case canonical.EventBlockStart:
		if ev.BlockKind == canonical.OpenToolUse {
			e.toolName[ev.Index] = ev.ToolName
			e.toolID[ev.Index] = ev.ToolID
		}
		return nil
	case canonical.EventTextDelta:
		return geminiFrame(jsontree.M{
			"candidates": []any{jsontree.M{"content": jsontree.M{"role": "model", "parts": []any{jsontree.M{"text": ev.Text}}}, "index": 0}},
		})
	case canonical.EventToolArgsDelta:
		e.toolArgs[ev.Index] += ev.JSONFragment
		return nil
	case canonical.EventBlockStop:
		name, ok := e.toolName[ev.Index]
		if !ok {
			return nil
		}
		var args any
		_ = json.Unmarshal([]byte(e.toolArgs[ev.Index]), &args)
		frame := geminiFrame(jsontree.M{
			"candidates": []any{jsontree.M{"content": jsontree.M{"role": "model", "parts": []any{jsontree.M{"functionCall": jsontree.M{"name": name, "args": args}}}}, "index": 0}},
		})
		delete(e.toolName, ev.Index)
		delete(e.toolID, ev.Index)
		delete(e.toolArgs, ev.Index)
		return frame
	case canonical.EventMessageStop:
		fr := finishReasonToGemini[ev.StopReason]
		if fr == "" {
			fr = "STOP"
		}
		usage := jsontree.M{"promptTokenCount": 0, "candidatesTokenCount": 0}
		if ev.FinalUsage != nil {
			usage["promptTokenCount"] = ev.FinalUsage.PromptTokens
			usage["candidatesTokenCount"] = ev.FinalUsage.CompletionTokens
			usage["totalTokenCount"] = ev.FinalUsage.PromptTokens + ev.FinalUsage.CompletionTokens
		}
		return geminiFrame(jsontree.M{
			"candidates":    []any{jsontree.M{"content": jsontree.M{"role": "model", "parts": []any{}}, "finishReason": fr, "index": 0}},
			"usageMetadata": usage,
		})
	}
	return nil
}
