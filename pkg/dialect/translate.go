package dialect

import (
	"fmt"

	"modelgate/gateway/pkg/canonical"
	"modelgate/gateway/pkg/dialect/anthropic"
	"modelgate/gateway/pkg/dialect/gemini"
	"modelgate/gateway/pkg/dialect/openai"
	"modelgate/gateway/pkg/jsontree"
)

// StreamDecoder accumulates one dialect's streaming chunk objects into
// canonical Events. Implementations are not safe for concurrent use; the
// Proxy Engine owns one per in-flight streaming request.
type StreamDecoder interface {
	Feed(chunk jsontree.M) []canonical.Event
	Finish(stop canonical.StopReason) []canonical.Event
}

// StreamEncoder renders canonical Events as one dialect's wire-format SSE
// frames. Implementations are not safe for concurrent use.
type StreamEncoder interface {
	Encode(ev canonical.Event) []byte
}

// ToCanonical parses a dialect's request body into the canonical
// Conversation.
func ToCanonical(name Name, body jsontree.M) (*canonical.Conversation, error) {
	switch name {
	case OpenAI:
		return openai.ToCanonical(body)
	case Anthropic:
		return anthropic.ToCanonical(body)
	case Gemini:
		return gemini.ToCanonical(body)
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// FromCanonical renders the canonical Conversation as a dialect's request
// body, for when the upstream endpoint's api_type differs from the dialect
// the caller spoke at the edge.
func FromCanonical(name Name, conv *canonical.Conversation) (jsontree.M, error) {
	switch name {
	case OpenAI:
		return openai.FromCanonical(conv), nil
	case Anthropic:
		return anthropic.FromCanonical(conv), nil
	case Gemini:
		return gemini.FromCanonical(conv), nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// ToCanonicalResponse parses a dialect's single non-streaming response
// object into the canonical Response.
func ToCanonicalResponse(name Name, body jsontree.M) (*canonical.Response, error) {
	switch name {
	case OpenAI:
		return openai.ToCanonicalResponse(body)
	case Anthropic:
		return anthropic.ToCanonicalResponse(body)
	case Gemini:
		return gemini.ToCanonicalResponse(body)
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// FromCanonicalResponse renders the canonical Response as a dialect's
// single non-streaming response object.
func FromCanonicalResponse(name Name, resp *canonical.Response) (jsontree.M, error) {
	switch name {
	case OpenAI:
		return openai.FromCanonicalResponse(resp), nil
	case Anthropic:
		return anthropic.FromCanonicalResponse(resp), nil
	case Gemini:
		return gemini.FromCanonicalResponse(resp), nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// NewStreamDecoder returns a fresh streaming decoder for the given dialect.
func NewStreamDecoder(name Name) (StreamDecoder, error) {
	switch name {
	case OpenAI:
		return openai.NewDecoder(), nil
	case Anthropic:
		return anthropic.NewDecoder(), nil
	case Gemini:
		return gemini.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// NewStreamEncoder returns a fresh streaming encoder for the given dialect.
func NewStreamEncoder(name Name) (StreamEncoder, error) {
	switch name {
	case OpenAI:
		return openai.NewEncoder(), nil
	case Anthropic:
		return anthropic.NewEncoder(), nil
	case Gemini:
		return gemini.NewEncoder(), nil
	default:
		return nil, fmt.Errorf("dialect: unknown dialect %q", name)
	}
}

// Valid reports whether name is one of the three recognized dialects.
func Valid(name Name) bool {
	switch name {
	case OpenAI, Anthropic, Gemini:
		return true
	default:
		return false
	}
}
