package proxy

import (
	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/jsontree"
)

// ErrorBody renders err as the error envelope the given client dialect
// expects, so a failure surfaces to the client in the same wire shape as a
// normal error from that provider would.
func ErrorBody(name dialect.Name, err error) jsontree.M {
	msg := err.Error()
	switch name {
	case dialect.Anthropic:
		return jsontree.M{
			"type":  "error",
			"error": jsontree.M{"type": anthropicErrorType(err), "message": msg},
		}
	case dialect.Gemini:
		return jsontree.M{
			"error": jsontree.M{
				"code":    gwerrors.StatusFor(err),
				"message": msg,
				"status":  geminiErrorStatus(err),
			},
		}
	default: // OpenAI and anything else speaking the OpenAI error envelope
		return jsontree.M{
			"error": jsontree.M{
				"message": msg,
				"type":    openaiErrorType(err),
			},
		}
	}
}

func openaiErrorType(err error) string {
	switch gwerrors.StatusFor(err) {
	case 401:
		return "authentication_error"
	case 404:
		return "invalid_request_error"
	case 429:
		return "rate_limit_exceeded"
	case 400:
		return "invalid_request_error"
	case 504:
		return "timeout"
	default:
		return "server_error"
	}
}

func anthropicErrorType(err error) string {
	switch gwerrors.StatusFor(err) {
	case 401:
		return "authentication_error"
	case 404:
		return "not_found_error"
	case 429:
		return "rate_limit_error"
	case 400:
		return "invalid_request_error"
	case 504:
		return "timeout_error"
	default:
		return "api_error"
	}
}

func geminiErrorStatus(err error) string {
	switch gwerrors.StatusFor(err) {
	case 401:
		return "UNAUTHENTICATED"
	case 404:
		return "NOT_FOUND"
	case 429:
		return "RESOURCE_EXHAUSTED"
	case 400:
		return "INVALID_ARGUMENT"
	case 504:
		return "DEADLINE_EXCEEDED"
	default:
		return "INTERNAL"
	}
}
