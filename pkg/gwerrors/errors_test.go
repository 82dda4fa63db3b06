package gwerrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestStatusForMapsEveryKind(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&BadRequestError{Message: "bad"}, http.StatusBadRequest},
		{&TranslateError{Dialect: "openai", Message: "oops"}, http.StatusBadRequest},
		{&AuthError{Message: "no token"}, http.StatusUnauthorized},
		{&UnknownGroupError{Group: "g"}, http.StatusNotFound},
		{&NoEligibleModelError{Group: "g"}, http.StatusUnprocessableEntity},
		{&RetriesExhaustedError{Group: "g", Tries: 3}, http.StatusBadGateway},
		{&UpstreamError{StatusCode: 503}, http.StatusBadGateway},
		{&TimeoutError{Message: "timed out"}, http.StatusGatewayTimeout},
		{errors.New("unrecognized"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := StatusFor(c.err); got != c.want {
			t.Errorf("StatusFor(%T) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestIsFailureTransportHasNoStatusLine(t *testing.T) {
	if !IsFailure(&UpstreamError{StatusCode: 0}) {
		t.Errorf("expected a transport failure (status 0) to count as a failure")
	}
}

func TestIsFailureUpstream5xx(t *testing.T) {
	if !IsFailure(&UpstreamError{StatusCode: 500}) {
		t.Errorf("expected 500 to count as a failure")
	}
	if !IsFailure(&UpstreamError{StatusCode: 503}) {
		t.Errorf("expected 503 to count as a failure")
	}
}

func TestIsFailureUpstream429(t *testing.T) {
	if !IsFailure(&UpstreamError{StatusCode: 429}) {
		t.Errorf("expected 429 to count as a failure")
	}
}

func TestIsFailureUpstream4xxOtherThan429IsNotAFailure(t *testing.T) {
	if IsFailure(&UpstreamError{StatusCode: 404}) {
		t.Errorf("expected a plain 404 to not count as a failure")
	}
	if IsFailure(&UpstreamError{StatusCode: 400}) {
		t.Errorf("expected a plain 400 to not count as a failure")
	}
}

func TestIsFailureTimeoutAndTranslateErrors(t *testing.T) {
	if !IsFailure(&TimeoutError{Message: "deadline exceeded"}) {
		t.Errorf("expected TimeoutError to count as a failure")
	}
	if !IsFailure(&TranslateError{Dialect: "gemini", Message: "bad chunk"}) {
		t.Errorf("expected a mid-stream TranslateError to count as a failure")
	}
}

func TestIsFailureNilAndUnrelatedErrorsAreNotFailures(t *testing.T) {
	if IsFailure(nil) {
		t.Errorf("expected nil to not count as a failure")
	}
	if IsFailure(&BadRequestError{Message: "bad"}) {
		t.Errorf("expected a client-side BadRequestError to not count as a failure")
	}
}

func TestUpstreamErrorUnwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := &UpstreamError{StatusCode: 0, Cause: cause}
	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to see through UpstreamError.Unwrap")
	}
}
