package edgerouter

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"modelgate/gateway/pkg/dialect"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/proxy"
)

// extractToken pulls the client-supplied credential out of the request in
// the shape the given dialect prescribes: Anthropic routes read the
// x-api-key header, Gemini routes read only the `?key=` query parameter,
// and every other route (OpenAI) reads a Bearer token from Authorization.
func extractToken(r *http.Request, name dialect.Name) string {
	switch name {
	case dialect.Anthropic:
		return r.Header.Get("x-api-key")
	case dialect.Gemini:
		return r.URL.Query().Get("key")
	default:
		auth := r.Header.Get("Authorization")
		return strings.TrimPrefix(auth, "Bearer ")
	}
}

// authenticate compares the request's credential against the configured
// token in constant time. An empty configured token disables authentication
// entirely, per the --token flag's documented default.
func (rt *Router) authenticate(name dialect.Name) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rt.Token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := extractToken(r, name)
			if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(rt.Token)) != 1 {
				err := &gwerrors.AuthError{Message: "missing or invalid credential"}
				_ = proxy.WriteErrorResponse(w, name, gwerrors.StatusFor(err), err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
