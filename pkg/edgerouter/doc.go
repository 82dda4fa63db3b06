// Package edgerouter is the gateway's C7 Edge Router: it exposes the three
// dialect surfaces plus liveness, readiness, and metrics endpoints on one
// http.Handler, authenticates each inference request against the
// configured token, resolves the client-addressed group from the request
// body or path, and hands off to the Proxy Engine.
package edgerouter
