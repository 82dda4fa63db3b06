// Package proxy implements the Proxy Engine: given a chosen endpoint and a
// translated upstream request body, it applies the endpoint's header/body
// rewrite rules, dispatches the HTTP call, relays or buffers the response,
// classifies failures for the Health Table, and retries against a
// different endpoint when the failure happened before the first byte of
// the response was written to the client.
//
// # Request Flow
//
//  1. Edge Router parses the client's request into a dialect body and
//     passes it to Engine.Handle, which asks the Picker for a candidate
//     endpoint.
//  2. Engine.Handle translates the body to the endpoint's api_type if it
//     differs from the dialect the client spoke, applies rewrite_header
//     and rewrite_body, and issues the upstream HTTP request.
//  3. Non-streaming responses are parsed through the dialect translator and
//     re-rendered in the client's dialect; streaming responses are relayed
//     chunk-by-chunk through matching Decoder/Encoder pairs.
//  4. Any failure classified by gwerrors.IsFailure before the first
//     response byte is written releases the endpoint's health guard with a
//     failure recorded and retries against the next eligible candidate, up
//     to a fixed retry cap.
package proxy
