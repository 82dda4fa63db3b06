// Package selector compiles and evaluates the jq eligibility predicates
// attached to group members.
package selector

import (
	"github.com/itchyny/gojq"
)

// Result is the three-valued outcome of evaluating a compiled selector
// against a request body.
type Result int

const (
	Eligible Result = iota
	Ineligible
	Error
)

// Compiled is a selector program compiled once and safe for concurrent
// evaluation against many request bodies.
type Compiled struct {
	source string
	code   *gojq.Code
}

// Source returns the jq text this program was compiled from.
func (c *Compiled) Source() string { return c.source }

// Compile parses and compiles jq source. An empty source is not a valid
// input to Compile; callers should treat an absent selector as always
// Eligible without calling Compile at all.
func Compile(source string) (*Compiled, error) {
	query, err := gojq.Parse(source)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, err
	}
	return &Compiled{source: source, code: code}, nil
}

// Evaluate runs the compiled program against body (a decoded JSON tree, as
// produced by encoding/json into map[string]any/[]any/etc.) and classifies
// the result: Eligible iff the program's first output is the boolean true,
// Ineligible for any other single value, Error if the program errors or
// produces no output.
func Evaluate(c *Compiled, body any) Result {
	if c == nil {
		return Eligible
	}
	iter := c.code.Run(body)
	v, ok := iter.Next()
	if !ok {
		return Error
	}
	if err, isErr := v.(error); isErr {
		_ = err
		return Error
	}
	b, isBool := v.(bool)
	if isBool && b {
		return Eligible
	}
	return Ineligible
}
