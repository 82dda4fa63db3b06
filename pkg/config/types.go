// Package config loads, validates, and hot-reloads the gateway's YAML
// configuration, publishing immutable snapshots behind a single atomic
// reference.
package config

// Config is the root of the YAML configuration file.
type Config struct {
	// ModelList is the set of configured upstream Endpoints.
	ModelList []Endpoint `yaml:"model_list"`

	// RouterSettings controls how groups resolve a request to an Endpoint.
	RouterSettings RouterSettings `yaml:"router_settings"`
}

// Endpoint is one configured upstream: a unique name plus the parameters
// needed to reach and authenticate against it.
type Endpoint struct {
	// ModelName is the unique identifier GroupMembers reference.
	ModelName string `yaml:"model_name"`

	// LLMParams carries the upstream connection details.
	LLMParams LLMParams `yaml:"llm_params"`
}

// LLMParams describes how to reach one upstream provider.
type LLMParams struct {
	// APIType selects the upstream wire dialect. One of openai, anthropic, gemini.
	APIType string `yaml:"api_type"`

	// Model is the upstream's own model identifier, distinct from ModelName.
	Model string `yaml:"model"`

	// APIBase is the URL prefix the translator appends its dialect-specific path to.
	APIBase string `yaml:"api_base"`

	// APIKey authenticates against the upstream. Never logged.
	APIKey string `yaml:"api_key"`

	// RewriteHeader is merged into outbound headers after translation.
	// Default: nil (no header rewrite)
	RewriteHeader map[string]any `yaml:"rewrite_header,omitempty"`

	// RewriteBody is deep-merged into the outbound JSON body; a null value
	// at any key deletes that key.
	// Default: nil (no body rewrite)
	RewriteBody map[string]any `yaml:"rewrite_body,omitempty"`
}

// RouterSettings is the router_settings block: the strategy shared by every
// group, and the groups themselves.
type RouterSettings struct {
	// Strategy selects the picker algorithm. One of roundrobin, random, leastconn.
	// Default: roundrobin
	Strategy string `yaml:"strategy"`

	// ModelGroups is the set of client-addressable groups.
	ModelGroups []Group `yaml:"model_groups"`
}

// Group is a named, ordered collection of GroupMembers. Clients address a
// group; the picker resolves it to one Endpoint per request.
type Group struct {
	// Name is the group identifier clients supply as the request's model field.
	Name string `yaml:"name"`

	// Members is the non-empty ordered list of candidate Endpoints.
	Members []GroupMember `yaml:"model_members"`
}

// GroupMember binds one Endpoint into a Group with a selection weight and an
// optional eligibility predicate.
type GroupMember struct {
	// Name must match some Endpoint.ModelName in the same snapshot.
	Name string `yaml:"name"`

	// Weight drives weighted selection. Must be a positive integer.
	// Default: 100
	Weight int `yaml:"weight"`

	// Selector is a jq program evaluated against the request body; absent
	// means always-eligible.
	// Default: "" (always eligible)
	Selector string `yaml:"selector,omitempty"`
}

const (
	APITypeOpenAI    = "openai"
	APITypeAnthropic = "anthropic"
	APITypeGemini    = "gemini"

	StrategyRoundRobin = "roundrobin"
	StrategyRandom     = "random"
	StrategyLeastConn  = "leastconn"
)
