package config

import (
	"fmt"
	"net/url"
	"strings"

	"modelgate/gateway/pkg/selector"
)

var validAPITypes = map[string]bool{
	APITypeOpenAI:    true,
	APITypeAnthropic: true,
	APITypeGemini:    true,
}

var validStrategies = map[string]bool{
	StrategyRoundRobin: true,
	StrategyRandom:     true,
	StrategyLeastConn:  true,
}

// ValidationError collects every problem found in one pass over the config
// so an operator sees all of them instead of fixing one typo at a time.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration invalid (%d errors): %s", len(e.Errors), strings.Join(e.Errors, "; "))
}

// Validate checks schema presence, referential integrity between groups and
// endpoints, jq compilability of every selector, URL shape of api_base,
// presence of api_key, and membership of api_type/strategy against their
// enumerations.
func Validate(cfg *Config) error {
	var errs []string

	if len(cfg.ModelList) == 0 {
		errs = append(errs, "model_list must not be empty")
	}

	seen := make(map[string]bool, len(cfg.ModelList))
	for i, ep := range cfg.ModelList {
		path := fmt.Sprintf("model_list[%d]", i)
		if ep.ModelName == "" {
			errs = append(errs, path+": model_name is required")
		} else if seen[ep.ModelName] {
			errs = append(errs, path+": duplicate model_name "+ep.ModelName)
		}
		seen[ep.ModelName] = true

		if !validAPITypes[ep.LLMParams.APIType] {
			errs = append(errs, path+": llm_params.api_type must be one of openai, anthropic, gemini")
		}
		if ep.LLMParams.APIKey == "" {
			errs = append(errs, path+": llm_params.api_key is required")
		}
		if ep.LLMParams.APIBase == "" {
			errs = append(errs, path+": llm_params.api_base is required")
		} else if u, err := url.Parse(ep.LLMParams.APIBase); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, path+": llm_params.api_base must be an absolute URL")
		}
	}

	if !validStrategies[cfg.RouterSettings.Strategy] {
		errs = append(errs, "router_settings.strategy must be one of roundrobin, random, leastconn")
	}

	if len(cfg.RouterSettings.ModelGroups) == 0 {
		errs = append(errs, "router_settings.model_groups must not be empty")
	}

	groupNames := make(map[string]bool, len(cfg.RouterSettings.ModelGroups))
	for gi, g := range cfg.RouterSettings.ModelGroups {
		path := fmt.Sprintf("router_settings.model_groups[%d]", gi)
		if g.Name == "" {
			errs = append(errs, path+": name is required")
		} else if groupNames[g.Name] {
			errs = append(errs, path+": duplicate group name "+g.Name)
		}
		groupNames[g.Name] = true

		if len(g.Members) == 0 {
			errs = append(errs, path+": model_members must not be empty")
		}

		for mi, m := range g.Members {
			mpath := fmt.Sprintf("%s.model_members[%d]", path, mi)
			if m.Name == "" {
				errs = append(errs, mpath+": name is required")
			} else if !seen[m.Name] {
				errs = append(errs, mpath+": name "+m.Name+" does not match any model_list entry")
			}
			if m.Weight <= 0 {
				errs = append(errs, mpath+": weight must be a positive integer")
			}
			if m.Selector != "" {
				if _, err := selector.Compile(m.Selector); err != nil {
					errs = append(errs, mpath+": selector does not compile: "+err.Error())
				}
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
