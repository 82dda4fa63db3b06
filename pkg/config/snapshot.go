package config

import "modelgate/gateway/pkg/selector"

// Snapshot is the immutable tuple (Endpoints-by-name, Groups-by-name,
// Strategy) that the Config Store publishes atomically. Once published it
// is never mutated; a reload publishes a new Snapshot rather than editing
// this one.
type Snapshot struct {
	Endpoints map[string]Endpoint
	Groups    map[string]Group
	Strategy  string
	Selectors *selector.Cache
}

// NewSnapshot indexes cfg's endpoints and groups by name and compiles every
// distinct selector text once. It assumes cfg has already passed Validate.
func NewSnapshot(cfg *Config) (*Snapshot, error) {
	endpoints := make(map[string]Endpoint, len(cfg.ModelList))
	for _, ep := range cfg.ModelList {
		endpoints[ep.ModelName] = ep
	}

	groups := make(map[string]Group, len(cfg.RouterSettings.ModelGroups))
	var selectorTexts []string
	for _, g := range cfg.RouterSettings.ModelGroups {
		groups[g.Name] = g
		for _, m := range g.Members {
			if m.Selector != "" {
				selectorTexts = append(selectorTexts, m.Selector)
			}
		}
	}

	cache, err := selector.NewCache(selectorTexts)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Endpoints: endpoints,
		Groups:    groups,
		Strategy:  cfg.RouterSettings.Strategy,
		Selectors: cache,
	}, nil
}

// ConfiguredWeights returns the configured weight of every GroupMember in
// the snapshot, indexed by Endpoint name, for health.Table.Sync to
// reconcile its runtime state against on reload. A member referencing the
// same Endpoint from more than one group contributes only the last weight
// seen; referential integrity between Members and Endpoints is enforced by
// Validate before a Snapshot is ever built.
func (s *Snapshot) ConfiguredWeights() map[string]float64 {
	weights := make(map[string]float64, len(s.Endpoints))
	for _, g := range s.Groups {
		for _, m := range g.Members {
			weights[m.Name] = float64(m.Weight)
		}
	}
	return weights
}

// GroupNames returns every group name in the snapshot, used by the
// /v1/models listing.
func (s *Snapshot) GroupNames() []string {
	names := make([]string, 0, len(s.Groups))
	for name := range s.Groups {
		names = append(names, name)
	}
	return names
}
