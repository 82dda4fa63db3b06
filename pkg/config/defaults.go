package config

// ApplyDefaults fills in every defaultable field left empty in the YAML
// source, mirroring the // Default: comments on each field in types.go.
func ApplyDefaults(cfg *Config) {
	if cfg.RouterSettings.Strategy == "" {
		cfg.RouterSettings.Strategy = StrategyRoundRobin
	}
	for gi := range cfg.RouterSettings.ModelGroups {
		members := cfg.RouterSettings.ModelGroups[gi].Members
		for mi := range members {
			if members[mi].Weight == 0 {
				members[mi].Weight = 100
			}
		}
	}
}
