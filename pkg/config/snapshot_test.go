package config

import "testing"

func TestNewSnapshotIndexesEndpointsAndGroups(t *testing.T) {
	cfg := validConfig()
	snap, err := NewSnapshot(cfg)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	if _, ok := snap.Endpoints["gpt4"]; !ok {
		t.Errorf("expected endpoint gpt4 indexed")
	}
	if _, ok := snap.Groups["default"]; !ok {
		t.Errorf("expected group default indexed")
	}
	if snap.Strategy != StrategyRoundRobin {
		t.Errorf("expected strategy carried over, got %q", snap.Strategy)
	}
}

func TestNewSnapshotCompilesSelectorsOnce(t *testing.T) {
	cfg := validConfig()
	cfg.RouterSettings.ModelGroups[0].Members[0].Selector = ".model == \"gpt4\""

	snap, err := NewSnapshot(cfg)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	if snap.Selectors.Get(".model == \"gpt4\"") == nil {
		t.Errorf("expected selector to be compiled into the cache")
	}
}

func TestNewSnapshotPropagatesSelectorCompileError(t *testing.T) {
	cfg := validConfig()
	cfg.RouterSettings.ModelGroups[0].Members[0].Selector = "{{{not jq"

	if _, err := NewSnapshot(cfg); err == nil {
		t.Errorf("expected an error from an uncompilable selector")
	}
}

func TestConfiguredWeights(t *testing.T) {
	cfg := validConfig()
	cfg.RouterSettings.ModelGroups[0].Members[0].Weight = 42

	snap, err := NewSnapshot(cfg)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	weights := snap.ConfiguredWeights()
	if weights["gpt4"] != 42 {
		t.Errorf("expected configured weight 42 for gpt4, got %v", weights["gpt4"])
	}
}

func TestGroupNames(t *testing.T) {
	cfg := validConfig()
	snap, err := NewSnapshot(cfg)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	names := snap.GroupNames()
	if len(names) != 1 || names[0] != "default" {
		t.Errorf("expected [default], got %v", names)
	}
}
