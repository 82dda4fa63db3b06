package selector

import "testing"

func TestNewCacheCompilesDistinctSources(t *testing.T) {
	c, err := NewCache([]string{".a == 1", ".b == 2", ".a == 1", ""})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if c.Get(".a == 1") == nil {
		t.Errorf("expected .a == 1 to be compiled")
	}
	if c.Get(".b == 2") == nil {
		t.Errorf("expected .b == 2 to be compiled")
	}
}

func TestNewCacheSkipsEmptySource(t *testing.T) {
	c, err := NewCache([]string{""})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if c.Get("") != nil {
		t.Errorf("expected empty source to never be registered")
	}
}

func TestNewCachePropagatesCompileError(t *testing.T) {
	_, err := NewCache([]string{".ok == true", "{{{not valid"})
	if err == nil {
		t.Errorf("expected an error from the invalid selector source")
	}
}

func TestCacheGetUnknownSourceReturnsNil(t *testing.T) {
	c, err := NewCache([]string{".a == 1"})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if c.Get(".never == registered") != nil {
		t.Errorf("expected nil for a source never passed to NewCache")
	}
}

func TestEvaluateMemberEmptySourceAlwaysEligible(t *testing.T) {
	c, _ := NewCache(nil)
	if c.EvaluateMember("", map[string]any{}) != Eligible {
		t.Errorf("expected empty selector source to be always Eligible")
	}
}

func TestEvaluateMemberUsesCachedProgram(t *testing.T) {
	c, err := NewCache([]string{".region == \"us\""})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	if c.EvaluateMember(".region == \"us\"", map[string]any{"region": "us"}) != Eligible {
		t.Errorf("expected Eligible for matching region")
	}
	if c.EvaluateMember(".region == \"us\"", map[string]any{"region": "eu"}) != Ineligible {
		t.Errorf("expected Ineligible for non-matching region")
	}
}

func TestCacheGetNilReceiverIsSafe(t *testing.T) {
	var c *Cache
	if c.Get("anything") != nil {
		t.Errorf("expected nil-receiver Get to return nil, not panic")
	}
}
