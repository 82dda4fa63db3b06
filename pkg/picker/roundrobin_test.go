package picker

import (
	"sync"
	"testing"

	"modelgate/gateway/pkg/health"
)

func newTestPicker() *Picker {
	return &Picker{health: health.NewTable(), groupMu: make(map[string]*sync.Mutex)}
}

func TestPickRoundRobinFavorsHigherWeight(t *testing.T) {
	p := newTestPicker()
	candidates := []Candidate{
		{Endpoint: fakeEndpoint("a"), EffectiveWeight: 1, ConfiguredWeight: 1},
		{Endpoint: fakeEndpoint("b"), EffectiveWeight: 3, ConfiguredWeight: 3},
	}

	counts := map[string]int{}
	for i := 0; i < 8; i++ {
		winner := p.pickRoundRobin("g", candidates)
		counts[winner.Endpoint.ModelName]++
	}

	if counts["b"] <= counts["a"] {
		t.Errorf("expected endpoint b (weight 3) to win more often over 8 rounds, got %v", counts)
	}
}

func TestPickRoundRobinDecrementsWinnerAccumulator(t *testing.T) {
	p := newTestPicker()
	candidates := []Candidate{
		{Endpoint: fakeEndpoint("a"), EffectiveWeight: 1, ConfiguredWeight: 1},
		{Endpoint: fakeEndpoint("b"), EffectiveWeight: 1, ConfiguredWeight: 1},
	}

	first := p.pickRoundRobin("g", candidates)
	second := p.pickRoundRobin("g", candidates)

	if first.Endpoint.ModelName == second.Endpoint.ModelName {
		t.Errorf("expected round-robin to alternate between equal-weight candidates across two picks, got %s twice", first.Endpoint.ModelName)
	}
}

func TestPickRoundRobinIsolatesGroups(t *testing.T) {
	p := newTestPicker()
	candidates := []Candidate{
		{Endpoint: fakeEndpoint("a"), EffectiveWeight: 1, ConfiguredWeight: 1},
		{Endpoint: fakeEndpoint("b"), EffectiveWeight: 1, ConfiguredWeight: 1},
	}

	g1First := p.pickRoundRobin("group1", candidates)
	g2First := p.pickRoundRobin("group2", candidates)

	if g1First.Endpoint.ModelName != g2First.Endpoint.ModelName {
		t.Errorf("expected independent groups to start from the same fresh accumulator state")
	}
}
