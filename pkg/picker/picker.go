// Package picker implements the weighted selection engine: given a group
// and a request body, it returns one eligible Endpoint according to the
// configured strategy, consulting the Selector for eligibility and the
// Health/Weight Table for effective weight and in-flight counts.
package picker

import (
	"sync"

	"modelgate/gateway/pkg/config"
	"modelgate/gateway/pkg/gwerrors"
	"modelgate/gateway/pkg/health"
	"modelgate/gateway/pkg/selector"
)

// Candidate is one eligible GroupMember resolved against its Endpoint,
// carrying the live weight/in-flight numbers the strategy needs.
type Candidate struct {
	Endpoint        config.Endpoint
	EffectiveWeight float64
	InFlight        int64
	ConfiguredWeight float64
}

// Handle is what the picker hands back to the Proxy Engine: the chosen
// Endpoint, a Health guard the engine must release exactly once, and the
// set of names already tried so a retry can exclude them.
type Handle struct {
	Endpoint config.Endpoint
	Guard    *health.Guard
	Tried    map[string]bool
}

// Picker is stateless apart from the per-group mutexes guarding the
// smooth-weighted-round-robin accumulator, so a single Picker is shared
// across all requests.
type Picker struct {
	store  *config.Store
	health *health.Table

	groupMuMu sync.Mutex
	groupMu   map[string]*sync.Mutex
}

// New builds a Picker over store's live snapshots and health's runtime
// state.
func New(store *config.Store, healthTable *health.Table) *Picker {
	return &Picker{
		store:   store,
		health:  healthTable,
		groupMu: make(map[string]*sync.Mutex),
	}
}

func (p *Picker) mutexFor(group string) *sync.Mutex {
	p.groupMuMu.Lock()
	defer p.groupMuMu.Unlock()
	m, ok := p.groupMu[group]
	if !ok {
		m = &sync.Mutex{}
		p.groupMu[group] = m
	}
	return m
}

// Pick resolves groupName against the current snapshot and returns one
// eligible Endpoint not already present in tried. tried is nil or empty on
// the first attempt and accumulates names as the Proxy Engine retries.
func (p *Picker) Pick(groupName string, body any, tried map[string]bool) (*Handle, error) {
	snap := p.store.Current()

	group, ok := snap.Groups[groupName]
	if !ok {
		return nil, &gwerrors.UnknownGroupError{Group: groupName}
	}

	var eligible []Candidate
	for _, member := range group.Members {
		if tried != nil && tried[member.Name] {
			continue
		}
		ep, ok := snap.Endpoints[member.Name]
		if !ok {
			continue // referential integrity was checked at validate time; defensive only
		}
		if snap.Selectors.EvaluateMember(member.Selector, body) != selector.Eligible {
			continue
		}
		effectiveWeight, inFlight := p.health.SnapshotFor(member.Name, float64(member.Weight))
		eligible = append(eligible, Candidate{
			Endpoint:         ep,
			EffectiveWeight:  effectiveWeight,
			InFlight:         inFlight,
			ConfiguredWeight: float64(member.Weight),
		})
	}

	if len(eligible) == 0 {
		return nil, &gwerrors.NoEligibleModelError{Group: groupName}
	}

	working := eligible
	var positive []Candidate
	for _, c := range eligible {
		if c.EffectiveWeight > 0 {
			positive = append(positive, c)
		}
	}
	switch {
	case len(positive) > 0:
		working = positive
	case len(eligible) == 1:
		working = eligible
	default:
		return nil, &gwerrors.NoEligibleModelError{Group: groupName}
	}

	var chosen Candidate
	switch snap.Strategy {
	case config.StrategyRandom:
		chosen = pickRandom(working)
	case config.StrategyLeastConn:
		chosen = pickLeastConn(working)
	default: // roundrobin
		chosen = p.pickRoundRobin(groupName, working)
	}

	guard := p.health.Begin(chosen.Endpoint.ModelName, chosen.ConfiguredWeight)

	newTried := make(map[string]bool, len(tried)+1)
	for k := range tried {
		newTried[k] = true
	}
	newTried[chosen.Endpoint.ModelName] = true

	return &Handle{Endpoint: chosen.Endpoint, Guard: guard, Tried: newTried}, nil
}
