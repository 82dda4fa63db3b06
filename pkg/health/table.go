// Package health tracks per-endpoint effective weight and in-flight request
// counts across config reloads, providing the weight-decay-on-failure
// behavior the picker's strategies read from.
package health

import (
	"sync"
	"sync/atomic"
)

// state is one endpoint's runtime bookkeeping. effectiveWeight and current
// (the smooth-weighted-round-robin accumulator) are guarded by mu since they
// combine on every pick; inFlight is a plain atomic since it only ever
// increments or decrements independently.
type state struct {
	mu             sync.Mutex
	effectiveWeight float64
	current        float64
	inFlight       atomic.Int64
}

// Table is the shared, concurrency-safe map of endpoint name to runtime
// state. Entries are created lazily on first observation and pruned when a
// config reload drops the corresponding endpoint.
type Table struct {
	mu      sync.RWMutex
	states  map[string]*state
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{states: make(map[string]*state)}
}

func (t *Table) getOrInit(name string, initialWeight float64) *state {
	t.mu.RLock()
	st, ok := t.states[name]
	t.mu.RUnlock()
	if ok {
		return st
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if st, ok := t.states[name]; ok {
		return st
	}
	st = &state{effectiveWeight: initialWeight}
	t.states[name] = st
	return st
}

// Sync reconciles the table against the set of endpoint names and their
// configured weights visible in the newly published snapshot: names not yet
// seen start at their configured weight, and names no longer present have
// their runtime state dropped. It is called once per reload.
func (t *Table) Sync(configuredWeight map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, w := range configuredWeight {
		if _, ok := t.states[name]; !ok {
			t.states[name] = &state{effectiveWeight: w}
		}
	}
	for name := range t.states {
		if _, ok := configuredWeight[name]; !ok {
			delete(t.states, name)
		}
	}
}

// Guard is returned by Begin and released exactly once, on every exit path
// of the proxied request, decrementing in_flight.
type Guard struct {
	st       *state
	released atomic.Bool
}

// Release decrements in_flight. Safe to call more than once; only the first
// call has an effect.
func (g *Guard) Release() {
	if g.released.CompareAndSwap(false, true) {
		g.st.inFlight.Add(-1)
	}
}

// Begin increments name's in_flight counter and returns a Guard whose
// Release decrements it back. initialWeight seeds the entry if this is the
// first time name has been observed.
func (t *Table) Begin(name string, initialWeight float64) *Guard {
	st := t.getOrInit(name, initialWeight)
	st.inFlight.Add(1)
	return &Guard{st: st}
}

// RecordFailure halves name's effective weight. There is no floor above 0;
// repeated failures converge the weight toward (but never below) zero.
func (t *Table) RecordFailure(name string) {
	st := t.getOrInit(name, 0)
	st.mu.Lock()
	st.effectiveWeight /= 2
	st.mu.Unlock()
}

// RecordSuccess is a no-op: the spec defines no automatic weight recovery.
// Weight is restored only by a configuration reload. It exists so call
// sites can record outcomes symmetrically without a conditional.
func (t *Table) RecordSuccess(name string) {}

// SnapshotFor returns name's current effective weight and in-flight count.
func (t *Table) SnapshotFor(name string, initialWeight float64) (effectiveWeight float64, inFlight int64) {
	st := t.getOrInit(name, initialWeight)
	st.mu.Lock()
	w := st.effectiveWeight
	st.mu.Unlock()
	return w, st.inFlight.Load()
}

// ForEach calls fn once per tracked endpoint with its current effective
// weight and in-flight count, for the metrics collector's periodic gauge
// scrape. fn must not call back into the Table.
func (t *Table) ForEach(fn func(name string, effectiveWeight float64, inFlight int64)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for name, st := range t.states {
		st.mu.Lock()
		w := st.effectiveWeight
		st.mu.Unlock()
		fn(name, w, st.inFlight.Load())
	}
}

// WithCurrent calls fn with a pointer to name's smooth-weighted-round-robin
// accumulator and its effective weight, holding name's entry lock for the
// call, so the roundrobin strategy can read-modify-write the accumulator
// atomically with respect to other users of the same entry.
func (t *Table) WithCurrent(name string, initialWeight float64, fn func(current *float64, weight float64)) {
	st := t.getOrInit(name, initialWeight)
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.current, st.effectiveWeight)
}
