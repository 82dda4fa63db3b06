// Package config loads the gateway's YAML configuration, validates it, and
// publishes it as an immutable Snapshot behind a single atomically
// replaceable reference. A background Watcher observes the source file and
// triggers a debounced reload on change; a failed reload leaves the prior
// Snapshot live and logs the error rather than taking the process down.
//
// Readers never hold a lock across a request: Store.Current takes one
// atomic load and the returned *Snapshot is immutable for the lifetime of
// the request that captured it.
package config
