package config

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// Store holds the current Snapshot behind a single atomically-replaceable
// reference. Readers call Current once per request and use the returned
// Snapshot throughout; a reload that lands mid-request never affects a
// request already in flight.
type Store struct {
	path    string
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger

	// OnReload, if set, is called with every Snapshot published by Reload.
	// It is not called for the initial Snapshot built by NewStore; callers
	// that need the Health Table synced against the startup config should
	// do so once against Current() before assigning OnReload. The picker's
	// Health Table hooks in here to reconcile its runtime state against the
	// snapshot's configured weights.
	OnReload func(*Snapshot)
}

// NewStore loads path, builds the initial Snapshot, and returns a Store
// ready to serve Current(). A load failure at startup is fatal; there is no
// prior snapshot to fall back to.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	snap, err := NewSnapshot(cfg)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}
	s.current.Store(snap)
	return s, nil
}

// Current returns the live Snapshot. It is a single atomic load; no lock is
// held, so callers may retain the result across a long-lived request.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload re-reads the config file and, on success, atomically swaps the
// current Snapshot for the new one. On any failure — read, parse, validate,
// or selector compile — the prior Snapshot remains live and the error is
// returned for the caller to log; the process keeps serving the old config.
func (s *Store) Reload() error {
	cfg, err := LoadConfig(s.path)
	if err != nil {
		return err
	}
	snap, err := NewSnapshot(cfg)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}
	s.current.Store(snap)
	s.logger.Info("config reloaded",
		"path", s.path,
		"endpoints", len(snap.Endpoints),
		"groups", len(snap.Groups),
	)
	if s.OnReload != nil {
		s.OnReload(snap)
	}
	return nil
}
