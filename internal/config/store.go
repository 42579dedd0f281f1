package config

import (
	"sync"
	"sync/atomic"
)

// Store publishes the current Config to readers without locking. Writers are
// serialized so concurrent updates never lose each other's changes, and
// subscribers see snapshots in the order they were stored. Subscribers must
// not write to the store.
type Store struct {
	current atomic.Pointer[Config]
	// order is held from the write through notification.
	order sync.Mutex
	mu    sync.Mutex
	subs  []func(Config)
}

// NewStore creates a store holding cfg.
func NewStore(cfg Config) *Store {
	s := &Store{}
	s.current.Store(&cfg)
	return s
}

// Current returns the latest snapshot.
func (s *Store) Current() Config {
	return *s.current.Load()
}

// Replace installs cfg as the new snapshot.
func (s *Store) Replace(cfg Config) {
	s.order.Lock()
	defer s.order.Unlock()
	s.mu.Lock()
	s.current.Store(&cfg)
	subs := append([]func(Config){}, s.subs...)
	s.mu.Unlock()
	notify(subs, cfg)
}

// Update applies fn to a copy of the current snapshot and publishes the result.
func (s *Store) Update(fn func(*Config)) Config {
	s.order.Lock()
	defer s.order.Unlock()
	s.mu.Lock()
	next := *s.current.Load()
	fn(&next)
	s.current.Store(&next)
	subs := append([]func(Config){}, s.subs...)
	s.mu.Unlock()
	notify(subs, next)
	return next
}

// Patch overlays values on the current snapshot. Rejected fields are returned
// and keep their previous value.
func (s *Store) Patch(values map[string]any) (Config, []error) {
	var errs []error
	cfg := s.Update(func(c *Config) {
		*c, errs = Apply(*c, values)
	})
	return cfg, errs
}

// Subscribe registers fn to run after every change.
func (s *Store) Subscribe(fn func(Config)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func notify(subs []func(Config), cfg Config) {
	for _, fn := range subs {
		fn(cfg)
	}
}
