package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openkick/predictor/internal/platform/logging"
)

const defaultRefreshFloor = 30 * time.Second

// LoaderFunc fetches the value for a cache key.
type LoaderFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	writtenAt time.Time
	ttl       time.Duration
	loader    LoaderFunc
	timer     *time.Timer
}

type flightCall struct {
	done chan struct{}
	val  any
	err  error
}

// Stat describes one cache entry for the diagnostic surface.
type Stat struct {
	Age     time.Duration `json:"age_ms"`
	TTL     time.Duration `json:"ttl_ms"`
	Expired bool          `json:"expired"`
}

// Store is an in-process key/value cache with per-key TTL.
//
// A miss or expired read runs the loader with at most one outstanding fetch
// per key; concurrent callers wait on the completion channel and share the
// result. Successful loads schedule a background refresh shortly before the
// entry expires so steady-state readers observe hits. Failed loads serve the
// previous value when one exists (fail-open) and never mutate the entry.
type Store struct {
	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]*flightCall
	// gens guards against an in-flight fetch resurrecting a key that was
	// explicitly invalidated while the fetch was running.
	gens map[string]uint64

	logger       *logging.Logger
	now          func() time.Time
	refreshFloor time.Duration
	closed       bool
}

func NewStore(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		entries:      make(map[string]*entry),
		inflight:     make(map[string]*flightCall),
		gens:         make(map[string]uint64),
		logger:       logger,
		now:          time.Now,
		refreshFloor: defaultRefreshFloor,
	}
}

// Get returns the value for key when present and within its TTL.
func (s *Store) Get(key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !s.freshLocked(e) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the given TTL and schedules its refresh
// using the previously registered loader, if any.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	var loader LoaderFunc
	if prev, ok := s.entries[key]; ok {
		loader = prev.loader
	}
	s.storeLocked(key, value, ttl, loader)
}

// GetOrLoad returns the cached value for key, loading it when missing or
// expired. The loader runs detached from the caller's cancellation so an
// abandoned call still populates the cache for subsequent readers.
func (s *Store) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader LoaderFunc) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	s.mu.Lock()
	if e, ok := s.entries[key]; ok && s.freshLocked(e) {
		value := e.value
		s.mu.Unlock()
		return value, nil
	}

	c, leader := s.inflight[key]
	if !leader {
		c = &flightCall{done: make(chan struct{})}
		s.inflight[key] = c
		gen := s.gens[key]
		s.mu.Unlock()
		go s.runFetch(context.WithoutCancel(ctx), key, gen, ttl, loader, c)
	} else {
		s.mu.Unlock()
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if c.err != nil {
		return s.staleOr(ctx, key, c.err)
	}
	return c.val, nil
}

// Invalidate cancels any pending refresh and removes the entry. An in-flight
// fetch for the key is allowed to finish but its result is discarded.
func (s *Store) Invalidate(key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[key]++
	e, ok := s.entries[key]
	if !ok {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.entries, key)
}

// Stats reports age and expiry per key. Diagnostic only.
func (s *Store) Stats() map[string]Stat {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make(map[string]Stat, len(s.entries))
	for key, e := range s.entries {
		age := now.Sub(e.writtenAt)
		out[key] = Stat{
			Age:     age,
			TTL:     e.ttl,
			Expired: e.ttl > 0 && age >= e.ttl,
		}
	}
	return out
}

// Close stops all refresh timers. The store rejects writes afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (s *Store) runFetch(ctx context.Context, key string, gen uint64, ttl time.Duration, loader LoaderFunc, c *flightCall) {
	value, err := loader(ctx)

	s.mu.Lock()
	if err == nil && s.gens[key] == gen && !s.closed {
		s.storeLocked(key, value, ttl, loader)
	}
	delete(s.inflight, key)
	c.val, c.err = value, err
	close(c.done)
	s.mu.Unlock()
}

// refresh is invoked by the per-entry timer. It shares the in-flight marker
// with GetOrLoad so a synchronous fetch and a timer refresh never overlap.
func (s *Store) refresh(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || s.closed || e.loader == nil {
		s.mu.Unlock()
		return
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return
	}

	c := &flightCall{done: make(chan struct{})}
	s.inflight[key] = c
	gen := s.gens[key]
	ttl, loader := e.ttl, e.loader
	s.mu.Unlock()

	value, err := loader(context.Background())

	s.mu.Lock()
	switch {
	case err == nil && s.gens[key] == gen && !s.closed:
		s.storeLocked(key, value, ttl, loader)
	case err != nil:
		s.logger.Warn("cache refresh failed, keeping previous entry", "key", key, "error", err)
		if cur, exists := s.entries[key]; exists && s.gens[key] == gen && !s.closed {
			s.scheduleLocked(key, cur, s.refreshFloor)
		}
	}
	delete(s.inflight, key)
	c.val, c.err = value, err
	close(c.done)
	s.mu.Unlock()
}

func (s *Store) staleOr(ctx context.Context, key string, err error) (any, error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return nil, err
	}

	s.logger.WarnContext(ctx, "cache fetch failed, serving stale entry",
		"key", key,
		"age", s.now().Sub(e.writtenAt).String(),
		"error", err,
	)
	return e.value, nil
}

func (s *Store) storeLocked(key string, value any, ttl time.Duration, loader LoaderFunc) {
	if prev, ok := s.entries[key]; ok && prev.timer != nil {
		prev.timer.Stop()
	}

	e := &entry{
		value:     value,
		writtenAt: s.now(),
		ttl:       ttl,
		loader:    loader,
	}
	s.entries[key] = e

	if ttl > 0 && loader != nil {
		interval := ttl * 9 / 10
		if interval < s.refreshFloor {
			interval = s.refreshFloor
		}
		s.scheduleLocked(key, e, interval)
	}
}

func (s *Store) scheduleLocked(key string, e *entry, interval time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(interval, func() { s.refresh(key) })
}

func (s *Store) freshLocked(e *entry) bool {
	if e.ttl <= 0 {
		return true
	}
	return s.now().Sub(e.writtenAt) < e.ttl
}
