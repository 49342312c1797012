package cache

import (
	"context"
	"sync"

	"github.com/jonwraymond/toolcache/observe"
)

// Recorder receives cache events for metrics. *observe.CacheMetrics
// satisfies this interface.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic and should return quickly.
type Recorder interface {
	// RecordLookup records one Get with its outcome.
	RecordLookup(ctx context.Context, namespace string, hit bool)

	// RecordEviction records entries evicted to make room for inserts.
	RecordEviction(ctx context.Context, namespace string, evicted int64)

	// RecordInvalidation records entries dropped by an invalidation.
	RecordInvalidation(ctx context.Context, namespace string, entries int64)
}

// Manager is the process-wide entry point over all cache namespaces.
//
// It is an explicit dependency rather than a global: construct one at
// startup, pass it by reference to every consumer, and construct fresh
// instances in tests for isolation. Configuration is fixed at
// construction.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: a Set following a Get miss for the same key is visible
//   to the next Get for that key until expiry or invalidation, absent
//   interleaving writes. No cross-namespace atomicity is provided.
type Manager struct {
	cfg      Config
	limits   map[Namespace]Limits
	logger   observe.Logger
	recorder Recorder

	mu     sync.RWMutex
	stores map[Namespace]*store
}

// New creates a Manager. Invalid limits fail here, not at first use.
func New(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	limits := defaultLimits()
	for ns, lim := range cfg.Limits {
		limits[ns] = lim
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	return &Manager{
		cfg:      cfg,
		limits:   limits,
		logger:   logger,
		recorder: cfg.Recorder,
		stores:   make(map[Namespace]*store),
	}, nil
}

// Get retrieves a value. Returns (nil, false) on miss, expiry, or when
// caching is disabled.
func (m *Manager) Get(ctx context.Context, ns Namespace, key string) (any, bool) {
	if !m.cfg.Enabled {
		return nil, false
	}

	v, ok := m.store(ns).get(key)
	if m.recorder != nil {
		m.recorder.RecordLookup(ctx, string(ns), ok)
	}
	return v, ok
}

// Set stores a value under the namespace's TTL. Always succeeds; a
// disabled cache or a zero-capacity namespace makes it a no-op.
func (m *Manager) Set(ctx context.Context, ns Namespace, key string, value any) {
	if !m.cfg.Enabled {
		return
	}

	evicted := m.store(ns).set(key, value)
	if evicted > 0 && m.recorder != nil {
		m.recorder.RecordEviction(ctx, string(ns), int64(evicted))
	}
}

// Invalidate drops every entry in exactly one namespace and returns the
// number of entries removed. A file change generally invalidates a
// whole category of derived state, so this is the finest granularity
// exposed to callers.
func (m *Manager) Invalidate(ctx context.Context, ns Namespace) int {
	m.mu.RLock()
	s, ok := m.stores[ns]
	m.mu.RUnlock()
	if !ok {
		return 0
	}

	n := s.invalidateAll()
	if n > 0 {
		m.logger.Debug(ctx, "namespace invalidated",
			observe.Field{Key: "namespace", Value: string(ns)},
			observe.Field{Key: "entries", Value: n},
		)
	}
	if m.recorder != nil {
		m.recorder.RecordInvalidation(ctx, string(ns), int64(n))
	}
	return n
}

// ClearAll invalidates every known namespace.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.RLock()
	namespaces := make([]Namespace, 0, len(m.stores))
	for ns := range m.stores {
		namespaces = append(namespaces, ns)
	}
	m.mu.RUnlock()

	for _, ns := range namespaces {
		m.Invalidate(ctx, ns)
	}
}

// Stats returns a snapshot for one namespace, or ok=false if the
// namespace has never been used.
func (m *Manager) Stats(ns Namespace) (Stats, bool) {
	m.mu.RLock()
	s, ok := m.stores[ns]
	m.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	return s.stats(), true
}

// StatsAll returns snapshots for every namespace used so far.
func (m *Manager) StatsAll() map[Namespace]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[Namespace]Stats, len(m.stores))
	for ns, s := range m.stores {
		out[ns] = s.stats()
	}
	return out
}

// Config returns the configuration the Manager was built with.
func (m *Manager) Config() Config {
	return m.cfg
}

// store returns the namespace's store, lazily creating it with the
// configured or fallback limits. Unknown namespaces work out of the
// box so new consumers need no schema change.
func (m *Manager) store(ns Namespace) *store {
	m.mu.RLock()
	s, ok := m.stores[ns]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.stores[ns]; ok {
		return s
	}

	lim, ok := m.limits[ns]
	if !ok {
		lim = fallbackLimits
	}
	s = newStore(ns, lim)
	m.stores[ns] = s
	return s
}

// GetTyped retrieves a value and asserts it to V. A value of another
// type counts as a plain miss.
func GetTyped[V any](ctx context.Context, m *Manager, ns Namespace, key string) (V, bool) {
	var zero V
	raw, ok := m.Get(ctx, ns, key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}
