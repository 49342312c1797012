package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is one cached value, exclusively owned by its store.
type entry struct {
	key        string
	value      any
	insertedAt time.Time
	expiresAt  time.Time
	lastAccess time.Time
}

// store is the bounded LRU+TTL store backing one namespace. The order
// list keeps the most recently used entry at the front; every element
// holds an *entry and is indexed by key in the entries map.
type store struct {
	name   Namespace
	limits Limits

	mu        sync.Mutex
	entries   map[string]*list.Element
	order     *list.List
	hits      int64
	misses    int64
	evictions int64
}

func newStore(name Namespace, limits Limits) *store {
	return &store{
		name:    name,
		limits:  limits,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// get returns the live value for key, promoting it to most recently
// used. An entry past its TTL counts as a miss and is removed.
func (s *store) get(key string) (any, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		s.misses++
		return nil, false
	}

	ent := elem.Value.(*entry)
	if !now.Before(ent.expiresAt) {
		// Expired - remove lazily
		s.order.Remove(elem)
		delete(s.entries, key)
		s.misses++
		return nil, false
	}

	ent.lastAccess = now
	s.order.MoveToFront(elem)
	s.hits++
	return ent.value, true
}

// set inserts or replaces the value for key. Inserting a new key at
// capacity first evicts the least recently used entry. Returns the
// number of entries evicted (0 or 1).
//
// A namespace with MaxItems or TTL of zero never stores anything:
// Set quietly succeeds and the next Get misses, which disables caching
// for that namespace without branching consumer code.
func (s *store) set(key string, value any) int {
	if s.limits.MaxItems <= 0 || s.limits.TTL <= 0 {
		return 0
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.insertedAt = now
		ent.expiresAt = now.Add(s.limits.TTL)
		ent.lastAccess = now
		s.order.MoveToFront(elem)
		return 0
	}

	evicted := 0
	if s.order.Len() >= s.limits.MaxItems {
		s.evictOldest()
		evicted = 1
	}

	s.entries[key] = s.order.PushFront(&entry{
		key:        key,
		value:      value,
		insertedAt: now,
		expiresAt:  now.Add(s.limits.TTL),
		lastAccess: now,
	})
	return evicted
}

// evictOldest removes the entry with the oldest most-recent access.
// Caller must hold s.mu.
func (s *store) evictOldest() {
	elem := s.order.Back()
	if elem == nil {
		return
	}
	ent := elem.Value.(*entry)
	s.order.Remove(elem)
	delete(s.entries, ent.key)
	s.evictions++
}

// invalidate removes one entry. Idempotent.
func (s *store) invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.entries[key]; ok {
		s.order.Remove(elem)
		delete(s.entries, key)
	}
}

// invalidateAll removes every entry and returns how many were dropped.
// Hit/miss accounting survives invalidation.
func (s *store) invalidateAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.order.Len()
	s.entries = make(map[string]*list.Element)
	s.order.Init()
	return n
}

// stats returns a snapshot of the store's accounting.
func (s *store) stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
		Size:      s.order.Len(),
	}
}
