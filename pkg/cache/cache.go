package cache

import (
	"strings"
	"sync"
)

// Store is a keyed in-process cache shared by the dashboard read and write
// paths. Keys are plain strings built from (resource-type, scope) parts so a
// whole partition can be invalidated by prefix. Values are stored as-is;
// callers are expected to treat cached values as immutable and replace them
// through Patch rather than mutating in place.
type Store struct {
	mu    sync.RWMutex
	items map[string]any
}

func NewStore() *Store {
	return &Store{items: make(map[string]any)}
}

// Key joins scope parts into a cache key. Parts never contain ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.items[key]
	return value, ok
}

func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// InvalidatePrefix drops every entry whose key starts with prefix and reports
// how many were removed.
func (s *Store) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			delete(s.items, key)
			removed++
		}
	}
	return removed
}

// Keys returns the keys under prefix in unspecified order.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0)
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Patch applies edit atomically to the entry at key. The edit receives the
// current value and whether it exists, and returns the replacement value and
// whether the entry should remain. Returning keep=false deletes the entry.
func (s *Store) Patch(key string, edit func(value any, ok bool) (any, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.items[key]
	next, keep := edit(value, ok)
	if !keep {
		delete(s.items, key)
		return
	}
	s.items[key] = next
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
