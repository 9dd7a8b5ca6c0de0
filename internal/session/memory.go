package session

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	sess     Session
	lastSeen time.Time
}

// MemoryStore keeps sessions in a process-local map with an idle TTL.
// Expired entries are evicted opportunistically, the same way the rate
// limiter evicts idle buckets.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	ttl      time.Duration
	now      func() time.Time
	cleanupN uint64
}

// NewMemoryStore returns a MemoryStore whose sessions expire after ttl of
// inactivity. A ttl <= 0 defaults to 24h.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		entries: make(map[string]*memEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.gcLocked(now)

	e, ok := m.entries[id]
	if !ok || now.Sub(e.lastSeen) >= m.ttl {
		delete(m.entries, id)
		return nil, ErrNotFound
	}
	e.lastSeen = now
	cp := e.sess
	cp.markClean()
	return &cp, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	cp.markClean()
	m.entries[s.ID] = &memEntry{sess: cp, lastSeen: m.now()}
	s.markClean()
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored (possibly expired) sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// gcLocked evicts expired entries after ~1000 lookups. Caller holds mu.
func (m *MemoryStore) gcLocked(now time.Time) {
	m.cleanupN++
	if m.cleanupN < 1000 {
		return
	}
	for k, e := range m.entries {
		if now.Sub(e.lastSeen) >= m.ttl {
			delete(m.entries, k)
		}
	}
	m.cleanupN = 0
}
