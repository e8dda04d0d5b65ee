package cache

import (
	"context"
	"sync"
	"time"
)

// ByteCache caches rendered image bytes by id. Implementations are safe for
// concurrent use.
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte)
	Evict(ctx context.Context, key string)
}

type memoryEntry struct {
	value    []byte
	storedAt time.Time
}

// Memory is a TTL-bounded in-process cache. When full, the oldest entry is
// evicted to make room.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
}

func NewMemory(ttl time.Duration, maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Memory{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && time.Since(entry.storedAt) > m.ttl {
		delete(m.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) Put(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.maxEntries {
		m.evictOldestLocked()
	}
	m.entries[key] = memoryEntry{value: value, storedAt: time.Now()}
}

func (m *Memory) Evict(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range m.entries {
		if m.ttl > 0 && time.Since(entry.storedAt) > m.ttl {
			delete(m.entries, key)
			return
		}
		if oldestKey == "" || entry.storedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.storedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}
