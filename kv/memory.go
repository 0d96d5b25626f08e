package kv

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// memoryStore is the process-local fallback backend. All methods take the
// lock; the single-key operations are therefore atomic, matching what the
// Lua scripts guarantee on the Redis side.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is swapped out by tests to drive expiry deterministically.
	now func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *memoryStore) get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || m.expired(e) {
		return "", false
	}
	return e.value, true
}

func (m *memoryStore) set(key, value string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = memoryEntry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
}

func (m *memoryStore) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}

// compareAndDelete removes key only when its live value equals expect.
func (m *memoryStore) compareAndDelete(key, expect string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || m.expired(e) || e.value != expect {
		return false
	}
	delete(m.entries, key)
	return true
}

func (m *memoryStore) scan(pattern string) ([]string, error) {
	re, err := globToRegexp(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0)
	for key, e := range m.entries {
		if m.expired(e) {
			continue
		}
		if re.MatchString(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// sweep removes entries whose TTL has elapsed and reports how many went.
func (m *memoryStore) sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, e := range m.entries {
		if m.expired(e) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

// clear drops every entry and reports how many were held. Called when the
// Redis backend recovers: from that point Redis is authoritative and stale
// fallback values must not resurface on the next degradation.
func (m *memoryStore) clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.entries)
	m.entries = make(map[string]memoryEntry)
	return n
}

func (m *memoryStore) expired(e memoryEntry) bool {
	return !m.now().Before(e.expiresAt)
}

// globToRegexp translates the * wildcard pattern shared with Redis MATCH
// into an anchored regexp. Every other character matches literally.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for _, part := range strings.Split(pattern, "*") {
		if part != "" {
			b.WriteString(regexp.QuoteMeta(part))
		}
		b.WriteString(".*")
	}
	expr := strings.TrimSuffix(b.String(), ".*")
	return regexp.Compile(expr + "$")
}
