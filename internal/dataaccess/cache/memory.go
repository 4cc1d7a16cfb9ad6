package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Memory is an in-process cache. Expired entries are dropped on access.
type Memory struct {
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemory creates an empty cache whose entries never expire by default.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// WithTTL sets the default expiry used when Set is given a zero ttl.
func (m *Memory) WithTTL(ttl time.Duration) *Memory {
	m.mu.Lock()
	m.ttl = ttl
	m.mu.Unlock()
	return m
}

func (m *Memory) Get(_ context.Context, key string, target any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return false, nil
	}
	return true, json.Unmarshal(e.value, target)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ttl == 0 {
		ttl = m.ttl
	}
	e := entry{value: data}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Driver() string { return "memory" }
