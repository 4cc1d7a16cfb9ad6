package session

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is the idle lifetime of a session.
const DefaultTTL = 30 * time.Minute

type record struct {
	values  map[string][]byte
	expires time.Time
}

// MemoryStore keeps sessions in process. Idle sessions expire after the ttl.
type MemoryStore struct {
	sessions map[string]*record
	ttl      time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

// NewMemoryStore creates a store. A non-positive ttl keeps sessions forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*record),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) Touch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.live(id)
	if r == nil {
		r = &record{values: make(map[string][]byte)}
		m.sessions[id] = r
	}
	m.refresh(r)
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.live(id)
	if r == nil {
		return nil, false, nil
	}
	m.refresh(r)
	v, ok := r.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, id, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.live(id)
	if r == nil {
		r = &record{values: make(map[string][]byte)}
		m.sessions[id] = r
	}
	r.values[key] = value
	m.refresh(r)
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, id, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r := m.live(id); r != nil {
		delete(r.values, key)
	}
	return nil
}

func (m *MemoryStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id := range m.sessions {
		if m.live(id) != nil {
			n++
		}
	}
	return n
}

// live returns the record of id, dropping it when expired. Callers hold mu.
func (m *MemoryStore) live(id string) *record {
	r, ok := m.sessions[id]
	if !ok {
		return nil
	}
	if !r.expires.IsZero() && !m.now().Before(r.expires) {
		delete(m.sessions, id)
		return nil
	}
	return r
}

func (m *MemoryStore) refresh(r *record) {
	if m.ttl > 0 {
		r.expires = m.now().Add(m.ttl)
	}
}
