package di

import (
	"slices"
	"sync"

	"github.com/xraph/cohesion/internal/errors"
)

// store is a resolver cache. Entries are written once and never evicted.
type store struct {
	kind  string
	items map[string]any
	order []string
	mu    sync.RWMutex
}

func newStore(kind string) *store {
	return &store{kind: kind, items: make(map[string]any)}
}

func (s *store) get(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[name]
	return v, ok
}

func (s *store) put(name string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[name]; !exists {
		s.order = append(s.order, name)
	}
	s.items[name] = v
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// names returns cached names in construction order.
func (s *store) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

func (s *store) values() []any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]any, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.items[name])
	}
	return out
}

type staged struct {
	store    *store
	name     string
	instance any
}

// session is the state of one top-level resolution: the stack of types under
// construction and the instances built so far. Instances only reach the
// resolver caches on commit, so a failed resolution leaves nothing behind.
type session struct {
	stack  []string
	staged []staged
}

func newSession() *session {
	return &session{}
}

// enter pushes name, failing when it is already under construction.
func (s *session) enter(name string) error {
	if slices.Contains(s.stack, name) {
		chain := append(slices.Clone(s.stack), name)
		return errors.ErrCyclicDependency(chain)
	}
	s.stack = append(s.stack, name)
	return nil
}

func (s *session) leave() {
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *session) lookup(st *store, name string) (any, bool) {
	for i := len(s.staged) - 1; i >= 0; i-- {
		if e := s.staged[i]; e.store == st && e.name == name {
			return e.instance, true
		}
	}
	return st.get(name)
}

func (s *session) stage(st *store, name string, instance any) {
	s.staged = append(s.staged, staged{store: st, name: name, instance: instance})
}

// commit moves staged instances into their caches and returns them.
func (s *session) commit() []staged {
	for _, e := range s.staged {
		e.store.put(e.name, e.instance)
	}
	built := s.staged
	s.staged = nil
	return built
}
