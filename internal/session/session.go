// Package session provides the Session utility: per-visitor key/value state
// held in a configurable store.
//
//	utility:
//	  Store:
//	    driver: session.RedisStore
//	    client:
//	      addr: localhost:6379
//	    ttl: 30m
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/xraph/cohesion/internal/typeinfo"
)

// Registered names.
const (
	StoreName       = "session.Store"
	MemoryStoreName = "session.MemoryStore"
	RedisStoreName  = "session.RedisStore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store persists session values. Values are JSON-encoded by Session.
type Store interface {
	// Touch creates the session if needed and refreshes its expiry.
	Touch(ctx context.Context, id string) error
	Load(ctx context.Context, id, key string) ([]byte, bool, error)
	Save(ctx context.Context, id, key string, value []byte) error
	Remove(ctx context.Context, id, key string) error
	Destroy(ctx context.Context, id string) error
}

// Session is a handle on one visitor's state.
type Session struct {
	id    string
	store Store
	ended bool
	mu    sync.Mutex
}

// Start opens the session id in store, or a new session when id is empty.
func Start(ctx context.Context, store Store, id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if err := store.Touch(ctx, id); err != nil {
		return nil, err
	}
	return &Session{id: id, store: store}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Get decodes the value at key into target and reports whether it was set.
func (s *Session) Get(ctx context.Context, key string, target any) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	data, ok, err := s.store.Load(ctx, s.id, key)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(data, target)
}

// Set stores value at key.
func (s *Session) Set(ctx context.Context, key string, value any) error {
	if err := s.check(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, s.id, key, data)
}

// Delete removes key.
func (s *Session) Delete(ctx context.Context, key string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.store.Remove(ctx, s.id, key)
}

// End destroys the session. Later calls on the handle fail with ErrEnded.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil
	}
	if err := s.store.Destroy(ctx, s.id); err != nil {
		return err
	}
	s.ended = true
	return nil
}

func (s *Session) check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrEnded
	}
	return nil
}

// Register adds the store slot and both drivers to reg.
func Register(reg *typeinfo.Registry) error {
	if err := reg.Register(StoreName, nil,
		typeinfo.AsUtility(), typeinfo.Abstract(), typeinfo.For[Store](),
	); err != nil {
		return err
	}
	if err := reg.Register(MemoryStoreName, NewMemoryStore,
		typeinfo.OptionalArg("ttl", DefaultTTL),
	); err != nil {
		return err
	}
	return reg.Register(RedisStoreName, NewRedisStore,
		typeinfo.Arg("client"),
		typeinfo.OptionalArg("prefix", DefaultPrefix),
		typeinfo.OptionalArg("ttl", DefaultTTL),
	)
}
