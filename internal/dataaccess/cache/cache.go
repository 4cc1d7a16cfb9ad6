// Package cache provides the Cache persistence slot and its drivers.
//
// A persistence object declares a Cache parameter and the data_access
// section picks the driver:
//
//	data_access:
//	  cache:
//	    driver: Redis
//	    addr: localhost:6379
//	    prefix: "app:"
//	    ttl: 10m
package cache

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xraph/cohesion/internal/typeinfo"
)

// Registered names.
const (
	SlotName   = "dataaccess.Cache"
	MemoryName = "dataaccess.Cache.Memory"
	RedisName  = "dataaccess.Cache.Redis"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache stores JSON-encoded values by key.
type Cache interface {
	// Get decodes the value stored at key into target and reports whether
	// the key was present.
	Get(ctx context.Context, key string, target any) (bool, error)
	// Set stores value at key. A zero ttl uses the driver default; a
	// negative ttl stores the value without expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Driver() string
}

// Register adds the slot and both drivers to reg.
func Register(reg *typeinfo.Registry) error {
	if err := reg.Register(SlotName, nil, typeinfo.Abstract(), typeinfo.For[Cache]()); err != nil {
		return err
	}
	if err := reg.Register(MemoryName, NewMemory); err != nil {
		return err
	}
	return reg.Register(RedisName, NewRedis)
}
