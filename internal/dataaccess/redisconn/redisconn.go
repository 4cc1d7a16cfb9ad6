// Package redisconn builds go-redis clients from configuration sections.
package redisconn

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// ClientName is the registered name of *redis.Client.
const ClientName = "redisconn.Client"

// Defaults applied when a section leaves a setting out.
const (
	DefaultAddr        = "localhost:6379"
	DefaultDialTimeout = 5 * time.Second
)

// NewClient creates a client. It does not connect; go-redis dials lazily.
func NewClient(addr, password string, db int, dialTimeout time.Duration, poolSize int) *redis.Client {
	if addr == "" {
		addr = DefaultAddr
	}
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: dialTimeout,
		PoolSize:    poolSize,
	})
}

// Options reads client options from a section. A url key takes precedence
// over addr, password and db.
func Options(cfg *config.Config) (*redis.Options, error) {
	if cfg == nil {
		cfg = config.Empty("")
	}

	var opts *redis.Options
	if url := cfg.GetString("url"); url != "" {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, errors.ErrConfigError("invalid redis url", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.GetString("addr", DefaultAddr),
			Password: cfg.GetString("password"),
			DB:       cfg.GetInt("db"),
		}
	}

	opts.DialTimeout = cfg.GetDuration("dial_timeout", DefaultDialTimeout)
	if size := cfg.GetInt("pool_size"); size > 0 {
		opts.PoolSize = size
	}
	return opts, nil
}

// FromConfig creates a client from a section.
func FromConfig(cfg *config.Config) (*redis.Client, error) {
	opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// Ping checks connectivity, bounded by timeout when it is positive.
func Ping(ctx context.Context, client *redis.Client, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return client.Ping(ctx).Err()
}

// Register adds the client utility to reg. The utility is built from its
// whole section by FromConfig, so it reads the same keys as Options.
func Register(reg *typeinfo.Registry) error {
	return reg.Register(ClientName, FromConfig,
		typeinfo.AsUtility(),
		typeinfo.OptionalArg("config", nil),
	)
}
