package di

import (
	"sync"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// Container holds what resolvers are built from: the registry, the root
// configuration and the resolver options. Resolver returns one long-lived
// resolver shared by all callers; BeginScope returns a fresh one per unit of
// work, with its own caches.
type Container struct {
	registry *typeinfo.Registry
	root     *config.Config
	opts     []Option

	shared *ServiceResolver
	once   sync.Once
}

// NewContainer creates a container.
func NewContainer(reg *typeinfo.Registry, root *config.Config, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.ErrNilRegistry
	}
	if root == nil {
		root = config.Empty("")
	}
	return &Container{
		registry: reg,
		root:     root,
		opts:     opts,
	}, nil
}

// Registry returns the type registry.
func (c *Container) Registry() *typeinfo.Registry {
	return c.registry
}

// Config returns the root configuration.
func (c *Container) Config() *config.Config {
	return c.root
}

// Resolver returns the shared resolver, creating it on first use.
func (c *Container) Resolver() *ServiceResolver {
	c.once.Do(func() {
		c.shared = NewServiceResolver(c.registry, c.root, c.opts...)
	})
	return c.shared
}

// BeginScope returns a new resolver whose caches live as long as the caller
// keeps it, typically one request or one command.
func (c *Container) BeginScope(opts ...Option) *ServiceResolver {
	all := make([]Option, 0, len(c.opts)+len(opts))
	all = append(all, c.opts...)
	all = append(all, opts...)
	return NewServiceResolver(c.registry, c.root, all...)
}
