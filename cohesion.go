// Package cohesion resolves object graphs from constructor signatures and a
// hierarchical configuration tree.
//
// Types are registered by name in a Registry. A ServiceResolver builds
// business-logic services, handing persistence objects to a
// DataAccessResolver, which selects slot drivers from the data_access
// section, and utilities to a UtilityResolver, which builds them from the
// utility section. Every type is constructed at most once per resolver.
//
//	reg := cohesion.NewRegistry()
//	_ = cohesion.RegisterBuiltins(reg)
//	_ = reg.Register("app.UserService", NewUserService, cohesion.AsService())
//
//	env, _ := cohesion.NewEnvironment(cohesion.WithDir("config"))
//	c, _ := env.Container(reg)
//	users, err := cohesion.Resolve[*UserService](ctx, c.Resolver())
package cohesion

import (
	"context"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/dataaccess/cache"
	"github.com/xraph/cohesion/internal/dataaccess/redisconn"
	"github.com/xraph/cohesion/internal/di"
	"github.com/xraph/cohesion/internal/environment"
	"github.com/xraph/cohesion/internal/session"
	"github.com/xraph/cohesion/internal/structure"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// Registry and type descriptors.
type (
	Registry   = typeinfo.Registry
	Descriptor = typeinfo.Descriptor
	Param      = typeinfo.Param
	Kind       = typeinfo.Kind
	Option     = typeinfo.Option
)

// Resolvers.
type (
	Container          = di.Container
	ServiceResolver    = di.ServiceResolver
	DataAccessResolver = di.DataAccessResolver
	UtilityResolver    = di.UtilityResolver
	ResolverOption     = di.Option
	NamingStrategy     = di.NamingStrategy
	AffixNaming        = di.AffixNaming
)

// Configuration and environment.
type (
	Config            = config.Config
	Environment       = environment.Environment
	EnvironmentOption = environment.Option
)

// Principals and framework bases.
type (
	User           = auth.User
	Auth           = auth.Auth
	PrincipalAware = auth.PrincipalAware
	DefaultService = structure.DefaultService
	DAO            = structure.DAO
	BaseDAO        = structure.BaseDAO
)

// Built-in components.
type (
	Cache        = cache.Cache
	SessionStore = session.Store
	Session      = session.Session
)

// Kinds.
const (
	KindPlain   = typeinfo.KindPlain
	KindService = typeinfo.KindService
	KindDAO     = typeinfo.KindDAO
	KindUtility = typeinfo.KindUtility
)

// Registration options.
var (
	AsService   = typeinfo.AsService
	AsDAO       = typeinfo.AsDAO
	AsUtility   = typeinfo.AsUtility
	Abstract    = typeinfo.Abstract
	Extends     = typeinfo.Extends
	Embeds      = typeinfo.Embeds
	Arg         = typeinfo.Arg
	OptionalArg = typeinfo.OptionalArg
)

// Resolver options.
var (
	WithLogger         = di.WithLogger
	WithRecorder       = di.WithRecorder
	WithTracer         = di.WithTracer
	WithTracerProvider = di.WithTracerProvider
	WithNaming         = di.WithNaming
	WithAuth           = di.WithAuth
)

// Environment options.
var (
	WithDir    = environment.WithDir
	WithName   = environment.WithName
	WithGetenv = environment.WithGetenv
)

// DefaultServiceName is the registered name of DefaultService.
const DefaultServiceName = structure.DefaultServiceName

// For sets the Go type parameters must declare to be resolved as the
// registered type.
func For[T any]() Option {
	return typeinfo.For[T]()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return typeinfo.NewRegistry()
}

// RegisterBuiltins adds the framework types to reg: DefaultService, the
// Cache slot with its Memory and Redis drivers, the Redis client utility and
// the session Store with its drivers.
func RegisterBuiltins(reg *Registry) error {
	for _, register := range []func(*typeinfo.Registry) error{
		structure.Register,
		cache.Register,
		redisconn.Register,
		session.Register,
	} {
		if err := register(reg); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a configuration tree over data.
func NewConfig(data map[string]any) *Config {
	return config.New("", data)
}

// NewContainer creates a container over a registry and a root configuration.
func NewContainer(reg *Registry, root *Config, opts ...ResolverOption) (*Container, error) {
	return di.NewContainer(reg, root, opts...)
}

// NewServiceResolver creates a resolver over a registry and a root
// configuration.
func NewServiceResolver(reg *Registry, root *Config, opts ...ResolverOption) *ServiceResolver {
	return di.NewServiceResolver(reg, root, opts...)
}

// NewEnvironment loads the layered configuration.
func NewEnvironment(opts ...EnvironmentOption) (*Environment, error) {
	return environment.New(opts...)
}

// NewUser creates a user.
func NewUser(id, username string, admin bool) User {
	return auth.NewUser(id, username, admin)
}

// StartSession opens session id in store, or a new one when id is empty.
func StartSession(ctx context.Context, store SessionStore, id string) (*Session, error) {
	return session.Start(ctx, store, id)
}

// Resolve resolves the type registered for T.
func Resolve[T any](ctx context.Context, s *ServiceResolver) (T, error) {
	return di.Resolve[T](ctx, s)
}

// ResolveNamed resolves name and asserts the result is a T.
func ResolveNamed[T any](ctx context.Context, s *ServiceResolver, name string) (T, error) {
	return di.ResolveNamed[T](ctx, s, name)
}

// Must resolves T or panics.
func Must[T any](ctx context.Context, s *ServiceResolver) T {
	return di.Must[T](ctx, s)
}
