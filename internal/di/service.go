package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// ServiceResolver is the entry point of resolution. It builds business-logic
// objects, classifying each constructor parameter with Classify and
// delegating persistence objects and utilities to the resolvers it composes.
// All three share one build lock.
type ServiceResolver struct {
	rt     *runtime
	root   *config.Config
	naming NamingStrategy
	dao    *DataAccessResolver
	util   *UtilityResolver
	store  *store

	principal auth.User
	pmu       sync.RWMutex
}

// NewServiceResolver creates a resolver over the root configuration tree. The
// application section feeds configuration parameters, data_access the
// persistence resolver and utility the utility resolver.
func NewServiceResolver(reg *typeinfo.Registry, root *config.Config, opts ...Option) *ServiceResolver {
	s := newSettings(opts)
	if root == nil {
		root = config.Empty("")
	}

	naming := s.naming
	if naming == nil {
		naming = namingFromConfig(root)
	}

	rt := newRuntime(reg, s)

	resolver := &ServiceResolver{
		rt:     rt,
		root:   root,
		naming: naming,
		dao:    NewDataAccessResolver(reg, root.GetConfig("data_access"), withRuntime(rt)),
		util:   NewUtilityResolver(reg, root.GetConfig("utility"), withRuntime(rt)),
		store:  newStore(KindService),
	}
	if s.auth != nil {
		resolver.SetAuth(s.auth)
	}
	return resolver
}

func namingFromConfig(root *config.Config) NamingStrategy {
	for _, key := range []string{
		"application.class.prefix", "application.class.suffix",
		"data_access.class.prefix", "data_access.class.suffix",
	} {
		if root.Has(key) {
			return NewAffixNaming(root)
		}
	}
	return DefaultNaming
}

// Resolve returns the single instance of the type name. Persistence and
// utility types are handed to the composed resolvers.
func (s *ServiceResolver) Resolve(ctx context.Context, name string) (any, error) {
	switch s.rt.registry.KindOf(name) {
	case typeinfo.KindDAO:
		return s.dao.Resolve(ctx, name)
	case typeinfo.KindUtility:
		return s.util.Resolve(ctx, name)
	}

	return s.rt.run(ctx, s.store, name, func(sess *session) (any, error) {
		return s.resolve(sess, name)
	})
}

// ResolveType resolves the type registered for t.
func (s *ServiceResolver) ResolveType(ctx context.Context, t reflect.Type) (any, error) {
	name, ok := s.rt.registry.NameOf(t)
	if !ok {
		return nil, errors.NewResolveError(name, "resolve", errors.ErrUnknownType(name))
	}
	return s.Resolve(ctx, name)
}

// DataAccess returns the composed persistence resolver.
func (s *ServiceResolver) DataAccess() *DataAccessResolver {
	return s.dao
}

// Utility returns the composed utility resolver.
func (s *ServiceResolver) Utility() *UtilityResolver {
	return s.util
}

// Registry returns the type registry.
func (s *ServiceResolver) Registry() *typeinfo.Registry {
	return s.rt.registry
}

// Config returns the root configuration.
func (s *ServiceResolver) Config() *config.Config {
	return s.root
}

// Naming returns the companion DAO naming strategy.
func (s *ServiceResolver) Naming() NamingStrategy {
	return s.naming
}

// Cached returns the names of the services built so far, in order.
func (s *ServiceResolver) Cached() []string {
	return s.store.names()
}

// SetPrincipal sets the active user for subsequent constructions. Instances
// already built keep their user until PropagatePrincipal runs.
func (s *ServiceResolver) SetPrincipal(user auth.User) {
	s.pmu.Lock()
	s.principal = user
	s.pmu.Unlock()
}

// SetAuth sets the active user from a.
func (s *ServiceResolver) SetAuth(a auth.Auth) {
	if a == nil {
		s.SetPrincipal(nil)
		return
	}
	s.SetPrincipal(a.User())
}

// Principal returns the active user.
func (s *ServiceResolver) Principal() auth.User {
	s.pmu.RLock()
	defer s.pmu.RUnlock()
	return s.principal
}

// PropagatePrincipal hands the active user to every cached service that
// accepts one.
func (s *ServiceResolver) PropagatePrincipal() error {
	principal := s.Principal()
	if principal == nil {
		return nil
	}

	s.rt.build.Lock()
	defer s.rt.build.Unlock()

	var errs []error
	names := s.store.names()
	for i, instance := range s.store.values() {
		aware, ok := instance.(auth.PrincipalAware)
		if !ok {
			continue
		}
		if err := aware.SetUser(principal); err != nil {
			errs = append(errs, errors.NewResolveError(names[i], "set user", err))
		}
	}
	return errors.Join(errs...)
}

func (s *ServiceResolver) resolve(sess *session, name string) (any, error) {
	if instance, ok := sess.lookup(s.store, name); ok {
		return instance, nil
	}

	desc, ok := s.rt.registry.Lookup(name)
	if !ok {
		return nil, errors.ErrUnknownType(name)
	}
	if desc.Abstract {
		return nil, errors.ErrInvalidDriver(name, name+" is abstract and cannot be instantiated")
	}

	if err := sess.enter(name); err != nil {
		return nil, err
	}
	defer sess.leave()

	instance, err := s.rt.construct(name, func(p typeinfo.Param) (any, error) {
		return s.resolveParam(sess, name, p)
	})
	if err != nil {
		return nil, err
	}

	if aware, ok := instance.(auth.PrincipalAware); ok {
		if principal := s.Principal(); principal != nil {
			if err := aware.SetUser(principal); err != nil {
				return nil, err
			}
		}
	}

	sess.stage(s.store, name, instance)
	return instance, nil
}

func (s *ServiceResolver) resolveParam(sess *session, owner string, p typeinfo.Param) (any, error) {
	slot := Classify(s.rt.registry, p)

	switch slot.Strategy {
	case StrategyConfig:
		if app := s.root.GetConfig("application"); app != nil {
			return app, nil
		}
		if p.Optional {
			return p.Default, nil
		}
		return nil, errors.ErrMissingConfiguration("no application configuration for " + owner + " " + p.Name)

	case StrategyCompanionDAO:
		return s.companionDAO(sess, owner)

	case StrategyPersistence:
		return s.dao.resolve(sess, slot.Target)

	case StrategyNestedService:
		return s.resolve(sess, slot.Target)

	case StrategyPrincipal:
		return s.principalFor(owner, p)

	case StrategyUtility:
		instance, err := s.util.resolve(sess, slot.Target)
		if err != nil {
			if !errors.IsUnknownType(err) {
				return nil, err
			}
			if p.Optional {
				return p.Default, nil
			}
			return nil, errors.ErrInvalidProperty(owner, p.Name, err)
		}
		return instance, nil

	default:
		if p.Optional {
			return p.Default, nil
		}
		return nil, errors.ErrInvalidProperty(owner, p.Name, nil)
	}
}

func (s *ServiceResolver) companionDAO(sess *session, service string) (any, error) {
	name := s.naming.CompanionDAO(service)
	if !s.rt.registry.Has(name) {
		return nil, errors.ErrInvalidDriver(name, name+" does not exist")
	}
	if s.rt.registry.KindOf(name) != typeinfo.KindDAO {
		return nil, errors.ErrInvalidDriver(name, name+" is not a persistence type")
	}
	return s.dao.resolve(sess, name)
}

func (s *ServiceResolver) principalFor(owner string, p typeinfo.Param) (any, error) {
	principal := s.Principal()
	if principal == nil {
		if p.Optional {
			return p.Default, nil
		}
		return nil, errors.ErrInvalidProperty(owner, p.Name, fmt.Errorf("no principal set"))
	}
	if p.Type != nil && p.Type != anyType && !reflect.TypeOf(principal).AssignableTo(p.Type) {
		return nil, errors.ErrInvalidProperty(owner, p.Name, fmt.Errorf("principal %T is not a %s", principal, p.Type))
	}
	return principal, nil
}
