package di

import (
	"context"
	"fmt"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/structure"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// DefaultDriverNamespace prefixes driver type names: a Cache slot configured
// with driver Memory is built as dataaccess.Cache.Memory.
const DefaultDriverNamespace = "dataaccess"

// DataAccessResolver builds persistence objects. Each constructor parameter
// is another persistence object, resolved recursively, or a driver slot
// selected by the configuration section named after the slot type.
type DataAccessResolver struct {
	rt        *runtime
	config    *config.Config
	namespace string
	store     *store
}

// NewDataAccessResolver creates a resolver over the data_access section.
func NewDataAccessResolver(reg *typeinfo.Registry, cfg *config.Config, opts ...Option) *DataAccessResolver {
	s := newSettings(opts)
	if cfg == nil {
		cfg = config.Empty("data_access")
	}
	return &DataAccessResolver{
		rt:        newRuntime(reg, s),
		config:    cfg,
		namespace: cfg.GetString("namespace", DefaultDriverNamespace),
		store:     newStore(KindDataAccess),
	}
}

// Resolve returns the single instance of the persistence type name.
func (r *DataAccessResolver) Resolve(ctx context.Context, name string) (any, error) {
	return r.rt.run(ctx, r.store, name, func(sess *session) (any, error) {
		return r.resolve(sess, name)
	})
}

// ResolveSlot returns the driver configured for the slot type name. The
// instance is the one persistence objects declaring the slot receive.
func (r *DataAccessResolver) ResolveSlot(ctx context.Context, name string) (any, error) {
	return r.rt.run(ctx, r.store, name, func(sess *session) (any, error) {
		if instance, ok := sess.lookup(r.store, name); ok {
			return instance, nil
		}
		if !r.rt.registry.Has(name) {
			return nil, errors.ErrUnknownType(name)
		}
		driver, err := r.driver(name)
		if err != nil {
			return nil, err
		}
		sess.stage(r.store, name, driver)
		return driver, nil
	})
}

// Cached returns the names of the instances built so far, in order.
func (r *DataAccessResolver) Cached() []string {
	return r.store.names()
}

func (r *DataAccessResolver) resolve(sess *session, name string) (any, error) {
	if instance, ok := sess.lookup(r.store, name); ok {
		return instance, nil
	}

	desc, ok := r.rt.registry.Lookup(name)
	if !ok {
		return nil, errors.ErrUnknownType(name)
	}
	if desc.Abstract {
		return nil, errors.ErrInvalidAccess(name+" is abstract and cannot be instantiated", nil)
	}

	if err := sess.enter(name); err != nil {
		return nil, err
	}
	defer sess.leave()

	instance, err := r.rt.construct(name, func(p typeinfo.Param) (any, error) {
		return r.resolveParam(sess, name, p)
	})
	if err != nil {
		return nil, err
	}

	sess.stage(r.store, name, instance)
	return instance, nil
}

func (r *DataAccessResolver) resolveParam(sess *session, owner string, p typeinfo.Param) (any, error) {
	if !p.IsObject() {
		return nil, errors.ErrInvalidAccess(fmt.Sprintf(
			"unknown access type for %s constructor parameter '%s', persistence parameters must declare an object type",
			owner, p.Name), nil)
	}

	slot, _ := r.rt.registry.NameOf(p.Type)
	if instance, ok := sess.lookup(r.store, slot); ok {
		return instance, nil
	}

	if r.rt.registry.KindOf(slot) == typeinfo.KindDAO {
		return r.resolve(sess, slot)
	}

	driver, err := r.driver(slot)
	if err != nil {
		return nil, err
	}
	sess.stage(r.store, slot, driver)
	return driver, nil
}

// driver builds the implementation selected for slot.
func (r *DataAccessResolver) driver(slot string) (any, error) {
	short := typeinfo.ShortName(slot)

	section := r.config.GetConfigFold(short)
	if section == nil {
		return nil, errors.ErrUnknownAccessType(short)
	}

	driverName := slot
	if driver, ok := section.Driver(); ok {
		driverName = typeinfo.Join(r.namespace, short, driver)
		if !r.rt.registry.Has(driverName) {
			return nil, errors.ErrInvalidAccess("no type found for "+driverName+" driver", nil)
		}
	} else {
		desc, ok := r.rt.registry.Lookup(slot)
		if !ok || desc.Abstract {
			return nil, errors.ErrInvalidAccess("no driver found for "+short, nil)
		}
	}

	if err := r.rt.locator.CheckInstantiable(driverName); err != nil {
		return nil, errors.ErrInvalidAccess(driverName+" is not instantiable", err)
	}

	located, err := r.rt.locator.Locate(driverName)
	if err != nil {
		return nil, errors.ErrInvalidAccess("unable to construct "+driverName, err)
	}

	params := located.Params()
	switch {
	case len(params) == 0:
		return r.rt.locator.Instantiate(located, nil)
	case len(params) == 1 && params[0].Type == structure.ConfigType:
		return r.rt.locator.Instantiate(located, []any{section})
	default:
		return nil, errors.ErrInvalidAccess("unable to construct "+driverName+" as it doesn't take a configuration object", nil)
	}
}
