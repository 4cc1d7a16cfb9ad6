package di

import (
	"context"
	"strings"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/structure"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// UtilityResolver builds config-driven utilities. The configuration section
// of a utility selects its driver and supplies the driver's constructor
// parameters, nested sections building nested utilities.
type UtilityResolver struct {
	rt     *runtime
	config *config.Config
	store  *store
}

// NewUtilityResolver creates a resolver over the utility section. cfg may be
// nil, in which case only utilities that need no configuration resolve.
func NewUtilityResolver(reg *typeinfo.Registry, cfg *config.Config, opts ...Option) *UtilityResolver {
	return &UtilityResolver{
		rt:     newRuntime(reg, newSettings(opts)),
		config: cfg,
		store:  newStore(KindUtility),
	}
}

// Resolve returns the single instance of the utility type name.
func (r *UtilityResolver) Resolve(ctx context.Context, name string) (any, error) {
	return r.rt.run(ctx, r.store, name, func(sess *session) (any, error) {
		return r.resolve(sess, name)
	})
}

// Cached returns the names of the instances built so far, in order.
func (r *UtilityResolver) Cached() []string {
	return r.store.names()
}

func (r *UtilityResolver) resolve(sess *session, name string) (any, error) {
	if instance, ok := sess.lookup(r.store, name); ok {
		return instance, nil
	}

	desc, ok := r.rt.registry.Lookup(name)
	if !ok {
		return nil, errors.ErrUnknownType(name)
	}

	if err := sess.enter(name); err != nil {
		return nil, err
	}
	defer sess.leave()

	section := r.section(name)

	var (
		instance any
		err      error
	)
	if section == nil {
		instance, err = r.buildUnconfigured(desc)
	} else {
		instance, err = r.buildConfigured(desc, section)
	}
	if err != nil {
		return nil, err
	}

	sess.stage(r.store, name, instance)
	return instance, nil
}

// section finds the configuration of name: by full name, literal key first,
// then by short name, exact and lower-cased.
func (r *UtilityResolver) section(name string) *config.Config {
	if r.config == nil {
		return nil
	}
	short := typeinfo.ShortName(name)
	for _, key := range []string{name, short, strings.ToLower(short)} {
		if section := r.config.GetConfig(key); section != nil {
			return section
		}
	}
	return nil
}

func (r *UtilityResolver) buildUnconfigured(desc *typeinfo.Descriptor) (any, error) {
	if !r.rt.locator.Instantiable(desc.Name) {
		return nil, errors.ErrMissingConfiguration("no configuration found for utility " + desc.Name)
	}
	located, err := r.rt.locator.Locate(desc.Name)
	if err != nil {
		return nil, err
	}
	if located.Ctor.RequiredParams() > 0 {
		return nil, errors.ErrMissingConfiguration("no configuration found for utility " + desc.Name)
	}

	args := make([]any, len(located.Params()))
	for i, p := range located.Params() {
		args[i] = p.Default
	}
	return r.rt.locator.Instantiate(located, args)
}

func (r *UtilityResolver) buildConfigured(desc *typeinfo.Descriptor, section *config.Config) (any, error) {
	driver, ok := section.Driver()
	if !ok {
		if !r.rt.locator.Instantiable(desc.Name) {
			return nil, errors.ErrMissingConfiguration("configuration for " + desc.Name + " must include a driver")
		}
		return r.build(desc.Name, section, "")
	}

	if err := r.checkDriver(desc.Name, driver); err != nil {
		return nil, err
	}
	return r.build(driver, section, "")
}

func (r *UtilityResolver) checkDriver(owner, driver string) error {
	if !r.rt.registry.Has(driver) {
		return errors.ErrInvalidDriver(driver, owner+" driver "+driver+" doesn't exist")
	}
	if err := r.rt.locator.CheckInstantiable(driver); err != nil {
		invalid := errors.ErrInvalidDriver(driver, owner+" driver "+driver+" is not instantiable")
		invalid.Cause = err
		return invalid
	}
	return nil
}

// build constructs name from section. label names the nested section in
// error messages.
func (r *UtilityResolver) build(name string, section *config.Config, label string) (any, error) {
	if label == "" {
		label = typeinfo.ShortName(name)
	}

	return r.rt.construct(name, func(p typeinfo.Param) (any, error) {
		if p.Type == structure.ConfigType || (p.Type == anyType && p.Name == ParamConfig) {
			return section, nil
		}

		value := section.Get(p.Name)
		switch {
		case value != nil && p.IsObject() && p.Type != anyType:
			return r.buildNested(name, p, section)
		case value != nil:
			converted, err := config.ConvertTo(value, p.Type)
			if err != nil {
				return nil, errors.ErrInvalidProperty(name, p.Name, err)
			}
			return converted.Interface(), nil
		case p.Optional:
			return p.Default, nil
		default:
			return nil, errors.ErrMissingConfiguration("missing configuration for " + label + " " + p.Name)
		}
	})
}

// buildNested builds a utility parameter from the section stored under the
// parameter's name, honouring a nested driver key.
func (r *UtilityResolver) buildNested(owner string, p typeinfo.Param, section *config.Config) (any, error) {
	nested := section.GetConfig(p.Name)
	if nested == nil {
		return nil, errors.ErrMissingConfiguration("configuration for " + owner + " " + p.Name + " must be a section")
	}

	if driver, ok := nested.Driver(); ok {
		if err := r.checkDriver(owner+"."+p.Name, driver); err != nil {
			return nil, err
		}
		return r.build(driver, nested, p.Name)
	}

	name, registered := r.rt.registry.NameOf(p.Type)
	if !registered {
		return nil, errors.ErrUnknownType(name)
	}
	if !r.rt.locator.Instantiable(name) {
		return nil, errors.ErrMissingConfiguration("configuration for " + owner + " " + p.Name + " must include a driver")
	}
	return r.build(name, nested, p.Name)
}
