package di

import (
	"fmt"

	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// ConstructorLocator finds the constructor that builds a type: its own, or
// the nearest ancestor's.
type ConstructorLocator struct {
	registry *typeinfo.Registry
}

// NewConstructorLocator creates a locator over reg.
func NewConstructorLocator(reg *typeinfo.Registry) *ConstructorLocator {
	return &ConstructorLocator{registry: reg}
}

// Located is a constructor together with the path from the requested type up
// to the ancestor that declares it.
type Located struct {
	Ctor *typeinfo.Constructor
	// Path starts at the requested type and ends at the owner of Ctor.
	Path []*typeinfo.Descriptor
}

// Owner returns the descriptor that declares the constructor.
func (l *Located) Owner() *typeinfo.Descriptor {
	return l.Path[len(l.Path)-1]
}

// Params returns the parameter list to satisfy.
func (l *Located) Params() []typeinfo.Param {
	return l.Ctor.Params
}

// Locate walks the ancestor chain of name until a constructor is found.
func (cl *ConstructorLocator) Locate(name string) (*Located, error) {
	if cl.registry == nil {
		return nil, errors.ErrNilRegistry
	}

	var path []*typeinfo.Descriptor
	seen := make(map[string]bool)

	for current := name; current != ""; {
		if seen[current] {
			break
		}
		seen[current] = true

		desc, ok := cl.registry.Lookup(current)
		if !ok {
			return nil, errors.ErrUnknownType(current)
		}
		path = append(path, desc)

		if desc.Ctor != nil {
			return &Located{Ctor: desc.Ctor, Path: path}, nil
		}
		current = desc.Parent
	}

	return nil, errors.ErrNoConstructor(name)
}

// Instantiable reports whether name is registered, concrete, has a
// constructor somewhere up its chain, and embeds every ancestor below it.
func (cl *ConstructorLocator) Instantiable(name string) bool {
	return cl.CheckInstantiable(name) == nil
}

// CheckInstantiable returns why name cannot be built, wrapping
// errors.ErrNotResolvable, or nil when it can.
func (cl *ConstructorLocator) CheckInstantiable(name string) error {
	desc, ok := cl.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s is not registered", errors.ErrNotResolvable, name)
	}
	if desc.Abstract {
		return fmt.Errorf("%w: %s is abstract", errors.ErrNotResolvable, name)
	}

	located, err := cl.Locate(name)
	if err != nil {
		return fmt.Errorf("%w: %w", errors.ErrNotResolvable, err)
	}
	for _, d := range located.Path[:len(located.Path)-1] {
		if !d.HasWrap() {
			return fmt.Errorf("%w: %s has no embedding function for %s", errors.ErrNotResolvable, d.Name, d.Parent)
		}
	}
	return nil
}

// Instantiate calls the located constructor with args and wraps the result
// down the path so the returned instance is of the requested type.
func (cl *ConstructorLocator) Instantiate(located *Located, args []any) (any, error) {
	instance, err := located.Ctor.Call(args)
	if err != nil {
		return nil, err
	}

	for i := len(located.Path) - 2; i >= 0; i-- {
		instance, err = located.Path[i].Wrap(instance)
		if err != nil {
			return nil, err
		}
	}

	return instance, nil
}
