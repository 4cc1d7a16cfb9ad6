package typeinfo

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/xraph/cohesion/internal/errors"
)

// Registry is the static registration table of constructible types. It maps
// qualified names to descriptors and Go types back to names.
type Registry struct {
	types  map[string]*Descriptor
	byType map[reflect.Type]string
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:  make(map[string]*Descriptor),
		byType: make(map[reflect.Type]string),
	}
}

// Register adds a type under name. ctor is nil or a function returning T or
// (T, error); its parameter types are read by reflection and named by Arg
// and OptionalArg options in positional order. Parameters without an
// explicit name take one derived from their type.
func (r *Registry) Register(name string, ctor any, opts ...Option) error {
	if name == "" {
		return errors.ErrTypeRegistration(name, fmt.Errorf("name cannot be empty"))
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	desc := &Descriptor{
		Name:     name,
		Kind:     o.kind,
		Abstract: o.abstract,
		Parent:   o.parent,
		GoType:   o.goType,
	}

	if ctor != nil {
		c, err := newConstructor(ctor, o.args)
		if err != nil {
			return errors.ErrTypeRegistration(name, err)
		}
		desc.Ctor = c
		if desc.GoType == nil {
			desc.GoType = c.ResultType()
		}
	}

	if o.wrap != nil {
		if err := setWrap(desc, o.wrap); err != nil {
			return errors.ErrTypeRegistration(name, err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[name]; exists {
		return errors.ErrTypeRegistration(name, fmt.Errorf("already registered"))
	}
	if desc.GoType != nil {
		if other, exists := r.byType[desc.GoType]; exists {
			return errors.ErrTypeRegistration(name, fmt.Errorf("go type %s already registered as %s", desc.GoType, other))
		}
		r.byType[desc.GoType] = name
	}
	r.types[name] = desc

	return nil
}

// MustRegister is Register that panics on error, for use in init-time tables.
func (r *Registry) MustRegister(name string, ctor any, opts ...Option) {
	if err := r.Register(name, ctor, opts...); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.types[name]
	return desc, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// NameOf returns the registered name for a Go type. For unregistered types
// it returns a name derived from the package and type name, and false.
func (r *Registry) NameOf(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}
	r.mu.RLock()
	name, ok := r.byType[t]
	r.mu.RUnlock()
	if ok {
		return name, true
	}
	return DerivedName(t), false
}

// KindOf returns the kind of name, inherited from the nearest ancestor that
// declares one.
func (r *Registry) KindOf(name string) Kind {
	seen := make(map[string]bool)
	for name != "" && !seen[name] {
		seen[name] = true
		desc, ok := r.Lookup(name)
		if !ok {
			return KindPlain
		}
		if desc.Kind != KindPlain {
			return desc.Kind
		}
		name = desc.Parent
	}
	return KindPlain
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func newConstructor(ctor any, args []Param) (*Constructor, error) {
	fn := reflect.ValueOf(ctor)
	fnType := fn.Type()

	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: constructor must be a function, got %T", errors.ErrInvalidCtor, ctor)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("%w: variadic constructors are not supported", errors.ErrInvalidCtor)
	}

	hasError, err := checkResults(fnType)
	if err != nil {
		return nil, err
	}

	if len(args) > fnType.NumIn() {
		return nil, fmt.Errorf("%w: %d parameter names for %d parameters", errors.ErrInvalidCtor, len(args), fnType.NumIn())
	}

	params := make([]Param, fnType.NumIn())
	for i := range params {
		t := fnType.In(i)
		if i < len(args) {
			params[i] = args[i]
		} else {
			params[i] = Param{Name: ParamName(t, i)}
		}
		params[i].Type = t
		if params[i].Optional && params[i].Default != nil {
			if _, err := argValue(params[i].Default, t); err != nil {
				return nil, fmt.Errorf("default for %s: %w", params[i].Name, err)
			}
		}
	}

	return &Constructor{Params: params, fn: fn, hasError: hasError}, nil
}

func setWrap(desc *Descriptor, wrap any) error {
	fn := reflect.ValueOf(wrap)
	fnType := fn.Type()

	if fnType.Kind() != reflect.Func || fnType.NumIn() != 1 {
		return fmt.Errorf("%w: embedding function must take exactly one parameter", errors.ErrInvalidCtor)
	}
	hasError, err := checkResults(fnType)
	if err != nil {
		return err
	}

	desc.wrap = fn
	desc.wrapsErr = hasError
	if desc.GoType == nil {
		desc.GoType = fnType.Out(0)
	}
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func checkResults(fnType reflect.Type) (bool, error) {
	switch fnType.NumOut() {
	case 1:
		return false, nil
	case 2:
		if fnType.Out(1) != errorType {
			return false, fmt.Errorf("%w: second return value must be error", errors.ErrInvalidCtor)
		}
		return true, nil
	default:
		return false, fmt.Errorf("%w: must return (T) or (T, error), got %d return values", errors.ErrInvalidCtor, fnType.NumOut())
	}
}
