package typeinfo

import "reflect"

// Option configures a registration.
type Option func(*options)

type options struct {
	kind     Kind
	abstract bool
	parent   string
	goType   reflect.Type
	args     []Param
	wrap     any
}

// AsService marks the type as business logic.
func AsService() Option {
	return func(o *options) { o.kind = KindService }
}

// AsDAO marks the type as a persistence object.
func AsDAO() Option {
	return func(o *options) { o.kind = KindDAO }
}

// AsUtility marks the type as a config-driven utility.
func AsUtility() Option {
	return func(o *options) { o.kind = KindUtility }
}

// WithKind sets the kind explicitly.
func WithKind(k Kind) Option {
	return func(o *options) { o.kind = k }
}

// Abstract marks the type as not directly instantiable.
func Abstract() Option {
	return func(o *options) { o.abstract = true }
}

// Extends declares the parent type. A type registered without a constructor
// inherits the nearest ancestor's.
func Extends(parent string) Option {
	return func(o *options) { o.parent = parent }
}

// Embeds sets the function that builds the type around an instance of its
// parent, for types that inherit a constructor. fn must be func(P) T or
// func(P) (T, error).
func Embeds(fn any) Option {
	return func(o *options) { o.wrap = fn }
}

// For sets the Go type parameters must declare to be resolved as this type.
// It is required for abstract types without a constructor, typically
// interfaces.
func For[T any]() Option {
	return func(o *options) { o.goType = reflect.TypeOf((*T)(nil)).Elem() }
}

// Arg names the next constructor parameter.
func Arg(name string) Option {
	return func(o *options) { o.args = append(o.args, Param{Name: name}) }
}

// OptionalArg names the next constructor parameter and gives it a default.
func OptionalArg(name string, def any) Option {
	return func(o *options) {
		o.args = append(o.args, Param{Name: name, Optional: true, Default: def})
	}
}
