package typeinfo

import (
	"fmt"
	"reflect"

	"github.com/xraph/cohesion/internal/errors"
)

// Kind is the capability a registered type carries. It drives how a
// constructor parameter of that type is resolved.
type Kind int

const (
	// KindPlain types have no capability of their own.
	KindPlain Kind = iota
	// KindService types hold business logic and are built by the service resolver.
	KindService
	// KindDAO types are persistence objects built by the data access resolver.
	KindDAO
	// KindUtility types are config-driven helpers built by the utility resolver.
	KindUtility
)

func (k Kind) String() string {
	switch k {
	case KindService:
		return "service"
	case KindDAO:
		return "dao"
	case KindUtility:
		return "utility"
	default:
		return "plain"
	}
}

// Param describes one constructor parameter.
type Param struct {
	Name     string
	Type     reflect.Type
	Optional bool
	Default  any
}

// IsObject reports whether the parameter declares an object type, as opposed
// to a plain value such as a string, number or slice of scalars.
func (p Param) IsObject() bool {
	return IsObjectType(p.Type)
}

// Constructor is a registered constructor function with its parameter list.
type Constructor struct {
	Params []Param

	fn       reflect.Value
	hasError bool
}

// RequiredParams returns the number of parameters without a default.
func (c *Constructor) RequiredParams() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, p := range c.Params {
		if !p.Optional {
			n++
		}
	}
	return n
}

// ResultType returns the type the constructor produces.
func (c *Constructor) ResultType() reflect.Type {
	return c.fn.Type().Out(0)
}

// Call invokes the constructor. A nil argument becomes the zero value of its
// parameter type and numeric values are converted between numeric kinds.
func (c *Constructor) Call(args []any) (any, error) {
	fnType := c.fn.Type()
	if fnType.NumIn() != len(args) {
		return nil, fmt.Errorf("%w: constructor expects %d parameters, got %d", errors.ErrInvalidCtor, fnType.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		value, err := argValue(arg, fnType.In(i))
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", c.Params[i].Name, err)
		}
		in[i] = value
	}

	return unpackResults(c.fn.Call(in), c.hasError)
}

// Descriptor is the registered description of a constructible type.
type Descriptor struct {
	// Name is the qualified name, namespace and short name separated by dots.
	Name string
	Kind Kind
	// Abstract types are never built directly, though their constructor can
	// be inherited by descendants.
	Abstract bool
	// Parent names the ancestor whose constructor is inherited when Ctor is nil.
	Parent string
	Ctor   *Constructor
	// GoType is the type of the built instance. Parameters declaring this type
	// are resolved as this descriptor.
	GoType reflect.Type

	wrap     reflect.Value
	wrapsErr bool
}

// ShortName returns the unqualified name.
func (d *Descriptor) ShortName() string {
	return ShortName(d.Name)
}

// Namespace returns the qualifier of the name.
func (d *Descriptor) Namespace() string {
	return Namespace(d.Name)
}

// HasWrap reports whether the type can be built from an ancestor instance.
func (d *Descriptor) HasWrap() bool {
	return d.wrap.IsValid()
}

// Wrap builds this type around an instance of its parent.
func (d *Descriptor) Wrap(base any) (any, error) {
	if !d.wrap.IsValid() {
		return nil, errors.ErrTypeRegistration(d.Name, fmt.Errorf("no embedding function for parent %s", d.Parent))
	}
	value, err := argValue(base, d.wrap.Type().In(0))
	if err != nil {
		return nil, errors.ErrTypeRegistration(d.Name, err)
	}
	return unpackResults(d.wrap.Call([]reflect.Value{value}), d.wrapsErr)
}

// IsObjectType reports whether t is a pointer, interface or struct type.
func IsObjectType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Struct:
		return true
	default:
		return false
	}
}

func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", errors.ErrTypeMismatch, v.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func unpackResults(results []reflect.Value, hasError bool) (any, error) {
	if hasError {
		if errValue := results[1]; !errValue.IsNil() {
			return nil, errValue.Interface().(error)
		}
	}
	return results[0].Interface(), nil
}
