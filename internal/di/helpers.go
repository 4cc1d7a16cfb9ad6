package di

import (
	"context"
	"fmt"
	"reflect"

	"github.com/xraph/cohesion/internal/errors"
)

// Resolve resolves the type registered for T with type safety.
func Resolve[T any](ctx context.Context, s *ServiceResolver) (T, error) {
	var zero T
	instance, err := s.ResolveType(ctx, reflect.TypeOf((*T)(nil)).Elem())
	if err != nil {
		return zero, err
	}
	return cast[T](instance)
}

// ResolveNamed resolves name and asserts the result is a T.
func ResolveNamed[T any](ctx context.Context, s *ServiceResolver, name string) (T, error) {
	var zero T
	instance, err := s.Resolve(ctx, name)
	if err != nil {
		return zero, err
	}
	typed, err := cast[T](instance)
	if err != nil {
		return zero, errors.NewResolveError(name, "resolve", err)
	}
	return typed, nil
}

// Must resolves or panics - use only during startup
func Must[T any](ctx context.Context, s *ServiceResolver) T {
	instance, err := Resolve[T](ctx, s)
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", reflect.TypeOf((*T)(nil)).Elem(), err))
	}
	return instance
}

func cast[T any](instance any) (T, error) {
	typed, ok := instance.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %T is not of type %s", errors.ErrTypeMismatch, instance, reflect.TypeOf((*T)(nil)).Elem())
	}
	return typed, nil
}
