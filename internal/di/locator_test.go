package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/structure"
	"github.com/xraph/cohesion/internal/typeinfo"
)

func TestConstructorLocator_OwnConstructor(t *testing.T) {
	cl := NewConstructorLocator(newTestRegistry(t))

	located, err := cl.Locate("test.WidgetDAO")
	require.NoError(t, err)
	assert.Equal(t, "test.WidgetDAO", located.Owner().Name)
	require.Len(t, located.Params(), 2)
	assert.Equal(t, "cache", located.Params()[0].Name)
	assert.Equal(t, "clock", located.Params()[1].Name)
}

func TestConstructorLocator_InheritedConstructor(t *testing.T) {
	cl := NewConstructorLocator(newTestRegistry(t))

	located, err := cl.Locate("test.WidgetService")
	require.NoError(t, err)
	assert.Equal(t, structure.DefaultServiceName, located.Owner().Name)
	require.Len(t, located.Path, 2)
	assert.Equal(t, "test.WidgetService", located.Path[0].Name)

	names := make([]string, 0, len(located.Params()))
	for _, p := range located.Params() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"config", "dao", "user"}, names)

	instance, err := cl.Instantiate(located, []any{config.Empty("application"), &WidgetDAO{}, nil})
	require.NoError(t, err)
	ws, ok := instance.(*WidgetService)
	require.True(t, ok)
	assert.NotNil(t, ws.Config())
}

func TestConstructorLocator_Failures(t *testing.T) {
	reg := typeinfo.NewRegistry()
	require.NoError(t, reg.Register("test.Base", nil, typeinfo.Abstract()))
	require.NoError(t, reg.Register("test.Child", nil, typeinfo.Extends("test.Base")))
	require.NoError(t, reg.Register("test.Orphan", nil, typeinfo.Extends("test.Missing")))
	require.NoError(t, reg.Register("test.SelfA", nil, typeinfo.Extends("test.SelfB")))
	require.NoError(t, reg.Register("test.SelfB", nil, typeinfo.Extends("test.SelfA")))

	cl := NewConstructorLocator(reg)

	tests := []struct {
		name     string
		target   string
		sentinel error
	}{
		{"no constructor in chain", "test.Child", errors.ErrNoConstructorSentinel},
		{"abstract base without constructor", "test.Base", errors.ErrNoConstructorSentinel},
		{"unregistered ancestor", "test.Orphan", errors.ErrUnknownTypeSentinel},
		{"unregistered type", "test.Nope", errors.ErrUnknownTypeSentinel},
		{"looping ancestry", "test.SelfA", errors.ErrNoConstructorSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cl.Locate(tt.target)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	assert.ErrorIs(t, func() error { _, err := NewConstructorLocator(nil).Locate("x"); return err }(), errors.ErrNilRegistry)
}

func TestConstructorLocator_Instantiable(t *testing.T) {
	cl := NewConstructorLocator(newTestRegistry(t))

	assert.True(t, cl.Instantiable("test.WidgetService"))
	assert.True(t, cl.Instantiable("dataaccess.Cache.Memory"))
	assert.False(t, cl.Instantiable(structure.DefaultServiceName))
	assert.False(t, cl.Instantiable("test.Cache"))
	assert.False(t, cl.Instantiable("test.Unknown"))
}

func TestConstructorLocator_CheckInstantiable(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register("test.DetachedService", nil, typeinfo.Extends(structure.DefaultServiceName)))
	require.NoError(t, reg.Register("test.Stub", nil, typeinfo.Abstract()))
	require.NoError(t, reg.Register("test.StubChild", nil, typeinfo.Extends("test.Stub")))
	cl := NewConstructorLocator(reg)

	require.NoError(t, cl.CheckInstantiable("test.WidgetService"))

	tests := []struct {
		name   string
		target string
		cause  error
	}{
		{"missing embedding", "test.DetachedService", nil},
		{"abstract", structure.DefaultServiceName, nil},
		{"unregistered", "test.Unknown", nil},
		{"no constructor", "test.StubChild", errors.ErrNoConstructorSentinel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cl.CheckInstantiable(tt.target)
			assert.ErrorIs(t, err, errors.ErrNotResolvable)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.False(t, cl.Instantiable(tt.target))
		})
	}
}
