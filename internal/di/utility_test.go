package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/typeinfo"
)

func newUtility(t *testing.T, section map[string]any) *UtilityResolver {
	t.Helper()
	var cfg *config.Config
	if section != nil {
		cfg = config.New("utility", section)
	}
	return NewUtilityResolver(newTestRegistry(t), cfg)
}

func TestUtilityResolver_ConfiguredDriver(t *testing.T) {
	r := newUtility(t, testConfig().GetConfig("utility").AllSettings())

	instance, err := r.Resolve(context.Background(), "test.Mailer")
	require.NoError(t, err)

	m, ok := instance.(*SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.test", m.Host())
	assert.Equal(t, 2525, m.Port)
	assert.Equal(t, 10*time.Second, m.Timeout)

	tls, ok := m.Transport.(*TLSTransport)
	require.True(t, ok, "nested driver selects the transport")
	assert.Equal(t, "server.pem", tls.cert)

	require.NotNil(t, m.Retry)
	assert.Equal(t, 3, m.Retry.Attempts)

	again, err := r.Resolve(context.Background(), "test.Mailer")
	require.NoError(t, err)
	assert.Same(t, m, again)
}

func TestUtilityResolver_OptionalDefaults(t *testing.T) {
	r := newUtility(t, map[string]any{
		"Mailer": map[string]any{"driver": "test.SMTPMailer", "host": "h", "port": 25},
	})

	instance, err := r.Resolve(context.Background(), "test.Mailer")
	require.NoError(t, err)

	m := instance.(*SMTPMailer)
	assert.Equal(t, 5*time.Second, m.Timeout)
	assert.Nil(t, m.Transport)
	assert.Nil(t, m.Retry)
}

func TestUtilityResolver_SectionLookup(t *testing.T) {
	tests := []struct {
		name    string
		section map[string]any
	}{
		{"literal full name", map[string]any{"test.Signer": map[string]any{"key": "k"}}},
		{"dotted full name", map[string]any{"test": map[string]any{"Signer": map[string]any{"key": "k"}}}},
		{"short name", map[string]any{"Signer": map[string]any{"key": "k"}}},
		{"lower-cased short name", map[string]any{"signer": map[string]any{"key": "k"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newUtility(t, tt.section)
			instance, err := r.Resolve(context.Background(), "test.Signer")
			require.NoError(t, err)
			assert.Equal(t, "k", instance.(*Signer).Key)
		})
	}
}

func TestUtilityResolver_WithoutConfiguration(t *testing.T) {
	r := newUtility(t, nil)

	first, err := r.Resolve(context.Background(), "test.IDGen")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "test.IDGen")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = r.Resolve(context.Background(), "test.Signer")
	assert.ErrorIs(t, err, errors.ErrMissingConfigurationSentinel)
	assert.Contains(t, err.Error(), "no configuration found for utility test.Signer")
}

func TestUtilityResolver_Failures(t *testing.T) {
	tests := []struct {
		name     string
		section  map[string]any
		target   string
		sentinel error
		message  string
	}{
		{
			name:     "abstract type without driver",
			section:  map[string]any{"Mailer": map[string]any{"host": "h"}},
			target:   "test.Mailer",
			sentinel: errors.ErrMissingConfigurationSentinel,
			message:  "must include a driver",
		},
		{
			name:     "driver does not exist",
			section:  map[string]any{"Mailer": map[string]any{"driver": "test.PigeonMailer"}},
			target:   "test.Mailer",
			sentinel: errors.ErrInvalidDriverSentinel,
			message:  "test.PigeonMailer doesn't exist",
		},
		{
			name:     "driver not instantiable",
			section:  map[string]any{"Mailer": map[string]any{"driver": "test.Transport"}},
			target:   "test.Mailer",
			sentinel: errors.ErrInvalidClassSentinel,
			message:  "is not instantiable",
		},
		{
			name:     "required parameter missing",
			section:  map[string]any{"Mailer": map[string]any{"driver": "test.SMTPMailer", "host": "h"}},
			target:   "test.Mailer",
			sentinel: errors.ErrMissingConfigurationSentinel,
			message:  "missing configuration for SMTPMailer port",
		},
		{
			name: "nested required parameter missing",
			section: map[string]any{"Mailer": map[string]any{
				"driver": "test.SMTPMailer", "host": "h", "port": 1,
				"transport": map[string]any{"driver": "test.PlainTransport"},
			}},
			target:   "test.Mailer",
			sentinel: errors.ErrMissingConfigurationSentinel,
			message:  "missing configuration for transport secure",
		},
		{
			name: "nested abstract without driver",
			section: map[string]any{"Mailer": map[string]any{
				"driver": "test.SMTPMailer", "host": "h", "port": 1,
				"transport": map[string]any{"secure": true},
			}},
			target:   "test.Mailer",
			sentinel: errors.ErrMissingConfigurationSentinel,
			message:  "must include a driver",
		},
		{
			name: "scalar cannot be converted",
			section: map[string]any{"Mailer": map[string]any{
				"driver": "test.SMTPMailer", "host": "h", "port": "not-a-port",
			}},
			target:   "test.Mailer",
			sentinel: errors.ErrInvalidPropertySentinel,
			message:  "port",
		},
		{
			name:     "unknown type",
			section:  map[string]any{},
			target:   "test.Nothing",
			sentinel: errors.ErrUnknownTypeSentinel,
			message:  "test.Nothing doesn't exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newUtility(t, tt.section)
			_, err := r.Resolve(context.Background(), tt.target)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, r.Cached())
		})
	}
}

func TestUtilityResolver_NestedPlainDriver(t *testing.T) {
	r := newUtility(t, map[string]any{"Mailer": map[string]any{
		"driver": "test.SMTPMailer", "host": "h", "port": 1,
		"transport": map[string]any{"driver": "test.PlainTransport", "secure": "true"},
	}})

	instance, err := r.Resolve(context.Background(), "test.Mailer")
	require.NoError(t, err)
	transport, ok := instance.(*SMTPMailer).Transport.(*PlainTransport)
	require.True(t, ok)
	assert.True(t, transport.Secure())
}

func TestUtilityResolver_DriverWithoutEmbedding(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Register("test.DetachedSigner", nil, typeinfo.AsUtility(), typeinfo.Extends("test.Signer")))

	r := NewUtilityResolver(reg, config.New("utility", map[string]any{
		"Signer": map[string]any{"driver": "test.DetachedSigner", "key": "k"},
	}))

	_, err := r.Resolve(context.Background(), "test.Signer")
	assert.ErrorIs(t, err, errors.ErrInvalidDriverSentinel)
	assert.ErrorIs(t, err, errors.ErrNotResolvable)
	assert.Empty(t, r.Cached())
}
