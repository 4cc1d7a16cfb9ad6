package di

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/logger"
)

// Recorder receives resolution metrics.
type Recorder interface {
	ObserveResolve(resolver, typeName string, duration time.Duration, err error)
	IncConstruction(resolver, typeName string)
	IncCacheHit(resolver, typeName string)
}

type noopRecorder struct{}

func (noopRecorder) ObserveResolve(string, string, time.Duration, error) {}
func (noopRecorder) IncConstruction(string, string) {}
func (noopRecorder) IncCacheHit(string, string) {}

// TracerName is the instrumentation name of resolver spans.
const TracerName = "github.com/xraph/cohesion/internal/di"

// Option configures a resolver.
type Option func(*settings)

type settings struct {
	logger   logger.Logger
	recorder Recorder
	tracer   trace.Tracer
	naming   NamingStrategy
	auth     auth.Auth
	rt       *runtime
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer used for top-level resolution spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithTracerProvider takes the tracer from tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) {
		if tp != nil {
			s.tracer = tp.Tracer(TracerName)
		}
	}
}

// WithNaming sets the companion DAO naming strategy of a service resolver.
func WithNaming(n NamingStrategy) Option {
	return func(s *settings) {
		if n != nil {
			s.naming = n
		}
	}
}

// WithAuth makes a service resolver take its initial principal from a.
func WithAuth(a auth.Auth) Option {
	return func(s *settings) { s.auth = a }
}

// withRuntime makes a resolver share an existing runtime, and so its build lock.
func withRuntime(rt *runtime) Option {
	return func(s *settings) { s.rt = rt }
}

func newSettings(opts []Option) *settings {
	s := &settings{
		logger:   logger.NewNoopLogger(),
		recorder: noopRecorder{},
		tracer:   otel.Tracer(TracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
