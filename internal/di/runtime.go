package di

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/logger"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// Resolver kinds, used as log fields and metric labels.
const (
	KindService    = "service"
	KindDataAccess = "data_access"
	KindUtility    = "utility"
)

// runtime is the state composed resolvers share: the registry, the locator
// and the build lock that serializes first constructions.
type runtime struct {
	registry *typeinfo.Registry
	locator  *ConstructorLocator
	logger   logger.Logger
	recorder Recorder
	tracer   trace.Tracer
	build    sync.Mutex
}

func newRuntime(reg *typeinfo.Registry, s *settings) *runtime {
	if s.rt != nil {
		return s.rt
	}
	return &runtime{
		registry: reg,
		locator:  NewConstructorLocator(reg),
		logger:   s.logger,
		recorder: s.recorder,
		tracer:   s.tracer,
	}
}

// run is the top-level resolution of name against st. A cached instance is
// returned without locking. Otherwise the build lock is taken, the cache
// checked again, and fn runs in a fresh session whose instances are
// committed only if it succeeds.
func (rt *runtime) run(ctx context.Context, st *store, name string, fn func(*session) (any, error)) (any, error) {
	if instance, ok := st.get(name); ok {
		rt.recorder.IncCacheHit(st.kind, name)
		return instance, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := rt.tracer.Start(ctx, "cohesion.resolve",
		trace.WithAttributes(
			attribute.String("cohesion.resolver", st.kind),
			attribute.String("cohesion.type", name),
		),
	)
	defer span.End()

	rt.build.Lock()
	defer rt.build.Unlock()

	if instance, ok := st.get(name); ok {
		rt.recorder.IncCacheHit(st.kind, name)
		return instance, nil
	}

	start := time.Now()
	sess := newSession()
	instance, err := fn(sess)
	rt.recorder.ObserveResolve(st.kind, name, time.Since(start), err)

	log := rt.logger.WithContext(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn("resolution failed",
			logger.Resolver(st.kind),
			logger.TypeName(name),
			logger.Error(err),
		)
		return nil, errors.NewResolveError(name, "resolve", err)
	}

	built := sess.commit()
	for _, e := range built {
		rt.recorder.IncConstruction(e.store.kind, e.name)
		log.Debug("instance constructed",
			logger.Resolver(e.store.kind),
			logger.TypeName(e.name),
		)
	}
	span.SetAttributes(attribute.Int("cohesion.constructed", len(built)))

	return instance, nil
}

// construct locates the constructor of name, lets resolveParam produce each
// argument and builds the instance.
func (rt *runtime) construct(name string, resolveParam func(typeinfo.Param) (any, error)) (any, error) {
	located, err := rt.locator.Locate(name)
	if err != nil {
		return nil, err
	}

	params := located.Params()
	args := make([]any, len(params))
	for i, p := range params {
		if args[i], err = resolveParam(p); err != nil {
			return nil, err
		}
	}

	return rt.locator.Instantiate(located, args)
}
