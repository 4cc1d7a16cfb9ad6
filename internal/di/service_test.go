package di

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/logger"
	"github.com/xraph/cohesion/internal/typeinfo"
)

func newServices(t *testing.T, opts ...Option) *ServiceResolver {
	t.Helper()
	return NewServiceResolver(newTestRegistry(t), testConfig(), opts...)
}

func TestServiceResolver_ZeroArgSingleton(t *testing.T) {
	s := newServices(t)

	first, err := s.Resolve(context.Background(), "test.Counter")
	require.NoError(t, err)
	second, err := s.Resolve(context.Background(), "test.Counter")
	require.NoError(t, err)

	assert.Same(t, first, second)
}

func TestServiceResolver_CyclicDependency(t *testing.T) {
	s := newServices(t)

	_, err := s.Resolve(context.Background(), "test.PingService")
	require.Error(t, err)
	assert.True(t, errors.IsCyclicDependency(err))

	chain, ok := errors.CycleChain(err)
	require.True(t, ok)
	assert.Equal(t, []string{"test.PingService", "test.PongService", "test.PingService"}, chain)
	assert.Empty(t, s.Cached())
}

func TestServiceResolver_CompanionDAO(t *testing.T) {
	s := newServices(t)

	instance, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)

	ws := instance.(*WidgetService)
	dao, ok := ws.DAO().(*WidgetDAO)
	require.True(t, ok)
	assert.IsType(t, &MemoryCache{}, dao.Cache)
	assert.Equal(t, "test", ws.Config().GetString("name"))
	assert.Contains(t, s.DataAccess().Cached(), "test.WidgetDAO")
}

func TestServiceResolver_CompanionDAOFollowsAffixes(t *testing.T) {
	root := testConfig()
	root.Set("data_access.class.suffix", "Store")

	s := NewServiceResolver(newTestRegistry(t), root)

	instance, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	assert.IsType(t, &WidgetStore{}, instance.(*WidgetService).DAO())
}

func TestServiceResolver_CompanionDAOMissing(t *testing.T) {
	s := newServices(t, WithNaming(NamingFunc(func(string) string { return "test.GhostDAO" })))

	_, err := s.Resolve(context.Background(), "test.WidgetService")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidClassSentinel)
	assert.Contains(t, err.Error(), "test.GhostDAO does not exist")

	s = newServices(t, WithNaming(NamingFunc(func(string) string { return "test.Counter" })))
	_, err = s.Resolve(context.Background(), "test.WidgetService")
	assert.ErrorIs(t, err, errors.ErrInvalidDriverSentinel)
}

func TestServiceResolver_PrincipalInjection(t *testing.T) {
	s := newServices(t)
	alice := auth.NewUser("1", "alice", false)
	s.SetPrincipal(alice)

	instance, err := s.Resolve(context.Background(), "test.AccountService")
	require.NoError(t, err)
	assert.Same(t, alice, instance.(*AccountService).User)

	ws, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	assert.Same(t, alice, ws.(*WidgetService).User())
}

func TestServiceResolver_PrincipalRequired(t *testing.T) {
	s := newServices(t)

	_, err := s.Resolve(context.Background(), "test.AccountService")
	assert.ErrorIs(t, err, errors.ErrInvalidPropertySentinel)

	report, err := s.Resolve(context.Background(), "test.ReportService")
	require.NoError(t, err)
	assert.Nil(t, report.(*ReportService).User)
}

func TestServiceResolver_SetAuth(t *testing.T) {
	s := newServices(t)
	admin := auth.NewUser("0", "admin", true)

	s.SetAuth(auth.NewStaticAuth(admin))
	assert.Same(t, admin, s.Principal())

	s.SetAuth(auth.NewNoAuth())
	assert.Nil(t, s.Principal())

	s.SetAuth(nil)
	assert.Nil(t, s.Principal())
}

func TestServiceResolver_WithAuth(t *testing.T) {
	admin := auth.NewUser("0", "admin", true)
	s := newServices(t, WithAuth(auth.NewStaticAuth(admin)))
	assert.Same(t, admin, s.Principal())

	instance, err := s.Resolve(context.Background(), "test.AccountService")
	require.NoError(t, err)
	assert.Same(t, admin, instance.(*AccountService).User)
}

func TestServiceResolver_PropagatePrincipal(t *testing.T) {
	s := newServices(t)

	instance, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	ws := instance.(*WidgetService)
	assert.Nil(t, ws.User())

	alice := auth.NewUser("1", "alice", false)
	s.SetPrincipal(alice)
	assert.Nil(t, ws.User(), "cached instances are not revisited by SetPrincipal")

	require.NoError(t, s.PropagatePrincipal())
	assert.Same(t, alice, ws.User())

	s.SetPrincipal(auth.NewUser("2", "bob", false))
	err = s.PropagatePrincipal()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnauthorizedSentinel)
	assert.Same(t, alice, ws.User())
}

func TestServiceResolver_FullGraph(t *testing.T) {
	s := newServices(t)

	instance, err := s.Resolve(context.Background(), "test.ReportService")
	require.NoError(t, err)

	report := instance.(*ReportService)
	assert.Equal(t, 25, report.Limit)
	assert.Equal(t, "smtp.example.test", report.Mailer.Host())
	assert.Same(t, report.Gadgets.Widgets, report.Widgets.DAO())
	assert.Same(t, report.Gadgets.Cache, report.Gadgets.Widgets.Cache)

	widgets, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	assert.Same(t, report.Widgets, widgets)
}

func TestServiceResolver_SharedUtility(t *testing.T) {
	s := newServices(t)

	report, err := s.Resolve(context.Background(), "test.ReportService")
	require.NoError(t, err)
	audit, err := s.Resolve(context.Background(), "test.AuditService")
	require.NoError(t, err)

	assert.Same(t, report.(*ReportService).IDs, audit.(*AuditService).IDs)
}

func TestServiceResolver_ParameterFailures(t *testing.T) {
	tests := []struct {
		name     string
		root     *config.Config
		target   string
		sentinel error
		message  string
	}{
		{"unknown utility type", testConfig(), "test.BrokenService", errors.ErrInvalidPropertySentinel, "invalid property unregistered of test.BrokenService"},
		{"plain parameter without default", testConfig(), "test.PlainService", errors.ErrInvalidPropertySentinel, "invalid property name of test.PlainService"},
		{"no application configuration", config.Empty(""), "test.ConfigService", errors.ErrMissingConfigurationSentinel, "no application configuration"},
		{"abstract service", testConfig(), "structure.DefaultService", errors.ErrInvalidDriverSentinel, "abstract"},
		{"unknown service", testConfig(), "test.NoSuchService", errors.ErrUnknownTypeSentinel, "doesn't exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServiceResolver(newTestRegistry(t), tt.root)
			_, err := s.Resolve(context.Background(), tt.target)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.message)

			var re *errors.ResolveError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.target, re.Type)
		})
	}
}

func TestServiceResolver_OptionalConfigDefault(t *testing.T) {
	type settings struct{ cfg *config.Config }
	fallback := config.New("fallback", map[string]any{"name": "fallback"})

	tests := []struct {
		name string
		root *config.Config
		def  *config.Config
		want string
	}{
		{"default without application section", config.Empty(""), fallback, "fallback"},
		{"nil default without application section", config.Empty(""), nil, ""},
		{"application section wins", testConfig(), fallback, "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(t)
			require.NoError(t, reg.Register("test.SettingsService",
				func(cfg *config.Config) *settings { return &settings{cfg: cfg} },
				typeinfo.AsService(),
				typeinfo.OptionalArg("config", tt.def),
			))

			s := NewServiceResolver(reg, tt.root)
			instance, err := s.Resolve(context.Background(), "test.SettingsService")
			require.NoError(t, err)

			cfg := instance.(*settings).cfg
			if tt.want == "" {
				assert.Nil(t, cfg)
				return
			}
			require.NotNil(t, cfg)
			assert.Equal(t, tt.want, cfg.GetString("name"))
		})
	}
}

func TestServiceResolver_FailureCachesNothing(t *testing.T) {
	s := newServices(t)

	_, err := s.Resolve(context.Background(), "test.ArchiveService")
	require.Error(t, err)

	assert.Empty(t, s.Cached())
	assert.Empty(t, s.Utility().Cached(), "the IDGen built before the failure is discarded")

	ids, err := s.Utility().Resolve(context.Background(), "test.IDGen")
	require.NoError(t, err)
	audit, err := s.Resolve(context.Background(), "test.AuditService")
	require.NoError(t, err)
	assert.Same(t, ids, audit.(*AuditService).IDs)
}

func TestServiceResolver_ConcurrentFirstRequests(t *testing.T) {
	reg := newTestRegistry(t)
	type slow struct{}
	var built atomic.Int64
	require.NoError(t, reg.Register("test.SlowService", func() *slow {
		built.Add(1)
		time.Sleep(5 * time.Millisecond)
		return &slow{}
	}, typeinfo.AsService()))

	s := NewServiceResolver(reg, testConfig())

	const workers = 32
	results := make([]any, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instance, err := s.Resolve(context.Background(), "test.SlowService")
			assert.NoError(t, err)
			results[i] = instance
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), built.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestServiceResolver_ConcurrentCycleDetection(t *testing.T) {
	s := newServices(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.Resolve(context.Background(), "test.PingService")
			chain, _ := errors.CycleChain(err)
			assert.Equal(t, []string{"test.PingService", "test.PongService", "test.PingService"}, chain)
		}()
		go func() {
			defer wg.Done()
			_, err := s.Resolve(context.Background(), "test.ReportService")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestServiceResolver_Logging(t *testing.T) {
	log := logger.NewTestLogger()
	s := newServices(t, WithLogger(log))

	_, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	assert.Contains(t, log.Messages("debug"), "instance constructed")

	_, err = s.Resolve(context.Background(), "test.PingService")
	require.Error(t, err)

	warns := log.Messages("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "resolution failed", warns[0])

	for _, e := range log.Entries() {
		if e.Level == "warn" {
			assert.Equal(t, "test.PingService", e.Fields["type"])
			assert.Equal(t, KindService, e.Fields["resolver"])
		}
	}
}

func TestServiceResolver_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	s := newServices(t, WithTracerProvider(tp))

	_, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	_, err = s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1, "cache hits do not start spans")
	assert.Equal(t, "cohesion.resolve", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("cohesion.type", "test.WidgetService"))
	assert.Contains(t, spans[0].Attributes(), attribute.Int("cohesion.constructed", 4))
}

func TestServiceResolver_Recorder(t *testing.T) {
	rec := &countingRecorder{}
	s := newServices(t, WithRecorder(rec))

	_, err := s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	_, err = s.Resolve(context.Background(), "test.WidgetService")
	require.NoError(t, err)
	_, err = s.Resolve(context.Background(), "test.PingService")
	require.Error(t, err)

	assert.Equal(t, int64(2), rec.resolves.Load())
	assert.Equal(t, int64(1), rec.failures.Load())
	assert.Equal(t, int64(4), rec.constructions.Load())
	assert.Equal(t, int64(1), rec.hits.Load())
}
