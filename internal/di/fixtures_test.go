package di

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/structure"
	"github.com/xraph/cohesion/internal/typeinfo"
)

// persistence fixtures

type Cache interface{ Name() string }

type MemoryCache struct{}

func NewMemoryCache() *MemoryCache { return &MemoryCache{} }
func (*MemoryCache) Name() string { return "memory" }

type ConfiguredCache struct{ prefix string }

func NewConfiguredCache(cfg *config.Config) *ConfiguredCache {
	return &ConfiguredCache{prefix: cfg.GetString("prefix")}
}
func (c *ConfiguredCache) Name() string { return "configured:" + c.prefix }

type TwoArgCache struct{}

func NewTwoArgCache(a, b string) *TwoArgCache { return &TwoArgCache{} }
func (*TwoArgCache) Name() string { return "two" }

type Clock struct{}

func NewClock() *Clock { return &Clock{} }

type WidgetDAO struct {
	structure.BaseDAO
	Cache Cache
	Clock *Clock
}

func NewWidgetDAO(c Cache, clock *Clock) *WidgetDAO { return &WidgetDAO{Cache: c, Clock: clock} }

type GadgetDAO struct {
	structure.BaseDAO
	Cache   Cache
	Widgets *WidgetDAO
}

func NewGadgetDAO(c Cache, w *WidgetDAO) *GadgetDAO { return &GadgetDAO{Cache: c, Widgets: w} }

type WidgetStore struct{ structure.BaseDAO }

func NewWidgetStore() *WidgetStore { return &WidgetStore{} }

type LoopADAO struct {
	structure.BaseDAO
	B *LoopBDAO
}

type LoopBDAO struct {
	structure.BaseDAO
	A *LoopADAO
}

type RawDAO struct{ structure.BaseDAO }

// utility fixtures

type Mailer interface{ Host() string }

type Transport interface{ Secure() bool }

type PlainTransport struct{ secure bool }

func NewPlainTransport(secure bool) *PlainTransport { return &PlainTransport{secure: secure} }
func (t *PlainTransport) Secure() bool { return t.secure }

type TLSTransport struct{ cert string }

func NewTLSTransport(cfg *config.Config) *TLSTransport {
	return &TLSTransport{cert: cfg.GetString("cert")}
}
func (*TLSTransport) Secure() bool { return true }

type Retry struct{ Attempts int }

func NewRetry(attempts int) *Retry { return &Retry{Attempts: attempts} }

type SMTPMailer struct {
	host      string
	Port      int
	Timeout   time.Duration
	Transport Transport
	Retry     *Retry
}

func NewSMTPMailer(host string, port int, timeout time.Duration, transport Transport, retry *Retry) *SMTPMailer {
	return &SMTPMailer{host: host, Port: port, Timeout: timeout, Transport: transport, Retry: retry}
}
func (m *SMTPMailer) Host() string { return m.host }

type IDGen struct{}

func NewIDGen() *IDGen { return &IDGen{} }

type Signer struct{ Key string }

func NewSigner(key string) *Signer { return &Signer{Key: key} }

type Unregistered struct{}

// service fixtures

type WidgetService struct {
	*structure.DefaultService
}

type ReportService struct {
	Widgets *WidgetService
	Gadgets *GadgetDAO
	IDs     *IDGen
	Mailer  Mailer
	Limit   int
	User    auth.User
}

func NewReportService(widgets *WidgetService, gadgets *GadgetDAO, ids *IDGen, mailer Mailer, limit int, user auth.User) *ReportService {
	return &ReportService{Widgets: widgets, Gadgets: gadgets, IDs: ids, Mailer: mailer, Limit: limit, User: user}
}

type AuditService struct{ IDs *IDGen }

func NewAuditService(ids *IDGen) *AuditService { return &AuditService{IDs: ids} }

type PingService struct{ Pong *PongService }
type PongService struct{ Ping *PingService }

type Counter struct{}

func NewCounter() *Counter { return &Counter{} }

type BrokenService struct{}

type PlainService struct{ Name string }

type ConfigService struct{ Config *config.Config }

type AccountService struct{ User auth.User }

type ArchiveService struct {
	IDs    *IDGen
	Broken *BrokenService
}

func newTestRegistry(t *testing.T) *typeinfo.Registry {
	t.Helper()

	reg := typeinfo.NewRegistry()
	require.NoError(t, structure.Register(reg))

	must := func(name string, ctor any, opts ...typeinfo.Option) {
		require.NoError(t, reg.Register(name, ctor, opts...))
	}

	// persistence
	must("test.Cache", nil, typeinfo.Abstract(), typeinfo.For[Cache]())
	must("dataaccess.Cache.Memory", NewMemoryCache)
	must("dataaccess.Cache.Configured", NewConfiguredCache)
	must("dataaccess.Cache.TwoArg", NewTwoArgCache, typeinfo.Arg("a"), typeinfo.Arg("b"))
	must("test.Clock", NewClock)
	must("test.WidgetDAO", NewWidgetDAO, typeinfo.AsDAO(), typeinfo.Arg("cache"), typeinfo.Arg("clock"))
	must("test.GadgetDAO", NewGadgetDAO, typeinfo.AsDAO(), typeinfo.Arg("cache"), typeinfo.Arg("widgets"))
	must("test.WidgetStore", NewWidgetStore, typeinfo.AsDAO())
	must("test.LoopADAO", func(b *LoopBDAO) *LoopADAO { return &LoopADAO{B: b} }, typeinfo.AsDAO())
	must("test.LoopBDAO", func(a *LoopADAO) *LoopBDAO { return &LoopBDAO{A: a} }, typeinfo.AsDAO())
	must("test.RawDAO", func(limit int) *RawDAO { return &RawDAO{} }, typeinfo.AsDAO(), typeinfo.Arg("limit"))

	// utilities
	must("test.Mailer", nil, typeinfo.AsUtility(), typeinfo.Abstract(), typeinfo.For[Mailer]())
	must("test.SMTPMailer", NewSMTPMailer,
		typeinfo.Arg("host"),
		typeinfo.Arg("port"),
		typeinfo.OptionalArg("timeout", 5*time.Second),
		typeinfo.OptionalArg("transport", nil),
		typeinfo.OptionalArg("retry", nil),
	)
	must("test.Transport", nil, typeinfo.Abstract(), typeinfo.For[Transport]())
	must("test.PlainTransport", NewPlainTransport, typeinfo.Arg("secure"))
	must("test.TLSTransport", NewTLSTransport)
	must("test.Retry", NewRetry, typeinfo.Arg("attempts"))
	must("test.IDGen", NewIDGen, typeinfo.AsUtility())
	must("test.Signer", NewSigner, typeinfo.AsUtility(), typeinfo.Arg("key"))

	// services
	must("test.WidgetService", nil,
		typeinfo.Extends(structure.DefaultServiceName),
		typeinfo.Embeds(func(base *structure.DefaultService) *WidgetService {
			return &WidgetService{DefaultService: base}
		}),
	)
	must("test.ReportService", NewReportService, typeinfo.AsService(),
		typeinfo.Arg("widgets"),
		typeinfo.Arg("gadgets"),
		typeinfo.Arg("ids"),
		typeinfo.Arg("mailer"),
		typeinfo.OptionalArg("limit", 25),
		typeinfo.OptionalArg("user", nil),
	)
	must("test.AuditService", NewAuditService, typeinfo.AsService())
	must("test.PingService", func(p *PongService) *PingService { return &PingService{Pong: p} }, typeinfo.AsService())
	must("test.PongService", func(p *PingService) *PongService { return &PongService{Ping: p} }, typeinfo.AsService())
	must("test.Counter", NewCounter, typeinfo.AsService())
	must("test.BrokenService", func(u *Unregistered) *BrokenService { return &BrokenService{} }, typeinfo.AsService())
	must("test.PlainService", func(name string) *PlainService { return &PlainService{Name: name} }, typeinfo.AsService(), typeinfo.Arg("name"))
	must("test.ConfigService", func(cfg *config.Config) *ConfigService { return &ConfigService{Config: cfg} }, typeinfo.AsService())
	must("test.AccountService", func(user auth.User) *AccountService { return &AccountService{User: user} }, typeinfo.AsService())
	must("test.ArchiveService", func(ids *IDGen, broken *BrokenService) *ArchiveService {
		return &ArchiveService{IDs: ids, Broken: broken}
	}, typeinfo.AsService())

	return reg
}

func testConfig() *config.Config {
	return config.New("", map[string]any{
		"application": map[string]any{
			"name":  "test",
			"class": map[string]any{"prefix": "", "suffix": "Service"},
		},
		"data_access": map[string]any{
			"class": map[string]any{"prefix": "", "suffix": "DAO"},
			"cache": map[string]any{"driver": "Memory"},
			"clock": map[string]any{},
		},
		"utility": map[string]any{
			"Mailer": map[string]any{
				"driver":  "test.SMTPMailer",
				"host":    "smtp.example.test",
				"port":    "2525",
				"timeout": "10s",
				"transport": map[string]any{
					"driver": "test.TLSTransport",
					"cert":   "server.pem",
				},
				"retry": map[string]any{"attempts": 3},
			},
		},
	})
}

// countingRecorder records metrics calls.
type countingRecorder struct {
	resolves      atomic.Int64
	failures      atomic.Int64
	constructions atomic.Int64
	hits          atomic.Int64
}

func (r *countingRecorder) ObserveResolve(_, _ string, _ time.Duration, err error) {
	r.resolves.Add(1)
	if err != nil {
		r.failures.Add(1)
	}
}

func (r *countingRecorder) IncConstruction(string, string) { r.constructions.Add(1) }
func (r *countingRecorder) IncCacheHit(string, string) { r.hits.Add(1) }
