// Package environment loads the layered application configuration and wires
// resolvers over it.
//
// Configuration is read in three layers, later ones deep-merged over earlier
// ones: the embedded framework defaults, default-conf.{yaml,yml,json} from
// the configuration directory, and <env>-conf.{yaml,yml,json} for the active
// environment. The environment name comes from WithName, COHESION_ENV or
// APPLICATION_ENV, in that order.
package environment

import (
	_ "embed"
	"os"

	"github.com/xraph/cohesion/internal/auth"
	"github.com/xraph/cohesion/internal/config"
	"github.com/xraph/cohesion/internal/config/formats"
	"github.com/xraph/cohesion/internal/di"
	"github.com/xraph/cohesion/internal/errors"
	"github.com/xraph/cohesion/internal/logger"
	"github.com/xraph/cohesion/internal/metrics"
	"github.com/xraph/cohesion/internal/typeinfo"
)

//go:embed defaults.yaml
var defaults []byte

// Environment variables naming the active environment.
const (
	EnvVar       = "COHESION_ENV"
	LegacyEnvVar = "APPLICATION_ENV"
)

// Configuration file base names.
const (
	DefaultFile = "default-conf"
	FileSuffix  = "-conf"
)

// Production is the environment name that implies production mode.
const Production = "production"

// GlobalSection is loaded into every section returned by GetConfig.
const GlobalSection = "global"

// Environment is the loaded configuration of one process.
type Environment struct {
	name       string
	production bool
	config     *config.Config
	logger     logger.Logger
	metrics    *metrics.Collector
	auth       auth.Auth
}

// New loads the configuration and builds the environment.
func New(opts ...Option) (*Environment, error) {
	o := newOptions(opts)

	name := o.name
	if name == "" {
		name = o.getenv(EnvVar)
	}
	if name == "" {
		name = o.getenv(LegacyEnvVar)
	}

	cfg, err := load(o, name)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		name:   name,
		config: cfg,
		auth:   o.auth,
	}
	env.production = applyGlobal(cfg, name)

	if o.logger != nil {
		env.logger = o.logger
	} else if env.logger, err = newLogger(cfg, name); err != nil {
		return nil, err
	}

	if env.metrics, err = newMetrics(cfg); err != nil {
		return nil, err
	}

	env.logger.Info("environment loaded",
		logger.String("environment", name),
		logger.Bool("production", env.production),
		logger.String("dir", o.dir),
	)

	return env, nil
}

// NewCLI builds an environment for command line tools, authenticated as an
// administrator.
func NewCLI(opts ...Option) (*Environment, error) {
	admin := auth.NewStaticAuth(auth.NewUser("cli", "cli", true))
	return New(append([]Option{WithAuth(admin)}, opts...)...)
}

func load(o *options, name string) (*config.Config, error) {
	loader := formats.NewLoader(o.logger)

	base, err := loader.Parse(".yaml", defaults)
	if err != nil {
		return nil, errors.ErrConfigError("invalid framework defaults", err)
	}
	cfg := config.New("", base)

	if o.dir == "" {
		if name != "" {
			return nil, errors.ErrConfigError("missing config file for "+name+" environment", nil)
		}
		return cfg, nil
	}

	path, ok := loader.Find(o.dir, DefaultFile)
	if !ok {
		return nil, errors.ErrConfigError("missing "+DefaultFile+" in "+o.dir, os.ErrNotExist)
	}
	data, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge("", data)

	if name == "" {
		return cfg, nil
	}

	path, ok = loader.Find(o.dir, name+FileSuffix)
	if !ok {
		return nil, errors.ErrConfigError("missing config file for "+name+" environment", os.ErrNotExist)
	}
	if data, err = loader.LoadFile(path); err != nil {
		return nil, err
	}
	cfg.Merge("", data)

	return cfg, nil
}

// applyGlobal derives the URL settings from global.domain_name and the
// production flag, and reports whether production mode is on.
func applyGlobal(cfg *config.Config, name string) bool {
	global := map[string]any{}

	if domain := cfg.GetString("global.domain_name"); domain != "" {
		global["abs_base_url"] = "http://" + domain
		global["ssl_base_url"] = "https://" + domain
		global["base_url"] = global["abs_base_url"]
	}

	production := name == Production || cfg.GetBool("global.production")
	global["production"] = production

	cfg.Merge(GlobalSection, global)
	return production
}

func newLogger(cfg *config.Config, name string) (logger.Logger, error) {
	var lc logger.LoggingConfig
	if section := cfg.GetConfig("logging"); section != nil {
		if err := section.Decode(&lc); err != nil {
			return nil, errors.ErrConfigError("invalid logging configuration", err)
		}
	}
	if lc.Environment == "" {
		lc.Environment = name
	}
	return logger.NewLogger(lc), nil
}

func newMetrics(cfg *config.Config) (*metrics.Collector, error) {
	section := cfg.GetConfig("metrics")
	if section == nil || !section.GetBool("enabled") {
		return nil, nil
	}
	mc := metrics.DefaultConfig()
	if err := section.Decode(&mc); err != nil {
		return nil, errors.ErrConfigError("invalid metrics configuration", err)
	}
	return metrics.NewCollector(mc), nil
}

// Name returns the active environment name, empty when none is set.
func (e *Environment) Name() string {
	return e.name
}

// IsProduction reports whether production mode is on.
func (e *Environment) IsProduction() bool {
	return e.production
}

// Get returns the value at a dotted path of the merged tree.
func (e *Environment) Get(key string) any {
	return e.config.Get(key)
}

// Config returns the merged tree.
func (e *Environment) Config() *config.Config {
	return e.config
}

// GetConfig returns the named section with the global section loaded under
// the global key. An empty name returns the whole tree; a missing section
// returns an empty one.
func (e *Environment) GetConfig(name string) *config.Config {
	if name == "" {
		return e.config
	}

	section := e.config.GetConfig(name)
	if section == nil {
		section = config.Empty(typeinfo.ShortName(name))
	}
	if name != GlobalSection {
		if global := e.config.GetConfig(GlobalSection); global != nil {
			section.Load(global.AllSettings(), GlobalSection)
		}
	}
	return section
}

// Logger returns the environment logger.
func (e *Environment) Logger() logger.Logger {
	return e.logger
}

// Metrics returns the resolver metrics collector, or nil when metrics are
// disabled.
func (e *Environment) Metrics() *metrics.Collector {
	return e.metrics
}

// Auth returns the principal source, or nil.
func (e *Environment) Auth() auth.Auth {
	return e.auth
}

// SetAuth replaces the principal source used by containers created later.
func (e *Environment) SetAuth(a auth.Auth) {
	e.auth = a
}

// Root returns the tree resolvers are built over: the merged configuration
// with the global section loaded into every top-level section.
func (e *Environment) Root() *config.Config {
	root := config.New("", nil)
	for _, key := range e.config.Keys() {
		section := e.config.Child(key)
		switch {
		case section == nil:
			root.Set(key, e.config.Get(key))
		case key == GlobalSection:
			root.Merge(key, section.AllSettings())
		default:
			root.Merge(key, e.GetConfig(key).AllSettings())
		}
	}
	return root
}

// Container creates a container over Root with the environment's logger,
// metrics and principal.
func (e *Environment) Container(reg *typeinfo.Registry, opts ...di.Option) (*di.Container, error) {
	base := []di.Option{di.WithLogger(e.logger.Named("di"))}
	if e.metrics != nil {
		base = append(base, di.WithRecorder(e.metrics))
	}
	if e.auth != nil {
		base = append(base, di.WithAuth(e.auth))
	}
	return di.NewContainer(reg, e.Root(), append(base, opts...)...)
}
