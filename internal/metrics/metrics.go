// Package metrics exports resolver activity as Prometheus metrics.
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Config configures a Collector.
type Config struct {
	Namespace     string    `yaml:"namespace" mapstructure:"namespace"`
	Subsystem     string    `yaml:"subsystem" mapstructure:"subsystem"`
	EnableGo      bool      `yaml:"enable_go" mapstructure:"enable_go"`
	EnableProcess bool      `yaml:"enable_process" mapstructure:"enable_process"`
	Buckets       []float64 `yaml:"buckets" mapstructure:"buckets"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Namespace: "cohesion",
		Subsystem: "resolver",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}
}

// Collector records resolution counts and latencies. It satisfies the
// resolver Recorder interface.
type Collector struct {
	registry      *prometheus.Registry
	resolutions   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	constructions *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	names         names
}

type names struct {
	resolutions   string
	constructions string
	cacheHits     string
}

// NewCollector creates a collector backed by its own registry.
func NewCollector(config Config) *Collector {
	if len(config.Buckets) == 0 {
		config.Buckets = DefaultConfig().Buckets
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "resolutions_total",
				Help:      "Top-level resolutions that missed the cache",
			},
			[]string{"resolver", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "resolve_duration_seconds",
				Help:      "Duration of top-level resolutions in seconds",
				Buckets:   config.Buckets,
			},
			[]string{"resolver", "result"},
		),
		constructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "constructions_total",
				Help:      "Instances constructed and cached",
			},
			[]string{"resolver", "type"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Top-level resolutions answered from the cache",
			},
			[]string{"resolver", "type"},
		),
		names: names{
			resolutions:   prometheus.BuildFQName(config.Namespace, config.Subsystem, "resolutions_total"),
			constructions: prometheus.BuildFQName(config.Namespace, config.Subsystem, "constructions_total"),
			cacheHits:     prometheus.BuildFQName(config.Namespace, config.Subsystem, "cache_hits_total"),
		},
	}

	c.registry.MustRegister(c.resolutions, c.duration, c.constructions, c.cacheHits)

	if config.EnableGo {
		c.registry.MustRegister(collectors.NewGoCollector())
	}
	if config.EnableProcess {
		c.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveResolve records one top-level resolution.
func (c *Collector) ObserveResolve(resolver, _ string, duration time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	c.resolutions.WithLabelValues(resolver, result).Inc()
	c.duration.WithLabelValues(resolver, result).Observe(duration.Seconds())
}

// IncConstruction counts one constructed instance.
func (c *Collector) IncConstruction(resolver, typeName string) {
	c.constructions.WithLabelValues(resolver, typeName).Inc()
}

// IncCacheHit counts one cached answer.
func (c *Collector) IncCacheHit(resolver, typeName string) {
	c.cacheHits.WithLabelValues(resolver, typeName).Inc()
}

// Summary aggregates the counters of one resolver.
type Summary struct {
	Resolver      string
	Resolutions   int
	Failures      int
	Constructions int
	CacheHits     int
}

// Summaries gathers the current counters, one entry per resolver, sorted by
// resolver name.
func (c *Collector) Summaries() ([]Summary, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	byResolver := make(map[string]*Summary)
	get := func(m *dto.Metric) *Summary {
		name := label(m, "resolver")
		s, ok := byResolver[name]
		if !ok {
			s = &Summary{Resolver: name}
			byResolver[name] = s
		}
		return s
	}

	for _, family := range families {
		switch family.GetName() {
		case c.names.resolutions:
			for _, m := range family.GetMetric() {
				n := int(m.GetCounter().GetValue())
				s := get(m)
				s.Resolutions += n
				if label(m, "result") == ResultFailure {
					s.Failures += n
				}
			}
		case c.names.constructions:
			for _, m := range family.GetMetric() {
				get(m).Constructions += int(m.GetCounter().GetValue())
			}
		case c.names.cacheHits:
			for _, m := range family.GetMetric() {
				get(m).CacheHits += int(m.GetCounter().GetValue())
			}
		}
	}

	out := make([]Summary, 0, len(byResolver))
	for _, s := range byResolver {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resolver < out[j].Resolver })
	return out, nil
}

func label(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
