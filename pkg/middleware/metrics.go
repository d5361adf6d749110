package middleware

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/carbon/pkg/router"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "carbon").
	Namespace string

	// Subsystem is the metrics subsystem (default: "router").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for materialization duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "carbon",
		Subsystem: "router",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a router.Observer recording Prometheus metrics:
//
//   - carbon_router_navigations_total{pushed}
//   - carbon_router_materializations_total{status,route}
//   - carbon_router_before_hooks_total{route}
//   - carbon_router_materialize_duration_seconds{status}
//   - carbon_router_sessions_active
//   - carbon_router_websocket_errors_total{type}
//
// The session and websocket metrics are fed by the preview server.
type Metrics struct {
	navigations     *prometheus.CounterVec
	materializes    *prometheus.CounterVec
	beforeHooks     *prometheus.CounterVec
	materializeTime *prometheus.HistogramVec
	sessions        prometheus.Gauge
	wsErrors        *prometheus.CounterVec
}

var _ router.Observer = (*Metrics)(nil)

var (
	globalMetrics   *Metrics
	globalMetricsMu sync.Mutex
)

// NewMetrics registers a fresh set of metrics. Registering twice on the same
// registry panics; use Prometheus for a process-wide instance.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of navigations",
			ConstLabels: config.ConstLabels,
		}, []string{"pushed"}),

		materializes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "materializations_total",
			Help:        "Total number of controllers built, by status and route",
			ConstLabels: config.ConstLabels,
		}, []string{"status", "route"}),

		beforeHooks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "before_hooks_total",
			Help:        "Total number of before-hook runs",
			ConstLabels: config.ConstLabels,
		}, []string{"route"}),

		materializeTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "materialize_duration_seconds",
			Help:        "Time to build a controller, including its before-hook",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"status"}),

		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sessions_active",
			Help:        "Number of open preview sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// Prometheus returns the process-wide Metrics, creating it with opts on
// first use. Later options are ignored.
//
//	r := router.New(router.WithObserver(middleware.Prometheus()))
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	if globalMetrics == nil {
		globalMetrics = NewMetrics(opts...)
	}
	return globalMetrics
}

// ObserveNavigation implements router.Observer.
func (m *Metrics) ObserveNavigation(e router.NavigationEvent) {
	m.navigations.WithLabelValues(strconv.FormatBool(e.Pushed)).Inc()
}

// ObserveMaterialize implements router.Observer.
func (m *Metrics) ObserveMaterialize(e router.MaterializeEvent) {
	status := string(e.Status)
	m.materializes.WithLabelValues(status, e.Route).Inc()
	m.materializeTime.WithLabelValues(status).Observe(e.Duration.Seconds())
	if e.HookRan {
		m.beforeHooks.WithLabelValues(e.Route).Inc()
	}
}

// SessionOpened records a new preview session.
func (m *Metrics) SessionOpened() {
	m.sessions.Inc()
}

// SessionClosed records the end of a preview session.
func (m *Metrics) SessionClosed() {
	m.sessions.Dec()
}

// WebSocketError records a WebSocket error of the given type.
func (m *Metrics) WebSocketError(errorType string) {
	m.wsErrors.WithLabelValues(errorType).Inc()
}
