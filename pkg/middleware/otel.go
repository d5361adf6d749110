package middleware

import (
	"context"

	"github.com/vango-dev/carbon/pkg/router"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for Carbon routers.
const defaultTracerName = "carbon"

// OTelConfig configures the OpenTelemetry observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "carbon").
	TracerName string

	// TracerProvider provides the tracer.
	// Default: the global provider from otel.GetTracerProvider.
	TracerProvider trace.TracerProvider

	// IncludeURL records the full URL, query string included.
	// Enabled by default; disable when URLs carry sensitive data.
	IncludeURL bool

	// Filter determines which URLs to trace.
	// Return true to trace, false to skip. If nil, everything is traced.
	Filter func(url string) bool

	// AttributeExtractor adds custom attributes to materialize spans.
	AttributeExtractor func(e router.MaterializeEvent) []attribute.KeyValue
}

// OTelOption configures the OpenTelemetry observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *OTelConfig) {
		c.TracerProvider = tp
	}
}

// WithIncludeURL enables/disables recording the full URL.
func WithIncludeURL(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeURL = include
	}
}

// WithURLFilter sets a filter function for traced URLs.
func WithURLFilter(filter func(url string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(e router.MaterializeEvent) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		IncludeURL: true,
	}
}

// Tracing is a router.Observer that records a span per navigation and per
// controller materialization. Spans are created after the fact with the
// timestamps carried by the events.
type Tracing struct {
	config OTelConfig
	tracer trace.Tracer
}

var _ router.Observer = (*Tracing)(nil)

// OpenTelemetry creates a tracing observer.
//
//	r := router.New(router.WithObserver(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	)))
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	tp := config.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracing{
		config: config,
		tracer: tp.Tracer(config.TracerName),
	}
}

// ObserveNavigation implements router.Observer.
func (t *Tracing) ObserveNavigation(e router.NavigationEvent) {
	if t.config.Filter != nil && !t.config.Filter(e.URL) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.Int64("carbon.seq", int64(e.Seq)),
		attribute.Bool("carbon.pushed", e.Pushed),
	}
	if t.config.IncludeURL {
		attrs = append(attrs,
			attribute.String("carbon.url", e.URL),
			attribute.String("carbon.previous_url", e.Previous),
		)
	}

	_, span := t.tracer.Start(context.Background(), "carbon.navigate",
		trace.WithTimestamp(e.Time),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	span.End(trace.WithTimestamp(e.Time))
}

// ObserveMaterialize implements router.Observer.
func (t *Tracing) ObserveMaterialize(e router.MaterializeEvent) {
	if t.config.Filter != nil && !t.config.Filter(e.URL) {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("carbon.status", string(e.Status)),
		attribute.String("carbon.route", e.Route),
		attribute.Int64("carbon.seq", int64(e.Seq)),
		attribute.Bool("carbon.before_hook", e.HookRan),
	}
	if t.config.IncludeURL {
		attrs = append(attrs, attribute.String("carbon.url", e.URL))
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(e)...)
	}

	_, span := t.tracer.Start(context.Background(), spanName(e),
		trace.WithTimestamp(e.Start),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	span.End(trace.WithTimestamp(e.Start.Add(e.Duration)))
}

// spanName names materialize spans after the route, keeping cardinality
// bounded by the route table.
func spanName(e router.MaterializeEvent) string {
	if e.Route != "" {
		return "carbon.materialize " + e.Route
	}
	return "carbon.materialize " + string(e.Status)
}
