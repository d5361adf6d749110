// Package middleware provides router observers for production monitoring.
//
// This package includes:
//   - OpenTelemetry tracing of navigations and controller materialization
//   - Prometheus metrics for navigations, materializations and before-hooks
//
// Both types implement router.Observer and are attached with
// router.WithObserver.
//
// # OpenTelemetry
//
//	r := router.New(
//	    router.WithObserver(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	        middleware.WithURLFilter(func(url string) bool {
//	            return url != "/healthz"
//	        }),
//	    )),
//	)
//
// The tracer comes from the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure it in main() before creating
// routers.
//
// # Prometheus Metrics
//
//	r := router.New(router.WithObserver(middleware.Prometheus()))
//	http.Handle("/metrics", promhttp.Handler())
//
// Prometheus returns one process-wide instance so that every router (the
// preview server creates one per session) feeds the same series. Use
// NewMetrics with WithRegistry for isolated registries in tests.
package middleware
