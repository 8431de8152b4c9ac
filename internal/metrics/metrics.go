package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveRuns counts solve invocations by outcome
	// (converged, timed_out, invalid, infeasible, error).
	SolveRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solve_runs_total", Help: "Solve invocations by outcome."},
		[]string{"outcome"},
	)
	// SolveDuration tracks wall-clock solve time in seconds.
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solve wall-clock duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120}},
	)
	// SolveRoutes tracks how many routes solutions use.
	SolveRoutes = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_route_count", Help: "Routes per solution.", Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15}},
	)

	// MatrixCacheHits / MatrixCacheMisses count matrix cache lookups.
	MatrixCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matrix_cache_hits_total", Help: "Matrix cache hits."},
	)
	MatrixCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matrix_cache_misses_total", Help: "Matrix cache misses."},
	)
)

// RegisterDefault registers collectors on the package registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveRuns)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(SolveRoutes)
		Registry.MustRegister(MatrixCacheHits)
		Registry.MustRegister(MatrixCacheMisses)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
