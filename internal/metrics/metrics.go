package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for solver runs
const (
	OutcomeSolved        = "solved"
	OutcomePartial       = "partial"
	OutcomeUnsatisfiable = "unsatisfiable"
	OutcomeTimeout       = "timeout"
	OutcomeError         = "error"
)

// Recorder encapsulates Prometheus instrumentation for the HTTP surface and the solvers.
type Recorder struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solverDuration  *prometheus.HistogramVec
	solverRuns      *prometheus.CounterVec
	solverFitness   *prometheus.HistogramVec
	fallbacks       prometheus.Counter
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solverDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solver_duration_seconds",
		Help:    "Wall-clock time spent by a solver on one request",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"strategy"})

	solverRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_solver_runs_total",
		Help: "Solver runs by strategy and outcome",
	}, []string{"strategy", "outcome"})

	solverFitness := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solution_fitness",
		Help:    "Predicates satisfied by returned timetables",
		Buckets: prometheus.LinearBuckets(1, 1, 5),
	}, []string{"strategy"})

	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_solver_fallbacks_total",
		Help: "Exact searches that timed out and were retried heuristically",
	})

	registry.MustRegister(
		requestDuration,
		requestTotal,
		solverDuration,
		solverRuns,
		solverFitness,
		fallbacks,
		collectors.NewGoCollector(),
	)

	return &Recorder{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solverDuration:  solverDuration,
		solverRuns:      solverRuns,
		solverFitness:   solverFitness,
		fallbacks:       fallbacks,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Recorder) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Recorder) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Recorder) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveSolve records one solver run; fitness is ignored when no timetable was produced.
func (m *Recorder) ObserveSolve(strategy, outcome string, duration time.Duration, fitness int) {
	if m == nil {
		return
	}
	m.solverDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.solverRuns.WithLabelValues(strategy, outcome).Inc()
	if fitness > 0 {
		m.solverFitness.WithLabelValues(strategy).Observe(float64(fitness))
	}
}

func (m *Recorder) IncFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
