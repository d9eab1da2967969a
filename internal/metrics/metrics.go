// Package metrics exposes conversion and HTTP metrics in the Prometheus
// format.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/csvcast/internal/core"
	"github.com/JonMunkholm/csvcast/internal/field"
)

const namespace = "csvcast"

// Metrics holds the collectors of one registry. It implements core.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	jobsActive    *prometheus.GaugeVec
	jobsTotal     *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	rowsTotal     prometheus.Counter
	fieldsTotal   prometheus.Counter
	bytesTotal    prometheus.Counter
	parseFailures *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

var _ core.Recorder = (*Metrics)(nil)

// New registers every collector, plus the Go runtime and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Conversions currently running.",
		}, []string{"driver"}),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished conversions by driver and outcome.",
		}, []string{"driver", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Conversion wall time.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 9),
		}, []string{"driver"}),
		rowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_converted_total",
			Help:      "Data rows converted by successful jobs.",
		}),
		fieldsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_converted_total",
			Help:      "Fields converted by successful jobs.",
		}),
		bytesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_bytes_total",
			Help:      "Input bytes of successful jobs.",
		}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Strict-policy field failures by kind and reason.",
		}, []string{"kind", "reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsActive,
		m.jobsTotal,
		m.jobDuration,
		m.rowsTotal,
		m.fieldsTotal,
		m.bytesTotal,
		m.parseFailures,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// JobStarted implements core.Recorder.
func (m *Metrics) JobStarted(driver string) {
	m.jobsActive.WithLabelValues(driver).Inc()
}

// JobFinished implements core.Recorder.
func (m *Metrics) JobFinished(driver string, rows, fields int, bytes int64, elapsed time.Duration, err error) {
	m.jobsActive.WithLabelValues(driver).Dec()
	m.jobDuration.WithLabelValues(driver).Observe(elapsed.Seconds())

	if err != nil {
		m.jobsTotal.WithLabelValues(driver, "error").Inc()
		return
	}
	m.jobsTotal.WithLabelValues(driver, "ok").Inc()
	m.rowsTotal.Add(float64(rows))
	m.fieldsTotal.Add(float64(fields))
	m.bytesTotal.Add(float64(bytes))
}

// ParseFailure implements core.Recorder.
func (m *Metrics) ParseFailure(kind field.Kind, err error) {
	reason := "other"
	var pe *field.ParseError
	if errors.As(err, &pe) {
		reason = pe.Kind.String()
	}
	m.parseFailures.WithLabelValues(kind.String(), reason).Inc()
}

// Middleware records request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
