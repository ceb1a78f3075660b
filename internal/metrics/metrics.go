package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	floorFetches        *prometheus.CounterVec
	floorFetchDuration  *prometheus.HistogramVec
	mountedViews        prometheus.Gauge
	refreshTriggers     *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP, fetch, and view metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorwatch",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by floorwatch",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "floorwatch",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by floorwatch",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	floorFetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorwatch",
		Name:      "floor_fetches_total",
		Help:      "Floor data fetches by outcome (ok, error, stale)",
	}, []string{"outcome"})

	floorFetchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "floorwatch",
		Name:      "floor_fetch_duration_seconds",
		Help:      "Duration of floor data fetches from the data source",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	mountedViews := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "floorwatch",
		Name:      "mounted_views",
		Help:      "Number of floor-plan views currently mounted",
	})

	refreshTriggers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "floorwatch",
		Name:      "refresh_triggers_total",
		Help:      "Refreshes requested by source (api, poll, mqtt)",
	}, []string{"source"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		floorFetches,
		floorFetchDuration,
		mountedViews,
		refreshTriggers,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		floorFetches:        floorFetches,
		floorFetchDuration:  floorFetchDuration,
		mountedViews:        mountedViews,
		refreshTriggers:     refreshTriggers,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveFetch records one completed floor fetch.
func (m *Metrics) ObserveFetch(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.floorFetches.WithLabelValues(outcome).Inc()
	m.floorFetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) ViewMounted() {
	if m == nil {
		return
	}
	m.mountedViews.Inc()
}

func (m *Metrics) ViewUnmounted() {
	if m == nil {
		return
	}
	m.mountedViews.Dec()
}

// IncRefreshTrigger counts a refresh request from source.
func (m *Metrics) IncRefreshTrigger(source string) {
	if m == nil {
		return
	}
	m.refreshTriggers.WithLabelValues(source).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
