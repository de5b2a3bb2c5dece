package metrics

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics encapsulates the Prometheus instrumentation shared by all services.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	dbQueryDuration *prometheus.HistogramVec
	eventsPublished *prometheus.CounterVec
	eventsConsumed  *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
}

// New registers the core collectors for one service instance.
func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Help:        "Duration of HTTP requests in seconds",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests",
		ConstLabels: labels,
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "db_query_duration_seconds",
		Help:        "Duration of database queries",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	}, []string{"query"})

	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_events_published_total",
		Help:        "Events published to the relay",
		ConstLabels: labels,
	}, []string{"stream"})

	eventsConsumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_events_consumed_total",
		Help:        "Events consumed from the relay",
		ConstLabels: labels,
	}, []string{"stream"})

	eventsDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "relay_events_dropped_total",
		Help:        "Events dropped after a handler failure",
		ConstLabels: labels,
	}, []string{"stream"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "goroutines_total",
		Help:        "Total number of goroutines",
		ConstLabels: labels,
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration,
		eventsPublished, eventsConsumed, eventsDropped, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		dbQueryDuration: dbQueryDuration,
		eventsPublished: eventsPublished,
		eventsConsumed:  eventsConsumed,
		eventsDropped:   eventsDropped,
	}
}

// Handler exposes the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	code := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveDBQuery records a database query duration.
func (m *Metrics) ObserveDBQuery(query string, duration time.Duration) {
	m.dbQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
}

// EventPublished increments the publish counter for a stream.
func (m *Metrics) EventPublished(stream string) {
	m.eventsPublished.WithLabelValues(stream).Inc()
}

// EventConsumed increments the consume counter for a stream.
func (m *Metrics) EventConsumed(stream string) {
	m.eventsConsumed.WithLabelValues(stream).Inc()
}

// EventDropped increments the dropped counter for a stream.
func (m *Metrics) EventDropped(stream string) {
	m.eventsDropped.WithLabelValues(stream).Inc()
}

// GinMiddleware captures request metrics for every route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
