package statusapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation exposed by the status API,
// adapted from this codebase's original REST API metrics to the
// decode/tail/aggregate pipeline's own vocabulary.
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	recordsDecodedTotal *prometheus.CounterVec
	decodeErrorsTotal   prometheus.Counter
	eventsEmittedTotal  prometheus.Counter
	spoolRolloversTotal prometheus.Counter
	bookmarkWritesTotal prometheus.Counter
	catalogEntriesTotal prometheus.Gauge
}

// NewMetrics creates and registers the status API's Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unified2_http_requests_total",
				Help: "Total number of HTTP requests to the status API",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unified2_http_request_duration_seconds",
				Help:    "Status API HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "unified2_http_requests_in_flight",
				Help: "Number of status API HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),
		recordsDecodedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unified2_records_decoded_total",
				Help: "Total number of unified2 records successfully decoded, by kind",
			},
			[]string{"kind"},
		),
		decodeErrorsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "unified2_decode_errors_total",
				Help: "Total number of records that failed to decode",
			},
		),
		eventsEmittedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "unified2_events_emitted_total",
				Help: "Total number of events emitted by the aggregator",
			},
		),
		spoolRolloversTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "unified2_spool_rollovers_total",
				Help: "Total number of spool file rotations observed",
			},
		),
		bookmarkWritesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "unified2_bookmark_writes_total",
				Help: "Total number of durable bookmark writes",
			},
		),
		catalogEntriesTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "unified2_catalog_entries_total",
				Help: "Current number of distinct events recorded in the catalog",
			},
		),
	}
}

// RecordDecoded increments the per-kind decoded-record counter.
func (m *Metrics) RecordDecoded(kind string) {
	m.recordsDecodedTotal.WithLabelValues(kind).Inc()
}

// RecordDecodeError increments the decode-error counter.
func (m *Metrics) RecordDecodeError() {
	m.decodeErrorsTotal.Inc()
}

// RecordEventEmitted increments the events-emitted counter.
func (m *Metrics) RecordEventEmitted() {
	m.eventsEmittedTotal.Inc()
}

// RecordSpoolRollover increments the spool-rollover counter.
func (m *Metrics) RecordSpoolRollover() {
	m.spoolRolloversTotal.Inc()
}

// RecordBookmarkWrite increments the bookmark-write counter.
func (m *Metrics) RecordBookmarkWrite() {
	m.bookmarkWritesTotal.Inc()
}

// SetCatalogEntries sets the current catalog entry count gauge.
func (m *Metrics) SetCatalogEntries(n int) {
	m.catalogEntriesTotal.Set(float64(n))
}

// InstrumentHandler wraps handler with request-count, duration and
// in-flight instrumentation.
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &statusCapturingWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		duration := time.Since(start)
		m.httpRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
		m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	}
}

type statusCapturingWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusCapturingWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
