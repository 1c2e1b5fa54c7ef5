package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API. A nil *Metrics records
// nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Protocol metrics
	messagesTotal     *prometheus.CounterVec
	repliesTotal      *prometheus.CounterVec
	decodeErrorsTotal *prometheus.CounterVec
	imageBytes        prometheus.Histogram

	// Frame store metrics
	samplesStoredTotal prometheus.Counter
	framesTotal        prometheus.Gauge

	authRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		gatherer: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivelog_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "drivelog_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivelog_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivelog_messages_total",
				Help: "Decoded device messages by type",
			},
			[]string{"type"},
		),

		repliesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivelog_replies_total",
				Help: "Replies sent to devices by type",
			},
			[]string{"type"},
		),

		decodeErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivelog_decode_errors_total",
				Help: "Rejected device messages by reason",
			},
			[]string{"reason"},
		),

		imageBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "drivelog_image_bytes",
				Help:    "Size of received camera frames",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 10),
			},
		),

		samplesStoredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "drivelog_samples_stored_total",
				Help: "Training samples written to the frame store",
			},
		),

		framesTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "drivelog_frames_total",
				Help: "Frames currently in the frame store",
			},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drivelog_auth_requests_total",
				Help: "Total number of operator authentication attempts",
			},
			[]string{"status"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordMessage records a decoded message and the reply sent for it
func (m *Metrics) RecordMessage(msgType, replyType string, imageSize int) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(msgType).Inc()
	m.repliesTotal.WithLabelValues(replyType).Inc()
	m.imageBytes.Observe(float64(imageSize))
}

// RecordDecodeError records a rejected message
func (m *Metrics) RecordDecodeError(reason string) {
	if m == nil {
		return
	}
	m.decodeErrorsTotal.WithLabelValues(reason).Inc()
}

// RecordSampleStored records a training sample write
func (m *Metrics) RecordSampleStored() {
	if m == nil {
		return
	}
	m.samplesStoredTotal.Inc()
}

// UpdateFrameCount sets the frame store gauge
func (m *Metrics) UpdateFrameCount(frames int) {
	if m == nil {
		return
	}
	m.framesTotal.Set(float64(frames))
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	if m == nil {
		return
	}
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		// capture the status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
