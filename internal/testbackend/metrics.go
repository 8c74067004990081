package testbackend

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters for one backend instance.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal prometheus.Counter
	errorsTotal   prometheus.Counter
	uploadsTotal  prometheus.Counter
	uploadBytes   prometheus.Counter
	statusReplies *prometheus.CounterVec
	openTasks     prometheus.Gauge
}

func newMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spectra_backend_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spectra_backend_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		uploadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spectra_backend_uploads_total",
			Help: "Recordings accepted by POST /match_file",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spectra_backend_upload_bytes_total",
			Help: "Bytes of accepted recordings",
		}),
		statusReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spectra_backend_status_replies_total",
			Help: "Task status replies by reported status",
		}, []string{"status"}),
		openTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "spectra_backend_open_tasks",
			Help: "Tasks that have not yet reported a terminal status",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.uploadsTotal,
		m.uploadBytes,
		m.statusReplies,
		m.openTasks,
	)
	return m
}

func (m *Metrics) observeUpload(size int) {
	m.uploadsTotal.Inc()
	m.uploadBytes.Add(float64(size))
}

func (m *Metrics) observeStatus(status string) {
	m.statusReplies.WithLabelValues(status).Inc()
}

// Handler serves the registry. updateGauges runs before each scrape.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

// requestMiddleware counts requests and error responses.
func (m *Metrics) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		m.requestsTotal.Inc()
		if wrapped.statusCode >= 400 {
			m.errorsTotal.Inc()
		}
	})
}
