package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はサーバーのPrometheusメトリクスを保持します。
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	reopens  prometheus.Counter
}

// NewMetrics は専用のレジストリにメトリクスを登録して返します。
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		reopens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "project_reopen_total",
			Help:      "Completed projects reopened because one of their tasks was reopened.",
		}),
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.reopens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler は /metrics 用のハンドラーを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveReopen はプロジェクトの再オープンを記録します。service.WithReopenHook に渡します。
func (m *Metrics) ObserveReopen(uuid.UUID) {
	m.reopens.Inc()
}

func (m *Metrics) observeRequest(method, route, status string, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, status).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
