// Package metrics: метрики Prometheus сервиса.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farm-assistant/internal/domain/entity"
	"farm-assistant/internal/domain/port"
)

const namespace = "farmassist"

// Metrics держит собственный реестр, чтобы тесты не делили глобальный.
type Metrics struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	detections *prometheus.CounterVec
	failures   *prometheus.CounterVec
	confidence prometheus.Histogram
}

// New регистрирует метрики HTTP, диагностик и рантайма Go.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Successful disease detections by predicted label.",
		}, []string{"disease"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detection_failures_total",
			Help:      "Failed disease detections by reason.",
		}, []string{"reason"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "detection_confidence_percent",
			Help:      "Confidence of the top prediction.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.detections, m.failures, m.confidence,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry: реестр для тестов и дополнительных коллекторов.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDetection реализует port.DetectionObserver.
func (m *Metrics) ObserveDetection(label string, confidence float64, err error) {
	if err != nil {
		m.failures.WithLabelValues(failureReason(err)).Inc()
		return
	}
	m.detections.WithLabelValues(label).Inc()
	m.confidence.Observe(confidence)
}

// ObserveRequest учитывает один HTTP-запрос.
func (m *Metrics) ObserveRequest(route, method string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(route).Observe(elapsed.Seconds())
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, entity.ErrImageDecode):
		return "decode"
	case errors.Is(err, entity.ErrModelUnavailable):
		return "model"
	default:
		return "other"
	}
}

var _ port.DetectionObserver = (*Metrics)(nil)
