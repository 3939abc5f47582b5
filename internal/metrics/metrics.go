// Package metrics holds the Prometheus collectors for the speech service.
// Collectors live on an instance registry so tests can build as many as
// they like. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "naijatts"

// Metrics records request, cache and provider activity.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	cacheHits        prometheus.Counter
	providerAttempts *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	audioBytes       *prometheus.HistogramVec
	breakerOpen      *prometheus.GaugeVec
}

// New creates collectors on a fresh registry. With runtime set, Go and
// process collectors are added as well.
func New(runtime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "speak_requests_total",
				Help:      "Total speak requests by outcome",
			},
			[]string{"outcome"}, // ok, invalid, failed
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Speak requests served from the audio cache",
			},
		),
		providerAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "Provider synthesis attempts by status",
			},
			[]string{"provider", "status"}, // success, error, timeout, skipped
		),
		providerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_duration_seconds",
				Help:      "Duration of provider synthesis attempts in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),
		audioBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "audio_bytes",
				Help:      "Size of returned audio in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),
		breakerOpen: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_breaker_open",
				Help:      "1 when the provider circuit breaker is not closed",
			},
			[]string{"provider"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.cacheHits,
		m.providerAttempts,
		m.providerLatency,
		m.audioBytes,
		m.breakerOpen,
	)
	if runtime {
		m.registry.MustRegister(collectors.NewGoCollector())
		m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (m *Metrics) Request(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// ProviderAttempt records one attempt. d is ignored for skipped attempts.
func (m *Metrics) ProviderAttempt(provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerAttempts.WithLabelValues(provider, status).Inc()
	if status != "skipped" {
		m.providerLatency.WithLabelValues(provider).Observe(d.Seconds())
	}
}

func (m *Metrics) AudioSize(format string, n int) {
	if m == nil {
		return
	}
	m.audioBytes.WithLabelValues(format).Observe(float64(n))
}

func (m *Metrics) BreakerOpen(provider string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.breakerOpen.WithLabelValues(provider).Set(v)
}
