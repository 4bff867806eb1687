// Package metrics exposes Prometheus collectors for the pipeline and the
// dashboard host.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "polio_dashboard"

// Metrics holds every collector. Each instance owns its registry so tests
// can create as many as they like.
type Metrics struct {
	PipelineDuration prometheus.Histogram
	TableRows        *prometheus.GaugeVec
	FramesBuilt      prometheus.Gauge
	CacheLookups     *prometheus.CounterVec

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	PlaybackStreams prometheus.Gauge

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent loading sources and building chart specs",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	m.TableRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "table_rows",
		Help:      "Rows in each derived table",
	}, []string{"table"})
	m.FramesBuilt = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "map_frames",
		Help:      "Animation frames in the map figure",
	})
	m.CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "spec_cache_lookups_total",
		Help:      "Spec cache lookups by result",
	}, []string{"result"}) // "hit", "miss", "error"

	m.HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
	m.HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	m.PlaybackStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "playback_streams",
		Help:      "Open websocket playback streams",
	})

	m.registry.MustRegister(
		m.PipelineDuration, m.TableRows, m.FramesBuilt, m.CacheLookups,
		m.HTTPRequests, m.HTTPDuration, m.PlaybackStreams,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObservePipeline records a finished pipeline run. Frames are set by the
// chart build, which may also be served from cache without a run.
func (m *Metrics) ObservePipeline(d time.Duration, rows map[string]int) {
	m.PipelineDuration.Observe(d.Seconds())
	for table, n := range rows {
		m.TableRows.WithLabelValues(table).Set(float64(n))
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
