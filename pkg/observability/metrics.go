// Package observability exposes Prometheus metrics and forwards unexpected
// failures to Sentry.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tweetrelay"

// Metrics holds the relay collectors on a private registry
type Metrics struct {
	registry       *prometheus.Registry
	ActiveStreams  prometheus.Gauge
	StreamsTotal   *prometheus.CounterVec
	TweetsRelayed  *prometheus.CounterVec
	StreamDuration *prometheus.HistogramVec
	HTTPRequests   *prometheus.CounterVec
	DownloadsTotal *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		registry: r,
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Number of streams currently relaying",
		}),
		StreamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Finished streams by source and outcome",
		}, []string{"source", "outcome"}),
		TweetsRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tweets_relayed_total",
			Help:      "Tweets written to clients",
		}, []string{"source"}),
		StreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Stream duration in seconds",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"source"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		DownloadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Image downloads by result",
		}, []string{"result"}),
	}
	r.MustRegister(
		m.ActiveStreams, m.StreamsTotal, m.TweetsRelayed, m.StreamDuration,
		m.HTTPRequests, m.DownloadsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) StreamStarted(source string) {
	m.ActiveStreams.Inc()
}

func (m *Metrics) TweetRelayed(source string) {
	m.TweetsRelayed.WithLabelValues(source).Inc()
}

func (m *Metrics) StreamFinished(source string, outcome string, count int, duration time.Duration) {
	m.ActiveStreams.Dec()
	m.StreamsTotal.WithLabelValues(source, outcome).Inc()
	m.StreamDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RequestServed counts one HTTP request
func (m *Metrics) RequestServed(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// DownloadFinished counts one image download: downloaded, skipped or failed
func (m *Metrics) DownloadFinished(result string) {
	m.DownloadsTotal.WithLabelValues(result).Inc()
}
