package telemetry

import (
	"net/http"
	"regexp"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readaloud"

var invalidMetricChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// PrometheusCollector exposes a MetricsCollector as Prometheus metrics.
// Counters become counters, gauges become gauges and timers are exported as
// an average-seconds gauge plus a sample-count gauge.
type PrometheusCollector struct {
	metrics *MetricsCollector
}

// NewPrometheusCollector wraps metrics for registration with a Prometheus registry.
func NewPrometheusCollector(metrics *MetricsCollector) *PrometheusCollector {
	return &PrometheusCollector{metrics: metrics}
}

// Describe implements prometheus.Collector. Metric names are only known at
// collection time, so the collector is unchecked.
func (c *PrometheusCollector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.metrics.Snapshot()

	for name, value := range snap.Counters {
		desc := prometheus.NewDesc(PrometheusName(name)+"_total", "Counter "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(value))
	}

	for name, value := range snap.Gauges {
		desc := prometheus.NewDesc(PrometheusName(name), "Gauge "+name, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, value)
	}

	for name, avg := range snap.TimerAverage {
		avgDesc := prometheus.NewDesc(PrometheusName(name)+"_avg_seconds", "Average of recent "+name+" samples", nil, nil)
		ch <- prometheus.MustNewConstMetric(avgDesc, prometheus.GaugeValue, avg.Seconds())

		countDesc := prometheus.NewDesc(PrometheusName(name)+"_samples", "Recent "+name+" samples retained", nil, nil)
		ch <- prometheus.MustNewConstMetric(countDesc, prometheus.GaugeValue, float64(snap.TimerCount[name]))
	}
}

// PrometheusName converts a dotted metric name into a valid Prometheus name.
func PrometheusName(name string) string {
	return namespace + "_" + invalidMetricChars.ReplaceAllString(name, "_")
}

// NewRegistry returns a registry carrying the Go runtime collectors and metrics.
func NewRegistry(metrics *MetricsCollector) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewPrometheusCollector(metrics),
	)
	return registry
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
