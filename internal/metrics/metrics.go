package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "retailopt"

// Recorder exposes the application metrics on its own registry. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry     *prometheus.Registry
	forecasts    *prometheus.CounterVec
	fitDuration  *prometheus.HistogramVec
	anomalies    *prometheus.CounterVec
	ingestRows   *prometheus.CounterVec
	notifies     *prometheus.CounterVec
	httpRequests *prometheus.HistogramVec
}

// New creates a recorder with Go runtime and process collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		forecasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forecasts_total",
				Help:      "Forecasts produced, by model and fallback reason",
			},
			[]string{"model", "fallback"},
		),
		fitDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forecast_duration_seconds",
				Help:      "Duration of forecast production in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"model"},
		),
		anomalies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "anomalies_flagged_total",
				Help:      "Observed weeks flagged as anomalous",
			},
			[]string{"model"},
		),
		ingestRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_rows_total",
				Help:      "Rows processed by ingestion, by table and outcome",
			},
			[]string{"table", "outcome"},
		),
		notifies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Anomaly digests sent, by channel and result",
			},
			[]string{"channel", "result"},
		),
		httpRequests: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"route", "method", "status"},
		),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveForecast records one produced forecast.
func (r *Recorder) ObserveForecast(model, fallback string, took time.Duration, anomalies int) {
	if r == nil {
		return
	}
	if fallback == "" {
		fallback = "none"
	}
	r.forecasts.WithLabelValues(model, fallback).Inc()
	r.fitDuration.WithLabelValues(model).Observe(took.Seconds())
	r.anomalies.WithLabelValues(model).Add(float64(anomalies))
}

// RowProcessed records one ingested row.
func (r *Recorder) RowProcessed(table, outcome string) {
	if r == nil {
		return
	}
	r.ingestRows.WithLabelValues(table, outcome).Inc()
}

// NotificationSent records a digest delivery attempt.
func (r *Recorder) NotificationSent(channel string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.notifies.WithLabelValues(channel, result).Inc()
}

// ObserveRequest records an HTTP request.
func (r *Recorder) ObserveRequest(route, method string, status int, took time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Observe(took.Seconds())
}
