package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics groups the service instruments. A nil *metrics is a valid no-op recorder.
type metrics struct {
	registry        *prometheus.Registry
	cycleDuration   prometheus.Histogram
	cycles          *prometheus.CounterVec
	predictions     *prometheus.CounterVec
	transportErrors *prometheus.CounterVec
	reportErrors    *prometheus.CounterVec
	band5GHzOn      prometheus.Gauge
	stations        prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// newMetrics creates every instrument and registers it on reg
func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		registry: reg,
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartband_cycle_duration_seconds",
			Help:    "Duration of one polling cycle.",
			Buckets: prometheus.DefBuckets,
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartband_cycles_total",
			Help: "Polling cycles by outcome.",
		}, []string{"outcome"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartband_rtt_predictions_total",
			Help: "Station RTT values by source.",
		}, []string{"source"}),
		transportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartband_transport_errors_total",
			Help: "Device session failures by operation.",
		}, []string{"op"}),
		reportErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartband_report_errors_total",
			Help: "Failed collector deliveries by sink.",
		}, []string{"sink"}),
		band5GHzOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartband_band_5ghz_on",
			Help: "Last observed 5GHz band status (1 on, 0 off).",
		}),
		stations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartband_tracked_stations",
			Help: "Stations currently tracked by the counter state.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartband_http_requests_total",
			Help: "REST requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartband_http_request_duration_seconds",
			Help:    "REST request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.cycleDuration,
		m.cycles,
		m.predictions,
		m.transportErrors,
		m.reportErrors,
		m.band5GHzOn,
		m.stations,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *metrics) observeCycle(outcome cycleOutcome, d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
	m.cycles.WithLabelValues(string(outcome)).Inc()
}

func (m *metrics) observePredictions(report *PredictionReport) {
	if m == nil || report == nil {
		return
	}
	for _, st := range report.Stations {
		m.predictions.WithLabelValues(st.Source).Inc()
	}
}

func (m *metrics) observeTransportError(op string) {
	if m == nil {
		return
	}
	m.transportErrors.WithLabelValues(op).Inc()
}

func (m *metrics) observeReportError(sink string) {
	if m == nil {
		return
	}
	m.reportErrors.WithLabelValues(sink).Inc()
}

func (m *metrics) setBand5GHz(on bool) {
	if m == nil {
		return
	}
	if on {
		m.band5GHzOn.Set(1)
		return
	}
	m.band5GHzOn.Set(0)
}

func (m *metrics) setTrackedStations(n int) {
	if m == nil {
		return
	}
	m.stations.Set(float64(n))
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument records request count and duration for route
func (m *metrics) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	if m == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.httpRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// handler exposes the registry in the Prometheus text format
func (m *metrics) handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
