package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// metricValue returns the value of the counter or gauge sample of family name
// whose first label equals label, or the unlabelled sample when label is empty
func metricValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			if g := m.GetGauge(); g != nil {
				return g.GetValue()
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
		}
	}
	return 0
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() {
		m.observeCycle(outcomeReported, time.Second)
		m.observePredictions(mockReport())
		m.observeTransportError("open")
		m.observeReportError("http")
		m.setBand5GHz(true)
		m.setTrackedStations(3)
	})

	called := false
	h := m.instrument("/x", func(http.ResponseWriter, *http.Request) { called = true })
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.True(t, called)
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)

	m.observeCycle(outcomeReported, 20*time.Millisecond)
	m.observeCycle(outcomeReported, 20*time.Millisecond)
	m.observeCycle(outcomeWarmingUp, time.Millisecond)
	m.observePredictions(mockReport())
	m.observeTransportError("send")
	m.setBand5GHz(true)
	m.setTrackedStations(4)

	assert.Equal(t, 2.0, metricValue(t, reg, "smartband_cycles_total", string(outcomeReported)))
	assert.Equal(t, 1.0, metricValue(t, reg, "smartband_cycles_total", string(outcomeWarmingUp)))
	assert.Equal(t, 3.0, metricValue(t, reg, "smartband_cycle_duration_seconds", ""))
	assert.Equal(t, 1.0, metricValue(t, reg, "smartband_rtt_predictions_total", SourceModel))
	assert.Equal(t, 1.0, metricValue(t, reg, "smartband_transport_errors_total", "send"))
	assert.Equal(t, 1.0, metricValue(t, reg, "smartband_band_5ghz_on", ""))
	assert.Equal(t, 4.0, metricValue(t, reg, "smartband_tracked_stations", ""))

	m.setBand5GHz(false)
	assert.Equal(t, 0.0, metricValue(t, reg, "smartband_band_5ghz_on", ""))
}

func TestMetrics_InstrumentAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newMetrics(reg)

	h := m.instrument("/api/v1/wifi", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/wifi", nil))

	rr := httptest.NewRecorder()
	m.handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `smartband_http_requests_total{route="/api/v1/wifi",status="418"} 1`)
}
