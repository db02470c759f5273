package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --- Mock Data Constants ---

const (
	mockAPIKey     = "test-secret-key"
	mockStationMAC = "AA:BB:CC:DD:EE:01"
)

// mockCommandTableYAML mirrors the layout of a production command table
const mockCommandTableYAML = `
WIFI:
  status: "wifi status"
  true: "wifi on"
  false: "wifi off"
  bands:
    2.4GHz:
      status: "wl -i wl0 status"
      true: "wl -i wl0 up"
      false: "wl -i wl0 down"
      stations: "wl -i wl0 assoclist"
    5GHz:
      status: "wl -i wl1 status"
      true: "wl -i wl1 up"
      false: "wl -i wl1 down"
      stations: "wl -i wl1 assoclist"
    6GHz:
      status: "wl -i wl2 status"
      true: ["pcb_cli", "WiFi.Radio.3.Enable=1"]
      false: ["pcb_cli", "WiFi.Radio.3.Enable=0"]
      stations: "wl -i wl2 assoclist"
  counters:
    2.4GHz: "wl -i wl0 counters"
    5GHz: "wl -i wl1 counters"
    station_info:
      2.4GHz: "wl -i wl0 sta_info STATION"
      5GHz: "wl -i wl1 sta_info STATION"
`

// --- Fake Transport ---

// fakeTransport records every command and answers from a lookup table or a responder func
type fakeTransport struct {
	mu      sync.Mutex
	outputs map[string]string
	respond func(cmd string) (string, error)
	openErr error

	sent   []string
	noWait []string
	opened int
	closed int
}

func newFakeTransport(outputs map[string]string) *fakeTransport {
	if outputs == nil {
		outputs = make(map[string]string)
	}
	return &fakeTransport{outputs: outputs}
}

func (f *fakeTransport) Open(context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return &fakeSession{f: f}, nil
}

func (f *fakeTransport) set(cmd, out string) {
	f.mu.Lock()
	f.outputs[cmd] = out
	f.mu.Unlock()
}

func (f *fakeTransport) sentCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeTransport) noWaitCommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.noWait...)
}

func (f *fakeTransport) sessionCounts() (opened, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened, f.closed
}

type fakeSession struct{ f *fakeTransport }

func (s *fakeSession) Send(cmd string) (string, error) {
	s.f.mu.Lock()
	s.f.sent = append(s.f.sent, cmd)
	respond := s.f.respond
	out := s.f.outputs[cmd]
	s.f.mu.Unlock()
	if respond != nil {
		return respond(cmd)
	}
	return out, nil
}

func (s *fakeSession) SendNoWait(cmd string) error {
	s.f.mu.Lock()
	s.f.noWait = append(s.f.noWait, cmd)
	s.f.mu.Unlock()
	return nil
}

func (s *fakeSession) Close() error {
	s.f.mu.Lock()
	s.f.closed++
	s.f.mu.Unlock()
	return nil
}

// --- Test Setup Functions ---

// newTestDispatcher builds a dispatcher over the mock command table and tr
func newTestDispatcher(t *testing.T, tr Transport) *Dispatcher {
	t.Helper()
	table, err := parseCommandTable([]byte(mockCommandTableYAML))
	require.NoError(t, err)
	return newDispatcher(table, tr, nil, nil)
}

// writeTempFile writes content under t.TempDir and returns its path
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// captureLogs swaps the package logger for one writing JSON lines into the returned buffer
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buffer bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&syncBuffer{buf: &buffer}), zap.DebugLevel)

	originalLogger := logger
	logger = zap.New(core)
	t.Cleanup(func() { logger = originalLogger })
	return &buffer
}

// syncBuffer serialises writes from background goroutines into a bytes.Buffer
type syncBuffer struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

// simTransport answers every command from sim
func simTransport(sim *gatewaySim) *fakeTransport {
	tr := newFakeTransport(nil)
	tr.respond = sim.respond
	return tr
}

// setupTestServer wires an application over tr with authentication enabled and returns its router
func setupTestServer(t *testing.T, tr *fakeTransport) (*application, http.Handler) {
	t.Helper()
	if tr == nil {
		tr = simTransport(newGatewaySim())
	}

	// Fresh brute force tracker per test
	originalTracker := authTracker
	authTracker = newAuthAttemptTracker()
	t.Cleanup(func() { authTracker = originalTracker })

	cfg := &Config{
		Server:    ServerConfig{MiddlewareAuth: true, AuthKey: mockAPIKey},
		SmartBand: testSmartBandConfig(),
	}
	cfg.applyDefaults()

	d := newTestDispatcher(t, tr)
	sampler, err := newCounterSampler(d, ExtractionConfig{})
	require.NoError(t, err)
	controller := newController(d, nil)
	controller.pollInterval = 5 * time.Millisecond
	controller.timeout = 100 * time.Millisecond
	stations := newStationManager(d, nil)
	m := newMetrics(prometheus.NewRegistry())
	rep := &recordingReporter{}

	app := &application{
		cfg:        cfg,
		controller: controller,
		stations:   stations,
		service:    newSmartBandService(cfg.SmartBand, controller, stations, sampler, &fakePredictor{rtt: 42}, rep, m),
		reporter:   rep,
		metrics:    m,
	}
	return app, newRouter(app, nil)
}

// doRequest serves one request through router, optionally carrying the API key
func doRequest(router http.Handler, method, target string, withKey bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if withKey {
		req.Header.Set(HeaderAPIKey, mockAPIKey)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// decodeResponse parses the standard envelope
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

// --- Test Main ---

func TestMain(m *testing.M) {
	// Setup global logger for all tests
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create test logger: %v", err)
	}

	// Run tests
	code := m.Run()

	// Cleanup
	if logger != nil {
		_ = logger.Sync()
	}
	os.Exit(code)
}
