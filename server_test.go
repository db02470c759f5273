package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeAppConfig writes a command table, a model and a config pointing at them, returning the config
func writeAppConfig(t *testing.T, extra string) *Config {
	t.Helper()
	commands := writeTempFile(t, "commands.yml", mockCommandTableYAML)
	model := writeTempFile(t, "model.yml", mockModelYAML)
	content := fmt.Sprintf(`
device:
  host: 127.0.0.1
  login: root
  commands_file: %s
predictor:
  model_file: %s
%s`, commands, model, extra)
	cfg, err := loadConfig(writeTempFile(t, "config.yml", content))
	require.NoError(t, err)
	return cfg
}

// --- Application Wiring Tests ---

func TestBuildApplication(t *testing.T) {
	cfg := writeAppConfig(t, "")

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	assert.Same(t, cfg, app.cfg)
	assert.NotNil(t, app.controller)
	assert.NotNil(t, app.stations)
	assert.NotNil(t, app.service)
	assert.NotNil(t, app.metrics)
	assert.True(t, app.service.ServiceActive())
	require.IsType(t, &multiReporter{}, app.reporter)
	assert.Empty(t, app.reporter.(*multiReporter).sinks, "no sink enabled")
}

func TestBuildApplication_Errors(t *testing.T) {
	t.Run("Missing command table", func(t *testing.T) {
		cfg := writeAppConfig(t, "")
		cfg.Device.CommandsFile = filepath.Join(t.TempDir(), "missing.yml")
		_, err := buildApplication(cfg)
		assert.ErrorIs(t, err, ErrCommandTable)
	})

	t.Run("Missing model", func(t *testing.T) {
		cfg := writeAppConfig(t, "")
		cfg.Predictor.ModelFile = filepath.Join(t.TempDir(), "missing.yml")
		_, err := buildApplication(cfg)
		assert.ErrorIs(t, err, ErrPredictorLoad)
	})

	t.Run("Bad extraction rule", func(t *testing.T) {
		cfg := writeAppConfig(t, "extraction:\n  band_fields:\n    tx_bytes: 'txbyte (\\d+'\n")
		_, err := buildApplication(cfg)
		assert.ErrorIs(t, err, ErrConfig)
	})

	t.Run("Unreadable known_hosts", func(t *testing.T) {
		cfg := writeAppConfig(t, "")
		cfg.Device.Protocol = ProtocolSSH
		cfg.Device.SSHKnownHosts = filepath.Join(t.TempDir(), "known_hosts")
		_, err := buildApplication(cfg)
		assert.ErrorIs(t, err, ErrTransport)
	})
}

// --- Server Lifecycle Tests ---

func TestServe_GracefulShutdown(t *testing.T) {
	logs := captureLogs(t)
	app, _ := setupTestServer(t, nil)
	app.cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- serve(ctx, app) }()

	assert.Eventually(t, func() bool {
		_, statuses := app.reporter.(*recordingReporter).snapshot()
		return len(statuses) > 0
	}, 3*time.Second, 10*time.Millisecond, "cycle worker reports status")
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
	assert.Contains(t, logs.String(), "Smart band service prepared")
	assert.Contains(t, logs.String(), "Server exited properly")
	assert.True(t, app.reporter.(*recordingReporter).closed)
}

func TestServe_ListenFailure(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()

	app, _ := setupTestServer(t, nil)
	app.cfg.Server.Addr = listener.Addr().String()

	err = serve(context.Background(), app)
	assert.Error(t, err)
}

func TestServe_ShutdownError(t *testing.T) {
	originalShutdown := serverShutdown
	serverShutdown = func(ctx context.Context, server *http.Server) error {
		_ = server.Close()
		return errors.New("shutdown failed")
	}
	defer func() { serverShutdown = originalShutdown }()

	app, _ := setupTestServer(t, nil)
	app.cfg.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := serve(ctx, app)
	assert.EqualError(t, err, "shutdown failed")
}

func TestNewHTTPServer(t *testing.T) {
	handler := http.NewServeMux()
	server := newHTTPServer(":8081", handler)
	assert.Equal(t, ":8081", server.Addr)
	assert.Equal(t, handler, server.Handler)
	assert.Equal(t, 10*time.Second, server.ReadHeaderTimeout)
}
