package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/Cepat-Kilat-Teknologi/smartband-relay/docs"
)

// application is every long-lived component built from the configuration
type application struct {
	cfg        *Config
	controller *Controller
	stations   *StationManager
	service    *SmartBandService
	reporter   Reporter
	metrics    *metrics
}

// buildApplication loads the command table and the predictor, then wires the components.
// Any defect in the configuration, table or model is returned before anything is scheduled.
func buildApplication(cfg *Config) (*application, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := newMetrics(reg)

	table, err := loadCommandTable(cfg.Device.CommandsFile)
	if err != nil {
		return nil, err
	}
	transport, err := newTransport(cfg.Device)
	if err != nil {
		return nil, err
	}
	predictor, err := loadPredictor(cfg.Predictor.ModelFile, cfg.SmartBand.MinPredictedRTT)
	if err != nil {
		return nil, err
	}

	dispatcher := newDispatcher(table, transport, cfg.Device.SubShellMarkers, m)
	sampler, err := newCounterSampler(dispatcher, cfg.Extraction)
	if err != nil {
		return nil, err
	}
	controller := newController(dispatcher, newStatusCache(StatusCacheTimeout))
	stations := newStationManager(dispatcher, cfg.Extraction.StationDelimiters)
	reporter := newReporter(cfg.Reporter, m)

	return &application{
		cfg:        cfg,
		controller: controller,
		stations:   stations,
		service:    newSmartBandService(cfg.SmartBand, controller, stations, sampler, predictor, reporter, m),
		reporter:   reporter,
		metrics:    m,
	}, nil
}

// newHTTPServer creates an HTTP server (package-level variable for testing)
var newHTTPServer = func(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serverShutdown gracefully stops server (package-level variable for testing)
var serverShutdown = func(ctx context.Context, server *http.Server) error {
	return server.Shutdown(ctx)
}

// runServer prepares the service, starts the cycle worker and serves the REST façade
// until SIGINT or SIGTERM
func runServer(app *application) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, app)
}

// serve runs until ctx is cancelled or the listener fails
func serve(ctx context.Context, app *application) error {
	cfg := app.cfg
	logger.Info("Middleware authentication", zap.Bool("enabled", cfg.Server.MiddlewareAuth))
	logger.Info("Device session",
		zap.String("host", cfg.Device.Host),
		zap.String("protocol", cfg.Device.Protocol),
	)
	defer safeClose(app.reporter)

	app.service.Prepare(ctx)

	// Cycle worker
	worker := newCycleWorker(secondsToDuration(cfg.SmartBand.PollingPeriodSecs), app.service.RunCycle)
	worker.Start()
	defer worker.Stop()

	// Apply rate limiting middleware
	rl := newRateLimiter(cfg.Server.RateLimitRequests, time.Duration(cfg.Server.RateLimitWindowSec)*time.Second)
	rl.StartCleanup() // Start background cleanup to prevent memory leaks
	defer rl.StopCleanup()

	// Start auth attempt tracker cleanup for brute force protection
	authTracker.StartCleanup()
	defer authTracker.StopCleanup()

	server := newHTTPServer(cfg.Server.Addr, newRouter(app, rl))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return serverShutdown(shutdownCtx, server)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server exited properly")
	return nil
}
