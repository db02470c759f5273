// Package main is the smart band relay: it polls a home gateway over telnet or ssh,
// predicts per-station RTT, optionally drives the 5GHz radio and reports to a collector.
//
//	@title						Smart Band Relay API
//	@version					1.0
//	@description				Wifi band control and smart band service of a home gateway
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package main

import (
	"log"

	"go.uber.org/zap"
)

// logger is the process-wide structured logger
var logger = zap.NewNop()

// exitFunc terminates the process (package-level variable for testing)
var exitFunc = log.Fatalf

func main() {
	if err := run(getEnv(EnvConfigFile, DefaultConfigFile)); err != nil {
		exitFunc("smartband-relay: %v", err)
	}
}

// run loads the configuration, builds the application and serves until a shutdown signal
func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := initLoggerWrapper(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded", zap.String("path", configPath))
	app, err := buildApplication(cfg)
	if err != nil {
		logger.Error("Startup failed", zap.Error(err))
		return err
	}
	return runServer(app)
}
