/*
File: cmd/prod/runtelemetryhub.go
Description: Production entrypoint. Wires the channel manager, heartbeat,
API service, and WebSocket connection manager from the embedded config
and runs the application lifecycle.
*/
package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tinywideclouds/go-telemetry-hub/cmd"
	"github.com/tinywideclouds/go-telemetry-hub/internal/app"
	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
	"github.com/tinywideclouds/go-telemetry-hub/internal/realtime"
	"github.com/tinywideclouds/go-telemetry-hub/telemetryhub"
)

func main() {
	// 1. Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := log.With().Str("service", "go-telemetry-hub").Logger()

	// 2. Load config.yaml (plus env overrides)
	cfg, err := cmd.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel())
	if !cfg.RequireAuth {
		logger.Warn().Msg("Running with require_auth disabled. Anonymous clients may join any channel.")
	}

	// 3. Create the hub core
	manager := hub.NewManager(hub.Options{
		SystemChannel: cfg.SystemChannel,
		DataChannel:   cfg.DataChannel,
	}, logger)

	heartbeat := hub.NewHeartbeat(manager, cfg.SystemChannel, cfg.HeartbeatInterval, logger)

	// 4. Create the two servers
	apiService, err := telemetryhub.New(cfg, manager, logger.With().Str("component", "ApiService").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create API service")
	}

	connManager, err := realtime.NewConnectionManager(
		cfg.WebSocketPort,
		manager,
		realtime.SessionConfig{
			RequireAuth: cfg.RequireAuth,
			Secret:      cfg.TokenSecret,
			QueueDepth:  cfg.MaxQueueDepth,
		},
		cfg.Cors.AllowedOrigins,
		logger.With().Str("component", "ConnManager").Logger(),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Connection Manager")
	}

	// 5. Run the application
	app.Run(context.Background(), logger, apiService, connManager, heartbeat)
}
