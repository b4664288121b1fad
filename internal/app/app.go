// Package app contains the shared, reusable logic for starting and stopping the service.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
	"github.com/tinywideclouds/go-telemetry-hub/internal/realtime"
	"github.com/tinywideclouds/go-telemetry-hub/telemetryhub"
)

// shutdownGrace bounds cleanup after the shutdown signal; tasks that have not
// finished by then are abandoned when the process exits.
const shutdownGrace = 15 * time.Second

// Run executes the main application lifecycle. It starts the API service, the
// WebSocket connection manager, and the heartbeat task, then waits for an OS
// signal and performs a graceful shutdown of all three. The context handed to
// long-running tasks is the process-wide cancellation signal.
func Run(
	ctx context.Context,
	logger zerolog.Logger,
	apiService *telemetryhub.Wrapper,
	connManager *realtime.ConnectionManager,
	heartbeat *hub.Heartbeat,
) {
	var wg sync.WaitGroup
	wg.Add(3)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		defer wg.Done()
		logger.Info().Msg("Starting API Service...")
		err := apiService.Start(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("API Service failed")
			cancel() // Trigger shutdown of other services.
		}
	}()

	go func() {
		defer wg.Done()
		logger.Info().Msg("Starting Connection Manager Service...")
		err := connManager.Start(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("Connection Manager Service failed")
			cancel() // Trigger shutdown of other services.
		}
	}()

	go func() {
		defer wg.Done()
		heartbeat.Run(ctx)
	}()

	// Wait for a shutdown signal.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal.")
	case <-ctx.Done():
		logger.Info().Msg("Context cancelled, initiating shutdown.")
	}

	// Execute graceful shutdown. Cancelling the run context stops the
	// heartbeat and every per-connection task.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()

	if err := apiService.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("API Service shutdown failed.")
	}

	if err := connManager.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Connection Manager shutdown failed.")
	}

	wg.Wait()
	logger.Info().Msg("All services shut down gracefully.")
}
