/*
File: telemetryhub/telemetryhub.go
Description: The API service wrapper. Owns the producer-facing HTTP
server, wires the publish handler behind the producer-key and CORS
middleware, and exposes liveness/readiness endpoints.
*/
package telemetryhub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/internal/api"
	"github.com/tinywideclouds/go-telemetry-hub/internal/middleware"
	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
	"github.com/tinywideclouds/go-telemetry-hub/telemetryhub/config"
)

// Wrapper bundles the HTTP server and handlers of the producer-facing API
// service.
type Wrapper struct {
	server     *http.Server
	apiHandler *api.API
	ready      atomic.Bool
	logger     zerolog.Logger
}

// New creates and wires up the API service.
func New(
	cfg *config.AppConfig,
	publisher telemetry.Publisher,
	logger zerolog.Logger,
) (*Wrapper, error) {
	w := &Wrapper{
		apiHandler: api.NewAPI(publisher, cfg.TokenSecret, cfg.TokenTTL, logger.With().Str("component", "API").Logger()),
		logger:     logger,
	}

	cors := middleware.CORS(cfg.Cors.AllowedOrigins)
	producerKey := middleware.RequireProducerKey(cfg.ProducerAPIKey)

	mux := http.NewServeMux()
	mux.Handle("POST /api/publish", cors(producerKey(http.HandlerFunc(w.apiHandler.PublishHandler))))
	if len(cfg.TokenSecret) > 0 {
		// No signing secret means no tokens to mint; the route stays unwired.
		mux.Handle("POST /api/token", cors(producerKey(http.HandlerFunc(w.apiHandler.TokenHandler))))
	}
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /readyz", func(rw http.ResponseWriter, _ *http.Request) {
		if !w.ready.Load() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		rw.WriteHeader(http.StatusOK)
	})

	w.server = &http.Server{Addr: ":" + cfg.APIPort, Handler: mux}
	return w, nil
}

// Start binds the listener, marks the service ready, and serves until
// Shutdown. A bind failure aborts startup before anything is accepted.
func (w *Wrapper) Start(ctx context.Context) error {
	w.logger.Info().Str("addr", w.server.Addr).Msg("API server starting...")
	listener, err := net.Listen("tcp", w.server.Addr)
	if err != nil {
		return fmt.Errorf("api listener bind failed: %w", err)
	}

	w.ready.Store(true)
	w.logger.Info().Msg("HTTP listener is active; service is now ready.")

	if err := w.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (w *Wrapper) Shutdown(ctx context.Context) error {
	w.logger.Info().Msg("Shutting down API service...")
	w.ready.Store(false)
	if err := w.server.Shutdown(ctx); err != nil {
		w.logger.Error().Err(err).Msg("API server shutdown failed.")
		return err
	}
	w.logger.Info().Msg("API service shut down.")
	return nil
}
