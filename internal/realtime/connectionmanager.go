/*
File: internal/realtime/connectionmanager.go
Description: Runs the WebSocket upgrade server and manages the lifecycle
of every connection session. Each session is registered with the channel
manager on connect and torn down through the shared cleanup path on any
terminal condition.
*/
// Package realtime provides components for managing real-time client connections.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
)

// ConnectionManager manages all active WebSocket connections.
// It runs its own dedicated HTTP server.
type ConnectionManager struct {
	server     *http.Server
	upgrader   websocket.Upgrader
	manager    *hub.Manager
	sessionCfg SessionConfig
	sessions   sync.Map // map[string]*Session
	logger     zerolog.Logger
}

// NewConnectionManager creates and wires up a new WebSocket connection manager.
func NewConnectionManager(
	port string,
	manager *hub.Manager,
	sessionCfg SessionConfig,
	allowedOrigins []string,
	logger zerolog.Logger,
) (*ConnectionManager, error) {
	if sessionCfg.RequireAuth && len(sessionCfg.Secret) == 0 {
		return nil, errors.New("realtime: auth required but no token secret configured")
	}

	cm := &ConnectionManager{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		manager:    manager,
		sessionCfg: sessionCfg,
		logger:     logger.With().Str("component", "ConnectionManager").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", cm.connectHandler)
	cm.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	return cm, nil
}

// originChecker allows every origin when none are configured; clients that
// send no Origin header (non-browser clients) are always allowed.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Start binds the listener and serves until Shutdown. A bind failure here is
// the process's only fatal condition.
func (cm *ConnectionManager) Start(ctx context.Context) error {
	cm.logger.Info().Str("addr", cm.server.Addr).Msg("WebSocket server starting...")
	listener, err := net.Listen("tcp", cm.server.Addr)
	if err != nil {
		return fmt.Errorf("websocket listener bind failed: %w", err)
	}
	if err := cm.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server failed: %w", err)
	}
	return nil
}

// Shutdown closes every live session and stops the HTTP server. The HTTP
// shutdown does not wait for upgraded (hijacked) connections, so sessions are
// kicked explicitly first.
func (cm *ConnectionManager) Shutdown(ctx context.Context) error {
	cm.logger.Info().Msg("Shutting down WebSocket service...")

	cm.sessions.Range(func(_, v any) bool {
		v.(*Session).Kick("server shutting down")
		return true
	})

	if err := cm.server.Shutdown(ctx); err != nil {
		cm.logger.Error().Err(err).Msg("WebSocket server shutdown failed.")
		return err
	}

	cm.logger.Info().Msg("WebSocket service shut down.")
	return nil
}

// connectHandler upgrades a new HTTP request to a WebSocket and runs its
// session until disconnect.
func (cm *ConnectionManager) connectHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cm.logger.Error().Err(err).Msg("Failed to upgrade connection.")
		return
	}

	connID := uuid.NewString()
	session := NewSession(r.Context(), connID, conn, cm.manager, cm.sessionCfg, cm.logger)
	cm.sessions.Store(connID, session)
	defer cm.sessions.Delete(connID)

	cm.logger.Info().Str("conn", connID).Str("remote", r.RemoteAddr).Msg("Client connected.")
	session.Run()
}
