/*
File: internal/hub/heartbeat.go
Description: Periodic publisher of a timestamped liveness message on the
operational channel, so clients and intermediaries can detect a live hub
and idle connections are kept warm.
*/
package hub

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
)

// Heartbeat publishes a liveness message on a fixed interval until its
// context is cancelled.
type Heartbeat struct {
	manager  *Manager
	channel  string
	interval time.Duration
	logger   zerolog.Logger
}

// NewHeartbeat creates the heartbeat task for the given operational channel.
func NewHeartbeat(manager *Manager, channel string, interval time.Duration, logger zerolog.Logger) *Heartbeat {
	return &Heartbeat{
		manager:  manager,
		channel:  channel,
		interval: interval,
		logger:   logger.With().Str("component", "Heartbeat").Logger(),
	}
}

// Run blocks until ctx is cancelled. It ticks on the configured interval and
// publishes through the manager like any other producer.
func (h *Heartbeat) Run(ctx context.Context) {
	h.logger.Info().Str("channel", h.channel).Dur("interval", h.interval).Msg("Heartbeat task starting...")
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("Heartbeat task stopped.")
			return
		case now := <-ticker.C:
			msg := &telemetry.Message{
				Type:      telemetry.MessageTypeHeartbeat,
				Timestamp: now.Unix(),
			}
			if err := h.manager.Publish(h.channel, msg); err != nil {
				h.logger.Error().Err(err).Msg("Heartbeat publish failed.")
			}
		}
	}
}
