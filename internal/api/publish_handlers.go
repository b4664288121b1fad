/*
File: internal/api/publish_handlers.go
Description: Defines the HTTP handlers for the producer-facing API. A
producer POSTs a data message naming its target channel; the hub fans it
out to current channel members.
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
	"github.com/tinywideclouds/go-telemetry-hub/internal/middleware"
	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
)

// API holds the dependencies for the stateless HTTP handlers.
type API struct {
	publisher   telemetry.Publisher
	tokenSecret []byte
	tokenTTL    time.Duration
	logger      zerolog.Logger
}

// NewAPI creates a new, stateless API handler. tokenSecret and tokenTTL feed
// the token-minting endpoint; an empty secret leaves minting unwired.
func NewAPI(publisher telemetry.Publisher, tokenSecret []byte, tokenTTL time.Duration, logger zerolog.Logger) *API {
	return &API{
		publisher:   publisher,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// PublishHandler ingests one data message and hands it to the channel
// manager. The message must name a channel; position fields are optional and
// only meaningful to viewport filtering downstream.
func (a *API) PublishHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to read request body")
		middleware.WriteJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var msg telemetry.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to unmarshal message")
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid message format")
		return
	}
	if msg.Type == "" {
		msg.Type = telemetry.MessageTypeData
	}
	if msg.Channel == "" {
		middleware.WriteJSONError(w, http.StatusBadRequest, "message must name a channel")
		return
	}

	if err := a.publisher.Publish(msg.Channel, &msg); err != nil {
		if errors.Is(err, hub.ErrUnknownChannel) {
			middleware.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.logger.Error().Err(err).Str("channel", msg.Channel).Msg("Publish failed")
		middleware.WriteJSONError(w, http.StatusInternalServerError, "failed to publish message")
		return
	}

	a.logger.Debug().Str("channel", msg.Channel).Str("id", msg.ID).Msg("Message accepted for fan-out")
	middleware.WriteJSON(w, http.StatusAccepted, nil)
}
