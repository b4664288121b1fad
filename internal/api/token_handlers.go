/*
File: internal/api/token_handlers.go
Description: Handler minting channel-scoped bearer tokens. Operators hit
this endpoint (behind the producer key) to issue join tokens for clients;
lifetime comes from the configured token TTL.
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tinywideclouds/go-telemetry-hub/internal/auth"
	"github.com/tinywideclouds/go-telemetry-hub/internal/middleware"
)

// TokenRequest names the subject and the channel scope of the token to mint.
type TokenRequest struct {
	Subject string `json:"subject"`
	Channel string `json:"channel"`
}

// TokenResponse carries the signed token and its expiry (unix seconds).
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// TokenHandler mints one channel-scoped token with the configured lifetime.
func (a *API) TokenHandler(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid token request")
		return
	}
	if req.Subject == "" || req.Channel == "" {
		middleware.WriteJSONError(w, http.StatusBadRequest, "token request must name a subject and a channel")
		return
	}

	expiresAt := time.Now().Add(a.tokenTTL).Unix()
	token, err := auth.Issue(req.Subject, req.Channel, a.tokenSecret, a.tokenTTL)
	if err != nil {
		a.logger.Error().Err(err).Msg("Token signing failed")
		middleware.WriteJSONError(w, http.StatusInternalServerError, "failed to mint token")
		return
	}

	a.logger.Info().Str("subject", req.Subject).Str("channel", req.Channel).Msg("Token minted")
	middleware.WriteJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}
