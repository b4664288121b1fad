package telemetryhub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-telemetry-hub/internal/api"
	"github.com/tinywideclouds/go-telemetry-hub/internal/auth"
	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
	"github.com/tinywideclouds/go-telemetry-hub/telemetryhub/config"
)

func newTestWrapper(t *testing.T) (*Wrapper, *httptest.Server) {
	t.Helper()
	cfg := &config.AppConfig{
		APIPort:        "0",
		ProducerAPIKey: "producer-key",
		TokenSecret:    []byte("wrapper-test-secret"),
		TokenTTL:       time.Hour,
	}
	manager := hub.NewManager(hub.Options{SystemChannel: "system", DataChannel: "flights"}, zerolog.Nop())

	w, err := New(cfg, manager, zerolog.Nop())
	require.NoError(t, err)

	server := httptest.NewServer(w.server.Handler)
	t.Cleanup(server.Close)
	return w, server
}

func TestHealthAndReadiness(t *testing.T) {
	w, server := newTestWrapper(t)

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Not ready until the listener is up.
	resp, err = http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	w.ready.Store(true)
	resp, err = http.Get(server.URL + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPublishRoute_GuardedByProducerKey(t *testing.T) {
	_, server := newTestWrapper(t)
	body := `{"channel":"flights","id":"abc123","lat":40.0,"lng":-73.0}`

	// Without the key.
	resp, err := http.Post(server.URL+"/api/publish", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the key.
	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/publish", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "producer-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestTokenRoute_MintsWithConfiguredTTL(t *testing.T) {
	_, server := newTestWrapper(t)
	body := `{"subject":"abc123","channel":"flights"}`

	// The route sits behind the producer key like publish.
	resp, err := http.Post(server.URL+"/api/token", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/token", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "producer-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokenResp api.TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokenResp))
	claims, err := auth.Verify(tokenResp.Token, []byte("wrapper-test-secret"))
	require.NoError(t, err)
	require.NoError(t, claims.Authorize("flights"))
	// Expiry reflects the configured one-hour lifetime.
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), tokenResp.ExpiresAt, 60)
}

func TestTokenRoute_UnwiredWithoutSecret(t *testing.T) {
	cfg := &config.AppConfig{APIPort: "0", ProducerAPIKey: "producer-key"}
	manager := hub.NewManager(hub.Options{SystemChannel: "system", DataChannel: "flights"}, zerolog.Nop())
	w, err := New(cfg, manager, zerolog.Nop())
	require.NoError(t, err)

	server := httptest.NewServer(w.server.Handler)
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/token", strings.NewReader(`{"subject":"abc123","channel":"flights"}`))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "producer-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
