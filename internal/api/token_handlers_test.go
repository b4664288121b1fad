package api

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

	"github.com/tinywideclouds/go-telemetry-hub/internal/auth"
)

var mintSecret = []byte("mint-test-secret")

func postToken(t *testing.T, a *API, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.TokenHandler(rec, req)
	return rec
}

func TestTokenHandler_MintsScopedToken(t *testing.T) {
	a := NewAPI(nil, mintSecret, time.Hour, zerolog.Nop())

	rec := postToken(t, a, `{"subject":"abc123","channel":"flights"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())

	// The minted token verifies and carries the requested scope.
	claims, err := auth.Verify(resp.Token, mintSecret)
	require.NoError(t, err)
	assert.Equal(t, "abc123", claims.Subject)
	require.NoError(t, claims.Authorize("flights"))
	require.Error(t, claims.Authorize("system"))
}

func TestTokenHandler_RequiresSubjectAndChannel(t *testing.T) {
	a := NewAPI(nil, mintSecret, time.Hour, zerolog.Nop())

	rec := postToken(t, a, `{"subject":"abc123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postToken(t, a, `{"channel":"flights"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTokenHandler_RejectsMalformedBody(t *testing.T) {
	a := NewAPI(nil, mintSecret, time.Hour, zerolog.Nop())

	rec := postToken(t, a, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
