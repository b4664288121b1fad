package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-telemetry-hub/internal/hub"
	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
)

// --- Mocks ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(channel string, msg *telemetry.Message) error {
	args := m.Called(channel, msg)
	return args.Error(0)
}

func postPublish(t *testing.T, a *API, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/publish", strings.NewReader(body))
	rec := httptest.NewRecorder()
	a.PublishHandler(rec, req)
	return rec
}

func TestPublishHandler_Accepts(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", "flights", mock.AnythingOfType("*telemetry.Message")).Return(nil)
	a := NewAPI(publisher, nil, 0, zerolog.Nop())

	rec := postPublish(t, a, `{"channel":"flights","id":"abc123","lat":40.0,"lng":-73.0}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	publisher.AssertExpectations(t)

	// A missing type defaults to data.
	msg := publisher.Calls[0].Arguments.Get(1).(*telemetry.Message)
	assert.Equal(t, telemetry.MessageTypeData, msg.Type)
}

func TestPublishHandler_RequiresChannel(t *testing.T) {
	publisher := new(mockPublisher)
	a := NewAPI(publisher, nil, 0, zerolog.Nop())

	rec := postPublish(t, a, `{"id":"abc123"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	publisher.AssertNotCalled(t, "Publish")
}

func TestPublishHandler_RejectsMalformedBody(t *testing.T) {
	publisher := new(mockPublisher)
	a := NewAPI(publisher, nil, 0, zerolog.Nop())

	rec := postPublish(t, a, `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	publisher.AssertNotCalled(t, "Publish")
}

func TestPublishHandler_PublisherFailure(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", "flights", mock.Anything).Return(errors.New("boom"))
	a := NewAPI(publisher, nil, 0, zerolog.Nop())

	rec := postPublish(t, a, `{"channel":"flights"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPublishHandler_UnknownChannelIsClientError(t *testing.T) {
	publisher := new(mockPublisher)
	publisher.On("Publish", "flights", mock.Anything).Return(hub.ErrUnknownChannel)
	a := NewAPI(publisher, nil, 0, zerolog.Nop())

	rec := postPublish(t, a, `{"channel":"flights"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
