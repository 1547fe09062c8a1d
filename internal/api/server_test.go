// internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"itbot/internal/common/config"
	"itbot/internal/common/logger"
	"itbot/internal/conversation"
	"itbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeProcessor struct {
	result *models.ActionResult
	lastIn conversation.TurnInput
	calls  int
}

func (f *fakeProcessor) Process(_ context.Context, in conversation.TurnInput) *models.ActionResult {
	f.calls++
	f.lastIn = in
	return f.result
}

func newTestServer(t *testing.T, result *models.ActionResult) (*Server, *fakeProcessor) {
	p := &fakeProcessor{result: result}
	s := NewServer(config.HTTPConfig{ListenAddress: ":0", MetricsPath: "/metrics"}, p, logger.NewTestLogger(t))
	return s, p
}

func postEvent(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// ==========================
// Event Endpoint Tests
// ==========================

func TestHandleEvent_Success(t *testing.T) {
	s, p := newTestServer(t, &models.ActionResult{
		Action:       models.ActionConfirmReset,
		Response:     "Would you like to proceed?",
		ResponseType: models.ResponseBlocks,
		BlocksConfig: &models.BlocksConfig{Type: "confirm_password_reset", Text: "Proceed?"},
	})

	rec := postEvent(s, `{
		"user_id": "U123",
		"channel_id": "C456",
		"text": "reset my password",
		"source_timestamp": "1700000000.000100"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp eventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ActionConfirmReset, resp.Action)
	assert.Equal(t, models.ResponseBlocks, resp.ResponseType)
	require.NotNil(t, resp.BlocksConfig)
	assert.Equal(t, "confirm_password_reset", resp.BlocksConfig.Type)

	assert.Equal(t, "U123", p.lastIn.UserID)
	assert.Equal(t, "C456", p.lastIn.ChannelID)
	assert.Equal(t, "reset my password", p.lastIn.Text)
	assert.Equal(t, "1700000000.000100", p.lastIn.SourceTimestamp)
}

func TestHandleEvent_SelectedOptionForwarded(t *testing.T) {
	s, p := newTestServer(t, &models.ActionResult{Action: models.ActionUrgencySelected, Response: "thanks"})

	rec := postEvent(s, `{
		"user_id": "U123",
		"channel_id": "C456",
		"text": "",
		"source_timestamp": "1700000000.000200",
		"selected_option": "1"
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", p.lastIn.SelectedOption)
}

func TestHandleEvent_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing user_id", `{"channel_id": "C456", "text": "hi", "source_timestamp": "1"}`},
		{"empty channel_id", `{"user_id": "U123", "channel_id": "", "text": "hi", "source_timestamp": "1"}`},
		{"unknown field", `{"user_id": "U123", "channel_id": "C456", "text": "hi", "source_timestamp": "1", "extra": true}`},
		{"wrong type", `{"user_id": 7, "channel_id": "C456", "text": "hi", "source_timestamp": "1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestServer(t, &models.ActionResult{Action: models.ActionGreeting})
			rec := postEvent(s, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, p.calls)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "event validation failed", resp.Error)
			assert.NotEmpty(t, resp.Fields)
		})
	}
}

func TestHandleEvent_MalformedJSON(t *testing.T) {
	s, p := newTestServer(t, &models.ActionResult{Action: models.ActionGreeting})
	rec := postEvent(s, `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, p.calls)
}

func TestHandleEvent_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, &models.ActionResult{Action: models.ActionGreeting})

	req := httptest.NewRequest(http.MethodGet, "/v1/events", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ==========================
// Health and Metrics Tests
// ==========================

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, &models.ActionResult{Action: models.ActionGreeting})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, &models.ActionResult{Action: models.ActionGreeting})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
