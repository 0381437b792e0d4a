package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"trainbook/internal/config"
	"trainbook/internal/events"
	"trainbook/internal/models"
	"trainbook/internal/repository"
	"trainbook/internal/seatmap"
	"trainbook/internal/service"
	"trainbook/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg config.APIConfig) *HTTPServer {
	t.Helper()

	logger := zerolog.Nop()
	seats, err := seatmap.New(80, 7, 3)
	require.NoError(t, err)

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), models.StoreFileName), &logger)
	require.NoError(t, err)

	engine, err := service.NewEngine(
		context.Background(),
		seats,
		st,
		repository.NewMemorySessionRepository(time.Hour),
		events.NewEventBus(),
		models.MaxSeatsPerBooking,
		func() string { return "test-session" },
		&logger,
	)
	require.NoError(t, err)

	cfg.HTTP.Port = 0
	return NewHTTPServer(cfg, engine, seats, nil, &logger)
}

func doJSON(t *testing.T, srv *HTTPServer, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleSeats(t *testing.T) {
	srv := newTestServer(t, config.APIConfig{})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/seats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 80, resp.TotalSeats)
	assert.Equal(t, 80, resp.AvailableSeats)
	assert.Empty(t, resp.BookedSeats)
}

func TestSuggestAndCommitFlow(t *testing.T) {
	srv := newTestServer(t, config.APIConfig{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var created stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "test-session", created.SessionID)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/suggest", map[string]any{
		"session_id": created.SessionID,
		"party_size": 3,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var suggested stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggested))
	assert.Equal(t, []int{1, 2, 3}, suggested.Suggested)
	assert.Equal(t, []int{1, 2, 3}, suggested.Selected)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/commit", map[string]any{
		"session_id": created.SessionID,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var committed struct {
		Booking models.Booking `json:"booking"`
		State   stateResponse  `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &committed))
	assert.Equal(t, []int{1, 2, 3}, committed.Booking.SeatNumbers)
	assert.Equal(t, []int{1, 2, 3}, committed.State.BookedSeats)
	assert.Equal(t, 77, committed.State.AvailableSeats)
	assert.Empty(t, committed.State.Selected)
}

func TestToggleErrors(t *testing.T) {
	srv := newTestServer(t, config.APIConfig{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/toggle", map[string]any{
		"session_id": "sess",
		"seat":       81,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Book seats 1..3, then toggling seat 1 conflicts.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/suggest", map[string]any{
		"session_id": "sess", "party_size": 3,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/commit", map[string]any{"session_id": "sess"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/toggle", map[string]any{
		"session_id": "sess",
		"seat":       1,
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCommitEmptySelection(t *testing.T) {
	srv := newTestServer(t, config.APIConfig{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/commit", map[string]any{
		"session_id": "sess",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingSessionID(t *testing.T) {
	srv := newTestServer(t, config.APIConfig{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/suggest", map[string]any{
		"party_size": 3,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	cfg := config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
			APIKeys: []config.APIClientKey{
				{Key: "key-1", Extra: "extra-1", Name: "tester", Permissions: []string{"read:seats"}},
			},
		},
	}
	srv := newTestServer(t, cfg)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/seats", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/seats", nil, map[string]string{
		"x-api-key":   "key-1",
		"x-api-extra": "extra-1",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// The key has no write permission.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/suggest", map[string]any{
		"session_id": "sess", "party_size": 2,
	}, map[string]string{
		"x-api-key":   "key-1",
		"x-api-extra": "extra-1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		RateLimit: config.APIRateLimitConfig{RPS: 0.001, Burst: 1},
	}
	srv := newTestServer(t, cfg)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/seats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/seats", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
