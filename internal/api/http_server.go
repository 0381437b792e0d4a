package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"trainbook/internal/config"
	"trainbook/internal/domain"
	"trainbook/internal/export"
	"trainbook/internal/models"
	"trainbook/internal/seatmap"
	"trainbook/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the booking engine to the presentation layer. Every
// command responds with the updated session state for re-render.
type HTTPServer struct {
	cfg      config.APIConfig
	engine   domain.BookingEngine
	seats    seatmap.SeatMap
	exporter *export.Exporter
	logger   *zerolog.Logger
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(cfg config.APIConfig, engine domain.BookingEngine, seats seatmap.SeatMap, exporter *export.Exporter, logger *zerolog.Logger) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, engine: engine, seats: seats, exporter: exporter, logger: logger}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/seats", srv.handleSeats)
	mux.HandleFunc("/api/v1/sessions", srv.handleNewSession)
	mux.HandleFunc("/api/v1/suggest", srv.handleSuggest)
	mux.HandleFunc("/api/v1/toggle", srv.handleToggle)
	mux.HandleFunc("/api/v1/commit", srv.handleCommit)
	mux.HandleFunc("/api/v1/reset", srv.handleReset)
	mux.HandleFunc("/api/v1/export", srv.handleExport)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler chain, for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

type stateResponse struct {
	SessionID      string `json:"session_id"`
	Selected       []int  `json:"selected"`
	Suggested      []int  `json:"suggested"`
	BookedSeats    []int  `json:"booked_seats"`
	AvailableSeats int    `json:"available_seats"`
	TotalSeats     int    `json:"total_seats"`
}

func (s *HTTPServer) stateResponse(ctx context.Context, state *models.SessionState) (stateResponse, error) {
	booked, err := s.engine.BookedSeats(ctx)
	if err != nil {
		return stateResponse{}, err
	}

	resp := stateResponse{
		BookedSeats:    booked,
		AvailableSeats: s.seats.TotalSeats - len(booked),
		TotalSeats:     s.seats.TotalSeats,
	}
	if state != nil {
		resp.SessionID = state.SessionID
		resp.Selected = state.Selected
		resp.Suggested = state.Suggested
	}
	if resp.Selected == nil {
		resp.Selected = []int{}
	}
	if resp.Suggested == nil {
		resp.Suggested = []int{}
	}
	return resp, nil
}

func (s *HTTPServer) handleSeats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp, err := s.stateResponse(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booked seats")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state, err := s.engine.NewSession(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	resp, err := s.stateResponse(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booked seats")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleSuggest(w http.ResponseWriter, r *http.Request) {
	type request struct {
		SessionID string `json:"session_id"`
		PartySize int    `json:"party_size"`
	}

	var body request
	if !s.decodeCommand(w, r, &body.SessionID, func() error {
		return decodeBody(r, &body)
	}) {
		return
	}

	state, err := s.engine.SuggestSeats(r.Context(), body.SessionID, body.PartySize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "suggestion failed")
		return
	}

	resp, err := s.stateResponse(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booked seats")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleToggle(w http.ResponseWriter, r *http.Request) {
	type request struct {
		SessionID string `json:"session_id"`
		Seat      int    `json:"seat"`
	}

	var body request
	if !s.decodeCommand(w, r, &body.SessionID, func() error {
		return decodeBody(r, &body)
	}) {
		return
	}

	state, err := s.engine.ToggleSeat(r.Context(), body.SessionID, body.Seat)
	if err != nil {
		switch {
		case errors.Is(err, seatmap.ErrInvalidSeat):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrSeatUnavailable), errors.Is(err, service.ErrCapacityExceeded):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "toggle failed")
		}
		return
	}

	resp, err := s.stateResponse(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booked seats")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleCommit(w http.ResponseWriter, r *http.Request) {
	type request struct {
		SessionID string `json:"session_id"`
	}

	var body request
	if !s.decodeCommand(w, r, &body.SessionID, func() error {
		return decodeBody(r, &body)
	}) {
		return
	}

	booking, err := s.engine.CommitBooking(r.Context(), body.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrEmptySelection) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	resp, stateErr := s.stateResponse(r.Context(), models.NewSessionState(body.SessionID))
	if stateErr != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booked seats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"booking": booking,
		"state":   resp,
	})
}

func (s *HTTPServer) handleReset(w http.ResponseWriter, r *http.Request) {
	type request struct {
		SessionID string `json:"session_id"`
	}

	var body request
	if !s.decodeCommand(w, r, &body.SessionID, func() error {
		return decodeBody(r, &body)
	}) {
		return
	}

	state, err := s.engine.ResetSelection(r.Context(), body.SessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reset failed")
		return
	}

	resp, err := s.stateResponse(r.Context(), state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load booked seats")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	path, err := s.exporter.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file_path": path})
}

// decodeCommand decodes a POST body and requires a session id.
func (s *HTTPServer) decodeCommand(w http.ResponseWriter, r *http.Request, sessionID *string, decode func() error) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := decode(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if *sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return false
	}
	return true
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
