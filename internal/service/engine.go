package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"trainbook/internal/domain"
	"trainbook/internal/events"
	"trainbook/internal/metrics"
	"trainbook/internal/models"
	"trainbook/internal/seatmap"
	"trainbook/internal/store"

	"github.com/rs/zerolog"
)

// Engine implements the booking logic over a seat map: suggesting seat
// blocks for a party size, tracking per-session selections, and committing
// bookings to the durable store. Every mutating operation is all-or-nothing.
type Engine struct {
	seats    seatmap.SeatMap
	store    domain.BookingStore
	sessions domain.SessionRepository
	eventBus domain.EventPublisher
	maxSeats int
	idGen    IDGenerator
	logger   *zerolog.Logger

	mu     sync.Mutex
	booked map[int]bool
}

// NewEngine loads the booking store and rebuilds the booked-seat set from it.
func NewEngine(
	ctx context.Context,
	seats seatmap.SeatMap,
	bookingStore domain.BookingStore,
	sessions domain.SessionRepository,
	eventBus domain.EventPublisher,
	maxSeats int,
	idGen IDGenerator,
	logger *zerolog.Logger,
) (*Engine, error) {
	if maxSeats <= 0 {
		maxSeats = models.MaxSeatsPerBooking
	}
	if idGen == nil {
		idGen = DefaultIDGenerator
	}

	e := &Engine{
		seats:    seats,
		store:    bookingStore,
		sessions: sessions,
		eventBus: eventBus,
		maxSeats: maxSeats,
		idGen:    idGen,
		logger:   logger,
	}

	if err := e.reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load booking store: %w", err)
	}
	return e, nil
}

// reload rebuilds the booked set as the union of all stored bookings.
func (e *Engine) reload(ctx context.Context) error {
	bookings, err := e.store.Load(ctx)
	if err != nil {
		return err
	}

	booked := make(map[int]bool)
	for _, booking := range bookings {
		for _, seat := range booking.SeatNumbers {
			booked[seat] = true
		}
	}

	e.mu.Lock()
	e.booked = booked
	e.mu.Unlock()
	return nil
}

// NewSession creates and persists a fresh session with a generated id. The
// id doubles as the userId on bookings committed in that session.
func (e *Engine) NewSession(ctx context.Context) (*models.SessionState, error) {
	state := models.NewSessionState(e.idGen())
	if err := e.sessions.SetSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return state, nil
}

// BookedSeats returns all booked seat numbers in increasing order.
func (e *Engine) BookedSeats(ctx context.Context) ([]int, error) {
	e.mu.Lock()
	seats := make([]int, 0, len(e.booked))
	for seat := range e.booked {
		seats = append(seats, seat)
	}
	e.mu.Unlock()

	sort.Ints(seats)
	return seats, nil
}

func (e *Engine) bookedSnapshot() map[int]bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snapshot := make(map[int]bool, len(e.booked))
	for seat := range e.booked {
		snapshot[seat] = true
	}
	return snapshot
}

func (e *Engine) session(ctx context.Context, sessionID string) (*models.SessionState, error) {
	state, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if state == nil {
		state = models.NewSessionState(sessionID)
	}
	return state, nil
}

// SuggestSeats proposes up to partySize seats: a single row holding the whole
// party contiguously wins, earlier rows first; otherwise the first available
// seats system-wide. The suggestion also becomes the current selection. A
// party size outside [1, maxSeats] yields an empty suggestion, not an error.
func (e *Engine) SuggestSeats(ctx context.Context, sessionID string, partySize int) (*models.SessionState, error) {
	state, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if partySize < 1 || partySize > e.maxSeats {
		state.Selected = nil
		state.Suggested = nil
		if err := e.sessions.SetSession(ctx, state); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
		metrics.IncSuggestion("empty")
		return state.Clone(), nil
	}

	booked := e.bookedSnapshot()
	seats, fromRowScan := e.findAvailableSeats(partySize, booked)

	state.Suggested = append([]int(nil), seats...)
	state.Selected = append([]int(nil), seats...)
	if err := e.sessions.SetSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	switch {
	case len(seats) == 0:
		metrics.IncSuggestion("empty")
	case len(seats) < partySize:
		metrics.IncSuggestion("partial")
	case fromRowScan:
		metrics.IncSuggestion("row_scan")
	default:
		metrics.IncSuggestion("flat_scan")
	}

	if e.eventBus != nil {
		payload := events.SuggestionEventPayload{SessionID: sessionID, PartySize: partySize, Seats: seats}
		if err := e.eventBus.PublishJSON(events.EventSuggestionServed, payload); err != nil {
			e.logger.Error().Err(err).Str("session_id", sessionID).Msg("publish event error")
		}
	}

	return state.Clone(), nil
}

// findAvailableSeats runs the two-phase search. Phase one walks rows in
// order and returns the first row whose leading window of available seats
// exactly covers the party. Phase two ignores rows and collects the lowest
// available seat numbers, possibly fewer than requested.
func (e *Engine) findAvailableSeats(partySize int, booked map[int]bool) ([]int, bool) {
	for row := 1; row <= e.seats.RowCount(); row++ {
		start := e.seats.RowStartSeat(row)
		capacity := e.seats.RowCapacity(row)

		window := make([]int, 0, partySize)
		for i := 0; i < partySize && i < capacity; i++ {
			seat := start + i
			if e.seats.IsAvailable(seat, booked) {
				window = append(window, seat)
			}
		}
		if len(window) == partySize {
			return window, true
		}
	}

	flat := make([]int, 0, partySize)
	for seat := 1; seat <= e.seats.TotalSeats && len(flat) < partySize; seat++ {
		if !booked[seat] {
			flat = append(flat, seat)
		}
	}
	return flat, false
}

// ToggleSeat flips one seat in the session's selection. Toggling a booked
// seat is rejected without touching the session; any other toggle discards
// the current suggestion, which is advisory only.
func (e *Engine) ToggleSeat(ctx context.Context, sessionID string, seat int) (*models.SessionState, error) {
	state, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !e.seats.IsValidSeat(seat) {
		metrics.IncToggle("rejected")
		return state.Clone(), fmt.Errorf("%w: %d", seatmap.ErrInvalidSeat, seat)
	}

	booked := e.bookedSnapshot()
	if booked[seat] {
		metrics.IncToggle("rejected")
		return state.Clone(), fmt.Errorf("%w: %d", ErrSeatUnavailable, seat)
	}

	var toggleErr error
	if state.HasSelected(seat) {
		kept := make([]int, 0, len(state.Selected)-1)
		for _, n := range state.Selected {
			if n != seat {
				kept = append(kept, n)
			}
		}
		state.Selected = kept
		metrics.IncToggle("deselected")
	} else if len(state.Selected) >= e.maxSeats {
		toggleErr = fmt.Errorf("%w: limit %d", ErrCapacityExceeded, e.maxSeats)
		metrics.IncToggle("rejected")
	} else {
		state.Selected = append(state.Selected, seat)
		metrics.IncToggle("selected")
	}

	// Suggestions evaporate once the user diverges from them.
	state.Suggested = nil

	if err := e.sessions.SetSession(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return state.Clone(), toggleErr
}

// CommitBooking turns the session's selection into a durable booking. A
// selection overlapping an already booked seat is rejected whole; otherwise
// the booked set gains exactly the committed seats and the session is cleared.
func (e *Engine) CommitBooking(ctx context.Context, sessionID string) (*models.Booking, error) {
	state, err := e.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(state.Selected) == 0 {
		return nil, ErrEmptySelection
	}

	booking := models.NewBooking(state.Selected, sessionID, time.Now())

	// The disjointness check and the append happen under one lock, so commits
	// racing through the same engine cannot double-book a seat even on stores
	// that do no conflict checking of their own.
	e.mu.Lock()
	for _, seat := range booking.SeatNumbers {
		if e.booked[seat] {
			e.mu.Unlock()
			metrics.IncCommitConflict()
			return nil, fmt.Errorf("%w: %d", store.ErrSeatConflict, seat)
		}
	}
	if err := e.store.Append(ctx, booking); err != nil {
		e.mu.Unlock()
		if errors.Is(err, store.ErrSeatConflict) {
			metrics.IncCommitConflict()
			// Another writer won; resync our view of the store.
			if reloadErr := e.reload(ctx); reloadErr != nil {
				e.logger.Error().Err(reloadErr).Msg("failed to reload store after conflict")
			}
		}
		return nil, fmt.Errorf("failed to append booking: %w", err)
	}
	for _, seat := range booking.SeatNumbers {
		e.booked[seat] = true
	}
	e.mu.Unlock()

	if err := e.sessions.ClearSession(ctx, sessionID); err != nil {
		e.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear session after commit")
	}

	metrics.IncCommit()

	if e.eventBus != nil {
		payload := events.BookingEventPayload{
			SessionID:   sessionID,
			UserID:      booking.UserID,
			SeatNumbers: booking.SeatNumbers,
			Timestamp:   booking.Timestamp,
		}
		if err := e.eventBus.PublishJSON(events.EventBookingCommitted, payload); err != nil {
			e.logger.Error().Err(err).Str("session_id", sessionID).Msg("publish event error")
		}
	}

	return &booking, nil
}

// ResetSelection discards the session's selection and suggestions without
// touching the booked set or the store.
func (e *Engine) ResetSelection(ctx context.Context, sessionID string) (*models.SessionState, error) {
	if err := e.sessions.ClearSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}

	if e.eventBus != nil {
		if err := e.eventBus.PublishJSON(events.EventSelectionReset, map[string]string{"session_id": sessionID}); err != nil {
			e.logger.Error().Err(err).Str("session_id", sessionID).Msg("publish event error")
		}
	}

	return models.NewSessionState(sessionID), nil
}

// SeatMap exposes the geometry for read-only consumers (API, export).
func (e *Engine) SeatMap() seatmap.SeatMap {
	return e.seats
}
