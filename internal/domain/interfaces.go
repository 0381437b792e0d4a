package domain

import (
	"context"

	"trainbook/internal/models"
)

// BookingStore is the durable append-only sequence of committed bookings.
// Load at session start, read-modify-append on each commit. Implementations
// do not enforce seat disjointness; the engine does that at commit time.
type BookingStore interface {
	Load(ctx context.Context) ([]models.Booking, error)
	Append(ctx context.Context, booking models.Booking) error
}

// SessionRepository keeps transient per-session selection state.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*models.SessionState, error)
	SetSession(ctx context.Context, state *models.SessionState) error
	ClearSession(ctx context.Context, sessionID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BookingEngine is the command/query surface consumed by the API layer.
// Every command returns the updated session state for re-render.
type BookingEngine interface {
	NewSession(ctx context.Context) (*models.SessionState, error)
	BookedSeats(ctx context.Context) ([]int, error)
	SuggestSeats(ctx context.Context, sessionID string, partySize int) (*models.SessionState, error)
	ToggleSeat(ctx context.Context, sessionID string, seat int) (*models.SessionState, error)
	CommitBooking(ctx context.Context, sessionID string) (*models.Booking, error)
	ResetSelection(ctx context.Context, sessionID string) (*models.SessionState, error)
}
