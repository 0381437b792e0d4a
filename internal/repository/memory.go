package repository

import (
	"context"
	"sync"
	"time"

	"trainbook/internal/models"
)

type MemorySessionRepository struct {
	sessions sync.Map
	ttl      time.Duration
}

type sessionEntry struct {
	state     *models.SessionState
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionState, error) {
	val, ok := r.sessions.Load(sessionID)
	if !ok {
		return nil, nil
	}
	entry := val.(*sessionEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.sessions.Delete(sessionID)
		return nil, nil
	}
	return entry.state.Clone(), nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, state *models.SessionState) error {
	r.sessions.Store(state.SessionID, &sessionEntry{
		state:     state.Clone(),
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	r.sessions.Delete(sessionID)
	return nil
}
