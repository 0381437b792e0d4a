package repository

import (
	"context"
	"sync/atomic"
	"time"

	"trainbook/internal/domain"
	"trainbook/internal/models"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the primary stays benched after a failure
// before a request is allowed to probe it again.
const recoveryInterval = time.Minute

type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool
	// lastProbe holds unix nanos of the last failed primary call; atomic
	// because handlers hit this path concurrently once the primary is down.
	lastProbe atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastProbe.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetSession(ctx, sessionID)
		if err == nil {
			return state, nil
		}
		r.markDown(err)
	}

	// Try to recover after the bench interval
	if r.isDown.Load() && time.Since(time.Unix(0, r.lastProbe.Load())) > recoveryInterval {
		state, err := r.primary.GetSession(ctx, sessionID)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.lastProbe.Store(time.Now().UnixNano())
	}

	return r.fallback.GetSession(ctx, sessionID)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, state *models.SessionState) error {
	if !r.isDown.Load() {
		err := r.primary.SetSession(ctx, state)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetSession(ctx, state)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearSession(ctx, sessionID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearSession(ctx, sessionID)
}
