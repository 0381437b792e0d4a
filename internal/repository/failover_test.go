package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trainbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSessionRepository struct {
	err   error
	calls atomic.Int64
}

func (r *failingSessionRepository) GetSession(ctx context.Context, sessionID string) (*models.SessionState, error) {
	r.calls.Add(1)
	return nil, r.err
}

func (r *failingSessionRepository) SetSession(ctx context.Context, state *models.SessionState) error {
	r.calls.Add(1)
	return r.err
}

func (r *failingSessionRepository) ClearSession(ctx context.Context, sessionID string) error {
	r.calls.Add(1)
	return r.err
}

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	primary := NewMemorySessionRepository(time.Hour)
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, nopLogger())
	ctx := context.Background()

	state := &models.SessionState{SessionID: "sess-1", Selected: []int{1}}
	require.NoError(t, repo.SetSession(ctx, state))

	got, err := repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int{1}, got.Selected)

	// Fallback never saw the write.
	inFallback, _ := fallback.GetSession(ctx, "sess-1")
	assert.Nil(t, inFallback)
}

func TestFailoverFallsBackOnPrimaryError(t *testing.T) {
	primary := &failingSessionRepository{err: errors.New("redis down")}
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, nopLogger())
	ctx := context.Background()

	state := &models.SessionState{SessionID: "sess-1", Selected: []int{2, 3}}
	require.NoError(t, repo.SetSession(ctx, state))

	got, err := repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []int{2, 3}, got.Selected)
}

func TestFailoverStopsCallingDownPrimary(t *testing.T) {
	primary := &failingSessionRepository{err: errors.New("redis down")}
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, nopLogger())
	ctx := context.Background()

	// First call marks the primary as down.
	_, err := repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	callsAfterFirst := primary.calls.Load()

	// Subsequent calls go straight to the fallback until the recovery window.
	_, err = repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, primary.calls.Load())
}

func TestFailoverConcurrentAfterPrimaryFailure(t *testing.T) {
	primary := &failingSessionRepository{err: errors.New("redis down")}
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, nopLogger())
	ctx := context.Background()

	// Hammer the failover path from many goroutines; the race detector
	// catches unguarded access to the down/probe bookkeeping.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sessionID := fmt.Sprintf("sess-%d", n)
			state := &models.SessionState{SessionID: sessionID, Selected: []int{n + 1}}
			assert.NoError(t, repo.SetSession(ctx, state))
			got, err := repo.GetSession(ctx, sessionID)
			assert.NoError(t, err)
			assert.NotNil(t, got)
			assert.NoError(t, repo.ClearSession(ctx, sessionID))
		}(i)
	}
	wg.Wait()
}

func TestFailoverClearSession(t *testing.T) {
	primary := &failingSessionRepository{err: errors.New("redis down")}
	fallback := NewMemorySessionRepository(time.Hour)
	repo := NewFailoverSessionRepository(primary, fallback, nopLogger())
	ctx := context.Background()

	require.NoError(t, repo.SetSession(ctx, &models.SessionState{SessionID: "sess-1"}))
	require.NoError(t, repo.ClearSession(ctx, "sess-1"))

	got, err := repo.GetSession(ctx, "sess-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
