package repository

import (
	"context"
	"testing"
	"time"

	"trainbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		state := &models.SessionState{SessionID: "sess-1", Selected: []int{1, 2}}
		err := repo.SetSession(ctx, state)
		require.NoError(t, err)

		got, err := repo.GetSession(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, state.SessionID, got.SessionID)
		assert.Equal(t, state.Selected, got.Selected)
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		state := &models.SessionState{SessionID: "sess-copy", Selected: []int{1}}
		require.NoError(t, repo.SetSession(ctx, state))

		got, err := repo.GetSession(ctx, "sess-copy")
		require.NoError(t, err)
		got.Selected[0] = 99

		again, err := repo.GetSession(ctx, "sess-copy")
		require.NoError(t, err)
		assert.Equal(t, []int{1}, again.Selected)
	})

	t.Run("ClearSession", func(t *testing.T) {
		err := repo.ClearSession(ctx, "sess-1")
		require.NoError(t, err)
		got, _ := repo.GetSession(ctx, "sess-1")
		assert.Nil(t, got)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		short := NewMemorySessionRepository(time.Millisecond)
		state := &models.SessionState{SessionID: "sess-ttl"}
		require.NoError(t, short.SetSession(ctx, state))

		time.Sleep(5 * time.Millisecond)

		got, err := short.GetSession(ctx, "sess-ttl")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
