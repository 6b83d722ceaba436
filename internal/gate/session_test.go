package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() (*MemorySessionStore, *time.Time) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemorySessionStore(10*time.Minute, func() time.Time { return now })
	return store, &now
}

func TestMemorySessionStoreSetGet(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionAddChannel, Step: StepWaitingInput}))

	session, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, ActionAddChannel, session.Action)
	assert.Equal(t, StepWaitingInput, session.Step)

	missing, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionRemoveLink}))

	*now = now.Add(9 * time.Minute)
	session, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, session)

	*now = now.Add(2 * time.Minute)
	session, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMemorySessionStoreOverwrite(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionAddChannel, Step: StepWaitingInput}))
	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionRemoveChannel, Step: StepWaitingSelection}))

	session, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, ActionRemoveChannel, session.Action)
}

func TestMemorySessionStoreUpdate(t *testing.T) {
	store, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionRemoveChannel, Step: StepWaitingSelection}))
	require.NoError(t, store.Update(ctx, 1, func(s *Session) {
		s.Step = StepWaitingInput
		s.Page = 3
	}))

	session, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, StepWaitingInput, session.Step)
	assert.Equal(t, 3, session.Page)

	// Update refreshes the TTL.
	*now = now.Add(9 * time.Minute)
	require.NoError(t, store.Update(ctx, 1, func(s *Session) { s.Page = 4 }))
	*now = now.Add(9 * time.Minute)
	session, err = store.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, 4, session.Page)
}

func TestMemorySessionStoreUpdateExpired(t *testing.T) {
	store, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionAddLink, Step: StepWaitingInput}))
	*now = now.Add(11 * time.Minute)

	called := false
	require.NoError(t, store.Update(ctx, 1, func(s *Session) { called = true }))
	assert.False(t, called)

	session, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMemorySessionStoreDelete(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionAddChannel}))
	require.NoError(t, store.Delete(ctx, 1))
	require.NoError(t, store.Delete(ctx, 1)) // idempotent

	session, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestMemorySessionStoreSweepExpired(t *testing.T) {
	store, now := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, 1, Session{Action: ActionAddChannel}))
	require.NoError(t, store.Set(ctx, 2, Session{Action: ActionAddLink}))
	*now = now.Add(5 * time.Minute)
	require.NoError(t, store.Set(ctx, 3, Session{Action: ActionRemoveLink}))

	*now = now.Add(6 * time.Minute)
	assert.Equal(t, 2, store.SweepExpired())

	session, err := store.Get(ctx, 3)
	require.NoError(t, err)
	assert.NotNil(t, session)
}
