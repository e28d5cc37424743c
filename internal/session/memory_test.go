package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	sess := &Session{ID: "abc", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.UserID)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, store.Delete(ctx, "abc"))
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Create(ctx, &Session{ID: "abc", UserID: 1, ExpiresAt: now.Add(time.Minute)}))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}
