package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreLifecycle(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	require.NoError(t, client.Ping(ctx).Err())
	store := NewRedisStore(client)

	now := time.Now()
	sess := &Session{ID: uuid.NewString(), UserID: 9, Remember: true, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.Create(ctx, sess))

	ttl, err := client.TTL(ctx, redisKeyPrefix+sess.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.UserID)
	assert.True(t, got.Remember)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	expired := &Session{ID: uuid.NewString(), UserID: 9, ExpiresAt: now.Add(-time.Minute)}
	assert.Error(t, store.Create(ctx, expired))
}
