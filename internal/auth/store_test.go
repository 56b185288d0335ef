package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aura-hr/portal/internal/models"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	clock := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	sess := &Session{ID: "a", Actor: Actor{UserID: "u1", Role: models.RoleEmployee, Token: "t"}}
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, sess.Actor, got.Actor)

	clock = clock.Add(time.Hour)
	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	require.NoError(t, store.Save(ctx, &Session{ID: "a"}))
	require.NoError(t, store.Delete(ctx, "a"))
	require.NoError(t, store.Delete(ctx, "missing"))

	_, err := store.Get(ctx, "a")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

// TestRedisStore needs a live server: REDIS_ADDR=localhost:6379 go test ./internal/auth
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, time.Minute)

	sess := &Session{ID: "test-" + time.Now().Format("150405.000000"), Actor: Actor{UserID: "u1", Email: "a@x.io"}}
	require.NoError(t, store.Save(ctx, sess))
	t.Cleanup(func() { _ = store.Delete(ctx, sess.ID) })

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.io", got.Actor.Email)

	ttl, err := client.TTL(ctx, sessionKeyPrefix+sess.ID).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
