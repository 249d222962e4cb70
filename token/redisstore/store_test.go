package redisstore_test

import (
	"context"
	"os"
	"testing"

	"github.com/DiegoxdGarcia2/smart-condominium/token"
	"github.com/DiegoxdGarcia2/smart-condominium/token/redisstore"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) *redisstore.Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	key := "condominium:test:" + uuid.NewString()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	store, err := redisstore.New(client, key)
	require.NoError(t, err)
	return store
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	t.Run("requires client and key", func(t *testing.T) {
		_, err := redisstore.New(nil, "k")
		require.Error(t, err)
		_, err = redisstore.New(redis.NewClient(&redis.Options{}), "")
		require.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		store := setupTestFixture(t)

		pair, err := store.Load(ctx)
		require.NoError(t, err)
		require.True(t, pair.IsEmpty())

		require.NoError(t, store.Save(ctx, token.Pair{Access: "a1", Refresh: "r1"}))
		require.NoError(t, store.Save(ctx, token.Pair{Access: "a2"}))

		pair, err = store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, token.Pair{Access: "a2", Refresh: "r1"}, pair)

		require.NoError(t, store.Clear(ctx))
		pair, err = store.Load(ctx)
		require.NoError(t, err)
		require.True(t, pair.IsEmpty())
	})
}
