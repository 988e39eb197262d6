//go:build integration

package server

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"example.com/rocklegends/internal/backend"
	"example.com/rocklegends/internal/wire"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, rdb.Ping(ctx).Err(), "redis is not reachable")
	return rdb
}

func TestRedisWorldStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	persist := NewRedisWorldStore(rdb, time.Hour)

	world := NewWorld(testLog)
	world.SetPersistence(persist)

	_, err := world.Apply("0xace", wire.ReducerCreateCharacter,
		backend.MustJSON(wire.CreateCharacterArgs{Username: "Ace"}))
	require.NoError(t, err)
	_, err = world.Apply("0xace", wire.ReducerCreateBand,
		backend.MustJSON(wire.CreateBandArgs{Name: "The Amps"}))
	require.NoError(t, err)

	snap, found, err := persist.Load(ctx)
	require.NoError(t, err)
	require.True(t, found, "snapshot missing after reducers ran")

	restored := NewWorld(testLog)
	restored.Restore(snap)

	_, err = restored.Apply("0xace", wire.ReducerCreateBand,
		backend.MustJSON(wire.CreateBandArgs{Name: "Second"}))
	require.Error(t, err, "restored player should still be in a band")

	rows := restored.Snapshot(wire.CollectionBands)
	require.Len(t, rows, 1)
}

func TestRedisWorldStore_MissingSnapshot(t *testing.T) {
	ctx := context.Background()
	rdb := newRedisClient(t)
	require.NoError(t, rdb.FlushDB(ctx).Err())

	persist := NewRedisWorldStore(rdb, time.Hour)
	_, found, err := persist.Load(ctx)
	require.NoError(t, err)
	require.False(t, found)
}
