package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/salesboard/internal/service/preferences"
)

var _ preferences.Store = (*PreferenceStore)(nil)

func newTestStore(t *testing.T) (*PreferenceStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPreferenceStore(client, ""), mr
}

func TestPreferenceRoundTrip(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, preferences.KeyActiveView, "week"))
	require.NoError(t, store.Set(ctx, preferences.KeyCurrentDate, "2025-03-10"))

	view, ok, err := store.Get(ctx, preferences.KeyActiveView)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "week", view)

	assert.Equal(t, "week", mr.HGet(defaultHashKey, preferences.KeyActiveView))
	assert.Equal(t, "2025-03-10", mr.HGet(defaultHashKey, preferences.KeyCurrentDate))

	require.NoError(t, store.Set(ctx, preferences.KeyActiveView, "month"))
	view, _, err = store.Get(ctx, preferences.KeyActiveView)
	require.NoError(t, err)
	assert.Equal(t, "month", view)
}

func TestPreferenceMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	value, ok, err := store.Get(context.Background(), preferences.KeyActiveView)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestPreferenceCustomHashKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewPreferenceStore(client, "tenant:prefs")

	require.NoError(t, store.Set(context.Background(), preferences.KeyActiveView, "week"))
	assert.Equal(t, "week", mr.HGet("tenant:prefs", preferences.KeyActiveView))
	assert.False(t, mr.Exists(defaultHashKey))
}

func TestUnreachableRedisReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	store := NewPreferenceStore(client, "")
	assert.Equal(t, defaultHashKey, store.hashKey)

	_, ok, err := store.Get(context.Background(), preferences.KeyActiveView)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, store.Set(context.Background(), preferences.KeyActiveView, "week"))
}
