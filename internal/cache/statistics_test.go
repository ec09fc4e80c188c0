package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type totals struct {
	Count int `json:"count"`
}

func newTestCache(t *testing.T) (*StatisticsCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatisticsCache(client, time.Minute), mr
}

func TestStatisticsCache_FetchJSON(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	key, err := c.BuildKey(ctx, userID, "summary", "2025-03-01")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return totals{Count: 3}, nil
	}

	var first totals
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	assert.Equal(t, 3, first.Count)
	assert.True(t, mr.Exists(key))

	var second totals
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 3, second.Count)
	assert.Equal(t, 1, calls, "second read must be served from redis")
}

func TestStatisticsCache_Invalidate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	before, err := c.BuildKey(ctx, userID, "summary")
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, userID))

	after, err := c.BuildKey(ctx, userID, "summary")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	other, err := c.BuildKey(ctx, uuid.New(), "summary")
	require.NoError(t, err)
	assert.Contains(t, other, ":0:")
}

func TestStatisticsCache_LoaderError(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, uuid.New(), "summary")
	require.NoError(t, err)

	var dest totals
	err = c.FetchJSON(ctx, key, &dest, func(context.Context) (interface{}, error) {
		return nil, errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists(key))
}

func TestStatisticsCache_NilClientPassesThrough(t *testing.T) {
	c := NewStatisticsCache(nil, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Invalidate(ctx, uuid.New()))

	var dest totals
	err := c.FetchJSON(ctx, "any", &dest, func(context.Context) (interface{}, error) {
		return totals{Count: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, dest.Count)
}
