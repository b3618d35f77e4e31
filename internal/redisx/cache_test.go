package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemCache()
	c.Now = func() time.Time { return now }

	type order struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, c.Set(ctx, "order:1", order{ID: "1", Status: "completed"}, time.Minute))

	var got order
	ok, err := c.Get(ctx, "order:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "completed", got.Status)

	ok, err = c.Get(ctx, "order:2", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = c.Get(ctx, "order:1", &got)
	assert.False(t, ok, "expired entry must miss")

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Delete(ctx, "a", "b", "missing"))
	assert.False(t, c.Has("a"))
	assert.False(t, c.Has("b"))
}
