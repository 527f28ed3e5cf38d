package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New[int](0)
	defer c.Close()

	c.Set(ctx, "fees", 7, 50*time.Millisecond)

	v, ok := c.Get(ctx, "fees")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "fees")
		return !ok
	}, time.Second, 10*time.Millisecond)

	c.DeleteExpired()
	assert.Zero(t, c.Len())
}

func TestCache_NonPositiveTTLKeeps(t *testing.T) {
	ctx := context.Background()
	c := New[string](0)

	c.Set(ctx, "k", "v", 0)
	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	c.Close()
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_Delete(t *testing.T) {
	ctx := context.Background()
	c := New[string](time.Minute)
	defer c.Close()

	c.Set(ctx, "k", "v", time.Minute)
	c.Delete(ctx, "k")

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_PointerValues(t *testing.T) {
	ctx := context.Background()
	c := New[*int](0)
	defer c.Close()

	n := 3
	c.Set(ctx, "p", &n, time.Minute)

	got, ok := c.Get(ctx, "p")
	assert.True(t, ok)
	assert.Same(t, &n, got)
}
