package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-gateway/internal/common/config"
	"agent-gateway/internal/common/logger"
)

func newTestCache(t *testing.T) (*ResultCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, time.Minute, logger.NewTestLogger(t)), mr
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key("variance_summary", map[string]interface{}{"@from": "2025-01-01", "@to": "2025-03-31"})
	b := Key("variance_summary", map[string]interface{}{"@to": "2025-03-31", "@from": "2025-01-01"})
	assert.Equal(t, a, b)

	c := Key("variance_summary", map[string]interface{}{"@from": "2025-04-01", "@to": "2025-03-31"})
	assert.NotEqual(t, a, c)

	d := Key("on_time_rate", map[string]interface{}{"@from": "2025-01-01", "@to": "2025-03-31"})
	assert.NotEqual(t, a, d)
}

func TestRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	rows := []map[string]interface{}{
		{"carrier": "Acme", "variance": 120.5},
	}
	key := Key("variance_summary", map[string]interface{}{"@from": "2025-01-01"})

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	c.Set(ctx, key, rows)

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0]["carrier"])
	assert.Equal(t, 120.5, got[0]["variance"])
}

func TestGetSwallowsCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t)

	require.NoError(t, mr.Set("gw:sql:bad", "not json"))
	_, ok := c.Get(context.Background(), "gw:sql:bad")
	assert.False(t, ok)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *ResultCache

	_, ok := c.Get(context.Background(), "any")
	assert.False(t, ok)

	// must not panic
	c.Set(context.Background(), "any", nil)
}

func TestNewRequiresAddress(t *testing.T) {
	assert.Nil(t, New(config.CacheConfig{}, logger.NewTestLogger(t)))
	assert.NotNil(t, New(config.CacheConfig{Address: "localhost:6379"}, logger.NewTestLogger(t)))
}
