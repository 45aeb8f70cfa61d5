// Package cache is an optional Redis-backed cache for SQL result sets. A nil
// *ResultCache is valid and disables caching entirely, so wiring stays
// unconditional at call sites.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"agent-gateway/internal/common/config"
	"agent-gateway/internal/common/logger"
)

// ResultCache stores marshalled row sets keyed by template and bound
// parameters.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// New returns nil when no cache address is configured.
func New(cfg config.CacheConfig, log logger.Logger) *ResultCache {
	if !cfg.Enabled() {
		return nil
	}
	return &ResultCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    cfg.GetTTL(),
		logger: log.With(map[string]interface{}{"component": "cache"}),
	}
}

// NewWithClient wraps an existing redis client, for tests.
func NewWithClient(client *redis.Client, ttl time.Duration, log logger.Logger) *ResultCache {
	return &ResultCache{client: client, ttl: ttl, logger: log}
}

// Key builds a deterministic cache key from a template name and its bound
// parameters, sorted so map iteration order cannot split cache entries.
func Key(template string, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, params[k]))
	}
	return "gw:sql:" + template + ":" + strings.Join(parts, "|")
}

// Get returns the cached rows for key, or ok=false on miss or any error.
func (c *ResultCache) Get(ctx context.Context, key string) ([]map[string]interface{}, bool) {
	if c == nil {
		return nil, false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(val), &rows); err != nil {
		return nil, false
	}
	return rows, true
}

// Set stores rows under key. Failures are logged and otherwise ignored; the
// cache never affects correctness.
func (c *ResultCache) Set(ctx context.Context, key string, rows []map[string]interface{}) {
	if c == nil {
		return
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
