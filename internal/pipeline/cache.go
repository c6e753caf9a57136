// resultCache is the optional L1 (in-process LRU) + L2 (Redis) cache in
// front of Pipeline.Resolve, grounded on the teacher's
// app/services/hybrid_cache_service.go (L1-then-L2 lookup, write-through to
// both tiers with the Redis write made in the caller's goroutine, Redis
// errors logged and never fatal to the request).
package pipeline

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mtarikozcan/turkish-address-system/internal/model"
)

// resultCache wraps an in-process LRU and an optional Redis client. A nil
// redis client disables L2 entirely; Get/Set degrade to L1-only.
type resultCache struct {
	l1     *lru.Cache[string, model.PipelineResult]
	l2     *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func newResultCache(l1Size int, redisURL string, ttlSec int, logger *zap.Logger) (*resultCache, error) {
	l1, err := lru.New[string, model.PipelineResult](l1Size)
	if err != nil {
		return nil, err
	}
	rc := &resultCache{l1: l1, ttl: time.Duration(ttlSec) * time.Second, logger: logger}
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid cache redis url, L2 disabled", zap.Error(err))
			return rc, nil
		}
		rc.l2 = redis.NewClient(opts)
	}
	return rc, nil
}

func (c *resultCache) Get(ctx context.Context, key string) (model.PipelineResult, bool) {
	if v, ok := c.l1.Get(key); ok {
		return v, true
	}
	if c.l2 == nil {
		return model.PipelineResult{}, false
	}
	val, err := c.l2.Get(ctx, key).Result()
	if err == redis.Nil {
		return model.PipelineResult{}, false
	}
	if err != nil {
		c.logger.Warn("L2 cache read failed, treating as miss", zap.Error(err))
		return model.PipelineResult{}, false
	}
	var res model.PipelineResult
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		c.logger.Warn("L2 cache value unreadable, treating as miss", zap.Error(err))
		return model.PipelineResult{}, false
	}
	c.l1.Add(key, res)
	return res, true
}

func (c *resultCache) Set(ctx context.Context, key string, res model.PipelineResult) {
	c.l1.Add(key, res)
	if c.l2 == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.l2.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("L2 cache write failed", zap.Error(err))
	}
}
