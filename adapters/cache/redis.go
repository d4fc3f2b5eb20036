package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aitaflow/domain/core"
	"aitaflow/domain/thread"
	"aitaflow/internal/errors"

	"github.com/redis/go-redis/v9"
)

// redisCmdable is the subset of *redis.Client the cache uses
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisCache shares cached responses between machines
type RedisCache struct {
	client redisCmdable
	ttl    time.Duration
}

// NewRedisCache creates a cache; ttl 0 keeps entries forever
func NewRedisCache(client redisCmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Key helpers
func (c *RedisCache) responsesKey(postID core.PostID) string {
	return fmt.Sprintf("aita:responses:%s", postID)
}

// Get loads the cached responses of a post
func (c *RedisCache) Get(ctx context.Context, postID core.PostID) ([]thread.Response, error) {
	data, err := c.client.Get(ctx, c.responsesKey(postID)).Result()
	if err == redis.Nil {
		return nil, core.ErrCacheMiss
	}
	if err != nil {
		return nil, errors.CacheError("redis get failed", err)
	}

	var responses []thread.Response
	if err := json.Unmarshal([]byte(data), &responses); err != nil {
		return nil, errors.CacheError(fmt.Sprintf("corrupt cache entry for %s", postID), err)
	}
	return responses, nil
}

// Put stores the responses with SETNX so only the first writer wins
func (c *RedisCache) Put(ctx context.Context, postID core.PostID, responses []thread.Response) error {
	if responses == nil {
		responses = []thread.Response{}
	}
	data, err := json.Marshal(responses)
	if err != nil {
		return errors.CacheError("failed to encode responses", err)
	}

	stored, err := c.client.SetNX(ctx, c.responsesKey(postID), data, c.ttl).Result()
	if err != nil {
		return errors.CacheError("redis setnx failed", err)
	}
	if !stored {
		return core.ErrAlreadyCached
	}
	return nil
}
