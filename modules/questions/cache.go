package questions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	categoriesKey  = "categories"
	countKeyPrefix = "count:"
)

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Errors uint64 `json:"errors"`
}

// CachedSource is a cache-aside decorator for category metadata. Question
// queries always go to the provider since every call should draw a fresh
// random set.
type CachedSource struct {
	next   ContentSource
	client *redis.Client
	prefix string
	ttl    time.Duration
	group  singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
	errors atomic.Uint64
}

var _ ContentSource = (*CachedSource)(nil)

// NewCachedSource wraps next with a Redis cache.
func NewCachedSource(next ContentSource, client *redis.Client, prefix string, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:   next,
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Categories returns the cached category list, loading it on a miss.
func (c *CachedSource) Categories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if c.lookup(ctx, categoriesKey, &cats) {
		return cats, nil
	}

	v, err, _ := c.group.Do(categoriesKey, func() (any, error) {
		cats, err := c.next.Categories(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, categoriesKey, cats)
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Category), nil
}

// CategoryCount returns the cached count for a category.
func (c *CachedSource) CategoryCount(ctx context.Context, categoryID int) (CategoryCount, error) {
	key := countKeyPrefix + strconv.Itoa(categoryID)

	var count CategoryCount
	if c.lookup(ctx, key, &count) {
		return count, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		count, err := c.next.CategoryCount(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, count)
		return count, nil
	})
	if err != nil {
		return CategoryCount{}, err
	}
	return v.(CategoryCount), nil
}

// Questions bypasses the cache.
func (c *CachedSource) Questions(ctx context.Context, q QuestionQuery) (QuestionsResult, error) {
	return c.next.Questions(ctx, q)
}

// Stats returns a snapshot of the cache counters.
func (c *CachedSource) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errors.Load(),
	}
}

// Ping checks the Redis connection.
func (c *CachedSource) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// lookup reports a hit. Redis failures count as misses so the provider
// still answers.
func (c *CachedSource) lookup(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			c.misses.Add(1)
		} else {
			c.errors.Add(1)
			log.Printf("[questions] Cache get error for %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.errors.Add(1)
		log.Printf("[questions] Cache unmarshal error for %s: %v", key, err)
		return false
	}
	c.hits.Add(1)
	return true
}

func (c *CachedSource) store(ctx context.Context, key string, value any) {
	if err := c.set(ctx, key, value); err != nil {
		c.errors.Add(1)
		log.Printf("[questions] %v", err)
	}
}

func (c *CachedSource) set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}
