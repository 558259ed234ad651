package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EstimateCache guarda primas ya calculadas por version de modelo y digest del registro.
type EstimateCache interface {
	Get(key string) (float64, bool, error)
	Set(key string, premium float64, ttl time.Duration) error
}

// EstimateCacheKey arma la clave de cache. El digest sale de domain.FeatureRecord.Digest.
func EstimateCacheKey(modelVersion, digest string) string {
	return modelVersion + ":" + digest
}

type cachedEstimate struct {
	premium   float64
	expiresAt time.Time
}

type memoryEstimateCache struct {
	mu    sync.Mutex
	items map[string]cachedEstimate
}

func NewMemoryEstimateCache() EstimateCache {
	return &memoryEstimateCache{
		items: make(map[string]cachedEstimate),
	}
}

func (c *memoryEstimateCache) Get(key string) (float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok {
		return 0, false, nil
	}
	if time.Now().UTC().After(item.expiresAt) {
		delete(c.items, key)
		return 0, false, nil
	}
	return item.premium, true, nil
}

func (c *memoryEstimateCache) Set(key string, premium float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(key) == "" || ttl <= 0 {
		return nil
	}
	c.items[key] = cachedEstimate{premium: premium, expiresAt: time.Now().UTC().Add(ttl)}
	return nil
}

type redisKVClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisEstimateCache struct {
	client redisKVClient
	prefix string
}

func NewRedisEstimateCache(client *redis.Client) EstimateCache {
	if client == nil {
		return nil
	}
	return &redisEstimateCache{
		client: client,
		prefix: "premium:estimate:",
	}
}

func (c *redisEstimateCache) Get(key string) (float64, bool, error) {
	if strings.TrimSpace(key) == "" {
		return 0, false, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	raw, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func (c *redisEstimateCache) Set(key string, premium float64, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" || ttl <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	return c.client.Set(ctx, c.prefix+key, strconv.FormatFloat(premium, 'g', -1, 64), ttl).Err()
}
