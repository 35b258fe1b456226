package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{
		client: client,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key not found")
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

func (s *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check cache existence: %w", err)
	}
	return val > 0, nil
}

// DeleteByPattern removes every key matching the pattern and reports how many went
func (s *CacheService) DeleteByPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan keys for %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("failed to delete keys for %s: %w", pattern, err)
	}
	return int64(len(keys)), nil
}

// Cache key generators
func PlayerPoolCacheKey(season string) string {
	return fmt.Sprintf("pool:%s", season)
}

func OptimizationCacheKey(fingerprint string) string {
	return fmt.Sprintf("optimization:%s", fingerprint)
}

func FormationCompareCacheKey(fingerprint string) string {
	return fmt.Sprintf("compare:%s", fingerprint)
}

// Cache with retry logic
func (s *CacheService) SetWithRetry(ctx context.Context, key string, value interface{}, expiration time.Duration, maxRetries int) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = s.Set(ctx, key, value, expiration); err == nil {
			return nil
		}
		logrus.Warnf("Cache set failed (attempt %d/%d): %v", i+1, maxRetries, err)
		time.Sleep(time.Millisecond * 100 * time.Duration(i+1))
	}
	return err
}

// Convenience methods without context (use background context)
func (s *CacheService) SetSimple(key string, value interface{}, expiration time.Duration) error {
	return s.Set(context.Background(), key, value, expiration)
}

func (s *CacheService) GetSimple(key string, dest interface{}) error {
	return s.Get(context.Background(), key, dest)
}

// Ping verifies the redis connection is alive
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stats reports key counts and client pool counters for the admin endpoint
func (s *CacheService) Stats(ctx context.Context) (map[string]interface{}, error) {
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache size: %w", err)
	}

	stats := map[string]interface{}{
		"keys": size,
	}

	// Key families operators care about
	if poolKeys, err := s.client.Keys(ctx, "pool:*").Result(); err == nil {
		stats["pool_keys"] = len(poolKeys)
	}
	if optimizationKeys, err := s.client.Keys(ctx, "optimization:*").Result(); err == nil {
		stats["optimization_keys"] = len(optimizationKeys)
	}
	if compareKeys, err := s.client.Keys(ctx, "compare:*").Result(); err == nil {
		stats["compare_keys"] = len(compareKeys)
	}

	poolStats := s.client.PoolStats()
	stats["hits"] = poolStats.Hits
	stats["misses"] = poolStats.Misses
	stats["total_conns"] = poolStats.TotalConns
	stats["idle_conns"] = poolStats.IdleConns
	return stats, nil
}

// Flush clears all cache entries
func (s *CacheService) Flush() error {
	return s.client.FlushDB(context.Background()).Err()
}
