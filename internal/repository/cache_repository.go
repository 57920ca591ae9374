package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/campushub/timetable-api/pkg/errors"
)

// CacheRepository wraps redis for report caching.
type CacheRepository struct {
	client *redis.Client
}

// NewCacheRepository creates a new cache repository.
func NewCacheRepository(client *redis.Client) *CacheRepository {
	return &CacheRepository{client: client}
}

// Get fetches a cached value. A miss surfaces as ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.Clone(appErrors.ErrCacheMiss, fmt.Sprintf("key %s not cached", key))
		}
		return nil, appErrors.Wrap(err, "CACHE_GET_FAILED", http.StatusInternalServerError, "failed to read cache")
	}
	return value, nil
}

// Set stores a value with a TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return appErrors.Wrap(err, "CACHE_SET_FAILED", http.StatusInternalServerError, "failed to write cache")
	}
	return nil
}

// Delete removes specific keys.
func (r *CacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return appErrors.Wrap(err, "CACHE_DELETE_FAILED", http.StatusInternalServerError, "failed to delete cache keys")
	}
	return nil
}

// DeleteByPattern removes every key matching a glob pattern using SCAN so
// the server is never blocked by KEYS.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return appErrors.Wrap(err, "CACHE_SCAN_FAILED", http.StatusInternalServerError, "failed to scan cache keys")
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return appErrors.Wrap(err, "CACHE_DELETE_FAILED", http.StatusInternalServerError, "failed to delete cache keys")
	}
	return nil
}
