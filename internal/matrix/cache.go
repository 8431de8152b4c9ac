package matrix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"

	"labroute/internal/metrics"
	"labroute/internal/solver"
)

// Cache is a read-through Redis cache in front of a provider. A matrix for a
// given coordinate list is stable for the TTL, so repeated solves over the
// same stop set skip the external call. Redis failures degrade to a direct
// provider call; they are logged, never surfaced.
type Cache struct {
	inner Provider
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCache(redisURL string, inner Provider, ttlMin int) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("matrix: redis url: %w", err)
	}
	if ttlMin <= 0 {
		ttlMin = 60
	}
	return &Cache{inner: inner, rdb: redis.NewClient(opt), ttl: time.Duration(ttlMin) * time.Minute}, nil
}

func (c *Cache) Name() string { return c.inner.Name() }

type cachedMatrix struct {
	TravelSec [][]int `json:"travelSec"`
	DistanceM [][]int `json:"distanceM"`
}

func (c *Cache) BuildMatrix(ctx context.Context, coords []Coord) (solver.Matrix, error) {
	key := cacheKey(c.inner.Name(), coords)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cm cachedMatrix
		if err := json.Unmarshal(raw, &cm); err == nil {
			metrics.MatrixCacheHits.Inc()
			return solver.Matrix{TravelSec: cm.TravelSec, DistanceM: cm.DistanceM}, nil
		}
	} else if err != redis.Nil {
		log.Printf("matrix cache: get %s: %v", key, err)
	}
	metrics.MatrixCacheMisses.Inc()
	m, err := c.inner.BuildMatrix(ctx, coords)
	if err != nil {
		return solver.Matrix{}, err
	}
	if raw, err := json.Marshal(cachedMatrix{TravelSec: m.TravelSec, DistanceM: m.DistanceM}); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Printf("matrix cache: set %s: %v", key, err)
		}
	}
	return m, nil
}

// cacheKey hashes the provider name and the coordinates rounded to ~0.1 m,
// so float noise does not fragment the cache.
func cacheKey(provider string, coords []Coord) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", provider)
	for _, c := range coords {
		fmt.Fprintf(h, "%.6f,%.6f\n", c.Lat, c.Lon)
	}
	return "labroute:matrix:" + hex.EncodeToString(h.Sum(nil))
}
