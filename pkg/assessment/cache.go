package assessment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/mobility-risk/pkg/common/models"
)

const cachePrefix = "risk:assessment:"

// Cache holds recently computed assessments keyed by CacheKey.
type Cache interface {
	Get(ctx context.Context, key string) (models.StoredAssessment, bool, error)
	Set(ctx context.Context, key string, value models.StoredAssessment) error
}

// CacheKey hashes the canonical JSON encoding of the input. Identical
// snapshots map to the same key.
func CacheKey(in models.RiskAssessmentInput) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.StoredAssessment, bool, error) {
	raw, err := c.client.Get(ctx, cachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.StoredAssessment{}, false, nil
	}
	if err != nil {
		return models.StoredAssessment{}, false, fmt.Errorf("cache get: %w", err)
	}

	var stored models.StoredAssessment
	if err := json.Unmarshal(raw, &stored); err != nil {
		return models.StoredAssessment{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return stored, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value models.StoredAssessment) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, cachePrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
