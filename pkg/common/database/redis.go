package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/synaptica-ai/mobility-risk/pkg/common/config"
	"github.com/synaptica-ai/mobility-risk/pkg/common/logger"
)

var (
	redisClient *redis.Client
	redisErr    error
	redisOnce   sync.Once
)

// GetRedis returns the shared client. The error reports a failed ping; the
// client is still returned so callers may decide to run degraded.
func GetRedis(cfg *config.Config) (*redis.Client, error) {
	redisOnce.Do(func() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if redisErr = redisClient.Ping(ctx).Err(); redisErr != nil {
			logger.Log.WithError(redisErr).Error("Failed to connect to Redis")
		} else {
			logger.Log.Info("Connected to Redis")
		}
	})

	return redisClient, redisErr
}

func CloseRedis() error {
	if redisClient != nil {
		return redisClient.Close()
	}
	return nil
}
