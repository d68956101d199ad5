package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nexusforge/console/pkg/common/config"
	"github.com/nexusforge/console/pkg/common/logger"
	"github.com/redis/go-redis/v9"
)

// OpenRedis connects and pings. A failed ping closes the client.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	return OpenRedisAddr(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
}

func OpenRedisAddr(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Log.WithError(err).Error("Failed to connect to Redis")
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}

	logger.Log.Debug("Connected to Redis")
	return client, nil
}
